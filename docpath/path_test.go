package docpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	p, err := Parse("characters/bob/family")
	require.NoError(t, err)
	assert.Equal(t, Path{"characters", "bob", "family"}, p)
	assert.True(t, p.IsCollection())
	assert.Equal(t, "family", p.ID())
	assert.Equal(t, "characters/bob", p.Parent().String())

	for _, bad := range []string{"", "/", "/a", "a/", "a//b"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrEmptySegment, "path %q", bad)
	}
}

func TestCompare(t *testing.T) {
	path1 := New("abc", "def", "ghij")
	path2 := New("abc", "def", "ghik")
	path3 := New("abc", "def", "ghi")
	path4 := New("abc", "def")
	path5 := New("abc", "def")
	path6 := New("abc", "def", "ghi", "klm")

	assert.Equal(t, -1, path1.Compare(path2))
	assert.Equal(t, 1, path1.Compare(path3))
	assert.Equal(t, 1, path1.Compare(path4))
	assert.Equal(t, 0, path4.Compare(path5))
	assert.Equal(t, -1, path6.Compare(path1))
	assert.Equal(t, -1, path3.Compare(path6))
}

func TestEqual(t *testing.T) {
	a := New("collection", "doc1")
	b := New("collection", "doc2")
	assert.True(t, a.Equal(a))
	assert.True(t, b.Equal(New("collection", "doc2")))
	assert.False(t, a.Equal(b))
}

func TestChildDoesNotAlias(t *testing.T) {
	base := make(Path, 1, 4)
	base[0] = "users"
	a := base.Child("a")
	b := base.Child("b")
	assert.Equal(t, "users/a", a.String())
	assert.Equal(t, "users/b", b.String())
	assert.True(t, a.IsDocument())
}
