package fake

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func simulated(t *testing.T) *Firestore {
	return newStore(t, animalsDB(), Options{SimulateQueryFilters: true})
}

func TestQueryOperators(t *testing.T) {
	ctx := context.Background()
	f := simulated(t)

	tests := []struct {
		field string
		op    string
		value any
		count int
	}{
		{"legCount", "==", 2, 2},
		{"legCount", "==", 4, 1},
		{"legCount", "==", 6, 1},
		{"legCount", "==", 7, 0},
		{"legCount", "!=", 7, 5},
		{"legCount", "!=", 4, 4},
		{"legCount", ">", 1000, 0},
		{"legCount", ">", 1, 4},
		{"legCount", ">", 6, 0},
		{"legCount", ">=", 6, 1},
		{"legCount", ">=", 0, 4},
		{"legCount", "<", -10000, 0},
		{"legCount", "<", 10000, 4},
		{"legCount", "<", 2, 0},
		{"legCount", "<", 6, 3},
		{"legCount", "<=", 2, 2},
		{"legCount", "<=", 6, 4},
		{"legCount", "in", []any{6, 2}, 3},
		{"legCount", "not-in", []any{6, 2}, 2},
		{"legCount", "not-in", []any{4}, 4},
		{"legCount", "not-in", []any{7}, 5},

		{"foodCount", "==", 0, 1},
		{"foodCount", "==", 1, 1},
		{"foodCount", "==", 6, 0},
		{"foodCount", ">", -1, 4},
		{"foodCount", ">", 0, 3},
		{"foodCount", ">", 4, 0},
		{"foodCount", ">=", 4, 1},
		{"foodCount", ">=", 0, 4},
		{"foodCount", "<", 2, 2},
		{"foodCount", "<=", 2, 3},
		{"foodCount", "in", []any{2, 0}, 2},
		{"foodCount", "not-in", []any{2, 0}, 2},

		{"type", "==", "mammal", 2},
		{"type", "==", "fish", 0},
		{"type", "!=", "bird", 3},
		{"type", "!=", "fish", 4},
		{"type", ">", "insect", 2},
		{"type", ">=", "insect", 3},
		{"type", "<", "mammal", 2},
		{"type", "<=", "bird", 1},
		{"type", "<=", "a", 0},
		{"type", "in", []string{"a", "bird", "mammal"}, 3},
		{"type", "not-in", []string{"a", "bird", "mammal"}, 1},

		{"food", "==", []any{"banana", "mango"}, 1},
		{"food", "==", []any{"mango", "banana"}, 0},
		{"food", "!=", []any{"banana", "peanut"}, 4},
		{"food", "array-contains", "banana", 2},
		{"food", "array-contains", "leaf", 2},
		{"food", "array-contains", "bread", 1},
		{"food", "array-contains-any", []any{"banana", "mango", "peanut"}, 2},

		{"foodEaten", "==", []int{500, 20}, 1},
		{"foodEaten", "==", []int{20, 500}, 0},
		{"foodEaten", "!=", []int{20, 500}, 4},
		{"foodEaten", "array-contains", 500, 2},
		{"foodEaten", "array-contains", 80, 2},
		{"foodEaten", "array-contains", 0, 1},
		{"foodEaten", "array-contains-any", []any{0, 11, 500}, 2},

		{"flags", "array-contains", false, 1},
		{"flags", "array-contains", true, 1},
		{"flags", "array-contains", 0, 0},
		{"flags", "array-contains-any", []any{false, true}, 2},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s %v", tt.field, tt.op, tt.value), func(t *testing.T) {
			snap, err := f.Collection("animals").Where(tt.field, tt.op, tt.value).Get(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.count, snap.Size())
		})
	}
}

func TestQueryEdgeValues(t *testing.T) {
	ctx := context.Background()
	f := simulated(t)
	animals := func() *CollectionRef { return f.Collection("animals") }

	snap, err := animals().Where("legCount", "==", nil).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"worm"}, ids(snap.Docs))

	snap, err = animals().Where("food", "==", false).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"pogo-stick"}, ids(snap.Docs))

	snap, err = animals().Where("appearance.color", "==", "brown").Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cow"}, ids(snap.Docs))

	snap, err = animals().Where("createdAt", "==", time.Unix(1628939129, 0)).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"elephant"}, ids(snap.Docs))

	snap, err = animals().Where("createdAt", ">", time.Unix(1628939129, 0)).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"chicken", "ant"}, ids(snap.Docs))

	snap, err = animals().Where(firestore.DocumentID, "in", []*DocumentRef{f.Doc("animals/cow"), f.Doc("animals/ant")}).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ant", "cow"}, ids(snap.Docs))
}

func TestQuerySelect(t *testing.T) {
	ctx := context.Background()
	f := simulated(t)

	snap, err := f.Collection("animals").Where("id", "==", "cow").Select("appearance.color").Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, snap.Size())
	cow := snap.Docs[0]
	assert.Equal(t, map[string]any{"color": "brown"}, cow.Data()["appearance"])
	assert.Equal(t, map[string]any{"color": "brown"}, cow.Get("appearance"))
	assert.Equal(t, "brown", cow.Get("appearance.color"))
	assert.Nil(t, cow.Get("name"))

	snap, err = f.Collection("animals").Where("id", "==", "cow").Select("size.height.shoulder").Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"size": map[string]any{}}, snap.Docs[0].Data())

	snap, err = f.Collection("animals").Where("id", "==", "cow").Select("appearance.color", "appearance.size").Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"color": "brown", "size": "large"}, snap.Docs[0].Data()["appearance"])
}

func TestQuerySelectIncludesID(t *testing.T) {
	ctx := context.Background()
	f := newStore(t, animalsDB(), Options{SimulateQueryFilters: true, IncludeIDsInData: true})

	snap, err := f.Collection("animals").Where("type", "==", "bird").Select("name").Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, snap.Size())
	assert.Equal(t, map[string]any{"id": "chicken", "name": "chicken"}, snap.Docs[0].Data())
}

func TestQueryInvalidFilters(t *testing.T) {
	ctx := context.Background()
	f := simulated(t)

	for _, op := range []string{">", ">=", "<", "<=", "array-contains", "array-contains-any", "in", "not-in"} {
		q := f.Collection("animals").Where("legCount", op, nil)
		var ife *InvalidFilterError
		require.ErrorAs(t, q.Err(), &ife, op)
		assert.Equal(t, op, ife.Op)
		assert.Equal(t, codes.InvalidArgument, status.Code(q.Err()))

		_, err := q.Get(ctx)
		assert.ErrorIs(t, err, q.Err())
	}
	for _, op := range []string{"==", "!="} {
		assert.NoError(t, f.Collection("animals").Where("legCount", op, nil).Err(), op)
	}
	assert.Error(t, f.Collection("animals").Where("legCount", "in", 2).Err())
	assert.Error(t, f.Collection("animals").Where("legCount", "~=", 2).Err())
}

func TestQueryBuildersReturnSameQuery(t *testing.T) {
	f := simulated(t)
	ref := f.Collection("animals")
	other := f.Collection("elsewise")

	assert.Same(t, ref.Query, ref.Where("type", "==", "mammal"))
	assert.Same(t, ref.Query, ref.Limit(1))
	assert.Same(t, ref.Query, ref.Offset(1))
	assert.Same(t, ref.Query, ref.OrderBy("type", firestore.Asc))
	assert.Same(t, ref.Query, ref.StartAt(nil))
	assert.Same(t, ref.Query, ref.StartAfter(nil))
	assert.Same(t, ref.Query, ref.Select("name"))
	assert.NotSame(t, other.Query, ref.Limit(1))
}

func TestQueryOrderOffsetLimit(t *testing.T) {
	ctx := context.Background()
	f := simulated(t)

	snap, err := f.Collection("animals").OrderBy("legCount", firestore.Desc).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ant", "elephant", "monkey", "chicken", "worm"}, ids(snap.Docs))

	snap, err = f.Collection("animals").OrderBy("legCount", firestore.Desc).Offset(1).Limit(2).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"elephant", "monkey"}, ids(snap.Docs))

	snap, err = f.Collection("animals").Where("type", "==", "mammal").Offset(2).Get(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Empty())

	args, ok := f.Log().LastArgs(OpOffset)
	require.True(t, ok)
	assert.Equal(t, []any{2}, args)
}

func TestQueryWithoutSimulation(t *testing.T) {
	ctx := context.Background()
	f := newStore(t, animalsDB(), Options{})

	snap, err := f.Collection("animals").Where("type", "==", "mammal").Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, snap.Size())

	args, ok := f.Log().LastArgs(OpWhere)
	require.True(t, ok)
	assert.Equal(t, []any{"type", "==", "mammal"}, args)

	snap, err = f.Collection("animals").Where("type", "==", "mammal").Limit(3).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"monkey", "elephant", "chicken"}, ids(snap.Docs))

	// Documents without the ordered field stay in the result and sort first.
	snap, err = f.Collection("animals").Where("type", "==", "mammal").OrderBy("legCount", firestore.Asc).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"worm", "pogo-stick", "cow", "monkey", "chicken", "elephant", "ant"}, ids(snap.Docs))

	snap, err = f.Collection("animals").OrderBy("createdAt", firestore.Desc).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ant", "chicken", "elephant", "monkey", "worm", "pogo-stick", "cow"}, ids(snap.Docs))
}

func TestSubcollectionQueries(t *testing.T) {
	ctx := context.Background()
	f := simulated(t)

	snap, err := f.Collection("animals").Doc("ant").Collection("foodSchedule").Where("interval", "==", "daily").Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Size())

	snap, err = f.Collection("animals").Doc("chicken").Collection("foodSchedule").Where("interval", "<=", "hourly").Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, snap.Size())
	leaf := snap.Docs[0]
	assert.Equal(t, "leaf", leaf.ID())
	assert.Equal(t, "hourly", leaf.Data()["interval"])
	assert.Equal(t, "animals/chicken/foodSchedule/leaf", leaf.Ref.Path)
}

func TestCollectionGroup(t *testing.T) {
	ctx := context.Background()
	f := simulated(t)

	snap, err := f.CollectionGroup("foodSchedule").Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 8, snap.Size())

	var paths []string
	for _, d := range snap.Docs {
		paths = append(paths, d.Ref.Path)
	}
	assert.ElementsMatch(t, []string{
		"nested/collections/have/lots/of/applications/foodSchedule/layer4_a",
		"nested/collections/have/lots/of/applications/foodSchedule/layer4_b",
		"animals/ant/foodSchedule/leaf",
		"animals/ant/foodSchedule/peanut",
		"animals/chicken/foodSchedule/leaf",
		"animals/chicken/foodSchedule/nut",
		"foodSchedule/ants",
		"foodSchedule/cows",
	}, paths)

	snap, err = f.CollectionGroup("foodSchedule").Where("interval", "==", "daily").Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Size())
}

func TestQueryDocumentsIterator(t *testing.T) {
	ctx := context.Background()
	f := simulated(t)

	it := f.Collection("animals").Where("type", "==", "mammal").Documents(ctx)
	var got []string
	for {
		d, err := it.Next()
		if err == iterator.Done {
			break
		}
		require.NoError(t, err)
		got = append(got, d.ID())
	}
	assert.Equal(t, []string{"monkey", "elephant"}, got)

	boom := errors.New("boom")
	f.Log().FailNext(OpGet, boom)
	_, err := f.Collection("animals").Documents(ctx).GetAll()
	assert.Same(t, boom, err)
}

func TestQueryInjectedResult(t *testing.T) {
	ctx := context.Background()
	f := simulated(t)

	canned := &QuerySnapshot{}
	f.Log().ReturnNext(OpGet, canned)
	snap, err := f.Collection("animals").Get(ctx)
	require.NoError(t, err)
	assert.Same(t, canned, snap)
}

func TestQuerySnapshotHelpers(t *testing.T) {
	ctx := context.Background()
	f := simulated(t)

	snap, err := f.Collection("animals").Where("type", "==", "mammal").Get(ctx)
	require.NoError(t, err)

	n := 0
	snap.ForEach(func(d *DocumentSnapshot) {
		assert.True(t, d.Exists())
		n++
	})
	assert.Equal(t, 2, n)

	changes := snap.DocChanges()
	require.Len(t, changes, 2)
	assert.Equal(t, firestore.DocumentAdded, changes[1].Kind)
	assert.Equal(t, -1, changes[1].OldIndex)
	assert.Equal(t, 1, changes[1].NewIndex)
}

func TestQueryOnSnapshot(t *testing.T) {
	f := newStore(t, animalsDB(), Options{SimulateQueryFilters: true, Mutable: true})
	q := f.Collection("animals").Where("type", "==", "mammal")

	var got *QuerySnapshot
	q.OnSnapshot(func(s *QuerySnapshot, err error) {
		require.NoError(t, err)
		got = s
	})
	_, err := f.Doc("animals/giraffe").Set(context.Background(), map[string]any{"type": "mammal"})
	require.NoError(t, err)
	assert.Nil(t, got)

	f.Flush()
	require.NotNil(t, got)
	assert.Equal(t, 3, got.Size())

	calls := 0
	unsubscribe := q.OnSnapshot(func(*QuerySnapshot, error) { calls++ })
	unsubscribe()
	f.Flush()
	assert.Zero(t, calls)
	assert.True(t, f.Log().Called(OpQueryUnsubscribe))
}
