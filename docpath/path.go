// Package docpath models slash-delimited database addresses.
//
// A path with an odd number of segments names a collection, a path with an
// even (non-zero) number of segments names a document.
package docpath

import (
	"errors"
	"strings"
)

// ErrEmptySegment is returned by Parse for empty strings and for paths with
// leading, trailing or doubled slashes.
var ErrEmptySegment = errors.New("path contains an empty segment")

// Path is an ordered sequence of non-empty segments.
type Path []string

// New builds a path from segments. Segments are not validated.
func New(segments ...string) Path {
	p := make(Path, len(segments))
	copy(p, segments)
	return p
}

// Parse splits s on "/" and rejects empty segments.
func Parse(s string) (Path, error) {
	if s == "" {
		return nil, ErrEmptySegment
	}
	segs := strings.Split(s, "/")
	for _, seg := range segs {
		if seg == "" {
			return nil, ErrEmptySegment
		}
	}
	return Path(segs), nil
}

func (p Path) String() string { return strings.Join(p, "/") }

// ID returns the last segment, or "" for the empty path.
func (p Path) ID() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// Parent returns p without its last segment.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return New(p[:len(p)-1]...)
}

// Child returns a new path with segs appended; p is not modified.
func (p Path) Child(segs ...string) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}

func (p Path) IsDocument() bool   { return len(p) > 0 && len(p)%2 == 0 }
func (p Path) IsCollection() bool { return len(p)%2 == 1 }

// Compare orders paths segment by segment; when one path is a prefix of the
// other the shorter one sorts first.
func (p Path) Compare(other Path) int {
	n := min(len(p), len(other))
	for i := 0; i < n; i++ {
		if c := strings.Compare(p[i], other[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(p) < len(other):
		return -1
	case len(p) > len(other):
		return 1
	}
	return 0
}

func (p Path) Equal(other Path) bool {
	return p.Compare(other) == 0
}
