package fake

import (
	"cloud.google.com/go/firestore"

	"github.com/alimasry/firestore-fake/value"
)

// Filter operators accepted by Query.Where.
const (
	opEqual            = "=="
	opNotEqual         = "!="
	opLess             = "<"
	opLessEqual        = "<="
	opGreater          = ">"
	opGreaterEqual     = ">="
	opArrayContains    = "array-contains"
	opArrayContainsAny = "array-contains-any"
	opIn               = "in"
	opNotIn            = "not-in"
)

type filter struct {
	path string
	op   string
	val  any
}

func newFilter(path, op string, v any) (filter, error) {
	if path == firestore.DocumentID {
		v = refIDs(v)
	}
	n, err := value.Normalize(v)
	if err != nil {
		return filter{}, &InvalidFilterError{Field: path, Op: op, Value: v, Reason: err.Error()}
	}
	invalid := func(reason string) (filter, error) {
		return filter{}, &InvalidFilterError{Field: path, Op: op, Value: v, Reason: reason}
	}
	switch op {
	case opEqual, opNotEqual:
	case opLess, opLessEqual, opGreater, opGreaterEqual, opArrayContains:
		if n == nil {
			return invalid("null is not a valid comparison value")
		}
	case opIn, opNotIn, opArrayContainsAny:
		if n == nil {
			return invalid("null is not a valid comparison value")
		}
		if _, ok := n.([]any); !ok {
			return invalid("operator requires an array operand")
		}
	default:
		return invalid("unsupported operator")
	}
	return filter{path: path, op: op, val: n}, nil
}

// refIDs replaces document references by their ids, the form document-id
// filters compare against.
func refIDs(v any) any {
	switch x := v.(type) {
	case *DocumentRef:
		if x != nil {
			return x.ID
		}
	case []*DocumentRef:
		out := make([]any, len(x))
		for i, r := range x {
			out[i] = refIDs(r)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = refIDs(e)
		}
		return out
	}
	return v
}

// fieldValue resolves a filter or order path on a record. The document id is
// reachable as firestore.DocumentID, and as "id" unless a stored field of
// that name shadows it.
func fieldValue(rec *Record, path string) (any, bool) {
	if path == firestore.DocumentID {
		return rec.ID, true
	}
	if v, ok := value.Lookup(rec.Fields, path); ok {
		return v, true
	}
	if path == "id" {
		return rec.ID, true
	}
	return nil, false
}

// matches reports whether rec satisfies f. Absent fields match nothing.
func (f filter) matches(rec *Record) bool {
	got, ok := fieldValue(rec, f.path)
	if !ok {
		return false
	}
	switch f.op {
	case opEqual:
		return value.Equal(got, f.val)
	case opNotEqual:
		return !value.Equal(got, f.val)
	case opLess, opLessEqual, opGreater, opGreaterEqual:
		c, ok := value.Compare(got, f.val)
		if !ok {
			return false
		}
		switch f.op {
		case opLess:
			return c < 0
		case opLessEqual:
			return c <= 0
		case opGreater:
			return c > 0
		}
		return c >= 0
	case opArrayContains:
		arr, ok := got.([]any)
		return ok && contains(arr, f.val)
	case opArrayContainsAny:
		arr, ok := got.([]any)
		if !ok {
			return false
		}
		for _, want := range f.val.([]any) {
			if contains(arr, want) {
				return true
			}
		}
		return false
	case opIn:
		return contains(f.val.([]any), got)
	case opNotIn:
		return !contains(f.val.([]any), got)
	}
	return false
}

func contains(arr []any, v any) bool {
	for _, e := range arr {
		if value.Equal(e, v) {
			return true
		}
	}
	return false
}
