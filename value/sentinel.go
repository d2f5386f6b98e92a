package value

// SentinelKind identifies the transform a FieldValue applies at write time.
type SentinelKind string

const (
	KindDelete          SentinelKind = "delete"
	KindIncrement       SentinelKind = "increment"
	KindArrayUnion      SentinelKind = "arrayUnion"
	KindArrayRemove     SentinelKind = "arrayRemove"
	KindServerTimestamp SentinelKind = "serverTimestamp"
)

// FieldValue is a marker placed in write data. The store resolves it against
// the currently stored value of the same field before committing.
type FieldValue struct {
	kind    SentinelKind
	operand any
}

func Delete() *FieldValue          { return &FieldValue{kind: KindDelete} }
func ServerTimestamp() *FieldValue { return &FieldValue{kind: KindServerTimestamp} }

// Increment adds n to the stored number. A missing or non-numeric field is
// treated as zero. A non-numeric n is kept as given and fails the write.
func Increment(n any) *FieldValue {
	v, err := Normalize(n)
	if err != nil {
		v = n
	}
	return &FieldValue{kind: KindIncrement, operand: v}
}

// ArrayUnion appends each element not already present in the stored array.
func ArrayUnion(elems ...any) *FieldValue {
	return &FieldValue{kind: KindArrayUnion, operand: normalizeElems(elems)}
}

// ArrayRemove removes every occurrence of each element from the stored array.
func ArrayRemove(elems ...any) *FieldValue {
	return &FieldValue{kind: KindArrayRemove, operand: normalizeElems(elems)}
}

func normalizeElems(elems []any) []any {
	out := make([]any, 0, len(elems))
	for _, e := range elems {
		if v, err := Normalize(e); err == nil {
			out = append(out, v)
		}
	}
	return out
}

func (f *FieldValue) Kind() SentinelKind { return f.kind }
func (f *FieldValue) Operand() any       { return f.operand }

func (f *FieldValue) IsEqual(other *FieldValue) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.kind != other.kind {
		return false
	}
	if f.operand == nil || other.operand == nil {
		return f.operand == nil && other.operand == nil
	}
	return Equal(f.operand, other.operand)
}

// Resolve computes the value to store given the current stored value.
// ok is false when the field must be removed.
func (f *FieldValue) Resolve(existing any, exists bool, now Timestamp) (v any, ok bool) {
	switch f.kind {
	case KindDelete:
		return nil, false
	case KindServerTimestamp:
		return now, true
	case KindIncrement:
		if !exists || !isNumber(existing) {
			return f.operand, true
		}
		return addNumbers(existing, f.operand), true
	case KindArrayUnion:
		arr, _ := existing.([]any)
		out := Clone(arr).([]any)
		if out == nil {
			out = []any{}
		}
		for _, e := range f.operand.([]any) {
			if !containsEqual(out, e) {
				out = append(out, Clone(e))
			}
		}
		return out, true
	case KindArrayRemove:
		arr, _ := existing.([]any)
		out := make([]any, 0, len(arr))
		for _, e := range arr {
			if !containsEqual(f.operand.([]any), e) {
				out = append(out, Clone(e))
			}
		}
		return out, true
	}
	return nil, false
}

func containsEqual(arr []any, v any) bool {
	for _, e := range arr {
		if Equal(e, v) {
			return true
		}
	}
	return false
}

func addNumbers(a, b any) any {
	ai, aInt := a.(int64)
	bi, bInt := b.(int64)
	if aInt && bInt {
		return ai + bi
	}
	af, _ := toFloat64(a)
	bf, _ := toFloat64(b)
	return af + bf
}
