package fake

// Converter maps between application types and document fields. A reference
// or query carrying a converter passes write inputs through ToFirestore and
// exposes FromFirestore results through DocumentSnapshot.Converted.
type Converter interface {
	ToFirestore(v any) (map[string]any, error)
	FromFirestore(snap *DocumentSnapshot) (any, error)
}

// ConverterFuncs adapts a pair of functions to Converter. A nil function
// passes values through unchanged.
type ConverterFuncs struct {
	To   func(v any) (map[string]any, error)
	From func(snap *DocumentSnapshot) (any, error)
}

func (c ConverterFuncs) ToFirestore(v any) (map[string]any, error) {
	if c.To == nil {
		return toFields(v)
	}
	return c.To(v)
}

func (c ConverterFuncs) FromFirestore(snap *DocumentSnapshot) (any, error) {
	if c.From == nil {
		return snap.Data(), nil
	}
	return c.From(snap)
}
