// Package value defines the closed set of values a document field can hold
// and the comparison rules the query engine applies to them.
//
// Stored values are always in canonical form: nil, bool, int64, float64,
// string, Timestamp, []any, or map[string]any. *FieldValue sentinels may
// appear in write data but are never stored.
package value

import (
	"cmp"
	"math"
	"reflect"
	"slices"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies a canonical value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindTimestamp
	KindString
	KindArray
	KindMap
	KindSentinel
	KindInvalid
)

// KindOf reports the kind of a canonical value. The numeric order of kinds is
// the cross-type ordering used by Order.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case int64, float64:
		return KindNumber
	case Timestamp:
		return KindTimestamp
	case string:
		return KindString
	case []any:
		return KindArray
	case map[string]any:
		return KindMap
	case *FieldValue:
		return KindSentinel
	}
	return KindInvalid
}

var timeType = reflect.TypeOf(time.Time{})

// Normalize converts a Go value into canonical form. It returns an
// InvalidArgument status error for values that cannot be stored.
func Normalize(v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case bool, string, int64, float64, Timestamp:
		return x, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint:
		return int64(x), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return float64(x), nil
		}
		return int64(x), nil
	case float32:
		return float64(x), nil
	case *Timestamp:
		if x == nil {
			return nil, nil
		}
		return *x, nil
	case time.Time:
		return FromTime(x), nil
	case *time.Time:
		if x == nil {
			return nil, nil
		}
		return FromTime(*x), nil
	case *FieldValue:
		if x.kind == KindIncrement && !isNumber(x.operand) {
			return nil, status.Errorf(codes.InvalidArgument, "increment needs a numeric operand, got %T", x.operand)
		}
		return x, nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			n, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			n, err := Normalize(e)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	}
	if v == firestore.Delete {
		return Delete(), nil
	}
	if v == firestore.ServerTimestamp {
		return ServerTimestamp(), nil
	}
	return normalizeReflect(reflect.ValueOf(v))
}

func normalizeReflect(rv reflect.Value) (any, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return Normalize(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil, status.Errorf(codes.InvalidArgument, "byte slices are not supported")
		}
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			n, err := Normalize(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, status.Errorf(codes.InvalidArgument, "map keys must be strings, got %s", rv.Type().Key())
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			n, err := Normalize(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = n
		}
		return out, nil
	case reflect.Struct:
		if rv.Type() == timeType {
			return FromTime(rv.Interface().(time.Time)), nil
		}
		return FromStruct(rv.Interface())
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if u := rv.Uint(); u <= math.MaxInt64 {
			return int64(u), nil
		}
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return nil, status.Errorf(codes.InvalidArgument, "unsupported value type %s", rv.Type())
}

// NormalizeMap normalizes every field of data into a fresh map.
func NormalizeMap(data map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(data))
	for k, v := range data {
		n, err := Normalize(v)
		if err != nil {
			return nil, err
		}
		out[k] = n
	}
	return out, nil
}

// Clone deep-copies arrays and maps. Scalars are returned as is.
func Clone(v any) any {
	switch x := v.(type) {
	case []any:
		if x == nil {
			return []any(nil)
		}
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Clone(e)
		}
		return out
	case map[string]any:
		return CloneMap(x)
	}
	return v
}

func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, e := range m {
		out[k] = Clone(e)
	}
	return out
}

func isNumber(v any) bool {
	_, ok := toFloat64(v)
	return ok
}

func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// Equal reports deep equality of two canonical values. Integers and doubles
// compare numerically and arrays are order-sensitive.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case int64:
		if y, ok := b.(int64); ok {
			return x == y
		}
		y, ok := b.(float64)
		return ok && float64(x) == y
	case float64:
		y, ok := toFloat64(b)
		return ok && x == y
	case Timestamp:
		y, ok := b.(Timestamp)
		return ok && x.IsEqual(y)
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	case *FieldValue:
		y, ok := b.(*FieldValue)
		return ok && x.IsEqual(y)
	case bool, string:
		return a == b
	}
	return false
}

// Compare orders two values of the same comparable class (numbers, strings,
// timestamps, booleans). ok is false when the values cannot be range-compared.
func Compare(a, b any) (c int, ok bool) {
	switch x := a.(type) {
	case int64, float64:
		xf, _ := toFloat64(x)
		yf, ok := toFloat64(b)
		if !ok {
			return 0, false
		}
		if xi, isInt := x.(int64); isInt {
			if yi, isInt := b.(int64); isInt {
				return cmp.Compare(xi, yi), true
			}
		}
		return cmp.Compare(xf, yf), true
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case Timestamp:
		y, ok := b.(Timestamp)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

// Order is a total order over canonical values: values of different kinds
// sort by kind (null, bool, number, timestamp, string, array, map), values of
// the same kind by their natural order.
func Order(a, b any) int {
	ka, kb := KindOf(a), KindOf(b)
	if ka != kb {
		return cmp.Compare(ka, kb)
	}
	switch ka {
	case KindNull:
		return 0
	case KindArray:
		x, y := a.([]any), b.([]any)
		for i := 0; i < len(x) && i < len(y); i++ {
			if c := Order(x[i], y[i]); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(x), len(y))
	case KindMap:
		x, y := a.(map[string]any), b.(map[string]any)
		xk, yk := sortedKeys(x), sortedKeys(y)
		for i := 0; i < len(xk) && i < len(yk); i++ {
			if c := strings.Compare(xk[i], yk[i]); c != 0 {
				return c
			}
			if c := Order(x[xk[i]], y[yk[i]]); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(xk), len(yk))
	}
	c, _ := Compare(a, b)
	return c
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
