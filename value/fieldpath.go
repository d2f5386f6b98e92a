package value

import "strings"

// SplitField splits a dotted field path such as "appearance.color".
func SplitField(path string) []string {
	return strings.Split(path, ".")
}

// Lookup resolves a dotted field path through nested maps. ok is false when
// any segment is missing or an intermediate value is not a map.
func Lookup(fields map[string]any, path string) (v any, ok bool) {
	cur := any(fields)
	for _, seg := range SplitField(path) {
		m, isMap := cur.(map[string]any)
		if !isMap {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// SetPath stores v at a dotted path, replacing non-map intermediates.
func SetPath(fields map[string]any, path string, v any) {
	segs := SplitField(path)
	cur := fields
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[seg] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = v
}

// DeletePath removes the value at a dotted path if present.
func DeletePath(fields map[string]any, path string) {
	segs := SplitField(path)
	cur := fields
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			return
		}
		cur = next
	}
	delete(cur, segs[len(segs)-1])
}

// Project keeps only the listed field paths. A nested path whose leaf is
// absent still yields an empty object for its top-level field, the way the
// real database answers a projection on a missing nested field.
func Project(fields map[string]any, paths []string) map[string]any {
	out := make(map[string]any)
	for _, p := range paths {
		if v, ok := Lookup(fields, p); ok {
			SetPath(out, p, Clone(v))
			continue
		}
		segs := SplitField(p)
		if len(segs) > 1 {
			if _, ok := out[segs[0]].(map[string]any); !ok {
				out[segs[0]] = make(map[string]any)
			}
		}
	}
	return out
}
