package value

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

const timestampExtID = 7

func init() {
	msgpack.RegisterExt(timestampExtID, (*Timestamp)(nil))
}

func (t Timestamp) MarshalMsgpack() ([]byte, error) {
	b := make([]byte, 12)
	binary.BigEndian.PutUint64(b, uint64(t.Seconds))
	binary.BigEndian.PutUint32(b[8:], uint32(t.Nanoseconds))
	return b, nil
}

func (t *Timestamp) UnmarshalMsgpack(b []byte) error {
	if len(b) != 12 {
		return fmt.Errorf("timestamp: invalid length %d", len(b))
	}
	t.Seconds = int64(binary.BigEndian.Uint64(b))
	t.Nanoseconds = int32(binary.BigEndian.Uint32(b[8:]))
	return nil
}

// FromStruct converts a struct (or pointer to struct) into a document field
// map. Field names come from `msgpack` tags, falling back to `firestore`
// tags and then to the Go field name.
func FromStruct(v any) (map[string]any, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("firestore")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	dec := msgpack.NewDecoder(&buf)
	dec.SetCustomStructTag("firestore")
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode %T: %w", v, err)
	}
	out, err := NormalizeMap(m)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DataTo populates dst, a pointer to a struct or map, from document fields.
// Timestamps are delivered as time.Time.
func DataTo(fields map[string]any, dst any) error {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("firestore")
	if err := enc.Encode(timesFor(fields)); err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	dec := msgpack.NewDecoder(&buf)
	dec.SetCustomStructTag("firestore")
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode into %T: %w", dst, err)
	}
	return nil
}

func timesFor(v any) any {
	switch x := v.(type) {
	case Timestamp:
		return x.ToTime()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = timesFor(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = timesFor(e)
		}
		return out
	}
	return v
}
