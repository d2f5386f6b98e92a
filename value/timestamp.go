package value

import (
	"fmt"
	"time"
)

// Timestamp is a point in time with nanosecond precision, stored as whole
// seconds since the Unix epoch plus a non-negative nanosecond offset.
type Timestamp struct {
	Seconds     int64 `msgpack:"seconds" yaml:"seconds"`
	Nanoseconds int32 `msgpack:"nanoseconds" yaml:"nanoseconds"`
}

func NewTimestamp(seconds int64, nanoseconds int32) Timestamp {
	return Timestamp{Seconds: seconds, Nanoseconds: nanoseconds}
}

// FromMillis floors towards negative infinity so that pre-epoch instants keep
// a non-negative nanosecond part: -54001ms is {-55, 999000000}.
func FromMillis(ms int64) Timestamp {
	sec := ms / 1000
	rem := ms % 1000
	if rem < 0 {
		sec--
		rem += 1000
	}
	return Timestamp{Seconds: sec, Nanoseconds: int32(rem * int64(time.Millisecond))}
}

func FromTime(t time.Time) Timestamp {
	return Timestamp{Seconds: t.Unix(), Nanoseconds: int32(t.Nanosecond())}
}

// Now reads the wall clock. Stores use their own injectable clock instead.
func Now() Timestamp { return FromTime(time.Now()) }

func (t Timestamp) ToMillis() int64 {
	return t.Seconds*1000 + int64(t.Nanoseconds)/int64(time.Millisecond)
}

func (t Timestamp) ToTime() time.Time {
	return time.Unix(t.Seconds, int64(t.Nanoseconds)).UTC()
}

func (t Timestamp) IsEqual(other Timestamp) bool {
	return t.Seconds == other.Seconds && t.Nanoseconds == other.Nanoseconds
}

func (t Timestamp) Compare(other Timestamp) int {
	switch {
	case t.Seconds < other.Seconds:
		return -1
	case t.Seconds > other.Seconds:
		return 1
	case t.Nanoseconds < other.Nanoseconds:
		return -1
	case t.Nanoseconds > other.Nanoseconds:
		return 1
	}
	return 0
}

func (t Timestamp) String() string {
	return fmt.Sprintf("Timestamp(seconds=%d, nanoseconds=%d)", t.Seconds, t.Nanoseconds)
}
