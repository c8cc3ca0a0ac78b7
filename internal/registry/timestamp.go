package registry

import "time"

// Timestamp is a {seconds, nanos} pair for round-tripping timestamps
// exchanged with external stores — the same shape as the standard
// protobuf wire timestamp, without taking a dependency on it.
type Timestamp struct {
	Seconds int64
	Nanos   int32
}

// TimestampFromTime converts t to the wire-compatible pair.
func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp{Seconds: t.Unix(), Nanos: int32(t.Nanosecond())}
}

// Time converts the wire pair back to a time.Time (UTC).
func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Seconds, int64(ts.Nanos)).UTC()
}

// Before reports whether ts is strictly earlier than other.
func (ts Timestamp) Before(other Timestamp) bool {
	if ts.Seconds != other.Seconds {
		return ts.Seconds < other.Seconds
	}
	return ts.Nanos < other.Nanos
}
