package store

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Timestamps are stored as bson.DateTime: signed milliseconds since the Unix
// epoch. Wall-clock values lose sub-millisecond precision on the way in.

// NativeTime converts a wall-clock time to the store representation.
func NativeTime(t time.Time) bson.DateTime {
	return bson.NewDateTimeFromTime(t)
}

// WallTime converts a store timestamp back to a UTC time.Time.
func WallTime(dt bson.DateTime) time.Time {
	return time.UnixMilli(int64(dt)).UTC()
}

// NativeTimePtr maps nil to nil.
func NativeTimePtr(t *time.Time) *bson.DateTime {
	if t == nil {
		return nil
	}
	dt := NativeTime(*t)
	return &dt
}

// WallTimePtr maps nil to nil.
func WallTimePtr(dt *bson.DateTime) *time.Time {
	if dt == nil {
		return nil
	}
	t := WallTime(*dt)
	return &t
}

// Millis converts a duration given in seconds to milliseconds.
func Millis(seconds int64) int64 {
	return seconds * int64(time.Second/time.Millisecond)
}
