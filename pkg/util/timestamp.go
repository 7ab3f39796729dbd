package util

import "time"

// ToMillis converts t to unix milliseconds, the representation the managed
// store keeps on disk. Anything below a millisecond is dropped. The zero
// time has its own value far before the epoch, so every instant survives
// a round trip.
func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis is the inverse of ToMillis
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func ToMillisPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}

	ms := ToMillis(*t)
	return &ms
}

func FromMillisPtr(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}

	t := FromMillis(*ms)
	return &t
}
