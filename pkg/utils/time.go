package utils

import "time"

// NowUnixMillis returns the current time in Unix milliseconds. Soft-delete
// markers and join-row revocations are stamped with it.
func NowUnixMillis() int64 {
	return time.Now().UnixMilli()
}
