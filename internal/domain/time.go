package domain

import (
	"database/sql"
	"time"
)

// CoreTimeOffset is the number of seconds between the Core Data reference
// date (2001-01-01) and the Unix epoch. Notes timestamps are stored as
// seconds since the reference date.
const CoreTimeOffset = 978307200

// DecodeTime converts a Core Data timestamp to unix milliseconds. A
// zero or negative value decodes to the current time: an entity with no
// recorded time is stamped "now" rather than 1970 or 2001.
func DecodeTime(raw float64) int64 {
	if raw < 1 {
		return time.Now().UnixMilli()
	}
	return int64((raw + CoreTimeOffset) * 1000)
}

// DecodeNullTime is DecodeTime over a nullable column; NULL counts as
// missing.
func DecodeNullTime(raw sql.NullFloat64) int64 {
	if !raw.Valid {
		return DecodeTime(0)
	}
	return DecodeTime(raw.Float64)
}
