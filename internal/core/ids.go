package core

import (
	"strconv"
	"time"
)

// maxIDAttempts bounds the retries when two records are created in the same
// millisecond.
const maxIDAttempts = 5

// newID returns prefix_<unix-millis>, with a numeric suffix after the first
// attempt.
func newID(prefix string, now time.Time, attempt int) string {
	id := prefix + "_" + strconv.FormatInt(now.UnixMilli(), 10)
	if attempt > 0 {
		id += "_" + strconv.Itoa(attempt)
	}
	return id
}
