package task

import (
	"fmt"
	"time"
)

// AllocateKey assigns the daily-sequenced identifier for a newly created
// task: T-YYYYMMDD-NN, where NN is existingCountForDay+1 zero-padded to two
// digits. Past 99 tasks a day the sequence keeps growing unpadded.
//
// existingCountForDay comes from the store (tasks first created within the
// calendar day of now, per tenant). The count-then-insert pair is not
// atomic; callers must treat a uniqueness violation on insert as a signal
// to re-read the count and retry.
func AllocateKey(now time.Time, existingCountForDay int) string {
	return fmt.Sprintf("T-%s-%02d", now.Format("20060102"), existingCountForDay+1)
}

// DayRange returns the [start, end) bounds of now's calendar day in now's
// location, the window CountCreatedWithin is queried with.
func DayRange(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}
