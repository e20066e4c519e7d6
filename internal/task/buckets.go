package task

import (
	"sort"
	"time"
)

// BucketAndSort groups full histories by the latest status of each key and
// orders every bucket for presentation:
//
//	unfinished: due date ascending, undated last, key as tiebreak
//	snoozed:    snoozedUntil ascending, unset last, key as tiebreak
//	finished:   latest createdAt descending
func BucketAndSort(histories map[string][]Version) Buckets {
	var b Buckets
	for key, versions := range histories {
		if len(versions) == 0 {
			continue
		}
		h := History{Key: key, Versions: versions}
		switch h.Latest().Status {
		case StatusSnoozed:
			b.Snoozed = append(b.Snoozed, h)
		case StatusDone, StatusCanceled:
			b.Finished = append(b.Finished, h)
		default:
			b.Unfinished = append(b.Unfinished, h)
		}
	}

	sort.Slice(b.Unfinished, func(i, j int) bool {
		return lessByTime(b.Unfinished[i], b.Unfinished[j], func(v Version) *time.Time { return v.DueDate })
	})
	sort.Slice(b.Snoozed, func(i, j int) bool {
		return lessByTime(b.Snoozed[i], b.Snoozed[j], func(v Version) *time.Time { return v.SnoozedUntil })
	})
	sort.Slice(b.Finished, func(i, j int) bool {
		return b.Finished[i].Latest().CreatedAt.After(b.Finished[j].Latest().CreatedAt)
	})
	return b
}

// lessByTime orders by the extracted timestamp ascending with nil treated
// as +infinity, falling back to key order.
func lessByTime(a, b History, at func(Version) *time.Time) bool {
	ta, tb := at(a.Latest()), at(b.Latest())
	switch {
	case ta == nil && tb == nil:
		return a.Key < b.Key
	case ta == nil:
		return false
	case tb == nil:
		return true
	case ta.Equal(*tb):
		return a.Key < b.Key
	default:
		return ta.Before(*tb)
	}
}
