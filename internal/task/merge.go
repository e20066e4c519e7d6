package task

import "time"

// Merge reduces the previous latest version and a freshly parsed edit into
// the next version. latest == nil means creation. The field policy:
//
//   - content, priority, dueDate, status: replace when the edit supplies a
//     value, carry forward otherwise
//   - tags, contexts: additive, appended after the existing entries without
//     deduplication
//   - projects: full replace when the edit supplies any project
//   - snoozedUntil: set when the edit parsed one, cleared when the status
//     moves away from snoozed, carried forward otherwise
//
// Merge never mutates latest.
func Merge(latest *Version, edit Fields, now time.Time) Version {
	if latest == nil {
		return createVersion(edit, now)
	}

	next := *latest
	next.CreatedAt = now
	next.Tags = copyList(latest.Tags)
	next.Contexts = copyList(latest.Contexts)
	next.Projects = copyList(latest.Projects)

	if edit.Content != "" {
		next.Content = edit.Content
	}
	if edit.Priority != nil {
		next.Priority = *edit.Priority
	}
	if edit.DueDate != nil {
		next.DueDate = edit.DueDate
	}
	if edit.Status != nil {
		next.Status = *edit.Status
	}
	next.Tags = append(next.Tags, edit.Tags...)
	next.Contexts = append(next.Contexts, edit.Contexts...)
	if len(edit.Projects) > 0 {
		next.Projects = copyList(edit.Projects)
	}

	switch {
	case edit.SnoozedUntil != nil:
		next.SnoozedUntil = edit.SnoozedUntil
	case next.Status != StatusSnoozed:
		next.SnoozedUntil = nil
	}

	next.CompletedAt = completedAt(latest, next.Status, now)
	return next
}

func createVersion(edit Fields, now time.Time) Version {
	v := Version{
		Content:      edit.Content,
		Tags:         copyList(edit.Tags),
		Contexts:     copyList(edit.Contexts),
		Projects:     copyList(edit.Projects),
		Status:       StatusNew,
		DueDate:      edit.DueDate,
		SnoozedUntil: edit.SnoozedUntil,
		CreatedAt:    now,
	}
	if edit.Priority != nil {
		v.Priority = *edit.Priority
	}
	if edit.Status != nil {
		v.Status = *edit.Status
	}
	v.CompletedAt = completedAt(nil, v.Status, now)
	return v
}

// completedAt stamps entry into a terminal status and clears on reopening.
// A version that stays terminal keeps the original stamp.
func completedAt(latest *Version, status Status, now time.Time) *time.Time {
	if status != StatusDone && status != StatusCanceled {
		return nil
	}
	if latest != nil && latest.CompletedAt != nil &&
		(latest.Status == StatusDone || latest.Status == StatusCanceled) {
		return latest.CompletedAt
	}
	return &now
}

func copyList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
