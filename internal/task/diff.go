package task

import (
	"strings"
	"time"
)

// Diff compares two consecutive versions of the same key and returns one
// descriptor per changed field, in a fixed field order. Each descriptor
// carries the rendered new value; the history view shows what a field
// changed to, not from. List fields compare element-wise and
// order-sensitively. An empty result means "no changes".
func Diff(prev, curr Version) []Change {
	var changes []Change
	add := func(field, value string) {
		changes = append(changes, Change{Field: field, Value: value})
	}

	if prev.Content != curr.Content {
		add("content", curr.Content)
	}
	if prev.Priority != curr.Priority {
		add("priority", valueOrNone(curr.Priority))
	}
	if prev.Status != curr.Status {
		add("status", string(curr.Status))
	}
	if !equalTime(prev.DueDate, curr.DueDate) {
		add("due", renderTime(curr.DueDate))
	}
	if !equalTime(prev.SnoozedUntil, curr.SnoozedUntil) {
		add("snoozed until", renderTime(curr.SnoozedUntil))
	}
	if !equalList(prev.Tags, curr.Tags) {
		add("tags", renderList(curr.Tags))
	}
	if !equalList(prev.Contexts, curr.Contexts) {
		add("contexts", renderList(curr.Contexts))
	}
	if !equalList(prev.Projects, curr.Projects) {
		add("projects", renderList(curr.Projects))
	}
	return changes
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func equalList(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// renderTime keeps history lines short: midnight timestamps show the date
// only.
func renderTime(t *time.Time) string {
	if t == nil {
		return "none"
	}
	if t.Hour() == 0 && t.Minute() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04")
}

func renderList(list []string) string {
	if len(list) == 0 {
		return "none"
	}
	return strings.Join(list, ", ")
}

func valueOrNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}
