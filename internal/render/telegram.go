// Package render formats histories and bucket summaries for a chat
// transport. Output is plain text with emoji markers, trimmed to the
// message size the transport accepts.
package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/akarpov/tasklog/internal/task"
)

const maxChars = 3800

// Annotation is a note or image entry interleaved into a history page.
type Annotation struct {
	Icon      string
	Text      string
	CreatedAt time.Time
}

func NoteAnnotation(text string, createdAt time.Time) Annotation {
	return Annotation{Icon: "📝", Text: text, CreatedAt: createdAt}
}

func ImageAnnotation(caption string, createdAt time.Time) Annotation {
	text := strings.TrimSpace(caption)
	if text == "" {
		text = "(image)"
	}
	return Annotation{Icon: "🖼", Text: text, CreatedAt: createdAt}
}

func trimOutput(s string) string {
	s = strings.TrimRight(s, "\n")
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	suffix := "\n… (truncated)"
	suffixRunes := []rune(suffix)
	limit := maxChars - len(suffixRunes)
	if limit < 1 {
		return string(runes[:maxChars])
	}
	return string(runes[:limit]) + suffix
}

// HistoryLine renders one version's narrative. The first version of a chain
// always reads "created: <content>"; later versions list what changed, one
// "field: new value" pair per changed field.
func HistoryLine(prev *task.Version, curr task.Version) string {
	if prev == nil {
		return "created: " + curr.Content
	}
	changes := task.Diff(*prev, curr)
	if len(changes) == 0 {
		return "no changes"
	}
	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		parts = append(parts, c.Field+": "+c.Value)
	}
	return strings.Join(parts, "; ")
}

// HistoryPage renders the full change narrative of one key, with note and
// image annotations interleaved chronologically.
func HistoryPage(key string, versions []task.Version, annotations []Annotation) string {
	var b strings.Builder
	if len(versions) == 0 {
		b.WriteString(fmt.Sprintf("🗂 %s — no history\n", key))
		return trimOutput(b.String())
	}
	latest := versions[len(versions)-1]
	b.WriteString(fmt.Sprintf("🗂 %s %s %s\n\n", key, statusEmoji(latest.Status), cleanLine(latest.Content)))

	type entry struct {
		at   time.Time
		line string
	}
	entries := make([]entry, 0, len(versions)+len(annotations))
	var prev *task.Version
	for i := range versions {
		v := versions[i]
		entries = append(entries, entry{
			at:   v.CreatedAt,
			line: fmt.Sprintf("• %s — %s", v.CreatedAt.Format("2006-01-02 15:04"), HistoryLine(prev, v)),
		})
		prev = &versions[i]
	}
	for _, a := range annotations {
		entries = append(entries, entry{
			at:   a.CreatedAt,
			line: fmt.Sprintf("%s %s — %s", a.Icon, a.CreatedAt.Format("2006-01-02 15:04"), cleanLine(a.Text)),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].at.Before(entries[j].at) })
	for _, e := range entries {
		b.WriteString(e.line)
		b.WriteString("\n")
	}
	return trimOutput(b.String())
}

// Summary renders the bucketed task view.
func Summary(buckets task.Buckets) string {
	var b strings.Builder
	wrote := false
	if writeBucket(&b, "📌 Open", buckets.Unfinished, dueSuffix) {
		wrote = true
	}
	if writeBucket(&b, "😴 Snoozed", buckets.Snoozed, snoozeSuffix) {
		wrote = true
	}
	if writeBucket(&b, "✅ Finished", buckets.Finished, finishedSuffix) {
		wrote = true
	}
	if !wrote {
		b.WriteString("No tasks yet.\n")
	}
	return trimOutput(b.String())
}

func writeBucket(b *strings.Builder, title string, histories []task.History, suffix func(task.Version) string) bool {
	if len(histories) == 0 {
		return false
	}
	b.WriteString(fmt.Sprintf("%s (%d)\n", title, len(histories)))
	for _, h := range histories {
		b.WriteString(TaskLine(h.Key, h.Latest(), suffix(h.Latest())))
	}
	b.WriteString("\n")
	return true
}

// TaskLine renders one task for a bucket listing.
func TaskLine(key string, v task.Version, suffix string) string {
	var b strings.Builder
	b.WriteString("• ")
	b.WriteString(key)
	if v.Priority != "" {
		b.WriteString(" (")
		b.WriteString(v.Priority)
		b.WriteString(")")
	}
	b.WriteString(" ")
	b.WriteString(cleanLine(v.Content))
	if len(v.Projects) > 0 {
		b.WriteString(" — ")
		b.WriteString(strings.Join(v.Projects, ", "))
	}
	if suffix != "" {
		b.WriteString(" ")
		b.WriteString(suffix)
	}
	b.WriteString("\n")
	return b.String()
}

func dueSuffix(v task.Version) string {
	if v.DueDate == nil {
		return ""
	}
	return "(due " + formatDay(*v.DueDate) + ")"
}

func snoozeSuffix(v task.Version) string {
	if v.SnoozedUntil == nil {
		return ""
	}
	return "(until " + formatDay(*v.SnoozedUntil) + ")"
}

func finishedSuffix(v task.Version) string {
	if v.Status == task.StatusCanceled {
		return "(canceled)"
	}
	return ""
}

func statusEmoji(s task.Status) string {
	switch s {
	case task.StatusDone:
		return "✅"
	case task.StatusCanceled:
		return "🚫"
	case task.StatusSnoozed:
		return "😴"
	default:
		return "📌"
	}
}

func formatDay(t time.Time) string {
	return t.Format("Jan 02")
}

func cleanLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return "(no description)"
	}
	return s
}
