package render

import (
	"strings"
	"testing"
	"time"

	"github.com/akarpov/tasklog/internal/task"
)

var renderNow = time.Date(2025, time.July, 15, 12, 0, 0, 0, time.UTC)

func TestHistoryLineFirstVersionIsCreated(t *testing.T) {
	v := task.Version{Content: "buy milk", Status: task.StatusNew, CreatedAt: renderNow}
	if got := HistoryLine(nil, v); got != "created: buy milk" {
		t.Fatalf("expected created line, got %q", got)
	}
}

func TestHistoryLineRendersChanges(t *testing.T) {
	prev := task.Version{Content: "buy milk", Status: task.StatusNew}
	curr := task.Version{Content: "buy milk", Status: task.StatusDone, Tags: []string{"shop"}}
	got := HistoryLine(&prev, curr)
	if got != "status: done; tags: shop" {
		t.Fatalf("unexpected history line %q", got)
	}
}

func TestHistoryLineNoChanges(t *testing.T) {
	v := task.Version{Content: "buy milk", Status: task.StatusNew}
	if got := HistoryLine(&v, v); got != "no changes" {
		t.Fatalf("expected no-changes line, got %q", got)
	}
}

func TestHistoryPageInterleavesAnnotations(t *testing.T) {
	versions := []task.Version{
		{Key: "T-20250715-01", Content: "buy milk", Status: task.StatusNew, CreatedAt: renderNow},
		{Key: "T-20250715-01", Content: "buy milk", Status: task.StatusDone, CreatedAt: renderNow.Add(2 * time.Hour)},
	}
	notes := []Annotation{NoteAnnotation("store was closed", renderNow.Add(time.Hour))}

	page := HistoryPage("T-20250715-01", versions, notes)
	createdIdx := strings.Index(page, "created: buy milk")
	noteIdx := strings.Index(page, "store was closed")
	doneIdx := strings.Index(page, "status: done")
	if createdIdx < 0 || noteIdx < 0 || doneIdx < 0 {
		t.Fatalf("missing expected lines in page:\n%s", page)
	}
	if !(createdIdx < noteIdx && noteIdx < doneIdx) {
		t.Fatalf("expected chronological interleaving:\n%s", page)
	}
}

func TestSummarySections(t *testing.T) {
	due := renderNow.AddDate(0, 0, 2)
	until := renderNow.AddDate(0, 0, 4)
	buckets := task.Buckets{
		Unfinished: []task.History{{Key: "T-20250715-01", Versions: []task.Version{
			{Key: "T-20250715-01", Content: "buy milk", Status: task.StatusNew, DueDate: &due, CreatedAt: renderNow},
		}}},
		Snoozed: []task.History{{Key: "T-20250715-02", Versions: []task.Version{
			{Key: "T-20250715-02", Content: "taxes", Status: task.StatusSnoozed, SnoozedUntil: &until, CreatedAt: renderNow},
		}}},
		Finished: []task.History{{Key: "T-20250714-01", Versions: []task.Version{
			{Key: "T-20250714-01", Content: "old thing", Status: task.StatusCanceled, CreatedAt: renderNow},
		}}},
	}

	out := Summary(buckets)
	for _, want := range []string{
		"📌 Open (1)", "buy milk", "(due Jul 17)",
		"😴 Snoozed (1)", "(until Jul 19)",
		"✅ Finished (1)", "(canceled)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in summary:\n%s", want, out)
		}
	}
}

func TestSummaryEmpty(t *testing.T) {
	out := Summary(task.Buckets{})
	if !strings.Contains(out, "No tasks yet.") {
		t.Fatalf("expected empty-state message, got %q", out)
	}
}

func TestTrimOutputBoundsLongPages(t *testing.T) {
	long := strings.Repeat("• a very long history line\n", 400)
	out := trimOutput(long)
	if len([]rune(out)) > maxChars {
		t.Fatalf("expected output bounded to %d runes, got %d", maxChars, len([]rune(out)))
	}
	if !strings.HasSuffix(out, "… (truncated)") {
		t.Fatalf("expected truncation marker, got tail %q", out[len(out)-30:])
	}
}
