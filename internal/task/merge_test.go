package task

import (
	"testing"
	"time"
)

func strPtr(s string) *string     { return &s }
func statusPtr(s Status) *Status  { return &s }
func timePtr(t time.Time) *time.Time { return &t }

func TestMergeCreationDefaults(t *testing.T) {
	v := Merge(nil, Fields{Content: "buy milk"}, testNow)
	if v.Status != StatusNew {
		t.Fatalf("expected status new, got %q", v.Status)
	}
	if v.Content != "buy milk" {
		t.Fatalf("expected content %q, got %q", "buy milk", v.Content)
	}
	if len(v.Tags) != 0 || len(v.Contexts) != 0 || len(v.Projects) != 0 {
		t.Fatalf("expected empty lists, got %#v", v)
	}
	if !v.CreatedAt.Equal(testNow) {
		t.Fatalf("expected createdAt %v, got %v", testNow, v.CreatedAt)
	}
}

func TestMergeTagsAppendProjectsReplace(t *testing.T) {
	latest := &Version{
		Key:      "T-20250715-01",
		Content:  "buy milk",
		Tags:     []string{"work"},
		Projects: []string{"Proj"},
		Status:   StatusNew,
	}
	next := Merge(latest, Fields{Tags: []string{"x"}, Projects: []string{"New"}}, testNow)
	if len(next.Tags) != 2 || next.Tags[0] != "work" || next.Tags[1] != "x" {
		t.Fatalf("expected tags [work x], got %#v", next.Tags)
	}
	if len(next.Projects) != 1 || next.Projects[0] != "New" {
		t.Fatalf("expected projects [New], got %#v", next.Projects)
	}
	if len(latest.Tags) != 1 || len(latest.Projects) != 1 {
		t.Fatalf("merge must not mutate the previous version: %#v", latest)
	}
}

func TestMergeDuplicateTagsAccumulate(t *testing.T) {
	latest := &Version{Content: "x", Tags: []string{"work"}, Status: StatusNew}
	next := Merge(latest, Fields{Tags: []string{"work"}}, testNow)
	if len(next.Tags) != 2 || next.Tags[0] != "work" || next.Tags[1] != "work" {
		t.Fatalf("tags are list-valued, not a set: %#v", next.Tags)
	}
}

func TestMergeCarriesForwardWhenUnspecified(t *testing.T) {
	due := testNow.AddDate(0, 0, 3)
	latest := &Version{
		Content:  "buy milk",
		Priority: "A",
		DueDate:  &due,
		Status:   StatusNew,
		Tags:     []string{"shop"},
	}
	next := Merge(latest, Fields{Status: statusPtr(StatusDone)}, testNow)
	if next.Content != "buy milk" || next.Priority != "A" {
		t.Fatalf("expected content and priority carried forward, got %#v", next)
	}
	if next.DueDate == nil || !next.DueDate.Equal(due) {
		t.Fatalf("expected due date carried forward, got %v", next.DueDate)
	}
	if next.Status != StatusDone {
		t.Fatalf("expected status done, got %q", next.Status)
	}
	if next.CompletedAt == nil || !next.CompletedAt.Equal(testNow) {
		t.Fatalf("expected completedAt stamped on done, got %v", next.CompletedAt)
	}
}

func TestMergeReplacesScalars(t *testing.T) {
	latest := &Version{Content: "old", Priority: "B", Status: StatusNew}
	next := Merge(latest, Fields{Content: "new text", Priority: strPtr("A")}, testNow)
	if next.Content != "new text" {
		t.Fatalf("expected content replaced, got %q", next.Content)
	}
	if next.Priority != "A" {
		t.Fatalf("expected priority replaced, got %q", next.Priority)
	}
}

func TestMergeSnoozeTransitions(t *testing.T) {
	until := testNow.AddDate(0, 0, 4)
	latest := &Version{Content: "x", Status: StatusNew}

	snoozed := Merge(latest, Fields{Status: statusPtr(StatusSnoozed), SnoozedUntil: timePtr(until)}, testNow)
	if snoozed.Status != StatusSnoozed {
		t.Fatalf("expected snoozed, got %q", snoozed.Status)
	}
	if snoozed.SnoozedUntil == nil || !snoozed.SnoozedUntil.Equal(until) {
		t.Fatalf("expected snoozedUntil %v, got %v", until, snoozed.SnoozedUntil)
	}

	// Waking the task clears the snooze timestamp.
	woken := Merge(&snoozed, Fields{Status: statusPtr(StatusNew)}, testNow.Add(time.Hour))
	if woken.SnoozedUntil != nil {
		t.Fatalf("expected snoozedUntil cleared on wake, got %v", woken.SnoozedUntil)
	}

	// Editing a snoozed task without a status keeps the snooze.
	still := Merge(&snoozed, Fields{Tags: []string{"later"}}, testNow.Add(time.Hour))
	if still.Status != StatusSnoozed || still.SnoozedUntil == nil {
		t.Fatalf("expected snooze carried forward, got %#v", still)
	}
}

func TestMergeReopenClearsCompletedAt(t *testing.T) {
	latest := &Version{Content: "x", Status: StatusNew}
	done := Merge(latest, Fields{Status: statusPtr(StatusDone)}, testNow)
	if done.CompletedAt == nil {
		t.Fatalf("expected completedAt set")
	}
	again := Merge(&done, Fields{Tags: []string{"late"}}, testNow.Add(time.Hour))
	if again.CompletedAt == nil || !again.CompletedAt.Equal(testNow) {
		t.Fatalf("expected original completedAt kept while done, got %v", again.CompletedAt)
	}
	reopened := Merge(&done, Fields{Status: statusPtr(StatusNew)}, testNow.Add(time.Hour))
	if reopened.CompletedAt != nil {
		t.Fatalf("expected completedAt cleared on reopen, got %v", reopened.CompletedAt)
	}
}
