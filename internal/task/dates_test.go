package task

import (
	"testing"
	"time"
)

func TestResolveDueDateExactFormats(t *testing.T) {
	got, ok := ResolveDueDate("2025.07.31 09:30", testNow)
	if !ok {
		t.Fatalf("expected exact date+time to resolve")
	}
	want := time.Date(2025, time.July, 31, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	got, ok = ResolveDueDate("2025.07.31", testNow)
	if !ok || !got.Equal(time.Date(2025, time.July, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected midnight 2025-07-31, got %v ok=%v", got, ok)
	}
}

func TestResolveDueDateFallbackChain(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want time.Time
	}{
		{"3 Aug 2025", time.Date(2025, time.August, 3, 0, 0, 0, 0, time.UTC)},
		{"2025-08-03", time.Date(2025, time.August, 3, 0, 0, 0, 0, time.UTC)},
		{"03.08", time.Date(2025, time.August, 3, 0, 0, 0, 0, time.UTC)},
		{"08/03", time.Date(2025, time.August, 3, 0, 0, 0, 0, time.UTC)},
	} {
		got, ok := ResolveDueDate(tc.in, testNow)
		if !ok {
			t.Fatalf("%q: expected a resolution", tc.in)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("%q: expected %v, got %v", tc.in, tc.want, got)
		}
	}
}

func TestResolveDueDateRussianMonth(t *testing.T) {
	got, ok := ResolveDueDate("2 января", testNow)
	if !ok {
		t.Fatalf("expected resolution")
	}
	if got.Year() != testNow.Year() {
		t.Fatalf("year-less format must take the current year, got %d", got.Year())
	}
	if got.Month() != time.January || got.Day() != 2 {
		t.Fatalf("expected January 2, got %v", got)
	}
}

func TestResolveDueDateTomorrowWithTime(t *testing.T) {
	got, ok := ResolveDueDate("tomorrow 10:15", testNow)
	if !ok {
		t.Fatalf("expected resolution")
	}
	want := time.Date(2025, time.July, 16, 10, 15, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestResolveDueDateTomorrowMidnight(t *testing.T) {
	got, ok := ResolveDueDate("tomorrow", testNow)
	if !ok {
		t.Fatalf("expected resolution")
	}
	want := time.Date(2025, time.July, 16, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected local midnight, got %v", got)
	}
}

func TestResolveDueDateRussianWeekday(t *testing.T) {
	// testNow is Tuesday 2025-07-15.
	got, ok := ResolveDueDate("пятница", testNow)
	if !ok {
		t.Fatalf("expected resolution")
	}
	if want := time.Date(2025, time.July, 18, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("expected next Friday %v, got %v", want, got)
	}

	// Today's own weekday advances a full week, never today.
	got, ok = ResolveDueDate("вторник", testNow)
	if !ok {
		t.Fatalf("expected resolution")
	}
	if want := time.Date(2025, time.July, 22, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("expected Tuesday a week out %v, got %v", want, got)
	}
}

func TestResolveDueDateFailureIsNotAnError(t *testing.T) {
	if _, ok := ResolveDueDate("not a date at all", testNow); ok {
		t.Fatalf("expected no resolution")
	}
	if _, ok := ResolveDueDate("", testNow); ok {
		t.Fatalf("expected no resolution for empty input")
	}
}
