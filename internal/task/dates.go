package task

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts is the ordered fallback table tried after the exact formats.
// Layouts without a year get the year forced to the current one at
// resolution time. The Russian "2 января" form is handled separately
// between the first and second entries; see resolveDatePart.
var dateLayouts = []struct {
	layout  string
	hasYear bool
}{
	{"2006.01.02", true},
	{"2 Jan 2006", true},
	{"2006-01-02", true},
	{"02.01", false},
	{"01/02", false},
}

var ruMonths = map[string]time.Month{
	"января":   time.January,
	"февраля":  time.February,
	"марта":    time.March,
	"апреля":   time.April,
	"мая":      time.May,
	"июня":     time.June,
	"июля":     time.July,
	"августа":  time.August,
	"сентября": time.September,
	"октября":  time.October,
	"ноября":   time.November,
	"декабря":  time.December,
}

var ruWeekdays = map[string]time.Weekday{
	"понедельник": time.Monday,
	"вторник":     time.Tuesday,
	"среда":       time.Wednesday,
	"четверг":     time.Thursday,
	"пятница":     time.Friday,
	"суббота":     time.Saturday,
	"воскресенье": time.Sunday,
}

// ResolveDueDate turns a date span (optionally carrying a trailing HH:MM
// token) into an absolute timestamp in now's location. The second return is
// false when no format matched; callers treat that as "no date", never as
// an error.
func ResolveDueDate(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	// Exact date+time form first; the embedded time wins outright.
	if t, err := time.ParseInLocation("2006.01.02 15:04", s, now.Location()); err == nil {
		return t, true
	}

	parts := strings.Fields(s)
	var timePart string
	if len(parts) > 1 && isTimeOfDay(parts[len(parts)-1]) {
		timePart = parts[len(parts)-1]
		parts = parts[:len(parts)-1]
	}

	day, ok := resolveDatePart(strings.Join(parts, " "), now)
	if !ok {
		return time.Time{}, false
	}

	hour, minute := 0, 0
	if timePart != "" {
		hour, minute, ok = parseTimeOfDay(timePart)
		if !ok {
			hour, minute = 0, 0
		}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location()), true
}

func resolveDatePart(s string, now time.Time) (time.Time, bool) {
	loc := now.Location()
	lower := strings.ToLower(s)

	switch lower {
	case "tomorrow", "завтра":
		return now.AddDate(0, 0, 1), true
	}
	if wd, ok := ruWeekdays[lower]; ok {
		// Next future occurrence; if today is that weekday, a full week out.
		delta := (int(wd) - int(now.Weekday()) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		return now.AddDate(0, 0, delta), true
	}

	if t, err := time.ParseInLocation(dateLayouts[0].layout, s, loc); err == nil {
		return t, true
	}
	if t, ok := parseRuDayMonth(lower, now); ok {
		return t, true
	}
	for _, dl := range dateLayouts[1:] {
		t, err := time.ParseInLocation(dl.layout, s, loc)
		if err != nil {
			continue
		}
		if !dl.hasYear {
			t = time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		}
		return t, true
	}
	return time.Time{}, false
}

// parseRuDayMonth handles the "2 января" form. The format has no year, so
// the current year applies.
func parseRuDayMonth(s string, now time.Time) (time.Time, bool) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	month, ok := ruMonths[parts[1]]
	if !ok {
		return time.Time{}, false
	}
	return time.Date(now.Year(), month, day, 0, 0, 0, 0, now.Location()), true
}

func isTimeOfDay(tok string) bool {
	_, _, ok := parseTimeOfDay(tok)
	return ok
}

func parseTimeOfDay(tok string) (int, int, bool) {
	h, m, found := strings.Cut(tok, ":")
	if !found || len(h) == 0 || len(h) > 2 || len(m) != 2 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}
