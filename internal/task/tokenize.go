package task

import (
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ParseTask tokenizes one line of todo syntax into partial fields. The line
// is expected to be stripped of any leading command verb. Malformed markers
// never fail the parse; they degrade into plain content.
//
// Marker grammar, applied left to right over whitespace-split tokens:
//
//	(a)        priority, letter upper-cased
//	@tag       tag
//	.context   context
//	!name ...  project span, absorbs following tokens until the next marker
//	:date      due date, optionally joined with a following HH:MM token
//	-done      status (leading token only), also -canceled, -new,
//	           -snoozed, -snoozedN, -snoozed N
func ParseTask(text string, now time.Time) Fields {
	tokens := strings.Fields(text)
	var f Fields
	var content []string

	i := 0
	if len(tokens) > 0 {
		if status, days, consumed, ok := parseStatusToken(tokens); ok {
			f.Status = &status
			if status == StatusSnoozed && days > 0 {
				until := now.AddDate(0, 0, days)
				f.SnoozedUntil = &until
			}
			i = consumed
		}
	}

	for ; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case isPriorityToken(tok):
			p := strings.ToUpper(tok[1:2])
			f.Priority = &p
		case isTagToken(tok):
			f.Tags = append(f.Tags, tok[1:])
		case isContextToken(tok):
			f.Contexts = append(f.Contexts, tok[1:])
		case isProjectToken(tok):
			name := tok[1:]
			for i+1 < len(tokens) && !isMarkerToken(tokens[i+1]) {
				i++
				name += " " + tokens[i]
			}
			f.Projects = append(f.Projects, name)
		case isDueToken(tok):
			span := tok[1:]
			if i+1 < len(tokens) && isTimeOfDay(tokens[i+1]) {
				i++
				span += " " + tokens[i]
			}
			if due, ok := ResolveDueDate(span, now); ok {
				f.DueDate = &due
			}
			// unresolvable date spans are dropped, not errors
		default:
			content = append(content, tok)
		}
	}

	f.Content = strings.Join(content, " ")
	return f
}

// ParseFilters applies the tag/context/project part of the grammar to build
// search predicates. Priority, status and due-date tokens are not
// interpreted here; anything that is not a tag, context or project lands in
// Remaining in original order.
func ParseFilters(text string) Filters {
	tokens := strings.Fields(text)
	var f Filters
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case isTagToken(tok):
			f.Tags = append(f.Tags, tok[1:])
		case isContextToken(tok):
			f.Contexts = append(f.Contexts, tok[1:])
		case isProjectToken(tok):
			name := tok[1:]
			for i+1 < len(tokens) && !isMarkerToken(tokens[i+1]) {
				i++
				name += " " + tokens[i]
			}
			f.Projects = append(f.Projects, name)
		default:
			f.Remaining = append(f.Remaining, tok)
		}
	}
	return f
}

// parseStatusToken recognizes a leading status marker. It reports how many
// tokens were consumed: two for the "-snoozed 3" form, otherwise one.
func parseStatusToken(tokens []string) (Status, int, int, bool) {
	tok := tokens[0]
	switch tok {
	case "-done":
		return StatusDone, 0, 1, true
	case "-canceled":
		return StatusCanceled, 0, 1, true
	case "-new":
		return StatusNew, 0, 1, true
	case "-snoozed":
		if len(tokens) > 1 {
			if days, err := strconv.Atoi(tokens[1]); err == nil && days > 0 {
				return StatusSnoozed, days, 2, true
			}
		}
		return StatusSnoozed, 0, 1, true
	}
	if rest, ok := strings.CutPrefix(tok, "-snoozed"); ok {
		if days, err := strconv.Atoi(rest); err == nil && days > 0 {
			return StatusSnoozed, days, 1, true
		}
	}
	return "", 0, 0, false
}

func isPriorityToken(tok string) bool {
	if len(tok) != 3 || tok[0] != '(' || tok[2] != ')' {
		return false
	}
	return unicode.IsLetter(rune(tok[1]))
}

func isTagToken(tok string) bool     { return len(tok) > 1 && tok[0] == '@' }
func isContextToken(tok string) bool { return len(tok) > 1 && tok[0] == '.' }
func isProjectToken(tok string) bool { return len(tok) > 1 && tok[0] == '!' }
func isDueToken(tok string) bool     { return len(tok) > 1 && tok[0] == ':' }

// isMarkerToken decides whether a token ends the greedy project span.
// Status tokens are only meaningful in leading position and do not end it.
func isMarkerToken(tok string) bool {
	return isPriorityToken(tok) || isTagToken(tok) || isContextToken(tok) ||
		isProjectToken(tok) || isDueToken(tok)
}
