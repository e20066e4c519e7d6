// Package task holds the pure core of tasklog: the todo-syntax tokenizer,
// the due-date resolver, key allocation, version merging and the history
// diff engine. Nothing here does I/O; callers supply "now" explicitly.
package task

import "time"

// Status of a task version.
type Status string

const (
	StatusNew      Status = "new"
	StatusDone     Status = "done"
	StatusCanceled Status = "canceled"
	StatusSnoozed  Status = "snoozed"
)

// Version is one immutable row of a task's history. All versions of a
// logical task share Key; "latest" is the version with the greatest
// CreatedAt for (ChatID, Key).
type Version struct {
	Key          string     `json:"key"`
	ChatID       string     `json:"chat_id"`
	Content      string     `json:"content"`
	Priority     string     `json:"priority,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	Contexts     []string   `json:"contexts,omitempty"`
	Projects     []string   `json:"projects,omitempty"`
	Status       Status     `json:"status"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	SnoozedUntil *time.Time `json:"snoozed_until,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Fields is the result of parsing one edit line. Pointer and nil-slice
// fields distinguish "not specified" from a concrete value; the grammar has
// no clearing syntax, so absence always means carry-forward on merge.
type Fields struct {
	Content      string
	Priority     *string
	Tags         []string
	Contexts     []string
	Projects     []string
	Status       *Status
	DueDate      *time.Time
	SnoozedUntil *time.Time
}

// Filters is the result of ParseFilters: marker tokens recognized for
// search predicates, everything else kept in Remaining in original order.
type Filters struct {
	Tags      []string
	Contexts  []string
	Projects  []string
	Remaining []string
}

// Change describes one field-level difference between two consecutive
// versions. Value is the rendered new value; the old value is not carried.
type Change struct {
	Field string
	Value string
}

// History is the full ordered version chain of one key.
type History struct {
	Key      string
	Versions []Version
}

// Latest returns the newest version of the chain. The chain is never empty
// for a persisted key.
func (h History) Latest() Version {
	return h.Versions[len(h.Versions)-1]
}

// Buckets is the status-derived grouping used for presentation.
type Buckets struct {
	Unfinished []History
	Snoozed    []History
	Finished   []History
}
