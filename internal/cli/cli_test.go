package cli

import (
	"testing"

	"github.com/akarpov/tasklog/internal/task"
)

func TestExtractGlobalFlags(t *testing.T) {
	gf, rest, err := extractGlobalFlags([]string{"--root", "/tmp/x", "--chat", "c1", "--json", "add", "buy milk"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if gf.Root != "/tmp/x" || gf.Chat != "c1" || !gf.JSON {
		t.Fatalf("unexpected flags %#v", gf)
	}
	if len(rest) != 2 || rest[0] != "add" || rest[1] != "buy milk" {
		t.Fatalf("unexpected rest %#v", rest)
	}
}

func TestExtractGlobalFlagsMissingValue(t *testing.T) {
	if _, _, err := extractGlobalFlags([]string{"--root"}); err == nil {
		t.Fatalf("expected error for --root without a value")
	}
}

func TestMatchesFilters(t *testing.T) {
	v := task.Version{
		Content:  "Pay the rent",
		Tags:     []string{"money"},
		Contexts: []string{"home"},
		Projects: []string{"Moving out"},
	}

	cases := []struct {
		query string
		want  bool
	}{
		{"@money", true},
		{"@Money", true},
		{"@food", false},
		{".home", true},
		{"!Moving out", true},
		{"!Moving", false},
		{"rent", true},
		{"RENT", true},
		{"@money .home rent", true},
		{"@money mortgage", false},
	}
	for _, tc := range cases {
		f := task.ParseFilters(tc.query)
		if got := matchesFilters(v, f); got != tc.want {
			t.Fatalf("query %q: expected %v, got %v", tc.query, tc.want, got)
		}
	}
}
