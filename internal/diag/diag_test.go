package diag

import (
	"strings"
	"testing"
)

func TestSinkHasErrors(t *testing.T) {
	s := NewSink()
	if s.HasErrors() {
		t.Fatal("fresh sink reports errors")
	}
	s.Warn(Position{Line: 1, Column: 1}, "unused variable %q", "x")
	if s.HasErrors() {
		t.Fatal("a warning alone should not count as an error")
	}
	s.Error(Position{Line: 2, Column: 3}, "undefined variable %q", "y")
	if !s.HasErrors() {
		t.Fatal("expected HasErrors after Error")
	}
}

func TestDiagnosticsSortedByPosition(t *testing.T) {
	s := NewSink()
	s.Error(Position{Line: 5, Column: 1}, "second")
	s.Error(Position{Line: 1, Column: 9}, "first")
	s.Error(Position{Line: 1, Column: 2}, "zeroth")

	got := s.Diagnostics()
	want := []string{"zeroth", "first", "second"}
	if len(got) != len(want) {
		t.Fatalf("got %d diagnostics, want %d", len(got), len(want))
	}
	for i, d := range got {
		if d.Message != want[i] {
			t.Errorf("position %d: got message %q, want %q", i, d.Message, want[i])
		}
	}
}

func TestErrorfSetsCode(t *testing.T) {
	s := NewSink()
	s.Errorf(Position{Line: 1, Column: 1}, "E0100", "undefined function %q", "frobnicate")
	got := s.Diagnostics()[0]
	if got.Code != "E0100" {
		t.Errorf("got code %q, want E0100", got.Code)
	}
	if got.Severity != SeverityError {
		t.Errorf("got severity %v, want SeverityError", got.Severity)
	}
}

func TestRenderIncludesSourceLineAndCaret(t *testing.T) {
	d := Diagnostic{
		Severity: SeverityError,
		Code:     "E0042",
		Message:  "undefined variable \"total\"",
		Hint:     "declare it with \"a number called ...\" before use",
		Pos:      Position{Line: 2, Column: 7},
	}
	lines := []string{
		`Print "start".`,
		`Print total.`,
	}
	out := d.Render(lines)
	if !strings.Contains(out, "Print total.") {
		t.Errorf("rendered output missing source line:\n%s", out)
	}
	if !strings.Contains(out, "^--- here") {
		t.Errorf("rendered output missing caret:\n%s", out)
	}
	if !strings.Contains(out, "hint:") {
		t.Errorf("rendered output missing hint:\n%s", out)
	}
}

func TestSuggestNearMiss(t *testing.T) {
	candidates := []string{"length", "capacity", "empty"}
	if got := Suggest("lenght", candidates); got != "length" {
		t.Errorf("got suggestion %q, want %q", got, "length")
	}
	if got := Suggest("zzzzzzzz", candidates); got != "" {
		t.Errorf("got suggestion %q, want none for a far-off name", got)
	}
}
