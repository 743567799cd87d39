// Package diag defines the diagnostic sink shared by every compiler stage.
package diag

import (
	"fmt"
	"sort"
	"strings"
)

// Severity classifies a Diagnostic. Only SeverityError aborts code generation.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Position is a 1-based line/column pair, carried from the Lexer through to
// the final diagnostic.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Diagnostic is a single lex, parse, type, or structural finding.
type Diagnostic struct {
	Severity   Severity
	Code       string // e.g. "E0203"; empty for unclassified diagnostics
	Message    string
	Hint       string // explains the invariant or rule that was violated
	Suggestion string // "did you mean: ..."; empty when no candidate was found
	Pos        Position
}

func (d Diagnostic) String() string {
	var b strings.Builder
	if d.Code != "" {
		fmt.Fprintf(&b, "%s: %s[%s]: %s", d.Pos, d.Severity, d.Code, d.Message)
	} else {
		fmt.Fprintf(&b, "%s: %s: %s", d.Pos, d.Severity, d.Message)
	}
	if d.Hint != "" {
		fmt.Fprintf(&b, "\n  hint: %s", d.Hint)
	}
	if d.Suggestion != "" {
		fmt.Fprintf(&b, "\n  suggestion: %s", d.Suggestion)
	}
	return b.String()
}

// Render produces a multi-line, rustc-style block with a gutter, the
// offending source line, and a caret under the column the diagnostic points
// to. lines is the full source split on "\n" (1-based indexing via Pos.Line).
func (d Diagnostic) Render(lines []string) string {
	var b strings.Builder

	label := fmt.Sprintf("%s", d.Severity)
	if d.Code != "" {
		label = fmt.Sprintf("%s[%s]", d.Severity, d.Code)
	}
	fmt.Fprintf(&b, "%s: %s\n", label, d.Message)
	fmt.Fprintf(&b, "  --> %s\n", d.Pos)

	gutter := fmt.Sprintf("%d", d.Pos.Line)
	pad := strings.Repeat(" ", len(gutter))

	var srcLine string
	if idx := d.Pos.Line - 1; idx >= 0 && idx < len(lines) {
		srcLine = strings.TrimRight(lines[idx], "\r")
	}

	fmt.Fprintf(&b, "%s |\n", pad)
	fmt.Fprintf(&b, "%s | %s\n", gutter, srcLine)

	col := d.Pos.Column - 1
	if col < 0 {
		col = 0
	}
	fmt.Fprintf(&b, "%s | %s^--- here\n", pad, strings.Repeat(" ", col))

	if d.Hint != "" {
		fmt.Fprintf(&b, "%s hint: %s\n", pad, d.Hint)
	}
	if d.Suggestion != "" {
		fmt.Fprintf(&b, "%s suggestion: %s\n", pad, d.Suggestion)
	}
	return b.String()
}

// Sink collects diagnostics across a single compilation. It is created per
// invocation, never shared between compilations (see DESIGN.md).
type Sink struct {
	diags []Diagnostic
}

func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) Error(pos Position, format string, args ...any) {
	s.diags = append(s.diags, Diagnostic{Severity: SeverityError, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

func (s *Sink) Errorf(pos Position, code, format string, args ...any) {
	s.diags = append(s.diags, Diagnostic{Severity: SeverityError, Code: code, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

func (s *Sink) Warn(pos Position, format string, args ...any) {
	s.diags = append(s.diags, Diagnostic{Severity: SeverityWarning, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Add appends a fully constructed Diagnostic (used when Hint/Suggestion are needed).
func (s *Sink) Add(d Diagnostic) {
	s.diags = append(s.diags, d)
}

func (s *Sink) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(s.diags))
	copy(out, s.diags)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pos.Line != out[j].Pos.Line {
			return out[i].Pos.Line < out[j].Pos.Line
		}
		return out[i].Pos.Column < out[j].Pos.Column
	})
	return out
}

// HasErrors reports whether any collected diagnostic has SeverityError.
func (s *Sink) HasErrors() bool {
	for _, d := range s.diags {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Suggest returns the name in candidates nearest to name by edit distance,
// or "" if none is close enough to be worth suggesting (distance > 2, or
// name/candidate length difference too large).
func Suggest(name string, candidates []string) string {
	best := ""
	bestDist := -1
	for _, c := range candidates {
		if c == name {
			continue
		}
		d := levenshtein(name, c)
		if d > 2 {
			continue
		}
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[lb]
}
