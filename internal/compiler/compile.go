package compiler

import (
	"fmt"

	"ec/internal/diag"
)

// Result bundles everything a caller of Compile needs: the generated
// assembly text, the feature set it requires (so the driver knows which
// runtime modules to link), and every diagnostic collected along the way.
type Result struct {
	Assembly    string
	Features    FeatureSet
	Diagnostics []diag.Diagnostic
}

// Compile runs the full Lexer -> Parser -> Analyzer -> Generator pipeline
// over src (grounded on the teacher's pkg/compiler/compile.go, which chains
// the same four stages for GoCPU assembly). Unlike the teacher, EC stops
// before invoking an assembler/linker directly — that responsibility
// belongs to internal/driver; cmd/ec decides which runtime modules to
// concatenate based on Result.Features.
func Compile(src string) (*Result, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, fmt.Errorf("lex error: %w", err)
	}

	prog, err := Parse(tokens, src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	result, sink := Analyze(prog)
	if sink.HasErrors() {
		return &Result{Diagnostics: sink.Diagnostics()}, fmt.Errorf("semantic errors found")
	}

	asmText := Generate(prog, result)

	return &Result{
		Assembly:    asmText,
		Features:    result.Features,
		Diagnostics: sink.Diagnostics(),
	}, nil
}
