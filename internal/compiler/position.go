package compiler

import "ec/internal/diag"

// Position is re-exported from internal/diag so every AST node can carry the
// same position type diagnostics use, without the compiler package needing
// to import diag everywhere it mentions a line/column.
type Position = diag.Position

func posOf(t Token) Position {
	return Position{Line: t.Line, Column: t.Column}
}
