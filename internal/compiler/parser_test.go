package compiler

import "testing"

func mustParse(t *testing.T, src string) *Program {
	t.Helper()
	toks, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex(%q) failed: %v", src, err)
	}
	prog, err := Parse(toks, src)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", src, err)
	}
	return prog
}

func TestParseHelloWorld(t *testing.T) {
	prog := mustParse(t, `Print "Hello, World!".`)
	if len(prog.TopLevel) != 1 {
		t.Fatalf("got %d top-level statements, want 1", len(prog.TopLevel))
	}
	ps, ok := prog.TopLevel[0].(*PrintStmt)
	if !ok {
		t.Fatalf("got %T, want *PrintStmt", prog.TopLevel[0])
	}
	lit, ok := ps.Value.(*StringLiteral)
	if !ok || lit.Value != "Hello, World!" {
		t.Errorf("got %+v, want StringLiteral \"Hello, World!\"", ps.Value)
	}
}

func TestParseVarDeclWithInitializer(t *testing.T) {
	prog := mustParse(t, `a number called "i" is 1.`)
	decl, ok := prog.TopLevel[0].(*VarDecl)
	if !ok {
		t.Fatalf("got %T, want *VarDecl", prog.TopLevel[0])
	}
	if decl.Name != "i" || !decl.Declared.Equal(Integer) {
		t.Errorf("got name=%q type=%v, want i/Integer", decl.Name, decl.Declared)
	}
	lit, ok := decl.Init.(*IntLiteral)
	if !ok || lit.Value != 1 {
		t.Errorf("got init %+v, want IntLiteral 1", decl.Init)
	}
}

func TestParseWhileSumLoop(t *testing.T) {
	src := `a number called "i" is 1. a number called "s" is 0. While i is less than or equal to 10, s is s add i, i is i add 1. Print the s.`
	prog := mustParse(t, src)
	if len(prog.TopLevel) != 4 {
		t.Fatalf("got %d top-level statements, want 4", len(prog.TopLevel))
	}
	ws, ok := prog.TopLevel[2].(*WhileStmt)
	if !ok {
		t.Fatalf("got %T, want *WhileStmt", prog.TopLevel[2])
	}
	if len(ws.Body) != 2 {
		t.Fatalf("got %d body statements, want 2 (s is ..., i is ...)", len(ws.Body))
	}
}

func TestParseForEachRange(t *testing.T) {
	prog := mustParse(t, `For each n from 1 to 15, print n.`)
	fe, ok := prog.TopLevel[0].(*ForEachStmt)
	if !ok {
		t.Fatalf("got %T, want *ForEachStmt", prog.TopLevel[0])
	}
	if fe.IterName != "n" || fe.Kind != ForEachRange {
		t.Errorf("got IterName=%q Kind=%v, want n/ForEachRange", fe.IterName, fe.Kind)
	}
}

func TestParsePrintEachSugarWithButIf(t *testing.T) {
	src := `print each n from 1 to 15, but if n is 15 print "fizzbuzz".`
	prog := mustParse(t, src)
	fe, ok := prog.TopLevel[0].(*ForEachStmt)
	if !ok {
		t.Fatalf("got %T, want *ForEachStmt", prog.TopLevel[0])
	}
	if len(fe.Body) != 1 {
		t.Fatalf("got %d body statements, want 1", len(fe.Body))
	}
	ps, ok := fe.Body[0].(*PrintStmt)
	if !ok {
		t.Fatalf("got %T, want *PrintStmt", fe.Body[0])
	}
	if len(ps.ButIfClauses) != 1 {
		t.Fatalf("got %d but-if clauses, want 1", len(ps.ButIfClauses))
	}
}

func TestParseOnErrorAttachesToPrecedingStatement(t *testing.T) {
	src := `element 100 of items, on error print "bad".`
	toks, err := Lex(src)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	// Parsed standalone as a sentence body (to avoid needing a declared list).
	p := NewParser(toks, src)
	stmts, err := p.parseBody()
	if err != nil {
		t.Fatalf("parseBody failed: %v", err)
	}
	if len(stmts) != 1 {
		t.Fatalf("got %d statements, want 1 (on-error folds into its guarded stmt)", len(stmts))
	}
	oe, ok := stmts[0].(*OnErrorStmt)
	if !ok {
		t.Fatalf("got %T, want *OnErrorStmt", stmts[0])
	}
	if oe.Guarded == nil {
		t.Fatal("expected Guarded to be set to the preceding statement")
	}
}

func TestParseFunctionDeclaration(t *testing.T) {
	src := `To "double" with a number called "n". Return a number. Return n multiply 2.`
	prog := mustParse(t, src)
	fn, ok := prog.Functions["double"]
	if !ok {
		t.Fatalf("function %q not found; got %v", "double", prog.FuncOrder)
	}
	if len(fn.Params) != 1 || fn.Params[0].Name != "n" || !fn.Params[0].Typ.Equal(Integer) {
		t.Errorf("got params %+v, want one Integer param named n", fn.Params)
	}
	if !fn.ReturnType.Equal(Integer) {
		t.Errorf("got return type %v, want Integer", fn.ReturnType)
	}
	if len(fn.Body) != 1 {
		t.Fatalf("got %d body statements, want 1", len(fn.Body))
	}
}

func TestParseIfElseif(t *testing.T) {
	src := `If x is greater than 0, print "positive". elseif x is 0, print "zero". else print "negative".`
	prog := mustParse(t, src)
	outer, ok := prog.TopLevel[0].(*IfStmt)
	if !ok {
		t.Fatalf("got %T, want *IfStmt", prog.TopLevel[0])
	}
	// "elseif" lowers to a single nested IfStmt inside Else.
	if len(outer.Else) != 1 {
		t.Fatalf("got %d else statements, want 1 (the nested elseif)", len(outer.Else))
	}
	inner, ok := outer.Else[0].(*IfStmt)
	if !ok {
		t.Fatalf("got %T, want a nested *IfStmt for elseif", outer.Else[0])
	}
	if len(inner.Else) != 1 {
		t.Fatalf("got %d innermost else statements, want 1", len(inner.Else))
	}
}

func TestParseFormatStringHole(t *testing.T) {
	prog := mustParse(t, `Print "{p:.4}".`)
	ps, ok := prog.TopLevel[0].(*PrintStmt)
	if !ok {
		t.Fatalf("got %T, want *PrintStmt", prog.TopLevel[0])
	}
	fs, ok := ps.Value.(*FormatString)
	if !ok {
		t.Fatalf("got %T, want *FormatString", ps.Value)
	}
	if len(fs.Chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(fs.Chunks))
	}
	if fs.Chunks[0].Spec != ".4" {
		t.Errorf("got spec %q, want \".4\"", fs.Chunks[0].Spec)
	}
}

func TestParseMissingPeriodErrors(t *testing.T) {
	toks, err := Lex(`Print "no period"`)
	if err != nil {
		t.Fatalf("Lex failed: %v", err)
	}
	if _, err := Parse(toks, `Print "no period"`); err == nil {
		t.Fatal("expected a parse error for a missing terminating period")
	}
}
