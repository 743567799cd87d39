package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// CodeGen walks an analyzed Program and emits x86_64 NASM assembly text for
// the System V ABI. Modeled on the teacher's line()/comment()/strings.Builder
// idiom (pkg/compiler/codegen.go), generalized from GoCPU's word machine to
// x86_64: stack slots are 8 bytes rather than the teacher's 2-byte
// cells, and every runtime helper call goes out to a label the selected
// internal/runtime modules define rather than inline GoCPU opcodes.
type CodeGen struct {
	result *AnalysisResult
	out    strings.Builder

	nextLabel     int
	stringPool    map[string]string // literal text -> data label
	stringOrder   []string
	floatPool     map[float64]string
	floatOrder    []float64
	currentFn     string
	frame         *frameInfo
	loopStack     []loopLabels
	onErrorActive bool
}

// frameInfo tracks the stack-slot offsets for one function's locals. Slots
// grow downward from rbp in 8-byte units: every scalar lives in a stack
// slot sized to 8 bytes regardless of its actual width.
type frameInfo struct {
	slots map[string]int
	next  int // next free slot, in units of 8 bytes (1 = rbp-8, 2 = rbp-16, ...)
}

func newFrame() *frameInfo {
	return &frameInfo{slots: make(map[string]int)}
}

func (f *frameInfo) declare(name string) int {
	f.next++
	off := f.next * 8
	f.slots[name] = off
	return off
}

func (f *frameInfo) offset(name string) (int, bool) {
	off, ok := f.slots[name]
	return off, ok
}

type loopLabels struct {
	continueLabel string
	breakLabel    string
}

func newCodeGen(result *AnalysisResult) *CodeGen {
	return &CodeGen{
		result:     result,
		stringPool: make(map[string]string),
		floatPool:  make(map[float64]string),
	}
}

func (cg *CodeGen) line(format string, args ...any) {
	fmt.Fprintf(&cg.out, format+"\n", args...)
}

func (cg *CodeGen) comment(format string, args ...any) {
	cg.line("    ; "+format, args...)
}

func (cg *CodeGen) label(l string) { cg.line("%s:", l) }

func (cg *CodeGen) newLabel(prefix string) string {
	l := fmt.Sprintf(".L%s%d", prefix, cg.nextLabel)
	cg.nextLabel++
	return l
}

// dataLabelFor interns a string literal into the .data section, returning
// its label. Equal literal text always reuses the same label.
func (cg *CodeGen) dataLabelFor(text string) string {
	if lbl, ok := cg.stringPool[text]; ok {
		return lbl
	}
	lbl := fmt.Sprintf("str_%d", len(cg.stringPool))
	cg.stringPool[text] = lbl
	cg.stringOrder = append(cg.stringOrder, text)
	return lbl
}

// floatLabelFor interns a float64 constant into the .data section as a
// double-precision quadword, returning its label. Kept separate from the
// string pool, whose label space is NUL-terminated byte text, not bit
// patterns.
func (cg *CodeGen) floatLabelFor(v float64) string {
	if lbl, ok := cg.floatPool[v]; ok {
		return lbl
	}
	lbl := fmt.Sprintf("flt_%d", len(cg.floatPool))
	cg.floatPool[v] = lbl
	cg.floatOrder = append(cg.floatOrder, v)
	return lbl
}

// Generate emits the complete .text body for prog (the runtime modules
// themselves are appended separately by internal/runtime per the selected
// feature set — see cmd/ec).
func Generate(prog *Program, result *AnalysisResult) string {
	cg := newCodeGen(result)

	cg.line("BITS 64")
	cg.line("default rel")
	cg.line("")
	cg.line("section .text")
	cg.line("global _start")
	cg.line("")

	for _, name := range prog.FuncOrder {
		cg.emitFunction(prog.Functions[name])
		cg.line("")
	}

	cg.emitEntry(prog.TopLevel)

	cg.line("")
	cg.emitDataSection()

	return cg.out.String()
}

func (cg *CodeGen) emitDataSection() {
	cg.line("section .data")
	cg.comment("_last_error is defined by the core runtime module, always linked in")
	for _, v := range cg.floatOrder {
		cg.line("%s: dq %s", cg.floatPool[v], formatNasmDouble(v))
	}
	for _, text := range cg.stringOrder {
		lbl := cg.stringPool[text]
		cg.line("%s: db %s, 0", lbl, nasmByteString(text))
		cg.line("%s_len: equ $ - %s - 1", lbl, lbl)
	}
}

// formatNasmDouble renders a float64 as a NASM floating-point literal
// (e.g. "3.5" or "-0.1"), which NASM's dq directive accepts directly.
func formatNasmDouble(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.Contains(s, ".") {
		if i := strings.IndexByte(s, 'e'); i >= 0 {
			s = s[:i] + ".0" + s[i:]
		} else {
			s += ".0"
		}
	}
	return s
}

// nasmByteString renders a Go string as a NASM db operand list, splitting
// out non-printable bytes as numeric literals since NASM string literals
// cannot embed arbitrary control characters.
func nasmByteString(s string) string {
	var parts []string
	var run strings.Builder
	flush := func() {
		if run.Len() > 0 {
			parts = append(parts, fmt.Sprintf("%q", run.String()))
			run.Reset()
		}
	}
	for _, b := range []byte(s) {
		if b >= 0x20 && b < 0x7f && b != '"' {
			run.WriteByte(b)
			continue
		}
		flush()
		parts = append(parts, fmt.Sprintf("%d", b))
	}
	flush()
	if len(parts) == 0 {
		return "\"\""
	}
	return strings.Join(parts, ", ")
}

// sysVArgRegs is the integer-argument register order for the first six
// function arguments under the System V ABI.
var sysVArgRegs = []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"}

func (cg *CodeGen) emitFunction(fn *FunctionDecl) {
	cg.currentFn = fn.Name
	cg.frame = newFrame()
	label := "fn_" + sanitizeLabel(fn.Name)

	cg.comment("function %q, %d param(s), returns %s", fn.Name, len(fn.Params), fn.ReturnType)
	cg.label(label)
	cg.line("    push rbp")
	cg.line("    mov rbp, rsp")

	for i, p := range fn.Params {
		off := cg.frame.declare(p.Name)
		if i < len(sysVArgRegs) {
			cg.line("    ; param %s", p.Name)
			cg.line("    sub rsp, 8")
			cg.line("    mov [rbp-%d], %s", off, sysVArgRegs[i])
		}
	}

	for _, s := range fn.Body {
		cg.emitStmt(s)
	}

	cg.label(".Lret_" + label)
	cg.line("    mov rsp, rbp")
	cg.line("    pop rbp")
	cg.line("    ret")
	cg.currentFn = ""
	cg.frame = nil
}

func sanitizeLabel(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// emitEntry emits _start: the program-level frame that hosts every
// top-level statement, followed by cleanup and a normal exit.
func (cg *CodeGen) emitEntry(topLevel []Stmt) {
	cg.currentFn = ""
	cg.frame = newFrame()

	cg.label("_start")
	cg.comment("save argc/argv before the frame is set up")
	cg.line("    call args_save")
	cg.line("    push rbp")
	cg.line("    mov rbp, rsp")

	for _, s := range topLevel {
		cg.emitStmt(s)
	}

	cg.label(".Lexit")
	cg.comment("run the resource cleanup table once, at the single exit path")
	cg.line("    call resource_cleanup_all")
	cg.line("    mov rdi, 0")
	cg.line("    call core_exit")
}

//  Statements

func (cg *CodeGen) emitStmt(s Stmt) {
	switch v := s.(type) {
	case *VarDecl:
		cg.emitVarDecl(v)
	case *Assignment:
		cg.emitAssignment(v)
	case *PrintStmt:
		cg.emitPrint(v)
	case *IfStmt:
		cg.emitIf(v)
	case *WhileStmt:
		cg.emitWhile(v)
	case *ForEachStmt:
		cg.emitForEach(v)
	case *ReturnStmt:
		cg.emitReturn(v)
	case *IncDecStmt:
		cg.emitIncDec(v)
	case *BreakStmt:
		cg.line("    jmp %s", cg.loopStack[len(cg.loopStack)-1].breakLabel)
	case *ContinueStmt:
		cg.line("    jmp %s", cg.loopStack[len(cg.loopStack)-1].continueLabel)
	case *ExitStmt:
		cg.emitExpr(v.Code)
		cg.line("    mov rdi, rax")
		cg.line("    call resource_cleanup_all")
		cg.line("    call core_exit")
	case *FileOpenStmt:
		cg.emitFileOpen(v)
	case *FileReadStmt:
		cg.emitExprInto(v.Source, "rdi")
		cg.emitExprInto(v.Dest, "rsi")
		cg.line("    call file_read")
		cg.emitOnErrorCheck(v.Position())
	case *FileWriteStmt:
		cg.emitExprInto(v.Value, "rsi")
		cg.emitExprInto(v.Dest, "rdi")
		cg.line("    call file_write_dispatch")
		cg.emitOnErrorCheck(v.Position())
	case *FileCloseStmt:
		cg.emitExprInto(v.Target, "rdi")
		cg.line("    call file_close")
	case *FileDeleteStmt:
		cg.emitExprInto(v.Path, "rdi")
		cg.line("    call file_delete")
		cg.emitOnErrorCheck(v.Position())
	case *BufferCreateStmt:
		cg.emitBufferCreate(v)
	case *BufferResizeStmt:
		cg.emitExprInto(v.Target, "rdi")
		cg.emitExprInto(v.NewSize, "rsi")
		cg.line("    call resource_buffer_resize")
		cg.emitOnErrorCheck(v.Position())
	case *ByteSetStmt:
		cg.emitExprInto(v.Buffer, "rdi")
		cg.emitExprInto(v.Index, "rsi")
		cg.emitExprInto(v.Value, "rdx")
		cg.line("    call binary_byte_write_checked")
		cg.emitOnErrorCheck(v.Position())
	case *ListAppendStmt:
		cg.emitExprInto(v.Target, "rdi")
		cg.emitExprInto(v.Value, "rsi")
		cg.line("    call list_append")
		if ref, ok := v.Target.(*VarRef); ok {
			if off, ok := cg.frame.offset(ref.Name); ok {
				cg.line("    mov [rbp-%d], rax", off)
			}
		}
	case *OnErrorStmt:
		cg.emitOnError(v)
	case *TimerStmt:
		cg.emitTimer(v)
	case *WaitStmt:
		cg.emitExprInto(v.Duration, "rdi")
		if v.Unit == WaitMillis {
			cg.line("    call time_sleep_ms")
		} else {
			cg.line("    call time_sleep_s")
		}
	case *ExprStmt:
		cg.emitExpr(v.Value)
	default:
		cg.comment("internal: unhandled statement %T", s)
	}
}

func (cg *CodeGen) emitVarDecl(v *VarDecl) {
	off := cg.frame.declare(v.Name)
	if v.Init == nil {
		cg.line("    mov qword [rbp-%d], 0", off)
		return
	}
	cg.emitExpr(v.Init)
	cg.storeResult(v.Declared, off)
}

// storeResult spills the value codegen just left in rax (or xmm0 for
// floats) into the stack slot at off.
func (cg *CodeGen) storeResult(t Type, off int) {
	if t.Kind == TypeFloat {
		cg.line("    movsd [rbp-%d], xmm0", off)
	} else {
		cg.line("    mov [rbp-%d], rax", off)
	}
}

func (cg *CodeGen) loadSlot(t Type, off int) {
	if t.Kind == TypeFloat {
		cg.line("    movsd xmm0, [rbp-%d]", off)
	} else {
		cg.line("    mov rax, [rbp-%d]", off)
	}
}

// emitAssignment assumes target is a *VarRef: the analyzer rejects every
// other assignment target before codegen ever runs (analyzeAssignment's
// lvalue check).
func (cg *CodeGen) emitAssignment(v *Assignment) {
	cg.emitExpr(v.Value)
	t := cg.result.TypeOf(v.Target)
	target, ok := v.Target.(*VarRef)
	if !ok {
		cg.comment("internal: unsupported assignment target %T", v.Target)
		return
	}
	off, ok := cg.frame.offset(target.Name)
	if !ok {
		cg.comment("internal: assignment to undeclared %q", target.Name)
		return
	}
	cg.storeResult(t, off)
}

func (cg *CodeGen) emitIncDec(v *IncDecStmt) {
	ref, ok := v.Target.(*VarRef)
	if !ok {
		cg.comment("internal: increment/decrement target must be a variable")
		return
	}
	off, _ := cg.frame.offset(ref.Name)
	if v.Increment {
		cg.line("    inc qword [rbp-%d]", off)
	} else {
		cg.line("    dec qword [rbp-%d]", off)
	}
}

func (cg *CodeGen) emitPrint(v *PrintStmt) {
	if len(v.ButIfClauses) == 0 {
		cg.emitPrintValue(v.Value, cg.result.TypeOf(v.Value), v.WithoutNL)
		return
	}
	done := cg.newLabel("print_done")
	for _, clause := range v.ButIfClauses {
		next := cg.newLabel("but_if")
		cg.emitExpr(clause.Condition)
		cg.line("    test rax, rax")
		cg.line("    jz %s", next)
		cg.emitPrintValue(clause.Value, cg.result.TypeOf(clause.Value), false)
		cg.line("    jmp %s", done)
		cg.label(next)
	}
	cg.emitPrintValue(v.Value, cg.result.TypeOf(v.Value), v.WithoutNL)
	cg.label(done)
}

// emitPrintValue dispatches to the io module's typed print helper.
func (cg *CodeGen) emitPrintValue(e Expr, t Type, withoutNL bool) {
	cg.emitExpr(e)
	switch t.Kind {
	case TypeInteger:
		cg.line("    mov rdi, rax")
		cg.line("    call io_print_int")
	case TypeFloat:
		cg.line("    call io_print_float")
	case TypeBoolean:
		cg.line("    mov rdi, rax")
		cg.line("    call io_print_bool")
	default:
		cg.line("    mov rdi, rax")
		cg.line("    call io_print_string")
	}
	if !withoutNL {
		cg.line("    call io_print_newline")
	}
}

func (cg *CodeGen) emitIf(v *IfStmt) {
	elseLabel := cg.newLabel("else")
	endLabel := cg.newLabel("endif")
	cg.emitExpr(v.Condition)
	cg.line("    test rax, rax")
	cg.line("    jz %s", elseLabel)
	for _, s := range v.Then {
		cg.emitStmt(s)
	}
	cg.line("    jmp %s", endLabel)
	cg.label(elseLabel)
	for _, s := range v.Else {
		cg.emitStmt(s)
	}
	cg.label(endLabel)
}

func (cg *CodeGen) emitWhile(v *WhileStmt) {
	top := cg.newLabel("while")
	end := cg.newLabel("endwhile")
	cg.loopStack = append(cg.loopStack, loopLabels{continueLabel: top, breakLabel: end})
	cg.label(top)
	cg.emitExpr(v.Condition)
	cg.line("    test rax, rax")
	cg.line("    jz %s", end)
	for _, s := range v.Body {
		cg.emitStmt(s)
	}
	cg.line("    jmp %s", top)
	cg.label(end)
	cg.loopStack = cg.loopStack[:len(cg.loopStack)-1]
}

// emitForEach lowers the four loop-expansion shapes: numeric range,
// list, argv, environment — each a counter-driven loop with a per-iteration
// bounds check for the list/argv/environment forms.
func (cg *CodeGen) emitForEach(v *ForEachStmt) {
	iterOff := cg.frame.declare(v.IterName)
	counterOff := cg.frame.next*8 + 8
	cg.frame.next++

	top := cg.newLabel("foreach")
	end := cg.newLabel("endforeach")
	cg.loopStack = append(cg.loopStack, loopLabels{continueLabel: top, breakLabel: end})

	switch v.Kind {
	case ForEachRange:
		cg.emitExpr(v.RangeStart)
		cg.line("    mov [rbp-%d], rax", counterOff)
		cg.label(top)
		cg.line("    mov rax, [rbp-%d]", counterOff)
		cg.emitExpr(v.RangeEnd)
		cg.line("    cmp [rbp-%d], rax", counterOff)
		cg.line("    jg %s", end)
		cg.line("    mov rax, [rbp-%d]", counterOff)
		cg.line("    mov [rbp-%d], rax", iterOff)
		cg.emitTreatings(v.Treatings, iterOff)
		for _, s := range v.Body {
			cg.emitStmt(s)
		}
		cg.line("    inc qword [rbp-%d]", counterOff)
		cg.line("    jmp %s", top)
	case ForEachArgv:
		cg.line("    mov qword [rbp-%d], 1", counterOff)
		cg.label(top)
		cg.line("    mov rdi, [rbp-%d]", counterOff)
		cg.line("    call args_count")
		cg.line("    cmp [rbp-%d], rax", counterOff)
		cg.line("    jge %s", end)
		cg.line("    mov rdi, [rbp-%d]", counterOff)
		cg.line("    call args_at")
		cg.line("    mov [rbp-%d], rax", iterOff)
		cg.emitTreatings(v.Treatings, iterOff)
		for _, s := range v.Body {
			cg.emitStmt(s)
		}
		cg.line("    inc qword [rbp-%d]", counterOff)
		cg.line("    jmp %s", top)
	case ForEachEnvironment:
		cg.line("    call args_environment_count")
		envLenOff := cg.frame.next*8 + 8
		cg.frame.next++
		cg.line("    mov [rbp-%d], rax", envLenOff)
		cg.line("    mov qword [rbp-%d], 1", counterOff)
		cg.label(top)
		cg.line("    mov rax, [rbp-%d]", counterOff)
		cg.line("    cmp rax, [rbp-%d]", envLenOff)
		cg.line("    jg %s", end)
		cg.line("    mov rdi, [rbp-%d]", counterOff)
		cg.line("    call args_environment_at")
		cg.line("    mov [rbp-%d], rax", iterOff)
		cg.emitTreatings(v.Treatings, iterOff)
		for _, s := range v.Body {
			cg.emitStmt(s)
		}
		cg.line("    inc qword [rbp-%d]", counterOff)
		cg.line("    jmp %s", top)
	default: // ForEachList
		cg.emitExprInto(v.Collection, "rdi")
		cg.line("    call list_length")
		listLenOff := cg.frame.next*8 + 8
		cg.frame.next++
		cg.line("    mov [rbp-%d], rax", listLenOff)
		cg.line("    mov qword [rbp-%d], 1", counterOff)
		cg.label(top)
		cg.line("    mov rax, [rbp-%d]", counterOff)
		cg.line("    cmp rax, [rbp-%d]", listLenOff)
		cg.line("    jg %s", end)
		cg.emitExprInto(v.Collection, "rdi")
		cg.line("    mov rsi, [rbp-%d]", counterOff)
		cg.line("    call list_element_checked")
		cg.line("    mov [rbp-%d], rax", iterOff)
		cg.emitTreatings(v.Treatings, iterOff)
		for _, s := range v.Body {
			cg.emitStmt(s)
		}
		cg.line("    inc qword [rbp-%d]", counterOff)
		cg.line("    jmp %s", top)
	}
	cg.label(end)
	cg.loopStack = cg.loopStack[:len(cg.loopStack)-1]
}

// emitTreatings lowers "treating M as R": a string-equal test before the
// body that substitutes R into the iterator's own slot for this iteration
// only — the next iteration reloads the real element, so there is nothing
// to restore.
func (cg *CodeGen) emitTreatings(treatings []TreatingClause, iterOff int) {
	for _, tc := range treatings {
		skip := cg.newLabel("treating")
		cg.line("    mov rax, [rbp-%d]", iterOff)
		cg.line("    mov rdi, rax")
		cg.emitExprInto(tc.Match, "rsi")
		cg.line("    call string_equal")
		cg.line("    test rax, rax")
		cg.line("    jz %s", skip)
		cg.emitExpr(tc.Replacement)
		cg.line("    mov [rbp-%d], rax", iterOff)
		cg.label(skip)
	}
}

func (cg *CodeGen) emitReturn(v *ReturnStmt) {
	if v.Value != nil {
		cg.emitExpr(v.Value)
	}
	cg.line("    jmp .Lret_fn_%s", sanitizeLabel(cg.currentFn))
}

func (cg *CodeGen) emitFileOpen(v *FileOpenStmt) {
	off := cg.frame.declare(v.Handle)
	cg.emitExprInto(v.Path, "rdi")
	switch v.Mode {
	case FileWriting:
		cg.line("    call file_open_writing")
	case FileAppending:
		cg.line("    call file_open_appending")
	default:
		cg.line("    call file_open_reading")
	}
	cg.line("    mov [rbp-%d], rax", off)
	cg.emitOnErrorCheck(v.Position())
}

func (cg *CodeGen) emitBufferCreate(v *BufferCreateStmt) {
	off := cg.frame.declare(v.Name)
	if v.Capacity != nil {
		cg.emitExprInto(v.Capacity, "rdi")
	} else {
		cg.line("    mov rdi, 4096")
	}
	if v.Fixed {
		cg.line("    call resource_buffer_alloc_fixed")
	} else {
		cg.line("    call resource_buffer_alloc_dynamic")
	}
	cg.line("    mov [rbp-%d], rax", off)
}

func (cg *CodeGen) emitTimer(v *TimerStmt) {
	switch v.Action {
	case TimerCreate:
		off := cg.frame.declare(v.Name)
		cg.line("    call time_timer_create")
		cg.line("    mov [rbp-%d], rax", off)
	case TimerStart:
		cg.emitExprInto(v.Target, "rdi")
		cg.line("    call time_timer_start")
	case TimerStop:
		cg.emitExprInto(v.Target, "rdi")
		cg.line("    call time_timer_stop")
	}
}

// emitOnError emits the guarded statement then immediately folds in its own
// compare-against-_last_error-and-branch; a *following* OnErrorStmt
// targeting the same guarded statement is impossible since the parser folds
// at most one handler per statement.
func (cg *CodeGen) emitOnError(v *OnErrorStmt) {
	if v.Guarded != nil {
		prevActive := cg.onErrorActive
		cg.onErrorActive = true
		cg.emitStmt(v.Guarded)
		cg.onErrorActive = prevActive
	}
	skip := cg.newLabel("no_error")
	cg.line("    mov rax, [_last_error]")
	cg.line("    test rax, rax")
	cg.line("    jz %s", skip)
	for _, s := range v.Handler {
		cg.emitStmt(s)
	}
	cg.line("    mov qword [_last_error], 0")
	cg.label(skip)
}

// emitOnErrorCheck is only a marker hook: the actual compare-and-branch is
// emitted once, by the enclosing OnErrorStmt, not after every fallible call.
// Kept as a no-op seam so new fallible statement kinds don't need to touch
// emitOnError's caller.
func (cg *CodeGen) emitOnErrorCheck(Position) {}

//  Expressions — leave the result in rax (or xmm0 for Float).

func (cg *CodeGen) emitExpr(e Expr) {
	switch v := e.(type) {
	case *IntLiteral:
		cg.line("    mov rax, %d", v.Value)
	case *FloatLiteral:
		lbl := cg.floatLabelFor(v.Value)
		cg.line("    movsd xmm0, [%s]", lbl)
	case *StringLiteral:
		lbl := cg.dataLabelFor(v.Value)
		cg.line("    lea rax, [%s]", lbl)
	case *BoolLiteral:
		if v.Value {
			cg.line("    mov rax, 1")
		} else {
			cg.line("    mov rax, 0")
		}
	case *FormatString:
		cg.emitFormatString(v)
	case *VarRef:
		off, ok := cg.frame.offset(v.Name)
		if !ok {
			cg.comment("internal: reference to undeclared %q", v.Name)
			return
		}
		cg.loadSlot(cg.result.TypeOf(v), off)
	case *BinaryExpr:
		cg.emitBinary(v)
	case *UnaryExpr:
		cg.emitUnary(v)
	case *FunctionCall:
		cg.emitCall(v)
	case *PropertyAccess:
		cg.emitProperty(v)
	case *IndexAccess:
		cg.emitIndexAccess(v)
	case *CastExpr:
		cg.emitCast(v)
	case *BuiltinQuery:
		cg.emitBuiltin(v)
	case *PathExistsExpr:
		cg.emitExprInto(v.Path, "rdi")
		cg.line("    call file_exists")
	default:
		cg.comment("internal: unhandled expression %T", e)
	}
}

// sysVFloatArgRegs mirrors sysVArgRegs for the xmm registers the System V
// ABI uses to pass floating-point arguments.
var sysVFloatArgRegs = map[string]string{
	"rdi": "xmm0", "rsi": "xmm1", "rdx": "xmm2",
	"rcx": "xmm3", "r8": "xmm4", "r9": "xmm5",
}

// emitExprInto evaluates e and moves the result into reg (the generator's
// own evaluation always lands in rax/xmm0 first, then shuffles). For a
// Float-typed expr, reg is reinterpreted as the matching xmm argument
// register per the System V ABI's separate float-argument class.
func (cg *CodeGen) emitExprInto(e Expr, reg string) {
	cg.emitExpr(e)
	t := cg.result.TypeOf(e)
	if t.Kind == TypeFloat {
		dest := reg
		if x, ok := sysVFloatArgRegs[reg]; ok {
			dest = x
		}
		if dest != "xmm0" {
			cg.line("    movsd %s, xmm0", dest)
		}
	} else {
		cg.line("    mov %s, rax", reg)
	}
}

var binaryMnemonic = map[BinaryOp]string{
	OpAdd: "add", OpSub: "sub", OpMul: "imul",
	OpBitAnd: "and", OpBitOr: "or", OpBitXor: "xor",
	OpShl: "shl", OpShr: "shr",
}

var compareSet = map[BinaryOp]string{
	OpEq: "sete", OpNotEq: "setne", OpLess: "setl",
	OpLessEq: "setle", OpGreater: "setg", OpGreaterEq: "setge",
}

func (cg *CodeGen) emitBinary(v *BinaryExpr) {
	lt := cg.result.TypeOf(v.Left)
	switch v.Op {
	case OpAnd:
		falseLabel := cg.newLabel("and_false")
		end := cg.newLabel("and_end")
		cg.emitExpr(v.Left)
		cg.line("    test rax, rax")
		cg.line("    jz %s", falseLabel)
		cg.emitExpr(v.Right)
		cg.line("    jmp %s", end)
		cg.label(falseLabel)
		cg.line("    mov rax, 0")
		cg.label(end)
		return
	case OpOr:
		trueLabel := cg.newLabel("or_true")
		end := cg.newLabel("or_end")
		cg.emitExpr(v.Left)
		cg.line("    test rax, rax")
		cg.line("    jnz %s", trueLabel)
		cg.emitExpr(v.Right)
		cg.line("    jmp %s", end)
		cg.label(trueLabel)
		cg.line("    mov rax, 1")
		cg.label(end)
		return
	}

	if lt.Kind == TypeString && (v.Op == OpEq || v.Op == OpNotEq) {
		cg.emitExprInto(v.Left, "rdi")
		cg.emitExprInto(v.Right, "rsi")
		cg.line("    call string_equal")
		if v.Op == OpNotEq {
			cg.line("    xor rax, 1")
		}
		return
	}
	if lt.Kind == TypeString && v.Op == OpAdd {
		cg.emitExprInto(v.Left, "rdi")
		cg.emitExprInto(v.Right, "rsi")
		cg.line("    call string_concat")
		return
	}

	if lt.Kind == TypeFloat {
		cg.emitFloatBinary(v)
		return
	}

	if mn, ok := compareSet[v.Op]; ok {
		cg.emitExpr(v.Left)
		cg.line("    push rax")
		cg.emitExpr(v.Right)
		cg.line("    pop rdi")
		cg.line("    cmp rdi, rax")
		cg.line("    %s al", mn)
		cg.line("    movzx rax, al")
		return
	}

	switch v.Op {
	case OpDiv, OpMod:
		cg.emitExpr(v.Left)
		cg.line("    push rax")
		cg.emitExpr(v.Right)
		cg.line("    mov rcx, rax")
		cg.line("    pop rax")
		cg.line("    cqo")
		cg.line("    idiv rcx")
		if v.Op == OpMod {
			cg.line("    mov rax, rdx")
		}
	case OpShl, OpShr:
		cg.emitExpr(v.Left)
		cg.line("    push rax")
		cg.emitExpr(v.Right)
		cg.line("    mov rcx, rax")
		cg.line("    pop rax")
		cg.line("    %s rax, cl", binaryMnemonic[v.Op])
	default:
		cg.emitExpr(v.Left)
		cg.line("    push rax")
		cg.emitExpr(v.Right)
		cg.line("    pop rdi")
		cg.line("    %s rdi, rax", binaryMnemonic[v.Op])
		cg.line("    mov rax, rdi")
	}
}

// emitFloatBinary emits float arithmetic as inline SSE2 (addsd/subsd/mulsd/
// divsd) and routes comparisons through the float module's float_compare
// helper; integer operands are widened in one place, emitFloatOperand.
func (cg *CodeGen) emitFloatBinary(v *BinaryExpr) {
	cg.emitFloatOperand(v.Left)
	cg.line("    movsd xmm1, xmm0")
	cg.emitFloatOperand(v.Right)
	switch v.Op {
	case OpAdd:
		cg.line("    addsd xmm1, xmm0")
	case OpSub:
		cg.line("    subsd xmm1, xmm0")
	case OpMul:
		cg.line("    mulsd xmm1, xmm0")
	case OpDiv:
		cg.line("    divsd xmm1, xmm0")
	default:
		if mn, ok := compareSet[v.Op]; ok {
			cg.line("    call float_compare")
			cg.line("    %s al", mn)
			cg.line("    movzx rax, al")
			return
		}
	}
	cg.line("    movsd xmm0, xmm1")
}

func (cg *CodeGen) emitFloatOperand(e Expr) {
	cg.emitExpr(e)
	if cg.result.TypeOf(e).Kind == TypeInteger {
		cg.line("    cvtsi2sd xmm0, rax")
	}
}

func (cg *CodeGen) emitUnary(v *UnaryExpr) {
	cg.emitExpr(v.Operand)
	isFloat := cg.result.TypeOf(v.Operand).Kind == TypeFloat
	switch v.Op {
	case OpNegate:
		if isFloat {
			cg.line("    call float_negate")
		} else {
			cg.line("    neg rax")
		}
	case OpNot:
		cg.line("    xor rax, 1")
	case OpBitNot:
		cg.line("    not rax")
	case OpAbsolute:
		if isFloat {
			cg.line("    call float_abs")
		} else {
			cg.line("    call math_abs")
		}
	case OpSign:
		if isFloat {
			cg.line("    call float_sign")
		} else {
			cg.line("    call math_sign")
		}
	}
}

func (cg *CodeGen) emitCall(v *FunctionCall) {
	for i := len(v.Args) - 1; i >= 0; i-- {
		cg.emitExpr(v.Args[i])
		cg.line("    push rax")
	}
	for i := range v.Args {
		if i >= len(sysVArgRegs) {
			break
		}
		cg.line("    pop %s", sysVArgRegs[i])
	}
	cg.line("    call fn_%s", sanitizeLabel(v.Name))
}

func (cg *CodeGen) emitProperty(v *PropertyAccess) {
	objType := cg.result.TypeOf(v.Object)
	_, op, ok := LookupProperty(objType, v.Property)
	if !ok {
		cg.comment("internal: unresolved property %q", v.Property)
		return
	}
	cg.emitExprInto(v.Object, "rdi")
	cg.line("    call %s", propertyHelper(op))
}

func propertyHelper(op LoweredOp) string {
	return strings.ReplaceAll(string(op), ".", "_")
}

func (cg *CodeGen) emitIndexAccess(v *IndexAccess) {
	cg.emitExprInto(v.Collection, "rdi")
	cg.emitExprInto(v.Index, "rsi")
	if v.Kind == IndexByte {
		cg.line("    call binary_byte_read_checked")
	} else {
		cg.line("    call list_element_checked")
	}
}

func (cg *CodeGen) emitCast(v *CastExpr) {
	switch v.Kind {
	case CastAsType:
		cg.emitExpr(v.Value)
		srcType := cg.result.TypeOf(v.Value)
		cg.emitTypeConversion(srcType, v.TargetTyp)
	case CastInUnit:
		cg.emitExprInto(v.Value, "rdi")
		cg.line("    mov rsi, time_unit_%s", sanitizeLabel(v.Unit))
		cg.line("    call time_convert_unit")
	case CastAsTextPadded:
		cg.emitExprInto(v.Value, "rdi")
		cg.line("    mov rsi, %d", v.PadWidth)
		cg.line("    call format_pad_text")
	}
}

func (cg *CodeGen) emitTypeConversion(src, dst Type) {
	switch {
	case src.Equal(dst):
		// no-op
	case src.Kind == TypeInteger && dst.Kind == TypeFloat:
		cg.line("    cvtsi2sd xmm0, rax")
	case src.Kind == TypeFloat && dst.Kind == TypeInteger:
		cg.line("    cvttsd2si rax, xmm0")
	case dst.Kind == TypeString && src.Kind == TypeInteger:
		cg.line("    mov rdi, rax")
		cg.line("    call format_int_to_string")
	case dst.Kind == TypeString && src.Kind == TypeFloat:
		cg.line("    call format_float_to_string")
	case dst.Kind == TypeInteger && src.Kind == TypeString:
		cg.line("    mov rdi, rax")
		cg.line("    call format_string_to_int")
	default:
		cg.comment("internal: unsupported cast %s -> %s", src, dst)
	}
}

func (cg *CodeGen) emitBuiltin(v *BuiltinQuery) {
	switch v.Kind {
	case QueryArgumentsAll:
		cg.line("    call args_all")
	case QueryArgumentCount:
		cg.line("    call args_count_total")
	case QueryArgumentAt:
		cg.emitExprInto(v.Index, "rdi")
		cg.line("    call args_at")
	case QueryProgramName:
		cg.line("    call args_program_name")
	case QueryEnvironmentByName:
		cg.emitExprInto(v.Name, "rdi")
		cg.line("    call args_environment_lookup")
	case QueryEnvironmentByIndex:
		cg.emitExprInto(v.Index, "rdi")
		cg.line("    call args_environment_at")
	case QueryEnvironmentCount:
		cg.line("    call args_environment_count")
	case QueryCurrentTime:
		cg.line("    call time_wall_clock")
	}
}

// emitFormatString lowers a {expr[:spec]} format string into a sequence of
// string_builder_append calls against a freshly allocated heap builder,
// finishing with string_builder_finish.
func (cg *CodeGen) emitFormatString(f *FormatString) {
	cg.line("    call string_builder_new")
	cg.line("    push rax")
	for _, chunk := range f.Chunks {
		cg.line("    mov rdi, [rsp]")
		if chunk.Hole == nil {
			lbl := cg.dataLabelFor(chunk.Literal)
			cg.line("    lea rsi, [%s]", lbl)
			cg.line("    call string_builder_append_literal")
			continue
		}
		holeType := cg.result.TypeOf(chunk.Hole)
		cg.emitExprInto(chunk.Hole, "rsi")
		specLabel := cg.dataLabelFor(chunk.Spec)
		cg.line("    mov rdx, %s", specLabel)
		switch holeType.Kind {
		case TypeInteger:
			cg.line("    call string_builder_append_int_spec")
		case TypeFloat:
			cg.line("    call string_builder_append_float_spec")
		default:
			cg.line("    call string_builder_append_string")
		}
	}
	cg.line("    pop rdi")
	cg.line("    mov rax, rdi")
	cg.line("    call string_builder_finish")
}
