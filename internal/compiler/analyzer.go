package compiler

import (
	"fmt"

	"ec/internal/diag"
)

// FeatureSet records which runtime modules the program's constructs
// require. "core" is always on; everything else is additive and monotonic —
// once a construct turns a flag on, codegen.go never turns it back off.
type FeatureSet map[string]bool

func newFeatureSet() FeatureSet {
	return FeatureSet{"core": true}
}

func (f FeatureSet) use(name string) { f[name] = true }

// Sorted returns the active module names in a fixed, deterministic order,
// for stable codegen output.
func (f FeatureSet) Sorted() []string {
	order := []string{"core", "io", "resource", "heap", "string", "binary", "list", "math", "float", "args", "time", "file", "format"}
	var out []string
	for _, name := range order {
		if f[name] {
			out = append(out, name)
		}
	}
	return out
}

// AnalysisResult is everything codegen.go needs beyond the Program itself.
type AnalysisResult struct {
	Features  FeatureSet
	ExprTypes map[Expr]Type
	Funcs     *FunctionTable
}

func (r *AnalysisResult) TypeOf(e Expr) Type {
	if t, ok := r.ExprTypes[e]; ok {
		return t
	}
	return Unknown
}

// Analyzer performs one pass over a Program: infers every expression's
// type, validates declarations/assignments/calls/property access/loop
// expansions, and records which runtime feature flags the emitted program
// will need.
type Analyzer struct {
	sink      *diag.Sink
	scopes    *ScopeStack
	funcs     *FunctionTable
	features  FeatureSet
	exprTypes map[Expr]Type

	currentReturn *Type // non-nil while analyzing a function body
	loopDepth     int
}

func Analyze(prog *Program) (*AnalysisResult, *diag.Sink) {
	a := &Analyzer{
		sink:      diag.NewSink(),
		scopes:    NewScopeStack(),
		funcs:     NewFunctionTable(prog),
		features:  newFeatureSet(),
		exprTypes: make(map[Expr]Type),
	}

	for _, name := range prog.FuncOrder {
		fn := prog.Functions[name]
		a.analyzeFunction(fn)
	}
	a.analyzeBlock(prog.TopLevel)

	a.checkUnusedFunctions(prog)

	return &AnalysisResult{Features: a.features, ExprTypes: a.exprTypes, Funcs: a.funcs}, a.sink
}

func (a *Analyzer) errorf(pos Position, format string, args ...any) {
	a.sink.Error(diagPos(pos), format, args...)
}

func (a *Analyzer) warnf(pos Position, format string, args ...any) {
	a.sink.Warn(diagPos(pos), format, args...)
}

func diagPos(p Position) diag.Position { return diag.Position(p) }

//  Functions

func (a *Analyzer) analyzeFunction(fn *FunctionDecl) {
	a.scopes.Push()
	for _, param := range fn.Params {
		a.scopes.Declare(param.Name, param.Typ, true)
		a.useTypeFeatures(param.Typ)
	}
	a.useTypeFeatures(fn.ReturnType)
	ret := fn.ReturnType
	prevReturn := a.currentReturn
	a.currentReturn = &ret
	a.analyzeBlock(fn.Body)
	a.currentReturn = prevReturn
	a.scopes.Pop()
}

func (a *Analyzer) checkUnusedFunctions(prog *Program) {
	used := map[string]bool{}
	var walkExpr func(Expr)
	var walkStmt func(Stmt)
	walkExpr = func(e Expr) {
		switch v := e.(type) {
		case *FunctionCall:
			used[v.Name] = true
			for _, arg := range v.Args {
				walkExpr(arg)
			}
		case *BinaryExpr:
			walkExpr(v.Left)
			walkExpr(v.Right)
		case *UnaryExpr:
			walkExpr(v.Operand)
		case *PropertyAccess:
			walkExpr(v.Object)
		case *PathExistsExpr:
			walkExpr(v.Path)
		case *IndexAccess:
			walkExpr(v.Collection)
			walkExpr(v.Index)
		case *CastExpr:
			walkExpr(v.Value)
		case *FormatString:
			for _, c := range v.Chunks {
				if c.Hole != nil {
					walkExpr(c.Hole)
				}
			}
		}
	}
	walkStmt = func(s Stmt) {
		switch v := s.(type) {
		case *ExprStmt:
			walkExpr(v.Value)
		case *Assignment:
			walkExpr(v.Value)
		case *VarDecl:
			if v.Init != nil {
				walkExpr(v.Init)
			}
		case *IfStmt:
			walkExpr(v.Condition)
			for _, s := range v.Then {
				walkStmt(s)
			}
			for _, s := range v.Else {
				walkStmt(s)
			}
		case *WhileStmt:
			walkExpr(v.Condition)
			for _, s := range v.Body {
				walkStmt(s)
			}
		case *ForEachStmt:
			for _, s := range v.Body {
				walkStmt(s)
			}
		case *PrintStmt:
			walkExpr(v.Value)
		case *ReturnStmt:
			if v.Value != nil {
				walkExpr(v.Value)
			}
		}
	}
	for _, name := range prog.FuncOrder {
		for _, s := range prog.Functions[name].Body {
			walkStmt(s)
		}
	}
	for _, s := range prog.TopLevel {
		walkStmt(s)
	}
	for _, name := range prog.FuncOrder {
		if !used[name] {
			a.warnf(prog.Functions[name].Position(), "function %q is declared but never called", name)
		}
	}
}

func (a *Analyzer) useTypeFeatures(t Type) {
	switch t.Kind {
	case TypeFloat:
		a.features.use("float")
	case TypeList:
		a.features.use("list")
		if t.Element != nil {
			a.useTypeFeatures(*t.Element)
		}
	case TypeBuffer:
		a.features.use("resource")
	case TypeFile:
		a.features.use("file")
		a.features.use("resource")
	case TypeTime, TypeTimer:
		a.features.use("time")
	case TypeString:
		a.features.use("string")
	}
}

//  Statements

func (a *Analyzer) analyzeBlock(stmts []Stmt) {
	for _, s := range stmts {
		a.analyzeStmt(s)
	}
}

func (a *Analyzer) analyzeStmt(s Stmt) {
	switch v := s.(type) {
	case *VarDecl:
		a.analyzeVarDecl(v)
	case *Assignment:
		a.analyzeAssignment(v)
	case *PrintStmt:
		a.analyzePrint(v)
	case *IfStmt:
		cond := a.infer(v.Condition)
		if cond.Kind != TypeBoolean && cond.Kind != TypeUnknown {
			a.errorf(v.Position(), "if condition must be a boolean, got %s", cond)
		}
		a.scopes.Push()
		a.analyzeBlock(v.Then)
		a.scopes.Pop()
		a.scopes.Push()
		a.analyzeBlock(v.Else)
		a.scopes.Pop()
	case *WhileStmt:
		a.infer(v.Condition)
		a.loopDepth++
		a.scopes.Push()
		a.analyzeBlock(v.Body)
		a.scopes.Pop()
		a.loopDepth--
		if len(v.Body) == 0 {
			a.warnf(v.Position(), "empty loop body")
		}
	case *ForEachStmt:
		a.analyzeForEach(v)
	case *FunctionDecl:
		// Nested function declarations are not part of the grammar; unreachable.
	case *ReturnStmt:
		a.analyzeReturn(v)
	case *IncDecStmt:
		t := a.infer(v.Target)
		if t.Kind != TypeInteger && t.Kind != TypeUnknown {
			a.errorf(v.Position(), "increment/decrement requires a number, got %s", t)
		}
	case *BreakStmt:
		if a.loopDepth == 0 {
			a.errorf(v.Position(), "break outside a loop")
		}
	case *ContinueStmt:
		if a.loopDepth == 0 {
			a.errorf(v.Position(), "continue outside a loop")
		}
	case *ExitStmt:
		a.features.use("core")
		a.infer(v.Code)
	case *FileOpenStmt:
		a.features.use("file")
		a.features.use("resource")
		if v.Path != nil {
			a.infer(v.Path)
		}
		a.scopes.Declare(v.Handle, File, false)
	case *FileReadStmt:
		a.features.use("file")
		a.infer(v.Source)
		a.infer(v.Dest)
	case *FileWriteStmt:
		a.features.use("file")
		a.infer(v.Value)
		a.infer(v.Dest)
	case *FileCloseStmt:
		a.features.use("file")
		a.infer(v.Target)
	case *FileDeleteStmt:
		a.features.use("file")
		a.infer(v.Path)
	case *BufferCreateStmt:
		a.features.use("resource")
		if v.Capacity != nil {
			a.infer(v.Capacity)
		}
		a.scopes.Declare(v.Name, Buffer, false)
	case *BufferResizeStmt:
		a.features.use("resource")
		a.infer(v.Target)
		a.infer(v.NewSize)
	case *ByteSetStmt:
		a.features.use("binary")
		a.infer(v.Index)
		a.infer(v.Buffer)
		a.infer(v.Value)
	case *ListAppendStmt:
		a.analyzeListAppend(v)
	case *OnErrorStmt:
		if v.Guarded == nil {
			a.errorf(v.Position(), "'on error' has no preceding statement to guard")
		} else {
			a.analyzeStmt(v.Guarded)
		}
		a.scopes.Push()
		a.analyzeBlock(v.Handler)
		a.scopes.Pop()
	case *TimerStmt:
		a.features.use("time")
		if v.Action == TimerCreate {
			a.scopes.Declare(v.Name, Timer, false)
		} else if v.Target != nil {
			a.infer(v.Target)
		}
	case *WaitStmt:
		a.features.use("time")
		a.infer(v.Duration)
	case *ExprStmt:
		a.infer(v.Value)
	default:
		a.errorf(s.Position(), "internal: unhandled statement %T", s)
	}
}

func (a *Analyzer) analyzeVarDecl(v *VarDecl) {
	a.useTypeFeatures(v.Declared)
	if v.Init != nil {
		initType := a.infer(v.Init)
		if !assignable(v.Declared, initType) {
			a.errorf(v.Position(), "cannot initialize %s %q with a value of type %s", v.Declared, v.Name, initType)
		}
	}
	if _, shadowed := a.scopes.Current().LookupLocal(v.Name); shadowed {
		a.errorf(v.Position(), "%q is already declared in this scope", v.Name)
		v.IsShadowed = true
	} else if _, outer := a.scopes.Lookup(v.Name); outer {
		a.warnf(v.Position(), "%q shadows an outer declaration", v.Name)
		v.IsShadowed = true
	}
	a.scopes.Declare(v.Name, v.Declared, false)
}

// assignable reports whether a value of type src may be stored into a
// variable declared as dst — exact match, or integer widened to float
//.
func assignable(dst, src Type) bool {
	if dst.Equal(src) {
		return true
	}
	if dst.Kind == TypeFloat && src.Kind == TypeInteger {
		return true
	}
	return dst.Kind == TypeUnknown || src.Kind == TypeUnknown
}

func (a *Analyzer) analyzeAssignment(v *Assignment) {
	if _, ok := v.Target.(*VarRef); !ok {
		a.errorf(v.Position(), "assignment target must be a variable, not %s", v.Target)
		a.infer(v.Value)
		return
	}
	targetType := a.infer(v.Target)
	valType := a.infer(v.Value)
	if !assignable(targetType, valType) {
		a.errorf(v.Position(), "cannot assign a value of type %s to target of type %s", valType, targetType)
	}
}

func (a *Analyzer) analyzePrint(v *PrintStmt) {
	a.features.use("io")
	a.infer(v.Value)
	for _, clause := range v.ButIfClauses {
		cond := a.infer(clause.Condition)
		if cond.Kind != TypeBoolean && cond.Kind != TypeUnknown {
			a.errorf(v.Position(), "'but if' condition must be a boolean, got %s", cond)
		}
		a.infer(clause.Value)
	}
}

func (a *Analyzer) analyzeReturn(v *ReturnStmt) {
	if a.currentReturn == nil {
		a.errorf(v.Position(), "return outside a function")
		if v.Value != nil {
			a.infer(v.Value)
		}
		return
	}
	want := *a.currentReturn
	if v.Value == nil {
		if want.Kind != TypeUnknown {
			a.errorf(v.Position(), "function must return a %s, got bare return", want)
		}
		return
	}
	got := a.infer(v.Value)
	if want.Kind == TypeUnknown {
		a.errorf(v.Position(), "function declares no return type but returns a value of type %s", got)
		return
	}
	if !assignable(want, got) {
		a.errorf(v.Position(), "function must return a %s, got %s", want, got)
	}
}

func (a *Analyzer) analyzeListAppend(v *ListAppendStmt) {
	a.features.use("list")
	listType := a.infer(v.Target)
	valType := a.infer(v.Value)
	if listType.Kind != TypeList && listType.Kind != TypeUnknown {
		a.errorf(v.Position(), "cannot append to a value of type %s", listType)
		return
	}
	if listType.Element != nil && !assignable(*listType.Element, valType) {
		a.warnf(v.Position(), "appending a %s onto a list of %s (mixed-type append)", valType, listType.Element)
	}
}

// analyzeForEach resolves Kind from the already-parsed shape: an explicit
// range was set by the parser; otherwise the collection's inferred type
// decides list vs argv vs environment.
func (a *Analyzer) analyzeForEach(v *ForEachStmt) {
	var iterType Type
	switch v.Kind {
	case ForEachRange:
		startT := a.infer(v.RangeStart)
		endT := a.infer(v.RangeEnd)
		if startT.Kind != TypeInteger || endT.Kind != TypeInteger {
			a.errorf(v.Position(), "for-each range bounds must be numbers")
		}
		iterType = Integer
	default:
		if bq, ok := v.Collection.(*BuiltinQuery); ok && bq.Kind == QueryArgumentsAll {
			v.Kind = ForEachArgv
			iterType = String
			a.features.use("args")
		} else if bq, ok := v.Collection.(*BuiltinQuery); ok && bq.Kind == QueryEnvironmentCount {
			v.Kind = ForEachEnvironment
			iterType = String
			a.features.use("args")
		} else {
			collType := a.infer(v.Collection)
			if collType.Kind != TypeList && collType.Kind != TypeUnknown {
				a.errorf(v.Position(), "for-each collection must be a list, a range, or arguments, got %s", collType)
			}
			v.Kind = ForEachList
			a.features.use("list")
			if collType.Element != nil {
				iterType = *collType.Element
			} else {
				iterType = Unknown
			}
		}
	}
	v.IterType = iterType

	a.scopes.Push()
	a.scopes.Declare(v.IterName, iterType, false)
	for _, tc := range v.Treatings {
		a.infer(tc.Match)
		a.infer(tc.Replacement)
	}
	a.loopDepth++
	a.analyzeBlock(v.Body)
	a.loopDepth--
	a.scopes.Pop()
}

//  Expressions

func (a *Analyzer) infer(e Expr) Type {
	if e == nil {
		return Unknown
	}
	t := a.inferUncached(e)
	a.exprTypes[e] = t
	return t
}

func (a *Analyzer) inferUncached(e Expr) Type {
	switch v := e.(type) {
	case *IntLiteral:
		return Integer
	case *FloatLiteral:
		a.features.use("float")
		return Float
	case *StringLiteral:
		a.features.use("string")
		return String
	case *BoolLiteral:
		return Boolean
	case *FormatString:
		a.features.use("string")
		a.features.use("heap")
		a.features.use("format")
		for _, c := range v.Chunks {
			if c.Hole != nil {
				a.infer(c.Hole)
			}
		}
		return String
	case *VarRef:
		sym, ok := a.scopes.Lookup(v.Name)
		if !ok {
			a.errorf(v.Pos, "undefined variable %q", v.Name)
			return Unknown
		}
		return sym.Typ
	case *BinaryExpr:
		return a.inferBinary(v)
	case *UnaryExpr:
		return a.inferUnary(v)
	case *FunctionCall:
		return a.inferCall(v)
	case *PropertyAccess:
		return a.inferProperty(v)
	case *IndexAccess:
		return a.inferIndex(v)
	case *CastExpr:
		return a.inferCast(v)
	case *BuiltinQuery:
		return a.inferBuiltin(v)
	case *PathExistsExpr:
		a.features.use("file")
		a.infer(v.Path)
		return Boolean
	default:
		a.errorf(Position{}, "internal: unhandled expression %T", e)
		return Unknown
	}
}

func (a *Analyzer) inferBinary(v *BinaryExpr) Type {
	l := a.infer(v.Left)
	r := a.infer(v.Right)
	switch v.Op {
	case OpAnd, OpOr:
		if l.Kind != TypeBoolean && l.Kind != TypeUnknown {
			a.errorf(v.Pos, "left operand of %s must be a boolean, got %s", v.Op, l)
		}
		if r.Kind != TypeBoolean && r.Kind != TypeUnknown {
			a.errorf(v.Pos, "right operand of %s must be a boolean, got %s", v.Op, r)
		}
		return Boolean
	case OpEq, OpNotEq, OpLess, OpLessEq, OpGreater, OpGreaterEq:
		if l.Kind == TypeString && r.Kind == TypeString {
			a.features.use("string")
		} else if !l.IsNumeric() && l.Kind != TypeUnknown {
			a.errorf(v.Pos, "cannot compare a value of type %s", l)
		}
		return Boolean
	case OpBitAnd, OpBitOr, OpBitXor, OpShl, OpShr:
		a.features.use("binary")
		if l.Kind != TypeInteger && l.Kind != TypeUnknown {
			a.errorf(v.Pos, "bitwise/shift operands must be numbers, got %s", l)
		}
		return Integer
	default: // arithmetic
		if l.Kind == TypeString || r.Kind == TypeString {
			if v.Op == OpAdd {
				a.features.use("string")
				a.features.use("heap")
				return String
			}
			a.errorf(v.Pos, "operator %s is not defined for text", v.Op)
			return Unknown
		}
		if l.Kind == TypeFloat || r.Kind == TypeFloat {
			a.features.use("float")
			return Float
		}
		if l.Kind != TypeInteger && l.Kind != TypeUnknown {
			a.errorf(v.Pos, "operator %s requires numbers, got %s", v.Op, l)
		}
		return Integer
	}
}

func (a *Analyzer) inferUnary(v *UnaryExpr) Type {
	t := a.infer(v.Operand)
	switch v.Op {
	case OpNot:
		if t.Kind != TypeBoolean && t.Kind != TypeUnknown {
			a.errorf(v.Pos, "'not' requires a boolean, got %s", t)
		}
		return Boolean
	case OpBitNot:
		a.features.use("binary")
		return Integer
	case OpAbsolute, OpSign:
		a.features.use("math")
		return t
	default: // negate
		if t.Kind == TypeFloat {
			a.features.use("float")
		}
		return t
	}
}

func (a *Analyzer) inferCall(v *FunctionCall) Type {
	fn, ok := a.funcs.Lookup(v.Name)
	if !ok {
		a.errorf(v.Pos, "undefined function %q", v.Name)
		for _, arg := range v.Args {
			a.infer(arg)
		}
		return Unknown
	}
	if len(v.Args) != len(fn.Params) {
		a.errorf(v.Pos, "%q expects %d argument(s), got %d", v.Name, len(fn.Params), len(v.Args))
	}
	for i, arg := range v.Args {
		argType := a.infer(arg)
		if i < len(fn.Params) && !assignable(fn.Params[i].Typ, argType) {
			a.errorf(v.Pos, "%q argument %d: expected %s, got %s", v.Name, i+1, fn.Params[i].Typ, argType)
		}
	}
	return fn.ReturnType
}

func (a *Analyzer) inferProperty(v *PropertyAccess) Type {
	objType := a.infer(v.Object)
	if objType.Kind == TypeUnknown {
		return Unknown
	}
	result, op, ok := LookupProperty(objType, v.Property)
	if !ok {
		hint := diag.Suggest(v.Property, propertyNames(objType.Kind))
		msg := fmt.Sprintf("%s has no property %q", objType, v.Property)
		if hint != "" {
			msg += fmt.Sprintf(" (did you mean %q?)", hint)
		}
		a.errorf(v.Pos, "%s", msg)
		return Unknown
	}
	a.useLoweredOpFeature(op)
	return result
}

func (a *Analyzer) useLoweredOpFeature(op LoweredOp) {
	switch {
	case op == OpListLength || op == OpListCapacity || op == OpListEmpty || op == OpListFirst || op == OpListLast:
		a.features.use("list")
	case op == OpBufferLength || op == OpBufferCapacity || op == OpBufferFull:
		a.features.use("resource")
	case op == OpFileSize:
		a.features.use("file")
	case op == OpStringLength:
		a.features.use("string")
	case op == OpTimeUnix || op == OpTimeYear || op == OpTimeMonth || op == OpTimeDay ||
		op == OpTimeHour || op == OpTimeMinute || op == OpTimeSecond:
		a.features.use("time")
	case op == OpTimerElapsedSeconds || op == OpTimerElapsedMillis:
		a.features.use("time")
	}
}

func (a *Analyzer) inferIndex(v *IndexAccess) Type {
	collType := a.infer(v.Collection)
	a.infer(v.Index)
	if v.Kind == IndexByte {
		a.features.use("binary")
		if collType.Kind != TypeBuffer && collType.Kind != TypeUnknown {
			a.errorf(v.Pos, "byte access requires a buffer, got %s", collType)
		}
		return Integer
	}
	a.features.use("list")
	if collType.Kind != TypeList && collType.Kind != TypeUnknown {
		a.errorf(v.Pos, "element access requires a list, got %s", collType)
		return Unknown
	}
	if collType.Element != nil {
		return *collType.Element
	}
	return Unknown
}

func (a *Analyzer) inferCast(v *CastExpr) Type {
	srcType := a.infer(v.Value)
	switch v.Kind {
	case CastAsType:
		if v.TargetTyp.Kind == TypeFloat || srcType.Kind == TypeFloat {
			a.features.use("float")
		}
		if v.TargetTyp.Kind == TypeString {
			a.features.use("string")
			a.features.use("format")
		}
		return v.TargetTyp
	case CastAsTextPadded:
		a.features.use("string")
		a.features.use("format")
		return String
	case CastInUnit:
		a.features.use("time")
		return Integer
	}
	return Unknown
}

func (a *Analyzer) inferBuiltin(v *BuiltinQuery) Type {
	switch v.Kind {
	case QueryArgumentsAll:
		a.features.use("args")
		return ListOf(String)
	case QueryArgumentCount:
		a.features.use("args")
		return Integer
	case QueryArgumentAt:
		a.features.use("args")
		a.infer(v.Index)
		return String
	case QueryProgramName:
		a.features.use("args")
		return String
	case QueryEnvironmentByName:
		a.features.use("args")
		a.infer(v.Name)
		return String
	case QueryEnvironmentByIndex:
		a.features.use("args")
		a.infer(v.Index)
		return String
	case QueryEnvironmentCount:
		a.features.use("args")
		return Integer
	case QueryCurrentTime:
		a.features.use("time")
		return Time
	}
	return Unknown
}
