package compiler

// properties.go implements the static (object-type, property-name) ->
// (result-type, lowered-op) table the analyzer and generator both consult
// for "object's property". Extensible to user-defined structs later without
// touching the parser, which already treats the token after 's purely as a
// name.

// LoweredOp is the runtime-level tag codegen.go switches on to emit the
// property access (e.g. "list.length" calls into the list module's length
// helper).
type LoweredOp string

const (
	OpListLength   LoweredOp = "list.length"
	OpListCapacity LoweredOp = "list.capacity"
	OpListEmpty    LoweredOp = "list.empty"
	OpListFirst    LoweredOp = "list.first"
	OpListLast     LoweredOp = "list.last"

	OpBufferLength   LoweredOp = "buffer.length"
	OpBufferCapacity LoweredOp = "buffer.capacity"
	OpBufferFull     LoweredOp = "buffer.full"

	OpFileSize LoweredOp = "file.size"

	OpStringLength LoweredOp = "string.length"

	OpTimeUnix    LoweredOp = "time.unix"
	OpTimeYear    LoweredOp = "time.year"
	OpTimeMonth   LoweredOp = "time.month"
	OpTimeDay     LoweredOp = "time.day"
	OpTimeHour    LoweredOp = "time.hour"
	OpTimeMinute  LoweredOp = "time.minute"
	OpTimeSecond  LoweredOp = "time.second"

	OpTimerElapsedSeconds LoweredOp = "timer.elapsed_seconds"
	OpTimerElapsedMillis  LoweredOp = "timer.elapsed_millis"
)

// PropertyEntry is one row of the property table: the result type and the
// lowered-op tag the generator emits for it.
type PropertyEntry struct {
	Result Type
	Op     LoweredOp
	// ElementResult, when true, means Result is actually the collection's
	// own Element type (used only by list's "first"/"last").
	ElementResult bool
}

// propertyTable is keyed by (TypeKind, property name). List element type
// does not affect which properties are legal, only what "first"/"last"
// return, so the table is keyed on TypeKind rather than the full Type.
var propertyTable = map[TypeKind]map[string]PropertyEntry{
	TypeList: {
		"length":   {Result: Integer, Op: OpListLength},
		"capacity": {Result: Integer, Op: OpListCapacity},
		"empty":    {Result: Boolean, Op: OpListEmpty},
		"first":    {Op: OpListFirst, ElementResult: true},
		"last":     {Op: OpListLast, ElementResult: true},
	},
	TypeBuffer: {
		"length":   {Result: Integer, Op: OpBufferLength},
		"capacity": {Result: Integer, Op: OpBufferCapacity},
		"full":     {Result: Boolean, Op: OpBufferFull},
	},
	TypeFile: {
		"size": {Result: Integer, Op: OpFileSize},
	},
	TypeString: {
		"length": {Result: Integer, Op: OpStringLength},
	},
	TypeTime: {
		"unix":   {Result: Integer, Op: OpTimeUnix},
		"year":   {Result: Integer, Op: OpTimeYear},
		"month":  {Result: Integer, Op: OpTimeMonth},
		"day":    {Result: Integer, Op: OpTimeDay},
		"hour":   {Result: Integer, Op: OpTimeHour},
		"minute": {Result: Integer, Op: OpTimeMinute},
		"second": {Result: Integer, Op: OpTimeSecond},
	},
	TypeTimer: {
		"elapsed_seconds":      {Result: Integer, Op: OpTimerElapsedSeconds},
		"elapsed_milliseconds": {Result: Integer, Op: OpTimerElapsedMillis},
	},
}

// propertyNames lists every property name valid on kind, for "did you mean"
// suggestions (diag.Suggest) when a lookup fails.
func propertyNames(kind TypeKind) []string {
	tbl, ok := propertyTable[kind]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(tbl))
	for name := range tbl {
		names = append(names, name)
	}
	return names
}

// LookupProperty resolves (objType, name) to its result Type and LoweredOp.
// For list's "first"/"last" the result type is objType.Element.
func LookupProperty(objType Type, name string) (Type, LoweredOp, bool) {
	tbl, ok := propertyTable[objType.Kind]
	if !ok {
		return Unknown, "", false
	}
	entry, ok := tbl[name]
	if !ok {
		return Unknown, "", false
	}
	if entry.ElementResult {
		if objType.Element == nil {
			return Unknown, entry.Op, true
		}
		return *objType.Element, entry.Op, true
	}
	return entry.Result, entry.Op, true
}
