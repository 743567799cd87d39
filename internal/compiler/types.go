package compiler

import "fmt"

// Type is EC's closed set of value types. Unknown is a placeholder used
// only during inference; any Unknown reaching code generation is a bug in
// the analyzer, not a user error.
type Type struct {
	Kind    TypeKind
	Element *Type // set only when Kind == TypeList
}

type TypeKind int

const (
	TypeUnknown TypeKind = iota
	TypeInteger
	TypeFloat
	TypeString
	TypeBoolean
	TypeBuffer
	TypeFile
	TypeList
	TypeTime
	TypeTimer
)

func (k TypeKind) String() string {
	switch k {
	case TypeInteger:
		return "number"
	case TypeFloat:
		return "float"
	case TypeString:
		return "text"
	case TypeBoolean:
		return "boolean"
	case TypeBuffer:
		return "buffer"
	case TypeFile:
		return "file"
	case TypeList:
		return "list"
	case TypeTime:
		return "time"
	case TypeTimer:
		return "timer"
	default:
		return "unknown"
	}
}

func (t Type) String() string {
	if t.Kind == TypeList && t.Element != nil {
		return fmt.Sprintf("list of %s", t.Element)
	}
	return t.Kind.String()
}

func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	if t.Kind != TypeList {
		return true
	}
	if t.Element == nil || other.Element == nil {
		return t.Element == other.Element
	}
	return t.Element.Equal(*other.Element)
}

var (
	Integer = Type{Kind: TypeInteger}
	Float   = Type{Kind: TypeFloat}
	String  = Type{Kind: TypeString}
	Boolean = Type{Kind: TypeBoolean}
	Buffer  = Type{Kind: TypeBuffer}
	File    = Type{Kind: TypeFile}
	Time    = Type{Kind: TypeTime}
	Timer   = Type{Kind: TypeTimer}
	Unknown = Type{Kind: TypeUnknown}
)

func ListOf(elem Type) Type {
	e := elem
	return Type{Kind: TypeList, Element: &e}
}

// IsNumeric reports whether values of this type participate in arithmetic
// widening.
func (t Type) IsNumeric() bool {
	return t.Kind == TypeInteger || t.Kind == TypeFloat
}
