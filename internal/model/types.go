package model

import "strings"

// TypeKind tags the variants of Type.
type TypeKind int

// Available TypeKind values.
const (
	KindString TypeKind = iota
	KindInt
	KindFloat
	KindBool
	KindRegex
	KindNone
	KindList
	KindFunc
)

// Type is the static type of an expression. List types carry an element
// type; function types carry parameter and result types. Two types are equal
// iff their kinds and payloads are structurally equal.
type Type struct {
	Kind   TypeKind
	Elem   *Type  // list element type
	Params []Type // function parameter types
	Result *Type  // function result type
}

// The primitive types, shared so callers can compare against them directly.
var (
	StringType = Type{Kind: KindString}
	IntType    = Type{Kind: KindInt}
	FloatType  = Type{Kind: KindFloat}
	BoolType   = Type{Kind: KindBool}
	RegexType  = Type{Kind: KindRegex}
	NoneType   = Type{Kind: KindNone}
)

// ListOf builds a list type with the given element type.
func ListOf(elem Type) Type {
	e := elem
	return Type{Kind: KindList, Elem: &e}
}

// FuncOf builds a function type.
func FuncOf(params []Type, result Type) Type {
	r := result
	return Type{Kind: KindFunc, Params: params, Result: &r}
}

// Equal reports structural equality.
func (t Type) Equal(other Type) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindList:
		return t.Elem.Equal(*other.Elem)
	case KindFunc:
		if len(t.Params) != len(other.Params) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].Equal(other.Params[i]) {
				return false
			}
		}
		return t.Result.Equal(*other.Result)
	}
	return true
}

func (t Type) String() string {
	switch t.Kind {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindRegex:
		return "regex"
	case KindNone:
		return "none"
	case KindList:
		return "[" + t.Elem.String() + "]"
	case KindFunc:
		params := make([]string, len(t.Params))
		for i, p := range t.Params {
			params[i] = p.String()
		}
		return "fn(" + strings.Join(params, ", ") + "): " + t.Result.String()
	}
	return "unknown"
}

// PrimitiveTypeFromName resolves a type annotation name to a primitive type.
func PrimitiveTypeFromName(name string) (Type, bool) {
	switch name {
	case "string":
		return StringType, true
	case "int":
		return IntType, true
	case "float":
		return FloatType, true
	case "bool":
		return BoolType, true
	case "regex":
		return RegexType, true
	case "none":
		return NoneType, true
	}
	return Type{}, false
}
