package domain

import (
	"errors"
	"strconv"
	"strings"

	m "tesc.dev/pkg/tesc/internal/model"
)

// Operator dispatch is a closed table keyed by the operator and the operand
// type kinds. The analyser consults the table for result types, the
// evaluator for the apply functions, so the two can never disagree.

type binKey struct {
	op   string
	l, r m.TypeKind
}

type binOp struct {
	result m.TypeKind
	apply  func(a, b m.Value) (m.Value, error)
}

var errDivisionByZero = errors.New("division by zero")

var binOps = map[binKey]binOp{
	// Arithmetic.
	{"+", m.KindInt, m.KindInt}: {m.KindInt, func(a, b m.Value) (m.Value, error) {
		return m.IntValue(a.Int + b.Int), nil
	}},
	{"+", m.KindFloat, m.KindFloat}: {m.KindFloat, func(a, b m.Value) (m.Value, error) {
		return m.FloatValue(a.Float + b.Float), nil
	}},
	{"+", m.KindString, m.KindString}: {m.KindString, func(a, b m.Value) (m.Value, error) {
		return m.StringValue(a.Str + b.Str), nil
	}},
	{"-", m.KindInt, m.KindInt}: {m.KindInt, func(a, b m.Value) (m.Value, error) {
		return m.IntValue(a.Int - b.Int), nil
	}},
	{"-", m.KindFloat, m.KindFloat}: {m.KindFloat, func(a, b m.Value) (m.Value, error) {
		return m.FloatValue(a.Float - b.Float), nil
	}},
	{"*", m.KindInt, m.KindInt}: {m.KindInt, func(a, b m.Value) (m.Value, error) {
		return m.IntValue(a.Int * b.Int), nil
	}},
	{"*", m.KindFloat, m.KindFloat}: {m.KindFloat, func(a, b m.Value) (m.Value, error) {
		return m.FloatValue(a.Float * b.Float), nil
	}},
	{"*", m.KindString, m.KindInt}: {m.KindString, func(a, b m.Value) (m.Value, error) {
		if b.Int < 0 {
			return m.StringValue(""), nil
		}
		return m.StringValue(strings.Repeat(a.Str, int(b.Int))), nil
	}},
	{"/", m.KindInt, m.KindInt}: {m.KindInt, func(a, b m.Value) (m.Value, error) {
		if b.Int == 0 {
			return m.Value{}, errDivisionByZero
		}
		return m.IntValue(a.Int / b.Int), nil
	}},
	{"/", m.KindFloat, m.KindFloat}: {m.KindFloat, func(a, b m.Value) (m.Value, error) {
		return m.FloatValue(a.Float / b.Float), nil
	}},

	// Equality.
	{"==", m.KindInt, m.KindInt}:       eqOp(true),
	{"==", m.KindFloat, m.KindFloat}:   eqOp(true),
	{"==", m.KindString, m.KindString}: eqOp(true),
	{"==", m.KindBool, m.KindBool}:     eqOp(true),
	{"!=", m.KindInt, m.KindInt}:       eqOp(false),
	{"!=", m.KindFloat, m.KindFloat}:   eqOp(false),
	{"!=", m.KindString, m.KindString}: eqOp(false),
	{"!=", m.KindBool, m.KindBool}:     eqOp(false),

	// Relational.
	{"<", m.KindInt, m.KindInt}: {m.KindBool, func(a, b m.Value) (m.Value, error) {
		return m.BoolValue(a.Int < b.Int), nil
	}},
	{"<", m.KindFloat, m.KindFloat}: {m.KindBool, func(a, b m.Value) (m.Value, error) {
		return m.BoolValue(a.Float < b.Float), nil
	}},
	{"<=", m.KindInt, m.KindInt}: {m.KindBool, func(a, b m.Value) (m.Value, error) {
		return m.BoolValue(a.Int <= b.Int), nil
	}},
	{"<=", m.KindFloat, m.KindFloat}: {m.KindBool, func(a, b m.Value) (m.Value, error) {
		return m.BoolValue(a.Float <= b.Float), nil
	}},
	{">", m.KindInt, m.KindInt}: {m.KindBool, func(a, b m.Value) (m.Value, error) {
		return m.BoolValue(a.Int > b.Int), nil
	}},
	{">", m.KindFloat, m.KindFloat}: {m.KindBool, func(a, b m.Value) (m.Value, error) {
		return m.BoolValue(a.Float > b.Float), nil
	}},
	{">=", m.KindInt, m.KindInt}: {m.KindBool, func(a, b m.Value) (m.Value, error) {
		return m.BoolValue(a.Int >= b.Int), nil
	}},
	{">=", m.KindFloat, m.KindFloat}: {m.KindBool, func(a, b m.Value) (m.Value, error) {
		return m.BoolValue(a.Float >= b.Float), nil
	}},

	// Logical. Short-circuiting is handled by the evaluator before the table
	// is consulted; the entries exist so the analyser sees one closed set.
	{"&&", m.KindBool, m.KindBool}: {m.KindBool, func(a, b m.Value) (m.Value, error) {
		return m.BoolValue(a.Bool && b.Bool), nil
	}},
	{"||", m.KindBool, m.KindBool}: {m.KindBool, func(a, b m.Value) (m.Value, error) {
		return m.BoolValue(a.Bool || b.Bool), nil
	}},
}

func eqOp(wantEqual bool) binOp {
	return binOp{m.KindBool, func(a, b m.Value) (m.Value, error) {
		return m.BoolValue(a.Equal(b) == wantEqual), nil
	}}
}

// lookupBinOp resolves a binary operator for the given operand types.
// `in` is handled separately because its check is structural.
func lookupBinOp(op string, l, r m.Type) (binOp, bool) {
	entry, ok := binOps[binKey{op, l.Kind, r.Kind}]
	if !ok {
		return binOp{}, false
	}
	// List and function kinds never appear in the table, so kind equality is
	// enough for the primitive payloads.
	return entry, true
}

type unaryKey struct {
	op      string
	operand m.TypeKind
}

type unaryOp struct {
	result m.TypeKind
	apply  func(v m.Value) (m.Value, error)
}

var unaryOps = map[unaryKey]unaryOp{
	{"-", m.KindInt}: {m.KindInt, func(v m.Value) (m.Value, error) {
		return m.IntValue(-v.Int), nil
	}},
	{"-", m.KindFloat}: {m.KindFloat, func(v m.Value) (m.Value, error) {
		return m.FloatValue(-v.Float), nil
	}},
	{"!", m.KindBool}: {m.KindBool, func(v m.Value) (m.Value, error) {
		return m.BoolValue(!v.Bool), nil
	}},
}

// Casts, keyed by source and target kind. A missing entry is a type error at
// analysis time; apply may still fail at runtime for string parses.

type castKey struct {
	from, to m.TypeKind
}

var casts = map[castKey]func(v m.Value) (m.Value, error){
	{m.KindInt, m.KindFloat}: func(v m.Value) (m.Value, error) {
		return m.FloatValue(float64(v.Int)), nil
	},
	{m.KindFloat, m.KindInt}: func(v m.Value) (m.Value, error) {
		return m.IntValue(int64(v.Float)), nil
	},
	{m.KindInt, m.KindString}: func(v m.Value) (m.Value, error) {
		return m.StringValue(strconv.FormatInt(v.Int, 10)), nil
	},
	{m.KindFloat, m.KindString}: func(v m.Value) (m.Value, error) {
		return m.StringValue(strconv.FormatFloat(v.Float, 'g', -1, 64)), nil
	},
	{m.KindBool, m.KindString}: func(v m.Value) (m.Value, error) {
		return m.StringValue(strconv.FormatBool(v.Bool)), nil
	},
	{m.KindString, m.KindInt}: func(v m.Value) (m.Value, error) {
		i, err := strconv.ParseInt(v.Str, 10, 64)
		if err != nil {
			return m.Value{}, errors.New("string " + strconv.Quote(v.Str) + " does not parse as int")
		}
		return m.IntValue(i), nil
	},
	{m.KindString, m.KindFloat}: func(v m.Value) (m.Value, error) {
		f, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return m.Value{}, errors.New("string " + strconv.Quote(v.Str) + " does not parse as float")
		}
		return m.FloatValue(f), nil
	},
}

// castSupported is the analyser-side check.
func castSupported(from, to m.Type) bool {
	_, ok := casts[castKey{from.Kind, to.Kind}]
	return ok
}
