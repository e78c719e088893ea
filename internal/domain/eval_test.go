package domain

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	m "tesc.dev/pkg/tesc/internal/model"
)

// evalProgram analyses and evaluates the top level of src, returning the
// global environment.
func evalProgram(t *testing.T, src string) (*m.Env, *bytes.Buffer, error) {
	t.Helper()

	tokens, err := NewLexer("test.tesc", src).Tokenize()
	require.NoError(t, err)

	var diags m.Diagnostics
	prog := NewParser("test.tesc", tokens, &diags).Parse()
	require.False(t, diags.HasErrors(), "parse errors: %v", diags.List)

	NewAnalyser(&diags, AnalyserOptions{NoWarnings: true}).Check(prog)
	require.False(t, diags.HasErrors(), "analysis errors: %v", diags.List)

	var stdout bytes.Buffer
	ev := NewEvaluator(3, &stdout)
	env, evalErr := ev.Globals(prog)

	return env, &stdout, evalErr
}

func mustGlobal(t *testing.T, env *m.Env, name string) m.Value {
	t.Helper()

	v, ok := env.Get(name)
	require.True(t, ok, "global %q not bound", name)

	return v
}

func TestEvalArithmetic(t *testing.T) {
	env, _, err := evalProgram(t, `let a: int = 1 + 2 * 3;
let b: int = 7 / 2;
let c: int = -7 / 2;
let d: float = 1.5 + 2.5;
let e: string = "ab" + "cd";
let f: string = "xy" * 3;
let g: int = -(1 + 2);`)
	require.NoError(t, err)

	assert.Equal(t, int64(7), mustGlobal(t, env, "a").Int)
	assert.Equal(t, int64(3), mustGlobal(t, env, "b").Int)
	assert.Equal(t, int64(-3), mustGlobal(t, env, "c").Int, "integer division truncates toward zero")
	assert.Equal(t, 4.0, mustGlobal(t, env, "d").Float)
	assert.Equal(t, "abcd", mustGlobal(t, env, "e").Str)
	assert.Equal(t, "xyxyxy", mustGlobal(t, env, "f").Str)
	assert.Equal(t, int64(-3), mustGlobal(t, env, "g").Int)
}

func TestEvalComparisonsAndLogic(t *testing.T) {
	env, _, err := evalProgram(t, `let a: bool = 1 < 2;
let b: bool = 2.5 >= 2.5;
let c: bool = "x" == "x";
let d: bool = true != false;
let e: bool = a && !b || c;
let f: bool = 3 in [1, 2, 3];
let g: bool = "z" in ["a", "b"];`)
	require.NoError(t, err)

	assert.True(t, mustGlobal(t, env, "a").Bool)
	assert.True(t, mustGlobal(t, env, "b").Bool)
	assert.True(t, mustGlobal(t, env, "c").Bool)
	assert.True(t, mustGlobal(t, env, "d").Bool)
	assert.True(t, mustGlobal(t, env, "e").Bool)
	assert.True(t, mustGlobal(t, env, "f").Bool)
	assert.False(t, mustGlobal(t, env, "g").Bool)
}

func TestEvalShortCircuit(t *testing.T) {
	// the right operand would divide by zero; short-circuiting must skip it
	env, _, err := evalProgram(t, `let safe: bool = false && 1 / 0 == 1;
let also: bool = true || 1 / 0 == 1;`)
	require.NoError(t, err)

	assert.False(t, mustGlobal(t, env, "safe").Bool)
	assert.True(t, mustGlobal(t, env, "also").Bool)
}

func TestEvalDivisionByZero(t *testing.T) {
	_, _, err := evalProgram(t, `let boom: int = 1 / 0;`)
	require.Error(t, err)

	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Msg, "division by zero")
}

func TestEvalCasts(t *testing.T) {
	env, _, err := evalProgram(t, `let a: int = 3.9 as int;
let b: int = -3.9 as int;
let c: float = 2 as float;
let d: string = 42 as string;
let e: string = true as string;
let f: int = "12" as int;
let g: float = "1.5" as float;
let h: string = 1.5 as string;`)
	require.NoError(t, err)

	assert.Equal(t, int64(3), mustGlobal(t, env, "a").Int, "float to int truncates toward zero")
	assert.Equal(t, int64(-3), mustGlobal(t, env, "b").Int)
	assert.Equal(t, 2.0, mustGlobal(t, env, "c").Float)
	assert.Equal(t, "42", mustGlobal(t, env, "d").Str)
	assert.Equal(t, "true", mustGlobal(t, env, "e").Str)
	assert.Equal(t, int64(12), mustGlobal(t, env, "f").Int)
	assert.Equal(t, 1.5, mustGlobal(t, env, "g").Float)
	assert.Equal(t, "1.5", mustGlobal(t, env, "h").Str)
}

func TestEvalCastParseFailure(t *testing.T) {
	_, _, err := evalProgram(t, `let boom: int = "twelve" as int;`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not parse as int")
}

func TestEvalBlockValueAndScopes(t *testing.T) {
	env, _, err := evalProgram(t, `let x: int = { let y: int = 2; y * 3 };
let v: none = { let z: int = 1; z + 1; };`)
	require.NoError(t, err)

	assert.Equal(t, int64(6), mustGlobal(t, env, "x").Int)
	assert.Equal(t, m.ValNone, mustGlobal(t, env, "v").Kind, "terminated final statement yields none")
}

func TestEvalIfValue(t *testing.T) {
	env, _, err := evalProgram(t, `let pick: int = if 1 < 2 { 10 } else { 20 };
let other: int = if 1 > 2 { 10 } else { 20 };`)
	require.NoError(t, err)

	assert.Equal(t, int64(10), mustGlobal(t, env, "pick").Int)
	assert.Equal(t, int64(20), mustGlobal(t, env, "other").Int)
}

func TestEvalShadowingAcrossTypes(t *testing.T) {
	env, _, err := evalProgram(t, `let r: string = {
	let a: int = 1;
	let a: string = "1";
	a = a + "1";
	a
};`)
	require.NoError(t, err)

	assert.Equal(t, "11", mustGlobal(t, env, "r").Str)
}

func TestEvalForOverList(t *testing.T) {
	env, _, err := evalProgram(t, `let total: int = {
	let sum: int = 0;
	for x: int in [1, 2, 3] {
		sum = sum + x;
	}
	sum
};`)
	require.NoError(t, err)

	assert.Equal(t, int64(6), mustGlobal(t, env, "total").Int)
}

func TestEvalForOverRegex(t *testing.T) {
	env, _, err := evalProgram(t, "let joined: string = {\n"+
		"\tlet acc: string = \"\";\n"+
		"\tfor s: string in `\\d`"+" {\n"+
		"\t\tacc = acc + s;\n"+
		"\t}\n"+
		"\tacc\n"+
		"};")
	require.NoError(t, err)

	assert.Equal(t, "0123456789", mustGlobal(t, env, "joined").Str)
}

func TestEvalFunctionsAndRecursion(t *testing.T) {
	env, _, err := evalProgram(t, `fn fact(n: int): int {
	if n == 0 { 1 } else { n * fact(n - 1) }
}

fn is_even(n: int): bool {
	if n == 0 { true } else { is_odd(n - 1) }
}

fn is_odd(n: int): bool {
	if n == 0 { false } else { is_even(n - 1) }
}

let f: int = fact(5);
let even: bool = is_even(10);
let odd: bool = is_odd(10);`)
	require.NoError(t, err)

	assert.Equal(t, int64(120), mustGlobal(t, env, "f").Int)
	assert.True(t, mustGlobal(t, env, "even").Bool)
	assert.False(t, mustGlobal(t, env, "odd").Bool)
}

func TestEvalFunctionSeesTopLevelConstants(t *testing.T) {
	env, _, err := evalProgram(t, `const BASE: int = 100;

fn bump(n: int): int {
	BASE + n
}

let x: int = bump(1);`)
	require.NoError(t, err)

	assert.Equal(t, int64(101), mustGlobal(t, env, "x").Int)
}

func TestEvalPrintBuiltins(t *testing.T) {
	_, stdout, err := evalProgram(t, `let _a: none = { print("a"); print("b"); println("c"); };`)
	require.NoError(t, err)

	assert.Equal(t, "abc\n", stdout.String())
}

func TestEvalChildIOOutsideTest(t *testing.T) {
	_, _, err := evalProgram(t, `let _x: none = { input("q"); };`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only available inside a test body")
}

func TestEvalRegexLiteralMalformed(t *testing.T) {
	_, _, err := evalProgram(t, "let _r: none = { for s: string in `(a` { print(s); } };")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unclosed group")
}

// Every value produced for an analysed expression carries the variant the
// analyser inferred.
func TestEvalTypeSoundness(t *testing.T) {
	env, _, err := evalProgram(t, `let i: int = 1 + 1;
let f: float = 1.0 / 2.0;
let s: string = 1 as string;
let b: bool = 1 == 1;
let l: [int] = [1, 2];`)
	require.NoError(t, err)

	assert.Equal(t, m.ValInt, mustGlobal(t, env, "i").Kind)
	assert.Equal(t, m.ValFloat, mustGlobal(t, env, "f").Kind)
	assert.Equal(t, m.ValString, mustGlobal(t, env, "s").Kind)
	assert.Equal(t, m.ValBool, mustGlobal(t, env, "b").Kind)
	assert.Equal(t, m.ValList, mustGlobal(t, env, "l").Kind)
}
