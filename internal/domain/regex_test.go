package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enumerate(t *testing.T, source string, maxLen int) []string {
	t.Helper()

	compiled, err := CompileRegex(source, maxLen)
	require.NoError(t, err)

	var out []string
	for s := range compiled.Seq() {
		out = append(out, s)
	}

	return out
}

func TestEnumerateDigitClass(t *testing.T) {
	want := []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}
	assert.Equal(t, want, enumerate(t, `\d`, 3))
}

func TestEnumerateTwoDigitLexicographic(t *testing.T) {
	got := enumerate(t, `\d{2}`, 3)
	require.Len(t, got, 100)

	assert.Equal(t, "00", got[0])
	assert.Equal(t, "01", got[1])
	assert.Equal(t, "99", got[99])

	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1], got[i], "order must be lexicographic")
	}
}

func TestEnumerateRepetitionCountBeforeLexicographic(t *testing.T) {
	got := enumerate(t, `\d{1,2}`, 3)
	require.Len(t, got, 110)

	assert.Equal(t, "0", got[0])
	assert.Equal(t, "9", got[9])
	assert.Equal(t, "00", got[10])
	assert.Equal(t, "99", got[109])
}

func TestEnumerateAlternationLeftFirst(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, enumerate(t, `a|b|c`, 3))
	assert.Equal(t, []string{"ax", "bx"}, enumerate(t, `(a|b)x`, 3))
}

func TestEnumerateConcatOuterProduct(t *testing.T) {
	want := []string{"ac", "ad", "bc", "bd"}
	assert.Equal(t, want, enumerate(t, `[ab][cd]`, 3))
}

func TestEnumerateQuantifiers(t *testing.T) {
	assert.Equal(t, []string{"", "x"}, enumerate(t, `x?`, 3))
	assert.Equal(t, []string{"", "x", "xx"}, enumerate(t, `x*`, 2))
	assert.Equal(t, []string{"x", "xx"}, enumerate(t, `x+`, 2))
	assert.Equal(t, []string{"xx", "xxx"}, enumerate(t, `x{2,5}`, 3))
	assert.Equal(t, []string{"ab"}, enumerate(t, `ab`, 3))
}

func TestEnumerateClasses(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, enumerate(t, `[abc]`, 3))
	assert.Equal(t, []string{"a", "b", "c"}, enumerate(t, `[a-c]`, 3))

	negated := enumerate(t, `[^a]`, 3)
	assert.NotContains(t, negated, "a")
	assert.Contains(t, negated, "b")
	assert.Contains(t, negated, " ")
	assert.Len(t, negated, 94) // printable ASCII minus one

	word := enumerate(t, `\w`, 3)
	assert.Len(t, word, 63)
	assert.Equal(t, "0", word[0])
	assert.Equal(t, "z", word[len(word)-1])

	space := enumerate(t, `\s`, 3)
	assert.Equal(t, []string{"\t", " "}, space)
}

func TestEnumerateCountMatchesLength(t *testing.T) {
	sources := []string{
		`\d`, `\d{2}`, `\d{1,2}`, `a|b|c`, `(a|b)(c|d)`, `x*`, `x+`,
		`[a-f]{1,3}`, `(0|1){3}`, `a?b?`,
	}

	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			compiled, err := CompileRegex(src, 3)
			require.NoError(t, err)

			got := enumerate(t, src, 3)
			assert.Equal(t, compiled.Count(), uint64(len(got)))
		})
	}
}

func TestEnumerateRestartable(t *testing.T) {
	compiled, err := CompileRegex(`(a|b)\d`, 3)
	require.NoError(t, err)

	collect := func() []string {
		var out []string
		for s := range compiled.Seq() {
			out = append(out, s)
		}
		return out
	}

	first := collect()
	second := collect()
	assert.Equal(t, first, second)
	assert.Len(t, first, 20)
}

// The enumerator must stream: taking a short prefix of a large product
// cannot require materializing the whole language.
func TestEnumerateLazyPrefix(t *testing.T) {
	compiled, err := CompileRegex(`\w{8}`, 8)
	require.NoError(t, err)

	var got []string
	for s := range compiled.Seq() {
		got = append(got, s)
		if len(got) == 3 {
			break
		}
	}

	assert.Equal(t, []string{"00000000", "00000001", "00000002"}, got)
}

func TestEnumerateMaxLenClamping(t *testing.T) {
	// {2,9} clamps to {2,3} under max-len 3
	got := enumerate(t, `x{2,9}`, 3)
	assert.Equal(t, []string{"xx", "xxx"}, got)

	// open-ended {2,} behaves the same
	open := enumerate(t, `x{2,}`, 3)
	assert.Equal(t, []string{"xx", "xxx"}, open)

	// a min above the clamped max enumerates nothing
	empty := enumerate(t, `x{5,}`, 3)
	assert.Empty(t, empty)
}

func TestEnumerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{"unclosed group", `(ab`},
		{"reversed bounds", `a{3,1}`},
		{"unknown escape", `\q`},
		{"unclosed class", `[abc`},
		{"unclosed brace", `a{2`},
		{"dangling quantifier", `*a`},
		{"reversed class range", `[z-a]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileRegex(tt.source, 3)
			require.Error(t, err)

			var re *RegexError
			assert.ErrorAs(t, err, &re)
		})
	}
}

func TestEnumerateCountFormulas(t *testing.T) {
	tests := []struct {
		source string
		maxLen int
		want   uint64
	}{
		{`\d`, 3, 10},
		{`\d{2}`, 3, 100},
		{`\d{1,2}`, 3, 110},
		{`\d*`, 2, 111},
		{`\d+`, 2, 110},
		{`(a|b){3}`, 3, 8},
		{`\w`, 3, 63},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s max %d", tt.source, tt.maxLen), func(t *testing.T) {
			compiled, err := CompileRegex(tt.source, tt.maxLen)
			require.NoError(t, err)
			assert.Equal(t, tt.want, compiled.Count())
		})
	}
}
