package controller

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	m "tesc.dev/pkg/tesc/internal/model"
)

func TestSimpleUIDiagnostics(t *testing.T) {
	var out, errBuf bytes.Buffer
	ui := NewSimpleUI(&out, &errBuf)

	src := "let x: int = \"nope\";\n"
	ui.Diagnostics(src, []m.Diagnostic{
		{
			Severity: m.SeverityError,
			Loc:      m.Span{File: "case.tesc", Line: 1, Col: 14},
			Message:  "`x` is declared `int` but its initializer has type `string`",
		},
		{
			Severity: m.SeverityWarning,
			Loc:      m.Span{File: "case.tesc", Line: 1, Col: 5},
			Message:  "unused variable `x`",
		},
	})

	rendered := errBuf.String()
	assert.Contains(t, rendered, "error:")
	assert.Contains(t, rendered, "warning:")
	assert.Contains(t, rendered, "case.tesc:1:14")
	assert.Contains(t, rendered, "let x: int = \"nope\";")
	assert.Contains(t, rendered, "^")
	assert.Empty(t, out.String(), "diagnostics go to the error stream")
}

func TestSimpleUIDiagnosticNotes(t *testing.T) {
	var out, errBuf bytes.Buffer
	ui := NewSimpleUI(&out, &errBuf)

	ui.Diagnostics("const N: int = 1;\nN = 2;\n", []m.Diagnostic{{
		Severity: m.SeverityError,
		Loc:      m.Span{File: "case.tesc", Line: 2, Col: 1},
		Message:  "cannot reassign constant `N`",
		Notes: []m.Note{{
			Message: "consider changing the declaration to `let`",
			Loc:     m.Span{File: "case.tesc", Line: 1, Col: 7},
		}},
	}})

	rendered := errBuf.String()
	assert.Contains(t, rendered, "cannot reassign constant `N`")
	assert.Contains(t, rendered, "note:")
	assert.Contains(t, rendered, "case.tesc:1:7")
}

func TestSimpleUITestLifecycle(t *testing.T) {
	var out, errBuf bytes.Buffer
	ui := NewSimpleUI(&out, &errBuf)

	ui.TestStarted("echo")
	ui.TestFinished(m.TestReport{Name: "echo", Status: m.Passed})
	ui.TestFinished(m.TestReport{
		Name:   "ghost",
		Status: m.Failed,
		Detail: "expected `a`, got `b`",
		Stderr: "warning from child\n",
	})

	rendered := out.String()
	assert.Contains(t, rendered, "Running test: echo")
	assert.Contains(t, rendered, "Test passed: echo")
	assert.Contains(t, rendered, "Test failed: ghost")
	assert.Contains(t, rendered, "expected `a`, got `b`")
	assert.Contains(t, rendered, "warning from child")
}

func TestSimpleUISummary(t *testing.T) {
	var out, errBuf bytes.Buffer
	ui := NewSimpleUI(&out, &errBuf)

	ui.Summary(m.RunReport{
		File: "suite.tesc",
		Tests: []m.TestReport{
			{Name: "one", Status: m.Passed},
			{Name: "two", Status: m.Failed, Detail: "mismatch"},
		},
	})

	rendered := out.String()
	assert.Contains(t, rendered, "one")
	assert.Contains(t, rendered, "two")
	assert.Contains(t, rendered, "Total 2")
	assert.Contains(t, rendered, "1 passed")
	assert.Contains(t, rendered, "1 failed")
	assert.Contains(t, rendered, "FAILED")
}

func TestSimpleUISummaryAllPassed(t *testing.T) {
	var out, errBuf bytes.Buffer
	ui := NewSimpleUI(&out, &errBuf)

	ui.Summary(m.RunReport{
		File:  "suite.tesc",
		Tests: []m.TestReport{{Name: "one", Status: m.Passed}},
	})

	assert.Contains(t, out.String(), "ok")
}

func TestSimpleUISummaryNoTests(t *testing.T) {
	var out, errBuf bytes.Buffer
	ui := NewSimpleUI(&out, &errBuf)

	ui.Summary(m.RunReport{File: "empty.tesc"})
	assert.Contains(t, out.String(), "No tests declared")
}
