// Package controller renders diagnostics and test results. Implementations
// cover a plain console stream and an interactive TUI.
package controller

import (
	m "tesc.dev/pkg/tesc/internal/model"
)

// UI is the workflow's view of the user interface.
type UI interface {
	// Diagnostics renders lexer/parser/analyser findings against the source
	// text. src may be empty when the file could not be read.
	Diagnostics(src string, diags []m.Diagnostic)
	// TestStarted announces a test about to run.
	TestStarted(name string)
	// TestFinished reports one finished test.
	TestFinished(report m.TestReport)
	// Summary renders the whole run.
	Summary(run m.RunReport)
	// Close flushes and tears the UI down.
	Close()
}
