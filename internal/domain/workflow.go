package domain

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"tesc.dev/pkg/tesc/internal/adapter"
	"tesc.dev/pkg/tesc/internal/controller"
	m "tesc.dev/pkg/tesc/internal/model"
)

// Options configures one interpreter run.
type Options struct {
	MaxLen   int
	Analyser AnalyserOptions
	Debug    bool
	Grace    time.Duration
	Report   string
}

// Workflow wires the pipeline together: source reading, the front end,
// evaluation and reporting. It owns the mapping from outcomes to process
// exit codes.
type Workflow struct {
	source  adapter.SourceFSAdapter
	runner  adapter.ProcessRunner
	reports adapter.ReportStore
	ui      controller.UI
	stdout  io.Writer
	opts    Options
}

// NewWorkflow creates a workflow with the provided collaborators.
func NewWorkflow(
	source adapter.SourceFSAdapter,
	runner adapter.ProcessRunner,
	reports adapter.ReportStore,
	ui controller.UI,
	stdout io.Writer,
	opts Options,
) *Workflow {
	return &Workflow{
		source:  source,
		runner:  runner,
		reports: reports,
		ui:      ui,
		stdout:  stdout,
		opts:    opts,
	}
}

// Run interprets the file at path end to end.
func (w *Workflow) Run(path string) m.ExitCode {
	prog, src, code := w.frontend(path)
	if code != m.ExitOK {
		return code
	}

	ev := NewEvaluator(w.opts.MaxLen, w.stdout)
	globals, err := ev.Globals(prog)
	if err != nil {
		w.ui.Diagnostics(src, []m.Diagnostic{runtimeDiag(err)})
		return m.ExitTestsFailed
	}

	driver := NewDriver(w.runner, w.opts.Grace, w.opts.Debug, w.stdout)
	run := m.RunReport{File: path}
	for _, decl := range prog.Decls {
		test, ok := decl.(*m.TestDecl)
		if !ok {
			continue
		}
		w.ui.TestStarted(test.Name)
		report := driver.RunTest(ev, test, globals)
		slog.Info("test finished", "test", test.Name, "status", report.Status.String())
		w.ui.TestFinished(report)
		run.Tests = append(run.Tests, report)
	}
	w.ui.Summary(run)

	if w.opts.Report != "" {
		if err := w.reports.Save(w.opts.Report, run); err != nil {
			slog.Error("saving run report", "path", w.opts.Report, "error", err)
		}
	}

	return exitCodeFor(run)
}

// Check runs the front end only: lex, parse, analyse, report diagnostics.
func (w *Workflow) Check(path string) m.ExitCode {
	_, _, code := w.frontend(path)
	return code
}

// Format prints the canonical form of the file. Analysis is skipped; only a
// parseable file is required.
func (w *Workflow) Format(path string) m.ExitCode {
	src, err := w.source.Read(path)
	if err != nil {
		return w.sourceExit(path, err)
	}
	tokens, lexErr := NewLexer(path, src).Tokenize()
	if lexErr != nil {
		w.ui.Diagnostics(src, []m.Diagnostic{lexDiag(lexErr)})
		return m.ExitParseError
	}
	var diags m.Diagnostics
	prog := NewParser(path, tokens, &diags).Parse()
	if diags.HasErrors() {
		w.ui.Diagnostics(src, diags.List)
		return m.ExitParseError
	}
	var printer Printer
	_, _ = io.WriteString(w.stdout, printer.PrintProgram(prog))
	return m.ExitOK
}

// frontend loads and checks the file, reporting diagnostics. A non-OK exit
// code means evaluation must not run.
func (w *Workflow) frontend(path string) (*m.Program, string, m.ExitCode) {
	src, err := w.source.Read(path)
	if err != nil {
		return nil, "", w.sourceExit(path, err)
	}

	tokens, lexErr := NewLexer(path, src).Tokenize()
	if lexErr != nil {
		w.ui.Diagnostics(src, []m.Diagnostic{lexDiag(lexErr)})
		return nil, src, m.ExitParseError
	}

	var diags m.Diagnostics
	prog := NewParser(path, tokens, &diags).Parse()
	parseFailed := diags.HasErrors()

	NewAnalyser(&diags, w.opts.Analyser).Check(prog)
	w.ui.Diagnostics(src, diags.List)

	if parseFailed {
		return nil, src, m.ExitParseError
	}
	if diags.HasErrors() {
		return nil, src, m.ExitAnalysisError
	}
	return prog, src, m.ExitOK
}

func (w *Workflow) sourceExit(path string, err error) m.ExitCode {
	w.ui.Diagnostics("", []m.Diagnostic{{
		Severity: m.SeverityError,
		Loc:      m.Span{File: path, Line: 1, Col: 1},
		Message:  err.Error(),
	}})
	switch {
	case errors.Is(err, adapter.ErrSourceNotFound):
		return m.ExitSourceNotFound
	case errors.Is(err, adapter.ErrSourcePermission):
		return m.ExitSourcePermissionDenied
	case errors.Is(err, adapter.ErrSourceNotTesc):
		return m.ExitSourceNotTesc
	}
	return m.ExitInternal
}

// exitCodeFor maps a finished run to the process exit code. Spawn failures
// take precedence over plain test failures.
func exitCodeFor(run m.RunReport) m.ExitCode {
	code := m.ExitOK
	for _, t := range run.Tests {
		switch t.Class {
		case m.FailureSpawnNotFound:
			return m.ExitCommandNotFound
		case m.FailureSpawnPermission:
			return m.ExitCommandPermissionDenied
		case m.FailureMismatch:
			code = m.ExitTestsFailed
		}
	}
	return code
}

func lexDiag(err error) m.Diagnostic {
	var le *LexError
	if errors.As(err, &le) {
		return m.Diagnostic{Severity: m.SeverityError, Loc: le.Loc, Message: le.Msg}
	}
	return m.Diagnostic{Severity: m.SeverityError, Message: err.Error()}
}

func runtimeDiag(err error) m.Diagnostic {
	var re *RuntimeError
	if errors.As(err, &re) {
		return m.Diagnostic{Severity: m.SeverityError, Loc: re.Loc, Message: re.Msg}
	}
	return m.Diagnostic{Severity: m.SeverityError, Message: err.Error()}
}
