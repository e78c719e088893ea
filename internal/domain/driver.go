package domain

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"tesc.dev/pkg/tesc/internal/adapter"
	m "tesc.dev/pkg/tesc/internal/model"
)

// Driver mediates between the evaluator and the spawned child process. Each
// test declaration gets its own child, its own environment extended from the
// file's top level, and a guaranteed cleanup on every exit path.
type Driver struct {
	runner adapter.ProcessRunner
	grace  time.Duration
	debug  bool
	stdout io.Writer
}

// NewDriver creates a driver. grace bounds how long a child may linger
// after its stdin closes before it is terminated.
func NewDriver(runner adapter.ProcessRunner, grace time.Duration, debug bool, stdout io.Writer) *Driver {
	return &Driver{runner: runner, grace: grace, debug: debug, stdout: stdout}
}

// childSession adapts an adapter.Process to the evaluator's ChildIO.
type childSession struct {
	proc   adapter.Process
	debug  bool
	stdout io.Writer
}

func (s *childSession) Input(line string) error {
	if s.debug {
		fmt.Fprintf(s.stdout, "input: %s\n", line)
	}
	if err := s.proc.Send(line); err != nil {
		return fmt.Errorf("write to child stdin: %w", err)
	}
	return nil
}

func (s *childSession) Output(expected string) error {
	got, err := s.proc.ReadLine()
	if err != nil {
		return fmt.Errorf("read from child stdout: %w", err)
	}
	if s.debug {
		fmt.Fprintf(s.stdout, "output: %s\n", got)
	}
	got = strings.TrimRight(got, "\r\n")
	expected = strings.TrimRight(expected, "\r\n")
	if got != expected {
		return fmt.Errorf("expected `%s`, got `%s`", expected, got)
	}
	return nil
}

// RunTest evaluates one test declaration against a freshly spawned child.
func (d *Driver) RunTest(ev *Evaluator, test *m.TestDecl, globals *m.Env) m.TestReport {
	report := m.TestReport{Name: test.Name, Loc: test.NameLoc}

	cmdVal, err := ev.Eval(test.Command, globals)
	if err != nil {
		report.Status = m.Failed
		report.Class = m.FailureMismatch
		report.Detail = err.Error()
		return report
	}
	report.Command = cmdVal.Str

	slog.Debug("spawning child", "test", test.Name, "command", report.Command)
	proc, err := d.runner.Start(report.Command)
	if err != nil {
		report.Status = m.Errored
		report.Detail = err.Error()
		switch {
		case errors.Is(err, adapter.ErrCommandNotFound):
			report.Class = m.FailureSpawnNotFound
		case errors.Is(err, adapter.ErrCommandPermission):
			report.Class = m.FailureSpawnPermission
		default:
			report.Class = m.FailureMismatch
		}
		return report
	}

	session := &childSession{proc: proc, debug: d.debug, stdout: d.stdout}
	ev.BindChild(session)
	defer ev.BindChild(nil)

	_, bodyErr := ev.EvalBlock(test.Body, globals)
	if bodyErr != nil {
		proc.Kill()
		report.Status = m.Failed
		report.Class = m.FailureMismatch
		report.Detail = bodyErr.Error()
		if re, ok := bodyErr.(*RuntimeError); ok {
			report.Loc = re.Loc
		}
		report.Stderr = proc.Stderr()
		return report
	}

	if err := proc.CloseStdin(); err != nil {
		slog.Debug("closing child stdin", "test", test.Name, "error", err)
	}
	if err := proc.Wait(d.grace); err != nil {
		report.Status = m.Failed
		report.Class = m.FailureMismatch
		report.Detail = err.Error()
		report.Stderr = proc.Stderr()
		return report
	}

	report.Status = m.Passed
	report.Stderr = proc.Stderr()
	return report
}
