package controller

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	m "tesc.dev/pkg/tesc/internal/model"
)

// TUI renders the test phase with Bubble Tea: a live list of tests with a
// spinner on the one currently running. Diagnostics precede the program and
// go through the plain renderer.
type TUI struct {
	console *SimpleUI
	out     io.Writer
	prog    *tea.Program
	done    chan struct{}
}

// NewTUI creates a TUI writing to out, with diagnostics on err.
func NewTUI(out, err io.Writer) *TUI {
	return &TUI{console: NewSimpleUI(out, err), out: out}
}

// Diagnostics implements UI. Findings are printed before the live view
// starts.
func (t *TUI) Diagnostics(src string, diags []m.Diagnostic) {
	t.console.Diagnostics(src, diags)
}

// TestStarted implements UI.
func (t *TUI) TestStarted(name string) {
	t.ensureStarted()
	t.prog.Send(testStartedMsg{name: name})
}

// TestFinished implements UI.
func (t *TUI) TestFinished(report m.TestReport) {
	t.ensureStarted()
	t.prog.Send(testFinishedMsg{report: report})
}

// Summary implements UI.
func (t *TUI) Summary(run m.RunReport) {
	if t.prog == nil {
		t.console.Summary(run)
		return
	}
	t.prog.Send(summaryMsg{run: run})
}

// Close implements UI.
func (t *TUI) Close() {
	if t.prog == nil {
		return
	}
	t.prog.Send(closeMsg{})
	<-t.done
}

func (t *TUI) ensureStarted() {
	if t.prog != nil {
		return
	}
	t.done = make(chan struct{})
	t.prog = tea.NewProgram(newRunModel(), tea.WithOutput(t.out))
	go func() {
		_, _ = t.prog.Run()
		close(t.done)
	}()
}

// Messages fed by the workflow.

type testStartedMsg struct {
	name string
}

type testFinishedMsg struct {
	report m.TestReport
}

type summaryMsg struct {
	run m.RunReport
}

type closeMsg struct{}

// testRow is one line of the live view.
type testRow struct {
	name    string
	running bool
	report  m.TestReport
}

type runModel struct {
	spinner spinner.Model
	rows    []testRow
	summary *m.RunReport
}

func newRunModel() runModel {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	return runModel{spinner: s}
}

func (mod runModel) Init() tea.Cmd {
	return mod.spinner.Tick
}

func (mod runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return mod, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		mod.spinner, cmd = mod.spinner.Update(msg)
		return mod, cmd
	case testStartedMsg:
		mod.rows = append(mod.rows, testRow{name: msg.name, running: true})
		return mod, nil
	case testFinishedMsg:
		for i := range mod.rows {
			if mod.rows[i].name == msg.report.Name && mod.rows[i].running {
				mod.rows[i].running = false
				mod.rows[i].report = msg.report
				break
			}
		}
		return mod, nil
	case summaryMsg:
		run := msg.run
		mod.summary = &run
		return mod, nil
	case closeMsg:
		return mod, tea.Quit
	}
	return mod, nil
}

func (mod runModel) View() string {
	var b strings.Builder
	for _, row := range mod.rows {
		switch {
		case row.running:
			fmt.Fprintf(&b, " %s %s\n", mod.spinner.View(), row.name)
		case row.report.Status == m.Passed:
			fmt.Fprintf(&b, " %s %s\n", passStyle.Render("✓"), row.name)
		default:
			fmt.Fprintf(&b, " %s %s\n", failStyle.Render("✗"), row.name)
			if row.report.Detail != "" {
				fmt.Fprintf(&b, "   %s\n", dimStyle.Render(firstLine(row.report.Detail)))
			}
		}
	}
	if mod.summary != nil {
		fmt.Fprintf(&b, "\n%d/%d tests passed\n",
			mod.summary.Passed(), len(mod.summary.Tests))
	}
	return b.String()
}
