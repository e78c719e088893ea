package controller

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	m "tesc.dev/pkg/tesc/internal/model"
)

// SimpleUI writes plain line-oriented output. Diagnostics are rendered as
// caret snippets pointing at the offending column.
type SimpleUI struct {
	out io.Writer
	err io.Writer
}

// NewSimpleUI creates a console UI writing results to out and diagnostics
// to err.
func NewSimpleUI(out, err io.Writer) *SimpleUI {
	return &SimpleUI{out: out, err: err}
}

// Diagnostics implements UI.
func (u *SimpleUI) Diagnostics(src string, diags []m.Diagnostic) {
	for _, d := range diags {
		u.printDiagnostic(src, d)
	}
}

func (u *SimpleUI) printDiagnostic(src string, d m.Diagnostic) {
	prefix := errorStyle.Render("error: ")
	if d.Severity == m.SeverityWarning {
		prefix = warningStyle.Render("warning: ")
	}
	fmt.Fprintf(u.err, "%s%s\n", prefix, d.Message)
	fmt.Fprintf(u.err, "In: %s\n", d.Loc)
	u.printSnippet(src, d.Loc)
	for _, note := range d.Notes {
		fmt.Fprintf(u.err, "%s %s\n", dimStyle.Render("note:"), note.Message)
		fmt.Fprintf(u.err, "In: %s\n", note.Loc)
		u.printSnippet(src, note.Loc)
	}
	fmt.Fprintln(u.err)
}

// printSnippet renders the source line with a caret under the diagnostic's
// column. Out-of-range coordinates are clamped so the caret always lands
// inside the line.
func (u *SimpleUI) printSnippet(src string, loc m.Span) {
	if src == "" || loc.Line <= 0 {
		return
	}
	lines := strings.Split(src, "\n")
	if loc.Line > len(lines) {
		return
	}
	line := lines[loc.Line-1]
	col := loc.Col
	if col < 1 {
		col = 1
	}
	if col > len(line)+1 {
		col = len(line) + 1
	}
	gutter := fmt.Sprintf("%4d | ", loc.Line)
	fmt.Fprintf(u.err, "%s%s\n", gutter, line)
	fmt.Fprintf(u.err, "%s%s%s\n",
		strings.Repeat(" ", len(gutter)),
		strings.Repeat(" ", col-1),
		caretStyle.Render("^"))
}

// TestStarted implements UI.
func (u *SimpleUI) TestStarted(name string) {
	fmt.Fprintf(u.out, "Running test: %s\n", name)
}

// TestFinished implements UI.
func (u *SimpleUI) TestFinished(report m.TestReport) {
	switch report.Status {
	case m.Passed:
		fmt.Fprintf(u.out, "%s %s\n", passStyle.Render("Test passed:"), report.Name)
	default:
		fmt.Fprintf(u.out, "%s %s\n", failStyle.Render("Test failed:"), report.Name)
		if report.Detail != "" {
			fmt.Fprintf(u.out, "  %s\n", report.Detail)
		}
		if report.Stderr != "" {
			fmt.Fprintf(u.out, "  stderr:\n%s", indent(report.Stderr, "    "))
		}
	}
}

// Summary implements UI.
func (u *SimpleUI) Summary(run m.RunReport) {
	if len(run.Tests) == 0 {
		fmt.Fprintf(u.out, "\nNo tests declared in %s\n", run.File)
		return
	}
	fmt.Fprintf(u.out, "\n%s", renderSummaryTable(run))
	if run.AllPassed() {
		fmt.Fprintln(u.out, passStyle.Render("ok"))
	} else {
		fmt.Fprintln(u.out, failStyle.Render("FAILED"))
	}
}

// Close implements UI.
func (u *SimpleUI) Close() {}

func renderSummaryTable(run m.RunReport) string {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Test", "Status", "Detail"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_LEFT,
	})

	for _, t := range run.Tests {
		table.Append([]string{t.Name, t.Status.String(), firstLine(t.Detail)})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total %d", len(run.Tests)),
		fmt.Sprintf("%d passed", run.Passed()),
		fmt.Sprintf("%d failed", len(run.Tests)-run.Passed()),
	})

	table.Render()

	return buf.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n") + "\n"
}
