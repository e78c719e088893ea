package model

// ExitCode is the process exit status of the interpreter.
type ExitCode int

// Exit codes, grouped by the stage that produces them.
const (
	ExitOK ExitCode = 0

	// Source file problems.
	ExitSourceNotFound         ExitCode = 1
	ExitSourcePermissionDenied ExitCode = 2
	ExitSourceNotTesc          ExitCode = 3

	// Language pipeline problems.
	ExitParseError    ExitCode = 11
	ExitAnalysisError ExitCode = 12

	// Spawned command problems.
	ExitCommandNotFound         ExitCode = 21
	ExitCommandPermissionDenied ExitCode = 22

	// At least one test failed.
	ExitTestsFailed ExitCode = 41

	// Internal invariant violation.
	ExitInternal ExitCode = 101
)
