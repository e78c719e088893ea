// Package adapter provides the interpreter's side effects behind narrow
// interfaces: source file reading, child process execution and report
// persistence.
package adapter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Source reading errors, matched by the workflow to pick exit codes.
var (
	ErrSourceNotFound   = errors.New("source file not found")
	ErrSourcePermission = errors.New("source file permission denied")
	ErrSourceNotTesc    = errors.New("source file extension must be `tesc`")
)

// SourceFSAdapter abstracts reading a tesc source file.
type SourceFSAdapter interface {
	// Read returns the file's contents. The path must end in `.tesc`.
	Read(path string) (string, error)
}

// LocalSourceFSAdapter reads from the local filesystem.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// Read implements SourceFSAdapter.
func (a *LocalSourceFSAdapter) Read(path string) (string, error) {
	if filepath.Ext(path) != ".tesc" {
		return "", fmt.Errorf("%w: %s", ErrSourceNotTesc, path)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return "", fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		case errors.Is(err, fs.ErrPermission):
			return "", fmt.Errorf("%w: %s", ErrSourcePermission, path)
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}

	return string(contents), nil
}
