package adapter

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []string
	}{
		{"simple", "/bin/cat", []string{"/bin/cat"}},
		{"with args", "/bin/echo -n hello", []string{"/bin/echo", "-n", "hello"}},
		{"extra whitespace", "  a   b\tc ", []string{"a", "b", "c"}},
		{"single quotes", "prog 'a b' c", []string{"prog", "a b", "c"}},
		{"double quotes", `prog "a b" c`, []string{"prog", "a b", "c"}},
		{"quotes mid-word", `prog pre'a b'post`, []string{"prog", "prea bpost"}},
		{"empty quoted arg", `prog ''`, []string{"prog", ""}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitCommand(tt.command))
		})
	}
}

func TestLocalProcessRoundTrip(t *testing.T) {
	runner := NewLocalProcessRunner(5 * time.Second)

	proc, err := runner.Start("/bin/cat")
	require.NoError(t, err)

	require.NoError(t, proc.Send("hello"))
	line, err := proc.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "hello\n", line)

	require.NoError(t, proc.Send("world"))
	line, err = proc.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "world\n", line)

	require.NoError(t, proc.CloseStdin())
	assert.NoError(t, proc.Wait(2*time.Second))
}

func TestLocalProcessQuotedArgs(t *testing.T) {
	runner := NewLocalProcessRunner(5 * time.Second)

	proc, err := runner.Start("/bin/echo 'a b'")
	require.NoError(t, err)

	line, err := proc.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "a b\n", line)

	require.NoError(t, proc.CloseStdin())
	assert.NoError(t, proc.Wait(2*time.Second))
}

func TestLocalProcessEOFAfterExit(t *testing.T) {
	runner := NewLocalProcessRunner(5 * time.Second)

	proc, err := runner.Start("/bin/echo only-line")
	require.NoError(t, err)

	_, err = proc.ReadLine()
	require.NoError(t, err)

	_, err = proc.ReadLine()
	assert.ErrorIs(t, err, io.EOF)

	_ = proc.CloseStdin()
	assert.NoError(t, proc.Wait(2*time.Second))
}

func TestLocalProcessStderrCapture(t *testing.T) {
	runner := NewLocalProcessRunner(5 * time.Second)

	proc, err := runner.Start(`/bin/sh -c "echo oops >&2"`)
	require.NoError(t, err)

	require.NoError(t, proc.CloseStdin())
	require.NoError(t, proc.Wait(2*time.Second))
	assert.Contains(t, proc.Stderr(), "oops")
}

func TestLocalProcessNonZeroExit(t *testing.T) {
	runner := NewLocalProcessRunner(5 * time.Second)

	proc, err := runner.Start(`/bin/sh -c "exit 3"`)
	require.NoError(t, err)

	require.NoError(t, proc.CloseStdin())
	err = proc.Wait(2 * time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited with code 3")
}

func TestLocalProcessReadTimeout(t *testing.T) {
	runner := NewLocalProcessRunner(100 * time.Millisecond)

	proc, err := runner.Start("/bin/cat")
	require.NoError(t, err)
	defer proc.Kill()

	_, err = proc.ReadLine()
	assert.ErrorIs(t, err, ErrIOTimeout)
}

func TestLocalProcessKillLingeringChild(t *testing.T) {
	runner := NewLocalProcessRunner(5 * time.Second)

	// ignores stdin EOF, would outlive any grace period
	proc, err := runner.Start(`/bin/sh -c "sleep 60"`)
	require.NoError(t, err)

	require.NoError(t, proc.CloseStdin())
	err = proc.Wait(200 * time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not exit within")
}

func TestLocalProcessSpawnNotFound(t *testing.T) {
	runner := NewLocalProcessRunner(time.Second)

	_, err := runner.Start("/nonexistent/prog")
	assert.ErrorIs(t, err, ErrCommandNotFound)

	_, err = runner.Start("definitely-not-on-path-xyz")
	assert.ErrorIs(t, err, ErrCommandNotFound)

	_, err = runner.Start("")
	assert.ErrorIs(t, err, ErrCommandNotFound)
}

func TestLocalProcessSpawnPermissionDenied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locked")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o644))

	runner := NewLocalProcessRunner(time.Second)
	_, err := runner.Start(path)
	assert.ErrorIs(t, err, ErrCommandPermission)
}
