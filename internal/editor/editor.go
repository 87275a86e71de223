package editor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/term"

	"github.com/blacktop/postcraft/internal/logutil"
)

const defaultEditor = "vi"

// External runs the operator's editor on a temporary file.
type External struct {
	// Command is split on whitespace; the file path is appended as the
	// last argument.
	Command string
	TempDir string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// New picks $VISUAL, then $EDITOR, then vi, attached to the process's
// standard streams.
func New() *External {
	return &External{
		Command: Resolve(),
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Resolve returns the editor command from the environment.
func Resolve() string {
	for _, key := range []string{"VISUAL", "EDITOR"} {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return defaultEditor
}

// Interactive reports whether f is attached to a terminal.
func Interactive(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Edit blocks until the editor exits and returns the saved file content.
// A single trailing newline added by the editor is removed.
func (e *External) Edit(_ context.Context, initial []byte) ([]byte, error) {
	args := strings.Fields(e.Command)
	if len(args) == 0 {
		return nil, errors.New("no editor configured")
	}

	file, err := os.CreateTemp(e.TempDir, "postcraft-*.txt")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	path := file.Name()
	defer os.Remove(path)

	if _, err := file.Write(initial); err != nil {
		file.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	// not CommandContext: an interrupt must not kill the editor mid-save
	cmd := exec.Command(args[0], append(args[1:], path)...)
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	logutil.Debugf("launching editor: %s %s", e.Command, path)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("run editor %q: %w", args[0], err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read edited file: %w", err)
	}
	data = bytes.TrimSuffix(data, []byte("\n"))
	data = bytes.TrimSuffix(data, []byte("\r"))
	return data, nil
}
