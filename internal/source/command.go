package source

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// CommandOutput returns an opener for LineFile.Open that runs an external
// program and reads its standard output. A missing program, or one that
// exits with an error, is reported as BackendUnavailableError.
func CommandOutput(backend, program string, args ...string) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) {
		path, err := exec.LookPath(program)
		if err != nil {
			return nil, Unavailable(backend, err)
		}

		cmd := exec.Command(path, args...)
		stderr := &bytes.Buffer{}
		cmd.Stderr = stderr
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("failed to create pipe for %s: %w", program, err)
		}
		if err := cmd.Start(); err != nil {
			return nil, Unavailable(backend, err)
		}
		return &commandReader{ReadCloser: stdout, cmd: cmd, stderr: stderr, backend: backend}, nil
	}
}

type commandReader struct {
	io.ReadCloser
	cmd     *exec.Cmd
	stderr  *bytes.Buffer
	backend string
}

// Close releases the pipe before waiting so that a program still writing
// does not block forever when the caller stops reading early
func (c *commandReader) Close() error {
	c.ReadCloser.Close()
	if err := c.cmd.Wait(); err != nil {
		if msg := strings.TrimSpace(c.stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return Unavailable(c.backend, err)
	}
	return nil
}
