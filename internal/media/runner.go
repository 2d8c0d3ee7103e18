package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes external commands. It exists so tests can intercept ffmpeg
// and ffprobe invocations without shelling out.
type Runner interface {
	// Run executes the command and discards its stdout. On failure the
	// returned error includes the trailing portion of stderr.
	Run(ctx context.Context, name string, args ...string) error

	// Output executes the command and returns its stdout. On failure the
	// returned error includes the trailing portion of stderr.
	Output(ctx context.Context, name string, args ...string) (string, error)
}

// maxStderrTail bounds how much of a failed command's stderr is carried into
// the error. ffmpeg prints its full banner and stream maps before the actual
// failure line, which is always at the end.
const maxStderrTail = 512

type execRunner struct{}

var _ Runner = execRunner{}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	_, err := run(ctx, name, args...)
	return err
}

func (execRunner) Output(ctx context.Context, name string, args ...string) (string, error) {
	return run(ctx, name, args...)
}

func run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if tail := stderrTail(stderr.String()); tail != "" {
			return "", fmt.Errorf("%s: %w: %s", name, err, tail)
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return stdout.String(), nil
}

func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrTail {
		s = s[len(s)-maxStderrTail:]
	}
	return s
}
