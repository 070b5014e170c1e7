package pipeline

import (
	"context"
	"errors"
	"io"
	"os/exec"
)

// Process is a running external command whose output streams are read
// concurrently with waiting for exit.
type Process interface {
	Stdout() io.Reader
	Stderr() io.Reader
	Wait() error
}

// Launcher abstracts process spawning so the orchestrator can be driven by
// scripted fakes in tests.
type Launcher interface {
	Start(ctx context.Context, name string, args ...string) (Process, error)
}

type execLauncher struct{}

func (execLauncher) Start(ctx context.Context, name string, args ...string) (Process, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execProcess{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdout io.Reader
	stderr io.Reader
}

func (p *execProcess) Stdout() io.Reader { return p.stdout }
func (p *execProcess) Stderr() io.Reader { return p.stderr }
func (p *execProcess) Wait() error       { return p.cmd.Wait() }

// exitCode extracts the process exit code from a Wait error, -1 when the
// process never ran to an exit status.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
