package runner

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
)

// Command describes one invocation of the external runner process.
type Command struct {
	Name   string
	Args   []string
	Dir    string
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// Executor runs a Command and reports its exit code. A non-zero exit code is
// not an error; errors mean the process could not be run to completion.
type Executor interface {
	Execute(ctx context.Context, cmd Command) (int, error)
}

// ProcessExecutor runs commands as child processes bound to the context.
type ProcessExecutor struct{}

// Execute starts cmd and waits for it to exit.
func (ProcessExecutor) Execute(ctx context.Context, c Command) (int, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if ctx.Err() != nil {
		return -1, ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}
