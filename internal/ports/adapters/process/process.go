// Package process runs external tools and models as blocking subprocesses and
// reports their outcome as a typed result.
package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Cmd describes one external invocation.
type Cmd struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

func (c Cmd) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result is the outcome of a successful invocation.
type Result struct {
	Output []byte
}

// ExitError reports a non-zero exit or a failure to start.
type ExitError struct {
	Cmd      Cmd
	ExitCode int
	Output   []byte
	Err      error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s: %v\n%s", e.Cmd.Name, e.Err, strings.TrimSpace(string(e.Output)))
}

func (e *ExitError) Unwrap() error { return e.Err }

// Runner executes commands. Tests replace it with a fake.
type Runner interface {
	Run(ctx context.Context, cmd Cmd) (Result, error)
}

// Exec runs commands with os/exec, capturing combined output.
type Exec struct{}

func (Exec) Run(ctx context.Context, c Cmd) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	b, err := cmd.CombinedOutput()
	if err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		return Result{Output: b}, &ExitError{Cmd: c, ExitCode: code, Output: b, Err: err}
	}
	return Result{Output: b}, nil
}

// Default returns r, or the os/exec runner when r is nil.
func Default(r Runner) Runner {
	if r == nil {
		return Exec{}
	}
	return r
}

// LookPath reports whether a binary can be executed, either as a path or via PATH.
func LookPath(bin string) error {
	if strings.TrimSpace(bin) == "" {
		return errors.New("binary path is empty")
	}
	if _, err := exec.LookPath(bin); err != nil {
		return fmt.Errorf("binary %q not found: %w", bin, err)
	}
	return nil
}

// RequireFile reports whether path exists and is a regular file.
func RequireFile(label, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%s path is empty", label)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s %q is a directory", label, path)
	}
	return nil
}
