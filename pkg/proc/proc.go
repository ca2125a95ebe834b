package proc

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// Result is what a finished child process left behind.
type Result struct {
	Stdout []byte
	Stderr []byte

	// Combined holds stdout and stderr interleaved, only when the command
	// was run with Combined set.
	Combined []byte

	ExitCode int
}

// Success reports whether the process exited with status 0.
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// Diagnostics returns the trimmed stderr text.
func (r *Result) Diagnostics() string {
	return strings.TrimSpace(string(r.Stderr))
}

type Command struct {
	Path string
	Args []string

	// Stdin is fed to the process when set.
	Stdin io.Reader

	// Combined routes stdout and stderr into one buffer, like 2>&1.
	Combined bool

	Dir string
}

// Runner starts external tools. Each call gets its own argument vector,
// nothing goes through a shell.
type Runner struct {
	L hclog.Logger
}

func (r *Runner) logger() hclog.Logger {
	if r.L == nil {
		return hclog.L()
	}

	return r.L
}

// Run executes c and waits for it. A non-zero exit status is reported in
// the Result, not as an error. The error is only set when the process
// could not be started at all, or the context was canceled.
func (r *Runner) Run(ctx context.Context, c Command) (*Result, error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir

	if c.Stdin != nil {
		cmd.Stdin = c.Stdin
	}

	var (
		res            Result
		stdout, stderr bytes.Buffer
	)

	if c.Combined {
		cmd.Stdout = &stdout
		cmd.Stderr = &stdout
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	r.logger().Trace("exec", "path", c.Path, "args", c.Args)

	err := cmd.Run()

	if c.Combined {
		res.Combined = stdout.Bytes()
	} else {
		res.Stdout = stdout.Bytes()
		res.Stderr = stderr.Bytes()
	}

	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) && ctx.Err() == nil {
			res.ExitCode = ee.ExitCode()
			r.logger().Trace("exec finished", "path", c.Path, "status", res.ExitCode)
			return &res, nil
		}

		if ctx.Err() != nil {
			return nil, errors.Wrapf(ctx.Err(), "running %s", c.Path)
		}

		return nil, errors.Wrapf(err, "unable to run %s", c.Path)
	}

	r.logger().Trace("exec finished", "path", c.Path, "status", 0)

	return &res, nil
}
