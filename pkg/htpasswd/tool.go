package htpasswd

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"lab47.dev/svnadmin/pkg/outcome"
	"lab47.dev/svnadmin/pkg/proc"
)

// Exit statuses documented in htpasswd(1). Only 1 has its own outcome
// kind, the rest are Unknown with a readable description.
var exitDescriptions = map[int]string{
	2: "syntax problem with the command line",
	3: "password was entered interactively and the verification entry didn't match",
	4: "operation was interrupted",
	5: "a value is too long",
	6: "username contains illegal characters",
	7: "file is not a valid password file",
}

// Tool drives the htpasswd executable. Validating usernames and locking
// the file are left to htpasswd.
type Tool struct {
	// Path of the htpasswd executable, "htpasswd" when empty.
	Path string

	// File is the password file handed to htpasswd.
	File string

	// Stdin passes the password on htpasswd's standard input (-i)
	// instead of the command line (-b), keeping it out of process
	// listings.
	Stdin bool

	runner proc.Runner
	logger hclog.Logger
}

var _ Store = (*Tool)(nil)

func (t *Tool) L() hclog.Logger {
	if t.logger != nil {
		return t.logger
	}

	t.logger = hclog.L()

	return t.logger
}

func (t *Tool) SetLogger(logger hclog.Logger) {
	t.logger = logger
	t.runner.L = logger
}

func (t *Tool) exe() string {
	if t.Path == "" {
		return "htpasswd"
	}

	return t.Path
}

func (t *Tool) SetPassword(ctx context.Context, user, password string) error {
	cmd := proc.Command{Path: t.exe()}

	if t.Stdin {
		cmd.Args = []string{"-i", t.File, user}
		cmd.Stdin = strings.NewReader(password)
	} else {
		cmd.Args = []string{"-b", t.File, user, password}
	}

	return t.run(ctx, "set-password", user, cmd)
}

func (t *Tool) DeleteUser(ctx context.Context, user string) error {
	return t.run(ctx, "delete-user", user, proc.Command{
		Path: t.exe(),
		Args: []string{"-D", t.File, user},
	})
}

func (t *Tool) run(ctx context.Context, op, user string, cmd proc.Command) error {
	res, err := t.runner.Run(ctx, cmd)
	if err != nil {
		return &outcome.Error{
			Op:      op,
			Subject: user,
			Path:    t.File,
			Code:    -1,
			Detail:  fmt.Sprintf("error occurred while calling htpasswd: %s", err),
			Err:     err,
		}
	}

	t.L().Trace("htpasswd finished", "op", op, "user", user, "status", res.ExitCode)

	switch res.ExitCode {
	case 0:
		return nil
	case 1:
		return &outcome.Error{
			Kind:    outcome.FileAccessError,
			Op:      op,
			Subject: user,
			Path:    t.File,
			Code:    1,
			Detail:  res.Diagnostics(),
		}
	}

	detail := fmt.Sprintf("htpasswd returned %d", res.ExitCode)
	if desc, ok := exitDescriptions[res.ExitCode]; ok {
		detail += " (" + desc + ")"
	}

	return &outcome.Error{
		Op:      op,
		Subject: user,
		Path:    t.File,
		Code:    res.ExitCode,
		Detail:  detail,
	}
}
