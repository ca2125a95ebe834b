package htpasswd

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
	"lab47.dev/svnadmin/pkg/lockfile"
	"lab47.dev/svnadmin/pkg/outcome"
)

// Native maintains the password file in process, hashing with bcrypt the
// way `htpasswd -B` does. Since there is no htpasswd to do it, Native
// serializes writers itself with a lock file next to File.
type Native struct {
	File string

	// Cost is the bcrypt cost, bcrypt.DefaultCost when zero.
	Cost int

	// LockPoll is how often a held lock is retried.
	LockPoll time.Duration

	// LockWarnAfter is how long to wait on a held lock before warning
	// about it, DefaultLockWarn when zero. A lock left by a crashed writer
	// is never cleared automatically; it must be removed by hand.
	LockWarnAfter time.Duration

	logger hclog.Logger
}

// DefaultLockWarn is how long Native waits on a held lock before warning.
const DefaultLockWarn = 5 * time.Second

var _ Store = (*Native)(nil)

func (n *Native) L() hclog.Logger {
	if n.logger != nil {
		return n.logger
	}

	n.logger = hclog.L()

	return n.logger
}

func (n *Native) SetLogger(logger hclog.Logger) {
	n.logger = logger
}

func (n *Native) SetPassword(ctx context.Context, user, password string) error {
	if err := checkUser(user); err != nil {
		return &outcome.Error{Op: "set-password", Subject: user, Path: n.File, Code: -1, Err: err}
	}

	cost := n.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return &outcome.Error{Op: "set-password", Subject: user, Path: n.File, Code: -1, Err: err}
	}

	// htpasswd writes the $2y$ prefix, Apache and Go accept both.
	entry := user + ":" + "$2y$" + strings.TrimPrefix(string(hash), "$2a$")

	return n.update(ctx, "set-password", user, func(lines []string) []string {
		for i, line := range lines {
			if entryUser(line) == user {
				lines[i] = entry
				return lines
			}
		}

		return append(lines, entry)
	})
}

func (n *Native) DeleteUser(ctx context.Context, user string) error {
	if err := checkUser(user); err != nil {
		return &outcome.Error{Op: "delete-user", Subject: user, Path: n.File, Code: -1, Err: err}
	}

	return n.update(ctx, "delete-user", user, func(lines []string) []string {
		out := lines[:0]

		for _, line := range lines {
			if entryUser(line) != user {
				out = append(out, line)
			}
		}

		return out
	})
}

// Verify reports whether password matches the stored hash for user.
func (n *Native) Verify(user, password string) (bool, error) {
	lines, _, err := n.read()
	if err != nil {
		return false, err
	}

	for _, line := range lines {
		if entryUser(line) != user {
			continue
		}

		hash := line[len(user)+1:]

		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		if err == nil {
			return true, nil
		}

		if err == bcrypt.ErrMismatchedHashAndPassword {
			return false, nil
		}

		return false, errors.Wrapf(err, "entry for %s", user)
	}

	return false, nil
}

func entryUser(line string) string {
	idx := strings.IndexByte(line, ':')
	if idx == -1 {
		return ""
	}

	return line[:idx]
}

func (n *Native) accessError(op, user string, err error) error {
	return &outcome.Error{
		Kind:    outcome.FileAccessError,
		Op:      op,
		Subject: user,
		Path:    n.File,
		Code:    -1,
		Err:     err,
	}
}

func (n *Native) read() ([]string, os.FileMode, error) {
	data, err := os.ReadFile(n.File)
	if err != nil {
		return nil, 0, err
	}

	fi, err := os.Stat(n.File)
	if err != nil {
		return nil, 0, err
	}

	var lines []string

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}

		lines = append(lines, line)
	}

	return lines, fi.Mode().Perm(), sc.Err()
}

func (n *Native) update(ctx context.Context, op, user string, fn func([]string) []string) error {
	L := n.L().With("file", n.File, "user", user)

	warnAfter := n.LockWarnAfter
	if warnAfter <= 0 {
		warnAfter = DefaultLockWarn
	}

	lockPath := n.File + ".lock"
	start := time.Now()
	warned := false

	lock, err := lockfile.Take(ctx, lockPath, n.LockPoll, func() {
		L.Trace("waiting for password file lock")

		if !warned && time.Since(start) >= warnAfter {
			warned = true
			L.Warn("password file lock still held, remove it if no other writer is running",
				"lock", lockPath, "waited", time.Since(start).Round(time.Millisecond))
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			return &outcome.Error{Op: op, Subject: user, Path: n.File, Code: -1, Err: err}
		}

		return n.accessError(op, user, err)
	}

	defer lock.Release()

	lines, mode, err := n.read()
	if err != nil {
		return n.accessError(op, user, err)
	}

	// the rename below would succeed on a read-only file
	f, err := os.OpenFile(n.File, os.O_WRONLY, 0)
	if err != nil {
		return n.accessError(op, user, err)
	}
	f.Close()

	lines = fn(lines)

	var buf bytes.Buffer
	for _, line := range lines {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	tmp, err := os.CreateTemp(filepath.Dir(n.File), "."+filepath.Base(n.File)+".*")
	if err != nil {
		return n.accessError(op, user, err)
	}

	defer os.Remove(tmp.Name())

	_, err = tmp.Write(buf.Bytes())
	if err == nil {
		err = tmp.Chmod(mode)
	}

	if cerr := tmp.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		return n.accessError(op, user, err)
	}

	err = os.Rename(tmp.Name(), n.File)
	if err != nil {
		return n.accessError(op, user, err)
	}

	L.Trace("password file updated", "op", op, "entries", len(lines))

	return nil
}
