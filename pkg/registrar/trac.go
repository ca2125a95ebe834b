package registrar

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"lab47.dev/svnadmin/pkg/proc"
)

// TracAdmin registers repositories through the trac-admin command of a
// Trac environment.
type TracAdmin struct {
	// Path of trac-admin, "trac-admin" when empty.
	Path string

	// Env is the Trac environment directory.
	Env string

	runner proc.Runner
	logger hclog.Logger
}

var _ Registrar = (*TracAdmin)(nil)

var ErrCommandFailed = errors.New("trac-admin command failed")

func (t *TracAdmin) L() hclog.Logger {
	if t.logger != nil {
		return t.logger
	}

	t.logger = hclog.L()

	return t.logger
}

func (t *TracAdmin) SetLogger(logger hclog.Logger) {
	t.logger = logger
	t.runner.L = logger
}

func (t *TracAdmin) run(ctx context.Context, args ...string) error {
	exe := t.Path
	if exe == "" {
		exe = "trac-admin"
	}

	res, err := t.runner.Run(ctx, proc.Command{
		Path:     exe,
		Args:     append([]string{t.Env}, args...),
		Combined: true,
	})
	if err != nil {
		return err
	}

	if !res.Success() {
		return errors.Wrapf(ErrCommandFailed, "%v: status %d: %s", args, res.ExitCode, res.Combined)
	}

	t.L().Debug("trac-admin", "args", args)

	return nil
}

func (t *TracAdmin) Register(ctx context.Context, name, dir, typ string) error {
	return t.run(ctx, "repository", "add", name, dir, typ)
}

func (t *TracAdmin) SetURL(ctx context.Context, name, url string) error {
	return t.run(ctx, "repository", "set", name, "url", url)
}

func (t *TracAdmin) Unregister(ctx context.Context, name string) error {
	return t.run(ctx, "repository", "remove", name)
}

// Reload bumps the mtime of the environment's trac.ini, which makes Trac
// reload its configuration, repositories included, on the next request.
func (t *TracAdmin) Reload(ctx context.Context) error {
	path := filepath.Join(t.Env, "conf", "trac.ini")

	now := time.Now()

	err := os.Chtimes(path, now, now)
	if err != nil {
		return errors.Wrapf(err, "touching %s", path)
	}

	t.L().Trace("reload signaled", "config", path)

	return nil
}
