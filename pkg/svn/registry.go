package svn

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"lab47.dev/svnadmin/pkg/fileutils"
	"lab47.dev/svnadmin/pkg/outcome"
	"lab47.dev/svnadmin/pkg/proc"
	"lab47.dev/svnadmin/pkg/progress"
)

// Subversion error codes seen in svnadmin diagnostics.
const (
	codeExists     = "E165002"
	codeNoEntry    = "E000002"
	codePermission = "E000013"
)

// Options configures a Registry. Zero values fall back to the bare tool
// names, resolved through PATH.
type Options struct {
	ParentPath string
	SvnAdmin   string
	SvnClient  string
	Chmod      string

	// HooksPath is copied into every new repository's hooks dir when set.
	HooksPath string

	// CreateBaseStructure adds trunk, branches and tags to new
	// repositories.
	CreateBaseStructure bool
}

// Reloader is told to re-read its repositories after the set on disk
// changed.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Registry manages the repositories living directly under a parent
// directory. It keeps no state of its own: every call reads the disk.
type Registry struct {
	opts     Options
	reloader Reloader
	runner   *proc.Runner

	logger hclog.Logger
}

func NewRegistry(opts Options, reloader Reloader) *Registry {
	if opts.SvnAdmin == "" {
		opts.SvnAdmin = "svnadmin"
	}

	if opts.SvnClient == "" {
		opts.SvnClient = "svn"
	}

	return &Registry{
		opts:     opts,
		reloader: reloader,
		runner:   &proc.Runner{},
	}
}

func (r *Registry) L() hclog.Logger {
	if r.logger != nil {
		return r.logger
	}

	r.logger = hclog.L()

	return r.logger
}

func (r *Registry) SetLogger(logger hclog.Logger) {
	r.logger = logger
	r.runner.L = logger
}

func (r *Registry) ParentPath() string {
	return r.opts.ParentPath
}

// List returns one Repository per directory under the parent path, in name
// order. A parent path that is unset or missing yields no repositories.
func (r *Registry) List(ctx context.Context) ([]*Repository, error) {
	if r.opts.ParentPath == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(r.opts.ParentPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, errors.Wrapf(err, "reading parent path %s", r.opts.ParentPath)
	}

	var dirs []string

	for _, ent := range entries {
		dir := filepath.Join(r.opts.ParentPath, ent.Name())

		fi, err := os.Stat(dir)
		if err != nil || !fi.IsDir() {
			r.L().Trace("skipping non-directory", "path", dir)
			continue
		}

		dirs = append(dirs, dir)
	}

	bar := progress.Count(ctx, len(dirs), "verifying")
	defer bar.Close()

	repos := make([]*Repository, 0, len(dirs))

	for _, dir := range dirs {
		bar.Step(filepath.Base(dir))

		repo, err := r.verify(ctx, dir)
		if err != nil {
			return nil, err
		}

		repos = append(repos, repo)
	}

	return repos, nil
}

func (r *Registry) verify(ctx context.Context, dir string) (*Repository, error) {
	repo := &Repository{
		Name:      filepath.Base(dir),
		Directory: dir,
	}

	res, err := r.runner.Run(ctx, proc.Command{
		Path:     r.opts.SvnAdmin,
		Args:     []string{"verify", dir},
		Combined: true,
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}

		r.L().Warn("unable to verify repository", "dir", dir, "error", err)
		repo.VerifyOutput = err.Error()
		return repo, nil
	}

	repo.VerifyOutput = strings.TrimSpace(string(res.Combined))

	rev, ok := parseRevision(repo.VerifyOutput)

	repo.HeadRevision = rev
	repo.Verified = ok && res.Success()

	r.L().Debug("verify", "dir", dir, "revision", rev, "status", res.ExitCode)

	return repo, nil
}

func (r *Registry) directory(op, name string) (string, error) {
	dir := filepath.Join(r.opts.ParentPath, name)

	if name == "" || name == "." || name == ".." ||
		strings.ContainsRune(name, filepath.Separator) ||
		!filepath.IsAbs(dir) {
		return "", &outcome.Error{
			Kind:    outcome.InvalidPath,
			Op:      op,
			Subject: name,
			Path:    dir,
			Code:    -1,
		}
	}

	return dir, nil
}

// Add creates the repository name under the parent path. The steps are
// run one after another: svnadmin create, the optional base structure
// commit, the optional chmod, then the hook templates. Any failing step
// ends the add with a single *outcome.Error naming that step; steps that
// already ran are not undone.
func (r *Registry) Add(ctx context.Context, name string) error {
	dir, err := r.directory("add", name)
	if err != nil {
		return err
	}

	L := r.L().With("repository", name)

	err = r.runStep(ctx, name, dir, "create", r.opts.SvnAdmin, "create", dir)
	if err != nil {
		return err
	}

	L.Info("created repository", "dir", dir)

	if r.opts.CreateBaseStructure {
		err = r.runStep(ctx, name, dir, "mkdir", r.opts.SvnClient,
			"mkdir", "--parents", "-q", "-m", "Created Folders",
			"file://"+filepath.ToSlash(filepath.Join(dir, "trunk")),
			"file://"+filepath.ToSlash(filepath.Join(dir, "branches")),
			"file://"+filepath.ToSlash(filepath.Join(dir, "tags")),
		)
		if err != nil {
			return err
		}

		L.Debug("created base structure")
	}

	if r.opts.Chmod != "" {
		args := append(strings.Fields(r.opts.Chmod), dir)

		err = r.runStep(ctx, name, dir, "chmod", "chmod", args...)
		if err != nil {
			return err
		}

		L.Debug("applied chmod", "args", r.opts.Chmod)
	}

	if r.opts.HooksPath != "" {
		if _, serr := os.Stat(r.opts.HooksPath); serr == nil {
			in := &fileutils.Install{
				Ctx:    ctx,
				L:      L,
				Source: r.opts.HooksPath,
				Dest:   filepath.Join(dir, "hooks"),
			}

			copied, err := in.Install()
			if err != nil {
				return &outcome.Error{
					Op:      "add",
					Step:    "hooks",
					Subject: name,
					Path:    dir,
					Code:    -1,
					Err:     err,
				}
			}

			L.Debug("installed hooks", "hooks", copied)
		} else {
			L.Warn("hooks path is not accessible, skipping", "path", r.opts.HooksPath)
		}
	}

	return r.reload(ctx, "add", name, dir)
}

func (r *Registry) runStep(ctx context.Context, name, dir, step, tool string, args ...string) error {
	res, err := r.runner.Run(ctx, proc.Command{
		Path: tool,
		Args: args,
	})
	if err != nil {
		return &outcome.Error{
			Op:      "add",
			Step:    step,
			Subject: name,
			Path:    dir,
			Code:    -1,
			Err:     err,
		}
	}

	diag := res.Diagnostics()

	if res.Success() {
		if diag != "" {
			r.L().Warn("tool succeeded with diagnostics", "step", step, "tool", tool, "output", diag)
		}

		return nil
	}

	oe := &outcome.Error{
		Op:      "add",
		Step:    step,
		Subject: name,
		Path:    dir,
		Code:    res.ExitCode,
		Detail:  diag,
	}

	switch {
	case strings.Contains(diag, codeExists):
		oe.Kind = outcome.AlreadyExists
	case strings.Contains(diag, codeNoEntry), strings.Contains(diag, codePermission):
		oe.Kind = outcome.CannotCreate
		oe.Path = r.opts.ParentPath
	}

	return oe
}

// Remove deletes the repository directory. Unlike credentials, removing a
// repository that does not exist is an error.
func (r *Registry) Remove(ctx context.Context, name string) error {
	dir, err := r.directory("remove", name)
	if err != nil {
		return err
	}

	if _, err := os.Lstat(dir); err != nil {
		return &outcome.Error{
			Kind:    outcome.RemovalFailed,
			Op:      "remove",
			Subject: name,
			Path:    dir,
			Code:    -1,
			Err:     err,
		}
	}

	err = os.RemoveAll(dir)
	if err != nil {
		return &outcome.Error{
			Kind:    outcome.RemovalFailed,
			Op:      "remove",
			Subject: name,
			Path:    dir,
			Code:    -1,
			Err:     err,
		}
	}

	r.L().Info("removed repository", "repository", name, "dir", dir)

	return r.reload(ctx, "remove", name, dir)
}

func (r *Registry) reload(ctx context.Context, op, name, dir string) error {
	if r.reloader == nil {
		return nil
	}

	err := r.reloader.Reload(ctx)
	if err != nil {
		r.L().Error("repositories changed on disk but reload failed", "repository", name, "error", err)

		return &outcome.Error{
			Op:      op,
			Step:    "reload",
			Subject: name,
			Path:    dir,
			Code:    -1,
			Err:     err,
		}
	}

	return nil
}
