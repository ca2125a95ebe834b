// Package admin carries out the repository actions an operator asks for,
// keeping the disk and the host's repository records in step.
package admin

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"lab47.dev/svnadmin/pkg/outcome"
	"lab47.dev/svnadmin/pkg/registrar"
	"lab47.dev/svnadmin/pkg/svn"
)

var (
	ErrMissingName     = errors.New("missing arguments to add a repository")
	ErrNoneSelected    = errors.New("no repositories were selected")
	ErrNotConfigured   = errors.New("settings must be provided before continuing")
	ErrPrefixViolation = errors.New("the repository directory must be located below one of the allowed directories")
)

// Registry is the part of svn.Registry the service drives.
type Registry interface {
	List(ctx context.Context) ([]*svn.Repository, error)
	Add(ctx context.Context, name string) error
	Remove(ctx context.Context, name string) error
}

type Options struct {
	ParentPath string

	// URLPrefix, when set, gives new repositories the url
	// <URLPrefix>/<name> in the host.
	URLPrefix string

	// AllowedPrefixes limits where repository directories may live. Empty
	// allows everything.
	AllowedPrefixes []string
}

type Service struct {
	opts      Options
	registry  Registry
	registrar registrar.Registrar

	logger hclog.Logger
}

func NewService(opts Options, registry Registry, reg registrar.Registrar) *Service {
	if reg == nil {
		reg = registrar.Nop{}
	}

	return &Service{
		opts:      opts,
		registry:  registry,
		registrar: reg,
	}
}

func (s *Service) L() hclog.Logger {
	if s.logger != nil {
		return s.logger
	}

	s.logger = hclog.L()

	return s.logger
}

func (s *Service) SetLogger(logger hclog.Logger) {
	s.logger = logger
}

func (s *Service) Repositories(ctx context.Context) ([]*svn.Repository, error) {
	if s.opts.ParentPath == "" {
		return nil, ErrNotConfigured
	}

	return s.registry.List(ctx)
}

func (s *Service) checkDir(name, dir string) error {
	if !filepath.IsAbs(dir) {
		return &outcome.Error{
			Kind:    outcome.InvalidPath,
			Op:      "add",
			Subject: name,
			Path:    dir,
			Code:    -1,
		}
	}

	if len(s.opts.AllowedPrefixes) == 0 {
		return nil
	}

	for _, prefix := range s.opts.AllowedPrefixes {
		if isPathBelow(dir, prefix) {
			return nil
		}
	}

	return &outcome.Error{
		Kind:    outcome.InvalidPath,
		Op:      "add",
		Subject: name,
		Path:    dir,
		Code:    -1,
		Err: errors.Wrapf(ErrPrefixViolation, "%s not below %s",
			dir, strings.Join(s.opts.AllowedPrefixes, ", ")),
	}
}

func isPathBelow(path, prefix string) bool {
	rel, err := filepath.Rel(filepath.Clean(prefix), filepath.Clean(path))
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// AddRepository creates name and records it in the host. The returned
// notices are follow-up steps for the operator.
func (s *Service) AddRepository(ctx context.Context, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingName
	}

	dir := filepath.Join(s.opts.ParentPath, name)

	if err := s.checkDir(name, dir); err != nil {
		return nil, err
	}

	err := s.registry.Add(ctx, name)
	if err != nil {
		return nil, err
	}

	err = s.registrar.Register(ctx, name, dir, "svn")
	if err != nil {
		return nil, errors.Wrapf(err, "registering repository %s", name)
	}

	if s.opts.URLPrefix != "" {
		u, err := url.JoinPath(s.opts.URLPrefix, name)
		if err != nil {
			return nil, errors.Wrapf(err, "building url for %s", name)
		}

		err = s.registrar.SetURL(ctx, name, u)
		if err != nil {
			return nil, errors.Wrapf(err, "setting url of repository %s", name)
		}
	}

	s.L().Info("repository added", "repository", name, "dir", dir)

	return []string{
		fmt.Sprintf("The repository %q has been added.", name),
		fmt.Sprintf("You should now run `trac-admin $ENV repository resync %q` to synchronize Trac with the repository.", name),
		fmt.Sprintf("You should also set up a post-commit hook on the repository to call `trac-admin $ENV changeset added %q $REV` for each committed changeset.", name),
	}, nil
}

// RemoveRepositories deletes each named repository in turn, stopping at
// the first failure.
func (s *Service) RemoveRepositories(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return ErrNoneSelected
	}

	for _, name := range names {
		err := s.registry.Remove(ctx, name)
		if err != nil {
			return err
		}

		err = s.registrar.Unregister(ctx, name)
		if err != nil {
			return errors.Wrapf(err, "unregistering repository %s", name)
		}

		s.L().Info("repository removed", "repository", name)
	}

	return nil
}
