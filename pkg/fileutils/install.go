package fileutils

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// Install copies the entries of a template directory into Dest. Entries
// already present in Dest are overwritten by name, others are left alone.
type Install struct {
	Ctx    context.Context
	L      hclog.Logger
	Source string
	Dest   string
}

func (i *Install) shouldCancel() error {
	if i.Ctx == nil {
		return nil
	}

	select {
	case <-i.Ctx.Done():
		return i.Ctx.Err()
	default:
		return nil
	}
}

// Install returns the names of the top level entries it copied.
func (i *Install) Install() ([]string, error) {
	if i.L == nil {
		i.L = hclog.L()
	}

	entries, err := os.ReadDir(i.Source)
	if err != nil {
		return nil, errors.Wrapf(err, "reading template dir %s", i.Source)
	}

	err = os.MkdirAll(i.Dest, 0755)
	if err != nil {
		return nil, err
	}

	var copied []string

	for _, ent := range entries {
		from := filepath.Join(i.Source, ent.Name())
		to := filepath.Join(i.Dest, ent.Name())

		err = i.copyEntry(from, to)
		if err != nil {
			return copied, errors.Wrapf(err, "copying %s", ent.Name())
		}

		copied = append(copied, ent.Name())
	}

	return copied, nil
}

func (i *Install) copyEntry(from, to string) error {
	if err := i.shouldCancel(); err != nil {
		return err
	}

	i.L.Trace("copy entry", "from", from, "to", to)

	fi, err := os.Lstat(from)
	if err != nil {
		return err
	}

	switch fi.Mode() & os.ModeType {
	case 0:
		err = copyFile(from, to, fi.Mode().Perm())
		if err != nil {
			return err
		}

		// keep the template's mode even when the target already existed
		err = os.Chmod(to, fi.Mode().Perm())
		if err != nil {
			return err
		}

		return os.Chtimes(to, fi.ModTime(), fi.ModTime())
	case os.ModeDir:
		if _, err := os.Stat(to); err != nil {
			err = os.Mkdir(to, fi.Mode().Perm())
			if err != nil {
				return err
			}
		}

		entries, err := os.ReadDir(from)
		if err != nil {
			return err
		}

		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}

		sort.Strings(names)

		for _, name := range names {
			err = i.copyEntry(filepath.Join(from, name), filepath.Join(to, name))
			if err != nil {
				return err
			}
		}

	case os.ModeSymlink:
		link, err := os.Readlink(from)
		if err != nil {
			return err
		}

		if _, err := os.Lstat(to); err == nil {
			if err := os.Remove(to); err != nil {
				return err
			}
		}

		return os.Symlink(link, to)
	}

	return nil
}

func copyFile(from, to string, mode os.FileMode) error {
	f, err := os.Open(from)
	if err != nil {
		return err
	}

	defer f.Close()

	tg, err := os.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	_, err = io.Copy(tg, f)
	if err != nil {
		tg.Close()
		return err
	}

	return tg.Close()
}
