package fileutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstall(t *testing.T) {
	tmpdir := t.TempDir()

	cleanup := func() {
		os.RemoveAll(tmpdir)
		os.MkdirAll(tmpdir, 0755)
	}

	tmpdira := filepath.Join(tmpdir, "a")
	tmpdirb := filepath.Join(tmpdir, "b")

	wf := func(name, content string, mode os.FileMode) {
		t.Helper()

		name = filepath.Join(tmpdir, name)

		os.MkdirAll(filepath.Dir(name), 0755)
		err := os.WriteFile(name, []byte(content), mode)
		require.NoError(t, err)
	}

	assertFile := func(t *testing.T, name, content string) {
		t.Helper()

		name = filepath.Join(tmpdir, name)

		data, err := os.ReadFile(name)
		require.NoError(t, err)

		assert.Equal(t, content, string(data))
	}

	L := hclog.New(&hclog.LoggerOptions{Level: hclog.Info})

	t.Run("copies every template entry into the destination", func(t *testing.T) {
		defer cleanup()

		wf("a/post-commit", "#!/bin/sh\n", 0755)
		wf("a/lib/common.sh", "x=1\n", 0644)

		in := &Install{
			L:      L,
			Source: tmpdira,
			Dest:   tmpdirb,
		}

		copied, err := in.Install()
		require.NoError(t, err)

		assert.ElementsMatch(t, []string{"post-commit", "lib"}, copied)

		assertFile(t, "b/post-commit", "#!/bin/sh\n")
		assertFile(t, "b/lib/common.sh", "x=1\n")

		fi, err := os.Stat(filepath.Join(tmpdirb, "post-commit"))
		require.NoError(t, err)

		assert.Equal(t, os.FileMode(0755), fi.Mode().Perm())
	})

	t.Run("overwrites existing entries by name and keeps the rest", func(t *testing.T) {
		defer cleanup()

		wf("a/pre-commit", "new", 0755)
		wf("b/pre-commit", "old", 0644)
		wf("b/pre-commit.tmpl", "template", 0644)

		in := &Install{
			L:      L,
			Source: tmpdira,
			Dest:   tmpdirb,
		}

		_, err := in.Install()
		require.NoError(t, err)

		assertFile(t, "b/pre-commit", "new")
		assertFile(t, "b/pre-commit.tmpl", "template")

		fi, err := os.Stat(filepath.Join(tmpdirb, "pre-commit"))
		require.NoError(t, err)

		assert.Equal(t, os.FileMode(0755), fi.Mode().Perm())
	})

	t.Run("copies symlinks as symlinks", func(t *testing.T) {
		defer cleanup()

		wf("a/target", "t", 0644)
		require.NoError(t, os.Symlink("target", filepath.Join(tmpdira, "link")))

		in := &Install{
			L:      L,
			Source: tmpdira,
			Dest:   tmpdirb,
		}

		_, err := in.Install()
		require.NoError(t, err)

		fi, err := os.Lstat(filepath.Join(tmpdirb, "link"))
		require.NoError(t, err)

		assert.Equal(t, os.ModeSymlink, fi.Mode()&os.ModeType)
	})

	t.Run("errors when the template dir is missing", func(t *testing.T) {
		defer cleanup()

		in := &Install{
			L:      L,
			Source: filepath.Join(tmpdir, "nope"),
			Dest:   tmpdirb,
		}

		_, err := in.Install()
		require.Error(t, err)
	})
}

func TestDiskUsage(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "db", "revs"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "db", "revs", "0"), make([]byte, 100), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "format"), make([]byte, 10), 0644))

	total, err := DiskUsage(dir)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, total, int64(110))

	_, err = DiskUsage(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
