package registrar

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracAdmin(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, status int) (*TracAdmin, string) {
		dir := t.TempDir()

		log := filepath.Join(dir, "calls.log")

		exe := filepath.Join(dir, "trac-admin")
		script := fmt.Sprintf("#!/bin/sh\necho \"$@\" >> %s\nexit %d\n", log, status)
		require.NoError(t, os.WriteFile(exe, []byte(script), 0755))

		env := filepath.Join(dir, "env")
		require.NoError(t, os.MkdirAll(filepath.Join(env, "conf"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(env, "conf", "trac.ini"), nil, 0644))

		ta := &TracAdmin{Path: exe, Env: env}
		ta.SetLogger(hclog.New(&hclog.LoggerOptions{Level: hclog.Info}))

		return ta, log
	}

	calls := func(t *testing.T, log string) []string {
		data, err := os.ReadFile(log)
		require.NoError(t, err)
		return strings.Split(strings.TrimSpace(string(data)), "\n")
	}

	t.Run("drives trac-admin repository commands", func(t *testing.T) {
		ta, log := setup(t, 0)

		require.NoError(t, ta.Register(ctx, "course1", "/repos/course1", "svn"))
		require.NoError(t, ta.SetURL(ctx, "course1", "https://svn.example.com/course1"))
		require.NoError(t, ta.Unregister(ctx, "course1"))

		env := ta.Env
		assert.Equal(t, []string{
			env + " repository add course1 /repos/course1 svn",
			env + " repository set course1 url https://svn.example.com/course1",
			env + " repository remove course1",
		}, calls(t, log))
	})

	t.Run("reports failing commands", func(t *testing.T) {
		ta, _ := setup(t, 2)

		err := ta.Unregister(ctx, "course1")
		assert.True(t, errors.Is(err, ErrCommandFailed))
	})

	t.Run("reload touches trac.ini", func(t *testing.T) {
		ta, _ := setup(t, 0)

		ini := filepath.Join(ta.Env, "conf", "trac.ini")
		old := time.Now().Add(-time.Hour)
		require.NoError(t, os.Chtimes(ini, old, old))

		require.NoError(t, ta.Reload(ctx))

		fi, err := os.Stat(ini)
		require.NoError(t, err)

		assert.True(t, fi.ModTime().After(old.Add(time.Minute)))
	})

	t.Run("reload fails without an environment", func(t *testing.T) {
		ta := &TracAdmin{Env: filepath.Join(t.TempDir(), "missing")}

		assert.Error(t, ta.Reload(ctx))
	})
}
