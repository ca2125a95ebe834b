package proc

import (
	"context"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner(t *testing.T) {
	ctx := context.Background()

	r := &Runner{L: hclog.New(&hclog.LoggerOptions{Level: hclog.Info})}

	t.Run("separates stdout and stderr", func(t *testing.T) {
		res, err := r.Run(ctx, Command{
			Path: "/bin/sh",
			Args: []string{"-c", "echo out; echo err >&2"},
		})
		require.NoError(t, err)

		assert.True(t, res.Success())
		assert.Equal(t, "out\n", string(res.Stdout))
		assert.Equal(t, "err", res.Diagnostics())
	})

	t.Run("can combine the streams", func(t *testing.T) {
		res, err := r.Run(ctx, Command{
			Path:     "/bin/sh",
			Args:     []string{"-c", "echo out; echo err >&2"},
			Combined: true,
		})
		require.NoError(t, err)

		assert.Equal(t, "out\nerr\n", string(res.Combined))
	})

	t.Run("reports the exit status without an error", func(t *testing.T) {
		res, err := r.Run(ctx, Command{
			Path: "/bin/sh",
			Args: []string{"-c", "exit 3"},
		})
		require.NoError(t, err)

		assert.False(t, res.Success())
		assert.Equal(t, 3, res.ExitCode)
	})

	t.Run("feeds stdin", func(t *testing.T) {
		res, err := r.Run(ctx, Command{
			Path:  "/bin/sh",
			Args:  []string{"-c", "cat"},
			Stdin: strings.NewReader("secret"),
		})
		require.NoError(t, err)

		assert.Equal(t, "secret", string(res.Stdout))
	})

	t.Run("errors when the tool can't be launched", func(t *testing.T) {
		_, err := r.Run(ctx, Command{Path: "/nonexistent/htpasswd"})
		require.Error(t, err)

		assert.Contains(t, err.Error(), "/nonexistent/htpasswd")
	})

	t.Run("errors when the context is canceled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := r.Run(cctx, Command{Path: "/bin/sh", Args: []string{"-c", "sleep 5"}})
		require.Error(t, err)
	})
}
