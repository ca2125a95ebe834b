package lockfile

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTake(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "passwd.lock")

	t.Run("takes and releases", func(t *testing.T) {
		l, err := Take(context.Background(), path, 0, nil)
		require.NoError(t, err)

		assert.FileExists(t, path)

		require.NoError(t, l.Release())
		assert.NoFileExists(t, path)

		require.NoError(t, l.Release())
	})

	t.Run("waits for the holder", func(t *testing.T) {
		held, err := Take(context.Background(), path, 0, nil)
		require.NoError(t, err)

		waited := make(chan struct{}, 1)

		go func() {
			<-waited
			held.Release()
		}()

		l, err := Take(context.Background(), path, 10*time.Millisecond, func() {
			select {
			case waited <- struct{}{}:
			default:
			}
		})
		require.NoError(t, err)

		require.NoError(t, l.Release())
	})

	t.Run("gives up when the context is done", func(t *testing.T) {
		held, err := Take(context.Background(), path, 0, nil)
		require.NoError(t, err)
		defer held.Release()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err = Take(ctx, path, 10*time.Millisecond, nil)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("fails when the directory is missing", func(t *testing.T) {
		_, err := Take(context.Background(), filepath.Join(dir, "nope", "x.lock"), 0, nil)
		assert.Error(t, err)
	})
}
