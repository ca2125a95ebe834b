package identity

import (
	"bytes"
	"context"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lab47.dev/svnadmin/pkg/outcome"
)

type call struct {
	op, user, password string
}

type recordingStore struct {
	calls []call
	err   error
}

func (s *recordingStore) SetPassword(ctx context.Context, user, password string) error {
	s.calls = append(s.calls, call{"set", user, password})
	return s.err
}

func (s *recordingStore) DeleteUser(ctx context.Context, user string) error {
	s.calls = append(s.calls, call{"delete", user, ""})
	return s.err
}

func TestReplicator(t *testing.T) {
	ctx := context.Background()

	setup := func() (*Replicator, *recordingStore, *bytes.Buffer) {
		var buf bytes.Buffer

		store := &recordingStore{}

		r := NewReplicator(store)
		r.SetLogger(hclog.New(&hclog.LoggerOptions{
			Level:  hclog.Debug,
			Output: &buf,
		}))

		return r, store, &buf
	}

	t.Run("creating and changing passwords set the password", func(t *testing.T) {
		r, store, _ := setup()

		require.NoError(t, r.UserCreated(ctx, "alice", "one"))
		require.NoError(t, r.UserPasswordChanged(ctx, "alice", "two"))

		assert.Equal(t, []call{
			{"set", "alice", "one"},
			{"set", "alice", "two"},
		}, store.calls)
	})

	t.Run("deleting an absent user reports success and logs OK", func(t *testing.T) {
		r, store, buf := setup()

		err := r.UserDeleted(ctx, "bob")
		require.NoError(t, err)

		assert.Equal(t, []call{{"delete", "bob", ""}}, store.calls)
		assert.Contains(t, buf.String(), "user=bob")
		assert.Contains(t, buf.String(), "result=OK")
	})

	t.Run("store failures are returned and logged", func(t *testing.T) {
		r, store, buf := setup()

		store.err = &outcome.Error{
			Kind: outcome.FileAccessError,
			Op:   "set-password",
			Path: "/srv/svn/passwd",
		}

		err := r.UserCreated(ctx, "alice", "pw")
		require.Error(t, err)

		assert.True(t, outcome.Is(err, outcome.FileAccessError))
		assert.Contains(t, buf.String(), "/srv/svn/passwd")
	})

	t.Run("resets and verification requests leave the store alone", func(t *testing.T) {
		r, store, _ := setup()

		assert.NoError(t, r.UserPasswordReset(ctx, "alice", "alice@example.com", "tok"))
		assert.NoError(t, r.UserEmailVerificationRequested(ctx, "alice", "tok"))

		assert.Empty(t, store.calls)
	})
}
