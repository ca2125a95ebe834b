package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type eventLog struct {
	events []string
}

func (e *eventLog) UserCreated(ctx context.Context, user, password string) error {
	e.events = append(e.events, "created "+user+" "+password)
	return nil
}

func (e *eventLog) UserPasswordChanged(ctx context.Context, user, password string) error {
	e.events = append(e.events, "changed "+user+" "+password)
	return nil
}

func (e *eventLog) UserDeleted(ctx context.Context, user string) error {
	e.events = append(e.events, "deleted "+user)
	return nil
}

func (e *eventLog) UserPasswordReset(ctx context.Context, user, email, token string) error {
	e.events = append(e.events, "reset "+user+" "+email+" "+token)
	return nil
}

func (e *eventLog) UserEmailVerificationRequested(ctx context.Context, user, token string) error {
	e.events = append(e.events, "verify "+user+" "+token)
	return nil
}

func TestDispatchEvent(t *testing.T) {
	ctx := context.Background()

	var l eventLog

	require.NoError(t, dispatchEvent(ctx, &l, "user-created", "alice", "", "", strings.NewReader("pw1\n")))
	require.NoError(t, dispatchEvent(ctx, &l, "password-changed", "alice", "", "", strings.NewReader("pw2")))
	require.NoError(t, dispatchEvent(ctx, &l, "user-deleted", "bob", "", "", nil))
	require.NoError(t, dispatchEvent(ctx, &l, "password-reset", "carol", "c@example.com", "t1", nil))
	require.NoError(t, dispatchEvent(ctx, &l, "verification-requested", "dave", "", "t2", nil))

	assert.Equal(t, []string{
		"created alice pw1",
		"changed alice pw2",
		"deleted bob",
		"reset carol c@example.com t1",
		"verify dave t2",
	}, l.events)

	assert.Error(t, dispatchEvent(ctx, &l, "user-created", "eve", "", "", strings.NewReader("")))
	assert.Error(t, dispatchEvent(ctx, &l, "bogus", "eve", "", "", nil))
}

func TestReadSecret(t *testing.T) {
	s, err := readSecret(strings.NewReader("hunter2\r\nignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "hunter2", s)

	_, err = readSecret(strings.NewReader("\n"))
	assert.Error(t, err)
}
