// Package identity replicates account lifecycle events from an account
// management system into the Subversion password file.
package identity

import (
	"context"

	"github.com/hashicorp/go-hclog"
	"lab47.dev/svnadmin/pkg/htpasswd"
)

// AccountChangeListener is the contract the account system calls into.
// A non-nil error tells the account system the change did not replicate.
type AccountChangeListener interface {
	UserCreated(ctx context.Context, user, password string) error
	UserPasswordChanged(ctx context.Context, user, password string) error
	UserDeleted(ctx context.Context, user string) error
	UserPasswordReset(ctx context.Context, user, email, token string) error
	UserEmailVerificationRequested(ctx context.Context, user, token string) error
}

// Replicator forwards account events to a credential store.
type Replicator struct {
	store htpasswd.Store

	logger hclog.Logger
}

var _ AccountChangeListener = (*Replicator)(nil)

func NewReplicator(store htpasswd.Store) *Replicator {
	return &Replicator{store: store}
}

func (r *Replicator) L() hclog.Logger {
	if r.logger != nil {
		return r.logger
	}

	r.logger = hclog.L()

	return r.logger
}

func (r *Replicator) SetLogger(logger hclog.Logger) {
	r.logger = logger
}

func (r *Replicator) UserCreated(ctx context.Context, user, password string) error {
	return r.audit("user_created", user, r.store.SetPassword(ctx, user, password))
}

func (r *Replicator) UserPasswordChanged(ctx context.Context, user, password string) error {
	return r.audit("user_password_changed", user, r.store.SetPassword(ctx, user, password))
}

func (r *Replicator) UserDeleted(ctx context.Context, user string) error {
	return r.audit("user_deleted", user, r.store.DeleteUser(ctx, user))
}

// UserPasswordReset does nothing: a reset carries no final password yet.
func (r *Replicator) UserPasswordReset(ctx context.Context, user, email, token string) error {
	return nil
}

func (r *Replicator) UserEmailVerificationRequested(ctx context.Context, user, token string) error {
	return nil
}

func (r *Replicator) audit(event, user string, err error) error {
	result := "OK"
	if err != nil {
		result = err.Error()
	}

	r.L().Debug("replicated account event", "event", event, "user", user, "result", result)

	return err
}
