// Package htpasswd keeps a flat username/password-hash file, the kind
// Apache reads through AuthUserFile, in sync with account changes.
package htpasswd

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// Store upserts and deletes credential entries. Implementations hold no
// state between calls; the file is the only record.
type Store interface {
	// SetPassword creates the entry for user or replaces its hash.
	SetPassword(ctx context.Context, user, password string) error

	// DeleteUser removes the entry for user. A user that has no entry is
	// not an error.
	DeleteUser(ctx context.Context, user string) error
}

var ErrInvalidUser = errors.New("invalid username")

func checkUser(user string) error {
	if user == "" || strings.ContainsAny(user, ":\n\r") {
		return errors.Wrapf(ErrInvalidUser, "%q", user)
	}

	return nil
}
