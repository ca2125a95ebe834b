package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"lab47.dev/svnadmin/pkg/config"
	"lab47.dev/svnadmin/pkg/htpasswd"
	"lab47.dev/svnadmin/pkg/identity"
)

func openStore() (htpasswd.Store, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load configuration")
	}

	if cfg.SvnAdmin.PasswdPath == "" {
		return nil, errors.New("passwd_path is not configured")
	}

	store := cfg.CredentialStore()

	if ls, ok := store.(interface{ SetLogger(hclog.Logger) }); ok {
		ls.SetLogger(hclog.L().Named("passwd"))
	}

	return store, nil
}

// readSecret takes the first line of r, so passwords never have to be
// given on the command line.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}

	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("no password given on stdin")
	}

	return line, nil
}

func passwdF(ctx context.Context, opts struct {
	Pos struct {
		User string `positional-arg-name:"user" required:"yes"`
	} `positional-args:"yes"`
}) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	password, err := readSecret(os.Stdin)
	if err != nil {
		return err
	}

	err = store.SetPassword(ctx, opts.Pos.User, password)
	if err != nil {
		return err
	}

	fmt.Printf("Password for %s has been set.\n", opts.Pos.User)

	return nil
}

func deluserF(ctx context.Context, opts struct {
	Pos struct {
		User string `positional-arg-name:"user" required:"yes"`
	} `positional-args:"yes"`
}) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	return store.DeleteUser(ctx, opts.Pos.User)
}

func eventF(ctx context.Context, opts struct {
	Type  string `short:"t" long:"type" required:"yes" choice:"user-created" choice:"password-changed" choice:"user-deleted" choice:"password-reset" choice:"verification-requested" description:"account event"`
	Email string `long:"email" description:"email address, for password-reset"`
	Token string `long:"token" description:"token, for password-reset and verification-requested"`

	Pos struct {
		User string `positional-arg-name:"user" required:"yes"`
	} `positional-args:"yes"`
}) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	rep := identity.NewReplicator(store)
	rep.SetLogger(hclog.L().Named("replication"))

	return dispatchEvent(ctx, rep, opts.Type, opts.Pos.User, opts.Email, opts.Token, os.Stdin)
}

func dispatchEvent(ctx context.Context, l identity.AccountChangeListener, typ, user, email, token string, stdin io.Reader) error {
	switch typ {
	case "user-created", "password-changed":
		password, err := readSecret(stdin)
		if err != nil {
			return err
		}

		if typ == "user-created" {
			return l.UserCreated(ctx, user, password)
		}

		return l.UserPasswordChanged(ctx, user, password)
	case "user-deleted":
		return l.UserDeleted(ctx, user)
	case "password-reset":
		return l.UserPasswordReset(ctx, user, email, token)
	case "verification-requested":
		return l.UserEmailVerificationRequested(ctx, user, token)
	default:
		return errors.Errorf("unknown event type %q", typ)
	}
}
