// Package registrar tells the hosting project's repository manager about
// repositories that appeared or disappeared on disk.
package registrar

import (
	"context"
)

// Registrar records repositories in the host and reloads its view of
// them.
type Registrar interface {
	Register(ctx context.Context, name, dir, typ string) error
	SetURL(ctx context.Context, name, url string) error
	Unregister(ctx context.Context, name string) error
	Reload(ctx context.Context) error
}

// Nop is used when no host is configured.
type Nop struct{}

var _ Registrar = Nop{}

func (Nop) Register(ctx context.Context, name, dir, typ string) error { return nil }
func (Nop) SetURL(ctx context.Context, name, url string) error        { return nil }
func (Nop) Unregister(ctx context.Context, name string) error         { return nil }
func (Nop) Reload(ctx context.Context) error                          { return nil }
