package lockfile

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
)

// Lock is held for as long as its file exists.
type Lock struct {
	path string
}

// DefaultPoll is how often Take retries a lock held by someone else.
const DefaultPoll = 100 * time.Millisecond

// Take creates path exclusively, retrying every poll until it succeeds or
// ctx is done. waiting is called on every failed attempt.
func Take(ctx context.Context, path string, poll time.Duration, waiting func()) (*Lock, error) {
	if poll <= 0 {
		poll = DefaultPoll
	}

	tk := time.NewTicker(poll)
	defer tk.Stop()

	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			f.Close()
			return &Lock{path: path}, nil
		}

		if !os.IsExist(err) {
			return nil, errors.Wrapf(err, "creating lock %s", path)
		}

		if waiting != nil {
			waiting()
		}

		select {
		case <-tk.C:
			// ok
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (l *Lock) Release() error {
	err := os.Remove(l.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}
