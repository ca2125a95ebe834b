package outcome

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind classifies why a repository or credential operation failed.
type Kind int

const (
	Unknown Kind = iota
	InvalidPath
	AlreadyExists
	CannotCreate
	RemovalFailed
	FileAccessError
)

func (k Kind) String() string {
	switch k {
	case InvalidPath:
		return "invalid-path"
	case AlreadyExists:
		return "already-exists"
	case CannotCreate:
		return "cannot-create"
	case RemovalFailed:
		return "removal-failed"
	case FileAccessError:
		return "file-access"
	default:
		return "unknown"
	}
}

// Error is the failure half of every mutating operation. A nil error is
// success.
type Error struct {
	Kind Kind

	// Op is the operation that failed (add, remove, set-password, ...).
	Op string

	// Subject is the repository name or username.
	Subject string

	// Path is the directory or file the operation was acting on.
	Path string

	// Step names the sub-step of a multi-step operation, if any.
	Step string

	// Code is the exit code of the external tool, or -1 when the tool
	// never ran.
	Code int

	// Detail is the raw diagnostic text of the external tool.
	Detail string

	Err error
}

func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(e.Op)

	if e.Step != "" && e.Step != e.Op {
		sb.WriteString(" (")
		sb.WriteString(e.Step)
		sb.WriteString(")")
	}

	if e.Subject != "" {
		fmt.Fprintf(&sb, " %q", e.Subject)
	}

	sb.WriteString(": ")
	sb.WriteString(e.message())

	return sb.String()
}

func (e *Error) message() string {
	switch e.Kind {
	case InvalidPath:
		return fmt.Sprintf("the repository directory must be an absolute path: %s", e.Path)
	case AlreadyExists:
		return fmt.Sprintf("the repository %q already exists", e.Subject)
	case CannotCreate:
		return fmt.Sprintf(
			"can't create the repository, make sure the parent directory %s exists and is writable",
			e.Path)
	case FileAccessError:
		return fmt.Sprintf("can't access password file: %s", e.Path)
	case RemovalFailed:
		if e.Err != nil {
			return e.Err.Error()
		}
		return e.Detail
	}

	switch {
	case e.Detail != "":
		return e.Detail
	case e.Err != nil:
		return e.Err.Error()
	default:
		return fmt.Sprintf("exited with status %d", e.Code)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err. Errors that are not an *Error are Unknown.
func KindOf(err error) Kind {
	var oe *Error

	if errors.As(err, &oe) {
		return oe.Kind
	}

	return Unknown
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var oe *Error

	if !errors.As(err, &oe) {
		return false
	}

	return oe.Kind == kind
}
