// Package authz edits a Subversion authorization file as raw text. It only
// checks that the text is well formed INI; the rules themselves are not
// interpreted.
package authz

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

var ErrInvalidSyntax = errors.New("invalid syntax")

type File struct {
	path string
}

// Open checks that path can be both read and written.
func Open(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("no authz file configured")
	}

	err := unix.Access(path, unix.R_OK|unix.W_OK)
	if err != nil {
		return nil, errors.Wrapf(err, "can't access authz file %s", path)
	}

	return &File{path: path}, nil
}

func (f *File) Path() string {
	return f.path
}

func (f *File) Read() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", errors.Wrapf(err, "error occurred while reading authz file")
	}

	return string(data), nil
}

// Write normalizes text, validates it and replaces the file content. The
// file is left untouched when validation fails.
func (f *File) Write(text string) error {
	text = Normalize(text)

	if err := Validate(text); err != nil {
		return err
	}

	fi, err := os.Stat(f.path)
	if err != nil {
		return errors.Wrapf(err, "can't write authz file")
	}

	err = os.WriteFile(f.path, []byte(text), fi.Mode().Perm())
	if err != nil {
		return errors.Wrapf(err, "can't write authz file")
	}

	return nil
}

// Normalize strips carriage returns and surrounding whitespace, as text
// posted from a browser form carries both.
func Normalize(text string) string {
	return strings.TrimSpace(strings.ReplaceAll(text, "\r", ""))
}

// Validate accepts the INI dialect svnserve and mod_authz_svn read:
// [section] headers, "key = value" or "key: value" options, # and ;
// comments, and indented continuation lines. Options must follow a
// section header.
func Validate(text string) error {
	sc := bufio.NewScanner(strings.NewReader(text))

	var (
		lineno     int
		inSection  bool
		haveOption bool
	)

	fail := func(format string, args ...interface{}) error {
		return errors.Wrapf(ErrInvalidSyntax, "line %d: %s", lineno, fmt.Sprintf(format, args...))
	}

	for sc.Scan() {
		lineno++

		raw := sc.Text()
		line := strings.TrimSpace(raw)

		switch {
		case line == "":
			haveOption = false
			continue
		case line[0] == '#' || line[0] == ';':
			continue
		case raw[0] == ' ' || raw[0] == '\t':
			if !haveOption {
				return fail("continuation line without an option: %q", raw)
			}
			continue
		case line[0] == '[':
			end := strings.IndexByte(line, ']')
			if end == -1 {
				return fail("unterminated section header: %q", line)
			}

			if strings.TrimSpace(line[1:end]) == "" {
				return fail("empty section name")
			}

			inSection = true
			haveOption = false
			continue
		}

		if !inSection {
			return fail("option outside of any section: %q", line)
		}

		sep := strings.IndexAny(line, "=:")
		if sep <= 0 || strings.TrimSpace(line[:sep]) == "" {
			return fail("expected \"name = value\": %q", line)
		}

		haveOption = true
	}

	return sc.Err()
}
