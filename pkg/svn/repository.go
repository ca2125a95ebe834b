package svn

import (
	"strconv"
	"strings"
	"unicode"
)

// Repository is one Subversion repository directly below the parent path.
type Repository struct {
	Name      string
	Directory string

	// HeadRevision is the youngest revision reported by verify. 0 means
	// the repository has no commits yet.
	HeadRevision int

	// Verified is false when verify exited non-zero or its output held no
	// revision. VerifyOutput keeps the combined output for inspection.
	Verified     bool
	VerifyOutput string
}

// DisplayRevision is the head revision as shown to operators, empty for
// a repository without commits.
func (r *Repository) DisplayRevision() string {
	if r.HeadRevision == 0 {
		return ""
	}

	return strconv.Itoa(r.HeadRevision)
}

// parseRevision pulls the revision number out of svnadmin verify output,
// such as "* Verified revision 12." It reads the digits that follow the
// last "revision" token and ignores whatever trails them.
func parseRevision(out string) (int, bool) {
	idx := strings.LastIndex(out, "revision")
	if idx == -1 {
		return 0, false
	}

	rest := strings.TrimLeftFunc(out[idx+len("revision"):], unicode.IsSpace)

	end := strings.IndexFunc(rest, func(r rune) bool {
		return r < '0' || r > '9'
	})
	if end == -1 {
		end = len(rest)
	}

	if end == 0 {
		return 0, false
	}

	rev, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0, false
	}

	return rev, true
}
