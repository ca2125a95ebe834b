package svn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRevision(t *testing.T) {
	cases := []struct {
		name string
		out  string
		rev  int
		ok   bool
	}{
		{"single revision", "* Verified revision 0.\n", 0, true},
		{"takes the last revision", "* Verified revision 0.\n* Verified revision 1.\n* Verified revision 17.\n", 17, true},
		{"trailing paren", "(revision 42)", 42, true},
		{"metadata lines first", "* Verifying repository metadata ...\n* Verified revision 3.", 3, true},
		{"no token", "svnadmin: E000002: Can't open file", 0, false},
		{"no digits", "revision ?", 0, false},
		{"empty", "", 0, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rev, ok := parseRevision(c.out)
			assert.Equal(t, c.ok, ok)
			assert.Equal(t, c.rev, rev)
		})
	}
}

func TestDisplayRevision(t *testing.T) {
	assert.Equal(t, "", (&Repository{HeadRevision: 0}).DisplayRevision())
	assert.Equal(t, "12", (&Repository{HeadRevision: 12}).DisplayRevision())
}
