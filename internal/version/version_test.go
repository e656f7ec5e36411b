package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	s := String()
	if !strings.HasPrefix(s, "radarsim ") {
		t.Errorf("expected radarsim prefix, got %q", s)
	}
	if !strings.Contains(s, Version) || !strings.Contains(s, GitSHA) {
		t.Errorf("expected version and sha in %q", s)
	}
}
