package version

import (
	"strings"
	"testing"
)

func TestStringStartsWithVersion(t *testing.T) {
	if got := String(); !strings.HasPrefix(got, Version) {
		t.Errorf("expected %q to start with %q", got, Version)
	}
}
