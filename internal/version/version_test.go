package version

import (
	"strings"
	"testing"
)

func TestSetInfo(t *testing.T) {
	oldV, oldBT, oldGC, oldGV := Version, BuildTime, GitCommit, GoVersion
	t.Cleanup(func() {
		Version, BuildTime, GitCommit, GoVersion = oldV, oldBT, oldGC, oldGV
	})

	SetInfo("1.2.3", "", "abc123", "")

	if Version != "1.2.3" {
		t.Errorf("Version = %s, want 1.2.3", Version)
	}
	if BuildTime != oldBT {
		t.Errorf("BuildTime changed to %s on empty input", BuildTime)
	}
	if GitCommit != "abc123" {
		t.Errorf("GitCommit = %s, want abc123", GitCommit)
	}

	out := Format()
	for _, want := range []string{"Version: 1.2.3", "Git Commit: abc123"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() = %q, missing %q", out, want)
		}
	}
}
