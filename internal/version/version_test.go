package version

import (
	"strings"
	"testing"
)

func withVersion(t *testing.T, v, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = v, commit, date
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	})
}

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
}

func TestStyled_Plain(t *testing.T) {
	withVersion(t, "1.2.3-rc1", "", "")
	if got := Styled(false); got != "1.2.3-rc1" {
		t.Errorf("Styled(false) = %q", got)
	}
}

func TestStyled_Colored(t *testing.T) {
	withVersion(t, "1.2.3", "", "")
	got := Styled(true)
	if !strings.Contains(got, "\x1b[") {
		t.Errorf("Styled(true) = %q, want ANSI escapes", got)
	}
	if strings.Count(got, ".") != 2 {
		t.Errorf("Styled(true) = %q, want three components", got)
	}
}

func TestStyled_NonSemver(t *testing.T) {
	withVersion(t, "nightly", "", "")
	if got := Styled(true); got != "nightly" {
		t.Errorf("Styled(true) = %q, want unchanged", got)
	}
}

func TestInfo_OptionalFields(t *testing.T) {
	withVersion(t, "1.0.0", "", "")
	if got := Info(false); got != "kestrel 1.0.0\n" {
		t.Errorf("Info = %q", got)
	}

	withVersion(t, "1.0.0", "abc123", "2024-01-15T10:30:00Z")
	got := Info(false)
	for _, want := range []string{"commit: abc123\n", "built:  2024-01-15T10:30:00Z\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("Info = %q, missing %q", got, want)
		}
	}
}
