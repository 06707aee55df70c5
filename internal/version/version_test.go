package version

import "testing"

func TestString(t *testing.T) {
	oldVersion, oldCommit, oldBuild := Version, Commit, BuildTime
	t.Cleanup(func() { Version, Commit, BuildTime = oldVersion, oldCommit, oldBuild })

	Version = "1.2.0"
	Commit = "0123456789abcdef"
	BuildTime = "2026-01-01T00:00:00Z"

	want := "rolesmith 1.2.0 (commit: 0123456, built: 2026-01-01T00:00:00Z)"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestShortCommit_Short(t *testing.T) {
	old := Commit
	t.Cleanup(func() { Commit = old })

	Commit = "abc"
	if got := shortCommit(); got != "abc" {
		t.Errorf("shortCommit() = %q, want abc", got)
	}
}
