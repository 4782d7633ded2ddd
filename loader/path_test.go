package loader

import (
	"path/filepath"
	"slices"
	"testing"
)

func TestSearchPath(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	missing := filepath.Join(a, "missing")

	t.Setenv("ARTMPL_TEST_PATH", "")

	got := SearchPath("ARTMPL_TEST_PATH", a, missing, b, a)

	if len(got) < 2 || got[0] != a || got[1] != b {
		t.Errorf("SearchPath() = %v, want [%s %s ...]", got, a, b)
	}

	if slices.Contains(got, missing) {
		t.Errorf("SearchPath() = %v, contains missing %s", got, missing)
	}
}

func TestIsFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	if isFile(dir) {
		t.Errorf("isFile(%q) = true for a directory", dir)
	}

	if !isDir(dir) {
		t.Errorf("isDir(%q) = false", dir)
	}
}
