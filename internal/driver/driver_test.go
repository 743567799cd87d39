package driver

import (
	"path/filepath"
	"testing"
)

func TestValidateTargetAcceptsEmptyAndX86_64(t *testing.T) {
	if err := ValidateTarget(""); err != nil {
		t.Errorf("empty target should be accepted, got %v", err)
	}
	if err := ValidateTarget("x86_64"); err != nil {
		t.Errorf("x86_64 should be accepted, got %v", err)
	}
}

func TestValidateTargetRejectsOthers(t *testing.T) {
	if err := ValidateTarget("arm64"); err == nil {
		t.Error("expected an error for an unsupported target")
	}
}

func TestSourcePathInfoResolvesParentDir(t *testing.T) {
	full, dir, err := sourcePathInfo("testdata/example.ec")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !filepath.IsAbs(full) {
		t.Errorf("expected an absolute path, got %q", full)
	}
	if filepath.Base(dir) != "testdata" {
		t.Errorf("expected parent dir to end in testdata, got %q", dir)
	}
}
