package validator

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codeauditor/codeauditor/internal/env"
	"github.com/codeauditor/codeauditor/internal/procmanager"
)

func writeFakeJudge(t *testing.T, script string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "codex")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func newValidator(t *testing.T, judgePath, minVersion string) *Validator {
	t.Helper()
	dir := filepath.Dir(judgePath)
	resolver := env.New("codex", []string{dir}, "", "", nil)
	procs := procmanager.New(2, time.Second, time.Second, nil)
	return New(resolver, procs, minVersion, 2*time.Second)
}

func TestValidate_Success(t *testing.T) {
	judgePath := writeFakeJudge(t, "#!/bin/sh\ncase \"$1\" in\n--version) echo 0.30.0 ;;\n-h) exit 0 ;;\nesac\n")
	v := newValidator(t, judgePath, "0.29.0")

	result := v.Validate("")
	if !result.IsAvailable {
		t.Errorf("Validate() = %+v, want IsAvailable", result)
	}
	if result.Version != "0.30.0" {
		t.Errorf("Version = %q, want 0.30.0", result.Version)
	}
}

func TestValidate_MissingExecutable(t *testing.T) {
	resolver := env.New("codex", []string{t.TempDir()}, "", "", nil)
	procs := procmanager.New(2, time.Second, time.Second, nil)
	v := New(resolver, procs, "0.29.0", 2*time.Second)

	result := v.Validate("")
	if result.IsAvailable {
		t.Error("Validate() should not be available when the executable is missing")
	}
	if len(result.EnvironmentIssues) == 0 {
		t.Error("Validate() should record an environment issue")
	}
}

func TestValidate_VersionTooLow(t *testing.T) {
	judgePath := writeFakeJudge(t, "#!/bin/sh\ncase \"$1\" in\n--version) echo 0.10.0 ;;\n-h) exit 0 ;;\nesac\n")
	v := newValidator(t, judgePath, "0.29.0")

	result := v.Validate("")
	if result.IsAvailable {
		t.Error("Validate() should reject a version below the minimum")
	}
	if len(result.Recommendations) == 0 {
		t.Error("Validate() should offer install guidance for a low version")
	}
}

func TestValidate_SmokeTestFails(t *testing.T) {
	judgePath := writeFakeJudge(t, "#!/bin/sh\ncase \"$1\" in\n--version) echo 0.30.0 ;;\n-h) exit 1 ;;\nesac\n")
	v := newValidator(t, judgePath, "0.29.0")

	result := v.Validate("")
	if result.IsAvailable {
		t.Error("Validate() should fail when the smoke test exits non-zero")
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"0.29.0", "0.29.0", 0},
		{"0.30.0", "0.29.0", 1},
		{"0.28.0", "0.29.0", -1},
		{"1.0.0", "0.99.99", 1},
		{"0.29.1", "0.29.0", 1},
	}
	for _, tt := range tests {
		if got := compareVersions(tt.a, tt.b); got != tt.want {
			t.Errorf("compareVersions(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestExtractVersion(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"codex-cli 0.29.0", "0.29.0"},
		{"v0.30.1\n", "0.30.1"},
		{"no version here", ""},
	}
	for _, tt := range tests {
		if got := extractVersion(tt.output); got != tt.want {
			t.Errorf("extractVersion(%q) = %q, want %q", tt.output, got, tt.want)
		}
	}
}
