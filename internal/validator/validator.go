// Package validator runs the judge binary through a short sequence of
// environment, permission, version, and smoke-test checks before any audit
// is allowed to depend on it.
package validator

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/codeauditor/codeauditor/internal/env"
	"github.com/codeauditor/codeauditor/internal/procmanager"
)

// Result is the outcome of validating the judge executable.
type Result struct {
	IsAvailable       bool
	Version           string
	ExecutablePath    string
	EnvironmentIssues []string
	Recommendations   []string
}

// Validator checks that the judge binary is present, executable, and
// recent enough to trust.
type Validator struct {
	resolver          *env.Resolver
	procs             *procmanager.Manager
	minVersion        string
	validationTimeout time.Duration
}

// New creates a Validator. resolver locates the judge executable; procs
// runs the --version and -h smoke-test invocations; minVersion is the
// lowest acceptable judge version (e.g. "0.29.0").
func New(resolver *env.Resolver, procs *procmanager.Manager, minVersion string, validationTimeout time.Duration) *Validator {
	return &Validator{
		resolver:          resolver,
		procs:             procs,
		minVersion:        minVersion,
		validationTimeout: validationTimeout,
	}
}

// Validate runs the full validation sequence, returning early (with the
// relevant issues and recommendations recorded) on the first failing step.
func (v *Validator) Validate(pathEnv string) Result {
	if issues, recs, ok := v.checkEnvironment(); !ok {
		return Result{EnvironmentIssues: issues, Recommendations: recs}
	}

	resolution := v.resolver.ResolveExecutable(pathEnv)
	if !resolution.Found {
		return Result{
			EnvironmentIssues: []string{"judge executable not found on PATH or configured search paths"},
			Recommendations:   []string{installGuidance()},
		}
	}

	if !isExecutablePath(resolution.Path) {
		return Result{
			ExecutablePath:    resolution.Path,
			EnvironmentIssues: []string{fmt.Sprintf("%s exists but is not executable", resolution.Path)},
			Recommendations:   []string{fmt.Sprintf("chmod +x %s", resolution.Path)},
		}
	}

	version, issue, ok := v.checkVersion(resolution.Path)
	if !ok {
		return Result{
			ExecutablePath:    resolution.Path,
			EnvironmentIssues: []string{issue},
			Recommendations:   []string{installGuidance()},
		}
	}

	if issue, ok := v.smokeTest(resolution.Path); !ok {
		return Result{
			ExecutablePath:    resolution.Path,
			Version:           version,
			EnvironmentIssues: []string{issue},
			Recommendations:   []string{installGuidance()},
		}
	}

	return Result{
		IsAvailable:    true,
		Version:        version,
		ExecutablePath: resolution.Path,
	}
}

func (v *Validator) checkEnvironment() ([]string, []string, bool) {
	if os.Getenv("PATH") == "" {
		return []string{"PATH is not set"}, []string{"set a PATH environment variable before running"}, false
	}

	result, err := v.procs.ExecuteCommand("echo", []string{"test"}, procmanager.ExecuteOptions{
		Timeout: v.validationTimeout,
	})
	if err != nil || result.ExitCode != 0 {
		return []string{"shell environment cannot execute a sentinel command"}, []string{"verify the shell and PATH are usable from this environment"}, false
	}
	return nil, nil, true
}

func (v *Validator) checkVersion(executablePath string) (version, issue string, ok bool) {
	result, err := v.procs.ExecuteCommand(executablePath, []string{"--version"}, procmanager.ExecuteOptions{
		Timeout: v.validationTimeout,
	})
	if err != nil || result.ExitCode != 0 {
		return "", "failed to invoke --version", false
	}

	version = extractVersion(result.Stdout)
	if version == "" {
		return "", "could not parse a version number from --version output", false
	}

	if compareVersions(version, v.minVersion) < 0 {
		return version, fmt.Sprintf("judge version %s is below the minimum required version %s", version, v.minVersion), false
	}

	return version, "", true
}

func (v *Validator) smokeTest(executablePath string) (issue string, ok bool) {
	result, err := v.procs.ExecuteCommand(executablePath, []string{"-h"}, procmanager.ExecuteOptions{
		Timeout: v.validationTimeout,
	})
	if err != nil {
		return "smoke test invocation failed", false
	}
	if result.TimedOut {
		return "smoke test invocation timed out", false
	}
	if result.ExitCode != 0 {
		return fmt.Sprintf("smoke test exited with code %d", result.ExitCode), false
	}
	return "", true
}

// extractVersion pulls the first <major>.<minor>.<patch> substring out of
// version-command output.
func extractVersion(output string) string {
	fields := strings.Fields(output)
	for _, f := range fields {
		f = strings.TrimPrefix(f, "v")
		if isDottedVersion(f) {
			return f
		}
	}
	return ""
}

func isDottedVersion(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			return false
		}
	}
	return true
}

// compareVersions compares two <major>.<minor>.<patch> strings
// lexicographically on their integer tuples, returning -1, 0, or 1.
func compareVersions(a, b string) int {
	ap, bp := versionTuple(a), versionTuple(b)
	for i := range 3 {
		if ap[i] != bp[i] {
			if ap[i] < bp[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func versionTuple(v string) [3]int {
	var t [3]int
	parts := strings.Split(v, ".")
	for i := 0; i < 3 && i < len(parts); i++ {
		t[i], _ = strconv.Atoi(parts[i])
	}
	return t
}

func isExecutablePath(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0o111 != 0
}

func installGuidance() string {
	return "install the judge binary and ensure it is on PATH; see the judge project's installation instructions for this platform"
}
