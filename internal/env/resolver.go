// Package env answers the three questions every audit needs settled before a
// judge process can be spawned: what directory to run in, what environment
// the child receives, and where the judge executable lives on this machine.
package env

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/gobwas/glob"

	apperrors "github.com/codeauditor/codeauditor/internal/errors"
)

// Wrapper vars for exec.LookPath and os.Stat so tests can stub them out.
var (
	execLookPath = exec.LookPath
	osStat       = os.Stat
)

const maxRepoRootDepth = 10

// preservedVars are copied from the resolver's own process environment into
// every child's environment unless explicitly overridden.
var preservedVars = []string{
	"PATH", "HOME", "USER", "SHELL", "TERM", "LANG", "LC_ALL",
}

// DefaultSearchPaths are consulted, in order, after PATH when locating the
// judge executable.
func DefaultSearchPaths() []string {
	home, _ := os.UserHomeDir()
	paths := []string{"/usr/local/bin", "/usr/bin", "/bin", "/opt/homebrew/bin"}
	if home != "" {
		paths = append(paths, filepath.Join(home, ".local", "bin"), filepath.Join(home, "bin"))
	}
	return paths
}

// Resolver resolves working directory, environment, and judge executable
// location for an audit run.
type Resolver struct {
	judgeBinary     string
	searchPaths     []string
	configDirEnvVar string
	defaultWorkDir  string
	executableGlobs []glob.Glob
}

// New creates a Resolver for the given judge binary name. searchPaths are
// tried, in order, after PATH and the standard system lookup; configDirEnvVar
// names the variable the judge reads its own config directory from (e.g.
// CODEX_CONFIG_DIR); defaultWorkDir is the last-resort working directory.
// executableGlobs (e.g. "codex*") are matched against directory entries in
// searchPaths and PATH segments when no exact-name match is found; an
// invalid pattern is silently skipped rather than failing resolver
// construction.
func New(judgeBinary string, searchPaths []string, configDirEnvVar, defaultWorkDir string, executableGlobs []string) *Resolver {
	compiled := make([]glob.Glob, 0, len(executableGlobs))
	for _, pattern := range executableGlobs {
		if g, err := glob.Compile(pattern); err == nil {
			compiled = append(compiled, g)
		}
	}
	return &Resolver{
		judgeBinary:     judgeBinary,
		searchPaths:     searchPaths,
		configDirEnvVar: configDirEnvVar,
		defaultWorkDir:  defaultWorkDir,
		executableGlobs: compiled,
	}
}

// ResolveWorkingDirectory picks the directory an audit should run in.
// Priority: explicit path (if it exists and is a directory), else the
// nearest repository root found by walking up from the current directory
// (up to maxRepoRootDepth levels), else the current directory, else the
// resolver's configured default. Fails only if none of the four are usable.
func (r *Resolver) ResolveWorkingDirectory(explicit string) (string, error) {
	if explicit != "" {
		if info, err := osStat(explicit); err == nil && info.IsDir() {
			return explicit, nil
		}
	}

	if cwd, err := os.Getwd(); err == nil {
		if root, ok := findRepoRoot(cwd, maxRepoRootDepth); ok {
			return root, nil
		}
		if info, err := osStat(cwd); err == nil && info.IsDir() {
			return cwd, nil
		}
	}

	if r.defaultWorkDir != "" {
		if info, err := osStat(r.defaultWorkDir); err == nil && info.IsDir() {
			return r.defaultWorkDir, nil
		}
	}

	return "", apperrors.NewEnvironmentError(
		"no usable working directory: explicit path, repository root, current directory, and default were all unusable",
		nil,
	)
}

// findRepoRoot walks up from start looking for a .git marker, returning the
// topmost directory found within maxDepth levels.
func findRepoRoot(start string, maxDepth int) (string, bool) {
	dir := start
	topmost := ""
	for i := 0; i <= maxDepth; i++ {
		gitPath := filepath.Join(dir, ".git")
		if info, err := osStat(gitPath); err == nil && (info.IsDir() || info.Mode().IsRegular()) {
			topmost = dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return topmost, topmost != ""
}

// PrepareEnvironment assembles the environment a judge child process
// receives: the preserve-list from the resolver's own process, merged with
// caller-supplied overrides, with CODEX_CONFIG_DIR, PATH, and the runtime
// mode variable filled in if absent. Returns an error if PATH ends up empty.
func (r *Resolver) PrepareEnvironment(overrides map[string]string) ([]string, error) {
	env := make(map[string]string)
	for _, name := range preservedVars {
		if v, ok := os.LookupEnv(name); ok {
			env[name] = v
		}
	}
	for k, v := range overrides {
		env[k] = v
	}

	if r.configDirEnvVar != "" {
		if _, ok := env[r.configDirEnvVar]; !ok {
			if home, err := os.UserHomeDir(); err == nil {
				env[r.configDirEnvVar] = filepath.Join(home, "."+r.judgeBinary)
			}
		}
	}

	if _, ok := env["NODE_ENV"]; !ok {
		env["NODE_ENV"] = "production"
	}

	path := env["PATH"]
	for _, p := range r.searchPaths {
		path = appendPathSegment(path, p)
	}
	env["PATH"] = path

	if env["PATH"] == "" {
		return nil, apperrors.NewEnvironmentError("PATH is empty after environment preparation", nil)
	}

	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, k+"="+v)
	}
	return result, nil
}

func appendPathSegment(path, segment string) string {
	if segment == "" {
		return path
	}
	if path == "" {
		return segment
	}
	return path + string(os.PathListSeparator) + segment
}

// ExecutableResolution records the outcome of locating the judge executable,
// including every candidate path tried, for diagnostics on failure.
type ExecutableResolution struct {
	Path  string
	Tried []string
	Found bool
}

// ResolveExecutable locates the judge executable: first via the system
// path-lookup utility, then each configured search path, then each PATH
// segment. The first candidate that exists and is executable wins.
func (r *Resolver) ResolveExecutable(pathEnv string) ExecutableResolution {
	var tried []string

	if p, err := execLookPath(r.judgeBinary); err == nil {
		tried = append(tried, p)
		return ExecutableResolution{Path: p, Tried: tried, Found: true}
	}
	tried = append(tried, r.judgeBinary+" (PATH lookup)")

	for _, dir := range r.searchPaths {
		candidate := filepath.Join(dir, r.judgeBinary)
		tried = append(tried, candidate)
		if isExecutable(candidate) {
			return ExecutableResolution{Path: candidate, Tried: tried, Found: true}
		}
	}

	for _, dir := range filepath.SplitList(pathEnv) {
		candidate := filepath.Join(dir, r.judgeBinary)
		tried = append(tried, candidate)
		if isExecutable(candidate) {
			return ExecutableResolution{Path: candidate, Tried: tried, Found: true}
		}
	}

	if len(r.executableGlobs) > 0 {
		for _, dir := range append(append([]string{}, r.searchPaths...), filepath.SplitList(pathEnv)...) {
			if candidate, ok := findGlobMatch(dir, r.executableGlobs); ok {
				tried = append(tried, candidate+" (glob match in "+dir+")")
				return ExecutableResolution{Path: candidate, Tried: tried, Found: true}
			}
		}
	}

	return ExecutableResolution{Tried: tried, Found: false}
}

// findGlobMatch returns the first executable entry of dir whose name matches
// any of globs.
func findGlobMatch(dir string, globs []glob.Glob) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		for _, g := range globs {
			if !g.Match(entry.Name()) {
				continue
			}
			candidate := filepath.Join(dir, entry.Name())
			if isExecutable(candidate) {
				return candidate, true
			}
		}
	}
	return "", false
}

func isExecutable(path string) bool {
	info, err := osStat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0o111 != 0
}
