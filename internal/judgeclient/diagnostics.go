package judgeclient

import (
	"fmt"
	"strings"

	apperrors "github.com/codeauditor/codeauditor/internal/errors"
)

// DiagnosticError wraps a judge-client failure with the context an operator
// needs to act on it: the command actually attempted (prompt body omitted),
// the working directory, which preserved environment variables were set,
// and the executable-resolution trace. It forwards Kind/Severity/retry
// classification to the wrapped error so callers dispatching on kind see
// through the wrapper.
type DiagnosticError struct {
	cause           error
	commandLine     string
	workingDir      string
	preservedVars   []string
	resolutionTrace []string
	installGuidance string
}

func newDiagnosticError(cause error, args []string, workingDir string, env []string, trace []string, guidance string) *DiagnosticError {
	return &DiagnosticError{
		cause:           cause,
		commandLine:     redactedCommandLine(args),
		workingDir:      workingDir,
		preservedVars:   summarizeEnv(env),
		resolutionTrace: trace,
		installGuidance: guidance,
	}
}

// redactedCommandLine renders args with the trailing prompt argument
// replaced by a length marker, since the prompt body may embed the
// candidate's source and must never land in diagnostics or logs.
func redactedCommandLine(args []string) string {
	if len(args) == 0 {
		return ""
	}
	shown := append([]string{}, args[:len(args)-1]...)
	shown = append(shown, fmt.Sprintf("<prompt: %d bytes>", len(args[len(args)-1])))
	return strings.Join(shown, " ")
}

// summarizeEnv reduces a child's environment slice to just the variable
// names present, never their values.
func summarizeEnv(env []string) []string {
	names := make([]string, 0, len(env))
	for _, kv := range env {
		if name, _, ok := strings.Cut(kv, "="); ok {
			names = append(names, name)
		}
	}
	return names
}

func (e *DiagnosticError) Error() string {
	var b strings.Builder
	b.WriteString(e.cause.Error())
	fmt.Fprintf(&b, " (command: %s; workdir: %s; env: %s)", e.commandLine, e.workingDir, strings.Join(e.preservedVars, ","))
	if len(e.resolutionTrace) > 0 {
		fmt.Fprintf(&b, " (executable candidates tried: %s)", strings.Join(e.resolutionTrace, "; "))
	}
	if e.installGuidance != "" {
		fmt.Fprintf(&b, " (%s)", e.installGuidance)
	}
	return b.String()
}

func (e *DiagnosticError) Unwrap() error { return e.cause }

// Kind forwards to the wrapped error's Kind when it is an AuditError, and
// returns the empty Kind otherwise.
func (e *DiagnosticError) Kind() apperrors.Kind {
	if kind, ok := apperrors.KindOf(e.cause); ok {
		return kind
	}
	return ""
}

func (e *DiagnosticError) IsRetryable() bool            { return apperrors.IsRetryable(e.cause) }
func (e *DiagnosticError) IsUserFacing() bool           { return apperrors.IsUserFacing(e.cause) }
func (e *DiagnosticError) Severity() apperrors.Severity { return apperrors.GetSeverity(e.cause) }
