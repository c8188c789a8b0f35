// Package errors provides the typed error kinds that flow through the audit
// pipeline. Every component that can fail returns one of the kinds defined
// here instead of an ad hoc error, so callers dispatch on kind rather than on
// message text — the engine is the only layer permitted to translate one of
// these into a synthesized fallback Review.
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewResponseError("missing overall field", rawOutput)
//	err := errors.NewTimeoutError("engine", "audit timed out", 12.4, 10.0)
//
// Checking errors:
//
//	var respErr *errors.ResponseError
//	if errors.As(err, &respErr) { ... }
//
//	if errors.IsRetryable(err) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions so callers need only import this
// package for both sentinel checks and typed error construction.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// Kind identifies an error's category for programmatic dispatch, independent
// of the message text. See the GLOSSARY for the meaning of each kind.
type Kind string

const (
	KindNotAvailable       Kind = "not_available"
	KindTimeout            Kind = "timeout"
	KindInvalidRequest     Kind = "invalid_request"
	KindInvalidFormat      Kind = "invalid_format"
	KindResponse           Kind = "response_error"
	KindQueueFull          Kind = "queue_full"
	KindQueueTimeout       Kind = "queue_timeout"
	KindQueueCleared       Kind = "queue_cleared"
	KindSessionNotFound    Kind = "session_not_found"
	KindSessionCorruption  Kind = "session_corruption"
	KindSessionPersistence Kind = "session_persistence"
	KindDirectoryCreation  Kind = "directory_creation"
	KindEnvironment        Kind = "environment_error"
)

// General sentinel errors not tied to a specific kind above.
var (
	ErrCanceled     = New("operation canceled")
	ErrInvalidInput = New("invalid input")
)

// AuditError is the interface every typed error in this package implements.
type AuditError interface {
	error
	Unwrap() error
	Kind() Kind
	Severity() Severity
	IsRetryable() bool
	IsUserFacing() bool
}

// baseError provides the common fields and methods every typed error below
// embeds.
type baseError struct {
	kind       Kind
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Unwrap() error      { return e.cause }
func (e *baseError) Kind() Kind         { return e.kind }
func (e *baseError) Severity() Severity { return e.severity }
func (e *baseError) IsRetryable() bool  { return e.retryable }
func (e *baseError) IsUserFacing() bool { return e.userFacing }

// NotAvailableError reports that the judge binary is missing, too old, has
// the wrong permissions, or that its environment is broken. Never retried.
type NotAvailableError struct {
	baseError
	Reason string // "missing", "version_too_low", "permission_denied", "env_broken"
}

// NewNotAvailableError constructs a NotAvailableError.
func NewNotAvailableError(message, reason string, cause error) *NotAvailableError {
	return &NotAvailableError{
		baseError: baseError{kind: KindNotAvailable, message: message, cause: cause, severity: SeverityError, retryable: false, userFacing: true},
		Reason:    reason,
	}
}

// TimeoutError reports that an operation exceeded its configured deadline at
// the engine, queue, or child-process level. It may carry partial results
// collected before the deadline fired.
type TimeoutError struct {
	baseError
	Level          string // "engine", "queue", "process"
	ElapsedSeconds float64
	TimeoutSeconds float64
	Partial        any
}

// NewTimeoutError constructs a TimeoutError.
func NewTimeoutError(level, message string, elapsedSeconds, timeoutSeconds float64) *TimeoutError {
	return &TimeoutError{
		baseError:      baseError{kind: KindTimeout, message: message, severity: SeverityWarning, retryable: false, userFacing: true},
		Level:          level,
		ElapsedSeconds: elapsedSeconds,
		TimeoutSeconds: timeoutSeconds,
	}
}

// WithPartial attaches partial results collected before the timeout fired.
func (e *TimeoutError) WithPartial(partial any) *TimeoutError {
	e.Partial = partial
	return e
}

// InvalidRequestError reports that an AuditRequest failed validation: a
// missing field, an out-of-range value, or an oversized payload.
type InvalidRequestError struct {
	baseError
	Field string
}

// NewInvalidRequestError constructs an InvalidRequestError.
func NewInvalidRequestError(message, field string) *InvalidRequestError {
	return &InvalidRequestError{
		baseError: baseError{kind: KindInvalidRequest, message: message, severity: SeverityWarning, retryable: false, userFacing: true},
		Field:     field,
	}
}

// InvalidFormatError reports a non-fatal submission-format violation, such
// as nested code fences or an unsupported language tag. Callers proceed on
// cleaned input rather than aborting.
type InvalidFormatError struct {
	baseError
}

// NewInvalidFormatError constructs an InvalidFormatError.
func NewInvalidFormatError(message string) *InvalidFormatError {
	return &InvalidFormatError{
		baseError: baseError{kind: KindInvalidFormat, message: message, severity: SeverityInfo, retryable: true, userFacing: false},
	}
}

// ResponseError reports that the parser rejected judge output. RawResponse
// preserves the unparsed text for diagnostics; it is never included in a
// Review summary.
type ResponseError struct {
	baseError
	RawResponse string
}

// NewResponseError constructs a ResponseError.
func NewResponseError(message, rawResponse string) *ResponseError {
	return &ResponseError{
		baseError:   baseError{kind: KindResponse, message: message, severity: SeverityError, retryable: false, userFacing: true},
		RawResponse: rawResponse,
	}
}

// QueueFullError reports that the audit queue rejected an enqueue because it
// was already at its configured capacity.
type QueueFullError struct {
	baseError
	Capacity int
}

// NewQueueFullError constructs a QueueFullError.
func NewQueueFullError(message string, capacity int) *QueueFullError {
	return &QueueFullError{
		baseError: baseError{kind: KindQueueFull, message: message, severity: SeverityWarning, retryable: true, userFacing: true},
		Capacity:  capacity,
	}
}

// QueueTimeoutError reports that a queued job waited past its admission
// deadline before a worker slot opened.
type QueueTimeoutError struct {
	baseError
	WaitedSeconds float64
}

// NewQueueTimeoutError constructs a QueueTimeoutError.
func NewQueueTimeoutError(message string, waitedSeconds float64) *QueueTimeoutError {
	return &QueueTimeoutError{
		baseError:     baseError{kind: KindQueueTimeout, message: message, severity: SeverityWarning, retryable: true, userFacing: true},
		WaitedSeconds: waitedSeconds,
	}
}

// QueueClearedError reports that a pending job was rejected because the
// queue was cleared out from under it.
type QueueClearedError struct {
	baseError
}

// NewQueueClearedError constructs a QueueClearedError.
func NewQueueClearedError(message string) *QueueClearedError {
	return &QueueClearedError{
		baseError: baseError{kind: KindQueueCleared, message: message, severity: SeverityInfo, retryable: false, userFacing: true},
	}
}

// SessionNotFoundError reports that no session exists for the given ID.
type SessionNotFoundError struct {
	baseError
	SessionID string
}

// NewSessionNotFoundError constructs a SessionNotFoundError.
func NewSessionNotFoundError(sessionID string) *SessionNotFoundError {
	return &SessionNotFoundError{
		baseError: baseError{
			kind:     KindSessionNotFound,
			message:  fmt.Sprintf("session not found: %s", sessionID),
			severity: SeverityWarning, retryable: false, userFacing: true,
		},
		SessionID: sessionID,
	}
}

// SessionCorruptionError reports that a session file exists but failed to
// parse or failed structural validation.
type SessionCorruptionError struct {
	baseError
	SessionID string
}

// NewSessionCorruptionError constructs a SessionCorruptionError.
func NewSessionCorruptionError(sessionID, message string, cause error) *SessionCorruptionError {
	return &SessionCorruptionError{
		baseError: baseError{kind: KindSessionCorruption, message: message, cause: cause, severity: SeverityError, retryable: false, userFacing: true},
		SessionID: sessionID,
	}
}

// SessionPersistenceError reports a durable-write failure after the store's
// retry budget was exhausted.
type SessionPersistenceError struct {
	baseError
	SessionID string
}

// NewSessionPersistenceError constructs a SessionPersistenceError.
func NewSessionPersistenceError(sessionID, message string, cause error) *SessionPersistenceError {
	return &SessionPersistenceError{
		baseError: baseError{kind: KindSessionPersistence, message: message, cause: cause, severity: SeverityError, retryable: true, userFacing: false},
		SessionID: sessionID,
	}
}

// DirectoryCreationError reports a failure to create the session state
// directory.
type DirectoryCreationError struct {
	baseError
	Path string
}

// NewDirectoryCreationError constructs a DirectoryCreationError.
func NewDirectoryCreationError(path string, cause error) *DirectoryCreationError {
	return &DirectoryCreationError{
		baseError: baseError{
			kind: KindDirectoryCreation, message: fmt.Sprintf("failed to create directory: %s", path),
			cause: cause, severity: SeverityError, retryable: true, userFacing: false,
		},
		Path: path,
	}
}

// EnvironmentError reports a working-directory or environment resolution
// failure.
type EnvironmentError struct {
	baseError
}

// NewEnvironmentError constructs an EnvironmentError.
func NewEnvironmentError(message string, cause error) *EnvironmentError {
	return &EnvironmentError{
		baseError: baseError{kind: KindEnvironment, message: message, cause: cause, severity: SeverityError, retryable: false, userFacing: true},
	}
}

// KindOf extracts the Kind from err, walking the unwrap chain. The second
// return value is false if err carries none of this package's typed errors.
func KindOf(err error) (Kind, bool) {
	var ae AuditError
	if As(err, &ae) {
		return ae.Kind(), true
	}
	return "", false
}

// IsRetryable reports whether the judge client's retry policy should retry
// an error. Per the error-kind contract, NotAvailable, ResponseError, and
// Timeout never retry regardless of attempts remaining; an error this
// package did not originate (a bare spawn failure, say) is treated as
// retryable since its cause is presumed transient.
func IsRetryable(err error) bool {
	var ae AuditError
	if As(err, &ae) {
		return ae.IsRetryable()
	}
	return err != nil
}

// IsUserFacing reports whether an error's message is safe to fold into a
// Review summary, as opposed to a diagnostic better kept in logs.
func IsUserFacing(err error) bool {
	var ae AuditError
	if As(err, &ae) {
		return ae.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of err, SeverityDebug for a nil
// err, or SeverityError if err does not implement AuditError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var ae AuditError
	if As(err, &ae) {
		return ae.Severity()
	}
	return SeverityError
}
