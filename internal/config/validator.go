package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string // The config field path (e.g., "queue.capacity")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Validate checks the Config for invalid values and returns all validation
// errors found.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	errs = append(errs, c.validateJudge()...)
	errs = append(errs, c.validateProcess()...)
	errs = append(errs, c.validateQueue()...)
	errs = append(errs, c.validateCache()...)
	errs = append(errs, c.validateProgress()...)
	errs = append(errs, c.validateSession()...)
	errs = append(errs, c.validateEngine()...)

	return errs
}

// validateJudge validates the JudgeConfig.
func (c *Config) validateJudge() []ValidationError {
	var errs []ValidationError

	if c.Judge.Binary == "" {
		errs = append(errs, ValidationError{
			Field:   "judge.binary",
			Value:   c.Judge.Binary,
			Message: "cannot be empty",
		})
	}

	if c.Judge.ValidationTimeout <= 0 {
		errs = append(errs, ValidationError{
			Field:   "judge.validation_timeout_seconds",
			Value:   c.Judge.ValidationTimeout,
			Message: "must be positive",
		})
	}

	return errs
}

// validateProcess validates the ProcessConfig.
func (c *Config) validateProcess() []ValidationError {
	var errs []ValidationError

	const minConcurrent = 1
	const maxConcurrent = 64
	if c.Process.MaxConcurrent < minConcurrent {
		errs = append(errs, ValidationError{
			Field:   "process.max_concurrent",
			Value:   c.Process.MaxConcurrent,
			Message: fmt.Sprintf("must be at least %d", minConcurrent),
		})
	}
	if c.Process.MaxConcurrent > maxConcurrent {
		errs = append(errs, ValidationError{
			Field:   "process.max_concurrent",
			Value:   c.Process.MaxConcurrent,
			Message: fmt.Sprintf("exceeds maximum of %d", maxConcurrent),
		})
	}

	if c.Process.QueueTimeoutSeconds <= 0 {
		errs = append(errs, ValidationError{
			Field:   "process.queue_timeout_seconds",
			Value:   c.Process.QueueTimeoutSeconds,
			Message: "must be positive",
		})
	}
	if c.Process.InvocationTimeoutSeconds <= 0 {
		errs = append(errs, ValidationError{
			Field:   "process.invocation_timeout_seconds",
			Value:   c.Process.InvocationTimeoutSeconds,
			Message: "must be positive",
		})
	}
	if c.Process.CleanupTimeoutSeconds <= 0 {
		errs = append(errs, ValidationError{
			Field:   "process.cleanup_timeout_seconds",
			Value:   c.Process.CleanupTimeoutSeconds,
			Message: "must be positive",
		})
	}

	return errs
}

// validateQueue validates the QueueConfig.
func (c *Config) validateQueue() []ValidationError {
	var errs []ValidationError

	if c.Queue.Capacity < 1 {
		errs = append(errs, ValidationError{
			Field:   "queue.capacity",
			Value:   c.Queue.Capacity,
			Message: "must be at least 1",
		})
	}
	if c.Queue.MaxConcurrent < 1 {
		errs = append(errs, ValidationError{
			Field:   "queue.max_concurrent",
			Value:   c.Queue.MaxConcurrent,
			Message: "must be at least 1",
		})
	}
	if c.Queue.MaxRetries < 0 {
		errs = append(errs, ValidationError{
			Field:   "queue.max_retries",
			Value:   c.Queue.MaxRetries,
			Message: "must be non-negative",
		})
	}
	if c.Queue.TickIntervalMs < 1 {
		errs = append(errs, ValidationError{
			Field:   "queue.tick_interval_ms",
			Value:   c.Queue.TickIntervalMs,
			Message: "must be at least 1ms",
		})
	}
	if c.Queue.JobTimeoutSeconds <= 0 {
		errs = append(errs, ValidationError{
			Field:   "queue.job_timeout_seconds",
			Value:   c.Queue.JobTimeoutSeconds,
			Message: "must be positive",
		})
	}

	return errs
}

// validateCache validates the CacheConfig.
func (c *Config) validateCache() []ValidationError {
	var errs []ValidationError

	if c.Cache.Capacity < 0 {
		errs = append(errs, ValidationError{
			Field:   "cache.capacity",
			Value:   c.Cache.Capacity,
			Message: "must be non-negative (0 falls back to a one-entry cache)",
		})
	}
	if c.Cache.TTLMinutes < 0 {
		errs = append(errs, ValidationError{
			Field:   "cache.ttl_minutes",
			Value:   c.Cache.TTLMinutes,
			Message: "must be non-negative (0 disables expiry)",
		})
	}

	return errs
}

// validateProgress validates the ProgressConfig.
func (c *Config) validateProgress() []ValidationError {
	var errs []ValidationError

	if c.Progress.ThresholdSeconds < 0 {
		errs = append(errs, ValidationError{
			Field:   "progress.threshold_seconds",
			Value:   c.Progress.ThresholdSeconds,
			Message: "must be non-negative",
		})
	}
	if c.Progress.TickIntervalMs < 1 {
		errs = append(errs, ValidationError{
			Field:   "progress.tick_interval_ms",
			Value:   c.Progress.TickIntervalMs,
			Message: "must be at least 1ms",
		})
	}

	return errs
}

// validateSession validates the SessionConfig.
func (c *Config) validateSession() []ValidationError {
	var errs []ValidationError

	if c.Session.StateDir == "" {
		errs = append(errs, ValidationError{
			Field:   "session.state_dir",
			Value:   c.Session.StateDir,
			Message: "cannot be empty",
		})
	}
	if c.Session.MaxSessionAgeHours < 0 {
		errs = append(errs, ValidationError{
			Field:   "session.max_session_age_hours",
			Value:   c.Session.MaxSessionAgeHours,
			Message: "must be non-negative (0 disables retention limit)",
		})
	}
	if c.Session.SweepIntervalHours <= 0 {
		errs = append(errs, ValidationError{
			Field:   "session.sweep_interval_hours",
			Value:   c.Session.SweepIntervalHours,
			Message: "must be positive",
		})
	}

	return errs
}

// validateEngine validates the EngineConfig.
func (c *Config) validateEngine() []ValidationError {
	var errs []ValidationError

	if c.Engine.TimeoutSeconds <= 0 {
		errs = append(errs, ValidationError{
			Field:   "engine.timeout_seconds",
			Value:   c.Engine.TimeoutSeconds,
			Message: "must be positive",
		})
	}
	if c.Engine.MaxRetries < 0 {
		errs = append(errs, ValidationError{
			Field:   "engine.max_retries",
			Value:   c.Engine.MaxRetries,
			Message: "must be non-negative",
		})
	}

	return errs
}
