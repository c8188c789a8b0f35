package judgeclient

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/codeauditor/codeauditor/internal/env"
	apperrors "github.com/codeauditor/codeauditor/internal/errors"
	"github.com/codeauditor/codeauditor/internal/logging"
	"github.com/codeauditor/codeauditor/internal/parser"
	"github.com/codeauditor/codeauditor/internal/procmanager"
	"github.com/codeauditor/codeauditor/internal/retry"
	"github.com/codeauditor/codeauditor/internal/review"
	"github.com/codeauditor/codeauditor/internal/validator"
)

const (
	breakerFailureThreshold = 3
	breakerOpenTimeout      = 30 * time.Second
	breakerCountWindow      = 60 * time.Second
)

// Client builds the audit prompt, runs the judge binary through the process
// manager with the environment and executable C1/C2 resolved, parses the
// result via C4, and retries transient failures with backoff. One Client is
// shared across audits; it keeps one circuit breaker per resolved
// executable path.
type Client struct {
	resolver          *env.Resolver
	validator         *validator.Validator
	procs             *procmanager.Manager
	parser            *parser.Parser
	retries           int
	invocationTimeout time.Duration
	logger            *logging.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// New creates a Client. retries is the number of additional attempts after
// the first on transient failures; invocationTimeout bounds each judge
// process call.
func New(resolver *env.Resolver, v *validator.Validator, procs *procmanager.Manager, p *parser.Parser, retries int, invocationTimeout time.Duration, logger *logging.Logger) *Client {
	return &Client{
		resolver:          resolver,
		validator:         v,
		procs:             procs,
		parser:            p,
		retries:           retries,
		invocationTimeout: invocationTimeout,
		logger:            logger,
		breakers:          make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Review runs one audit against the judge binary: validates req, confirms
// the judge is available, builds and sends the prompt, retries transient
// failures, and parses the response into a canonical Review. pathEnv is the
// caller's PATH value, used for executable resolution.
func (c *Client) Review(req Request, pathEnv string) (review.Review, error) {
	if err := req.Validate(); err != nil {
		return review.Review{}, err
	}

	result := c.validator.Validate(pathEnv)
	resolution := c.resolver.ResolveExecutable(pathEnv)

	if !result.IsAvailable {
		cause := apperrors.NewNotAvailableError(
			"judge binary is not available: "+strings.Join(result.EnvironmentIssues, "; "),
			"env_broken", nil,
		)
		return review.Review{}, newDiagnosticError(cause, nil, "", nil, resolution.Tried, strings.Join(result.Recommendations, "; "))
	}

	workDir, err := c.resolver.ResolveWorkingDirectory("")
	if err != nil {
		return review.Review{}, newDiagnosticError(err, nil, "", nil, resolution.Tried, "")
	}
	envList, err := c.resolver.PrepareEnvironment(nil)
	if err != nil {
		return review.Review{}, newDiagnosticError(err, nil, workDir, nil, resolution.Tried, "")
	}

	prompt := buildPrompt(req)
	args := commandArgs(prompt)
	breaker := c.breakerFor(result.ExecutablePath)

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			time.Sleep(retry.Backoff(attempt))
		}

		rev, rerr := c.invoke(breaker, result.ExecutablePath, args, workDir, envList)
		if rerr == nil {
			return rev, nil
		}

		lastErr = rerr
		if !isRetryable(rerr) {
			break
		}
		c.debugf("judge invocation attempt %d failed, retrying: %v", attempt+1, rerr)
	}

	return review.Review{}, newDiagnosticError(lastErr, args, workDir, envList, resolution.Tried, "")
}

// invoke runs one judge process call through the circuit breaker for
// executable and parses its stdout on success.
func (c *Client) invoke(breaker *gobreaker.CircuitBreaker, executable string, args []string, workDir string, envList []string) (review.Review, error) {
	raw, err := breaker.Execute(func() (any, error) {
		result, err := c.procs.ExecuteCommand(executable, args, procmanager.ExecuteOptions{
			WorkingDirectory: workDir,
			Timeout:          c.invocationTimeout,
			Environment:      envList,
		})
		if err != nil {
			return nil, err
		}
		if result.TimedOut {
			return nil, apperrors.NewTimeoutError("process", "judge invocation timed out", result.ExecutionTime.Seconds(), c.invocationTimeout.Seconds())
		}
		if result.ExitCode != 0 {
			return nil, fmt.Errorf("judge exited with code %d: %s", result.ExitCode, firstLine(result.Stderr))
		}
		return result.Stdout, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return review.Review{}, apperrors.NewNotAvailableError("judge circuit breaker is open after repeated failures", "env_broken", err)
		}
		return review.Review{}, err
	}

	return c.parser.Parse(raw.(string))
}

// breakerFor returns the circuit breaker for executable, creating one on
// first use. Each resolved executable path gets its own breaker so a broken
// install of one judge binary doesn't trip validation for another.
func (c *Client) breakerFor(executable string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[executable]; ok {
		return cb
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "judge:" + executable,
		MaxRequests: 1,
		Interval:    breakerCountWindow,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.debugf("circuit breaker %s transitioned %s -> %s", name, from, to)
		},
	})
	c.breakers[executable] = cb
	return cb
}

// isRetryable reports whether err is a transient failure the retry policy
// should re-attempt. NotAvailableError, ResponseError, and TimeoutError
// always surface immediately per spec.md §4.5.
func isRetryable(err error) bool {
	var notAvail *apperrors.NotAvailableError
	if apperrors.As(err, &notAvail) {
		return false
	}
	var respErr *apperrors.ResponseError
	if apperrors.As(err, &respErr) {
		return false
	}
	var timeoutErr *apperrors.TimeoutError
	if apperrors.As(err, &timeoutErr) {
		return false
	}
	return true
}

func (c *Client) debugf(format string, args ...any) {
	if c.logger == nil {
		return
	}
	c.logger.Debug(fmt.Sprintf(format, args...))
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
