package engine

import (
	"fmt"

	apperrors "github.com/codeauditor/codeauditor/internal/errors"
	"github.com/codeauditor/codeauditor/internal/review"
)

// Thought is a submission to be audited. Immutable once accepted.
type Thought struct {
	ThoughtNumber int
	Text          string
	BranchID      string
}

// AuditRequest is what the engine builds from a Thought and a session's
// config before handing work to the judge. It is deliberately a distinct
// type from judgeclient.Request: this package is the only caller of
// judgeclient, and translates AuditRequest into judgeclient.Request at the
// call site, so judgeclient never needs to import engine.
type AuditRequest struct {
	Task        string
	Candidate   string
	ContextPack string
	Rubric      []review.RubricItem
	Budget      review.Budget
}

const (
	maxTaskLen        = 10_000
	maxCandidateLen   = 100_000
	maxContextPackLen = 50_000
)

// Validate reports the first violation of an AuditRequest's field
// constraints (spec.md §3), or nil.
func (r AuditRequest) Validate() error {
	if r.Task == "" {
		return apperrors.NewInvalidRequestError("task is required", "task")
	}
	if len(r.Task) > maxTaskLen {
		return apperrors.NewInvalidRequestError(fmt.Sprintf("task exceeds %d characters", maxTaskLen), "task")
	}
	if len(r.Candidate) > maxCandidateLen {
		return apperrors.NewInvalidRequestError(fmt.Sprintf("candidate exceeds %d characters", maxCandidateLen), "candidate")
	}
	if len(r.ContextPack) > maxContextPackLen {
		return apperrors.NewInvalidRequestError(fmt.Sprintf("contextPack exceeds %d characters", maxContextPackLen), "contextPack")
	}

	seen := make(map[string]bool, len(r.Rubric))
	for _, item := range r.Rubric {
		if item.Name == "" {
			return apperrors.NewInvalidRequestError("rubric item name is required", "rubric")
		}
		if seen[item.Name] {
			return apperrors.NewInvalidRequestError(fmt.Sprintf("duplicate rubric item name %q", item.Name), "rubric")
		}
		seen[item.Name] = true
		if item.Weight < 0 {
			return apperrors.NewInvalidRequestError(fmt.Sprintf("rubric item %q has a negative weight", item.Name), "rubric")
		}
	}

	if r.Budget.MaxCycles < 1 {
		return apperrors.NewInvalidRequestError("budget.maxCycles must be at least 1", "budget.maxCycles")
	}
	if r.Budget.Candidates < 1 {
		return apperrors.NewInvalidRequestError("budget.candidates must be at least 1", "budget.candidates")
	}
	if r.Budget.Threshold < 0 || r.Budget.Threshold > 100 {
		return apperrors.NewInvalidRequestError("budget.threshold must be within [0,100]", "budget.threshold")
	}
	return nil
}

// AuditResult is auditAndWait's return value. On failure Review is a
// synthesized fallback, except in strict mode, where a queue or judge
// failure leaves Review at its zero value and Error holds the message.
type AuditResult struct {
	Review    review.Review
	Success   bool
	TimedOut  bool
	Duration  float64 // seconds
	Error     string
	SessionID string
}

// SessionConfig supplies the task, rubric, and budget a SessionConfigProvider
// resolves for a given session.
type SessionConfig struct {
	Task       string
	Scope      string
	Threshold  int
	MaxCycles  int
	Candidates int
	Rubric     []review.RubricItem
}

// SessionConfigProvider resolves the SessionConfig a given session should
// audit against.
type SessionConfigProvider interface {
	SessionConfig(sessionID string) (SessionConfig, error)
}

// ContextPacker supplies the contextPack passed to the judge for a session.
type ContextPacker interface {
	BuildContextPack(cfg SessionConfig) (string, error)
}

// SessionRecorder is the subset of the session store (C10) the engine
// writes to after an audit completes.
type SessionRecorder interface {
	AddAuditToHistory(sessionID string, thoughtNumber int, rev review.Review, cfg SessionConfig) error
	RecordCodexFailure(sessionID string, thoughtNumber int, errMsg string)
}
