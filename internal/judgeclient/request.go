// Package judgeclient builds the audit prompt, invokes the judge binary
// through the process manager with the environment and executable C1/C2
// resolved, parses the result via C4, and retries transient failures with
// backoff. It is the only component that knows the judge's command-line
// contract.
package judgeclient

import (
	"fmt"

	apperrors "github.com/codeauditor/codeauditor/internal/errors"
	"github.com/codeauditor/codeauditor/internal/review"
)

// Request is everything the judge client needs to build a prompt and run
// one audit. The engine builds this from its own AuditRequest before
// calling Review; Request exists so this package never imports the engine.
type Request struct {
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

// Validate checks Request against the limits in spec.md §3, returning an
// InvalidRequestError naming the first offending field.
func (r Request) Validate() error {
	if r.Task == "" {
		return apperrors.NewInvalidRequestError("task must not be empty", "task")
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

	seen := make(map[string]struct{}, len(r.Rubric))
	for _, item := range r.Rubric {
		if item.Name == "" {
			return apperrors.NewInvalidRequestError("rubric item name must not be empty", "rubric")
		}
		if _, dup := seen[item.Name]; dup {
			return apperrors.NewInvalidRequestError(fmt.Sprintf("duplicate rubric dimension %q", item.Name), "rubric")
		}
		seen[item.Name] = struct{}{}
		if item.Weight < 0 {
			return apperrors.NewInvalidRequestError(fmt.Sprintf("rubric dimension %q has a negative weight", item.Name), "rubric")
		}
	}

	if r.Budget.MaxCycles < 1 {
		return apperrors.NewInvalidRequestError("budget.maxCycles must be at least 1", "budget.maxCycles")
	}
	if r.Budget.Candidates < 1 {
		return apperrors.NewInvalidRequestError("budget.candidates must be at least 1", "budget.candidates")
	}
	if r.Budget.Threshold < 0 || r.Budget.Threshold > 100 {
		return apperrors.NewInvalidRequestError("budget.threshold must be in [0,100]", "budget.threshold")
	}
	return nil
}
