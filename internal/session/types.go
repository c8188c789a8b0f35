// Package session provides per-session durable state for the audit engine:
// history tracking, progress/stagnation analysis, and prompt-context
// continuity, backed by one JSON file per session (spec.md §4.10).
package session

import (
	"time"

	"github.com/codeauditor/codeauditor/internal/review"
)

// Iteration is one recorded pass of work against a session's thought.
type Iteration struct {
	LoopNumber int       `json:"loopNumber"`
	Summary    string    `json:"summary"`
	RecordedAt time.Time `json:"recordedAt"`
}

// WorkflowStepResult records the outcome of a single named step taken while
// working a thought.
type WorkflowStepResult struct {
	ThoughtNumber int       `json:"thoughtNumber"`
	StepName      string    `json:"stepName"`
	StepResult    string    `json:"stepResult"`
	RecordedAt    time.Time `json:"recordedAt"`
}

// CompletionAnalysis summarizes whether a quality-progression entry marks
// the session as complete.
type CompletionAnalysis struct {
	Status string `json:"status"` // e.g. "completed", "in_progress"
	Reason string `json:"reason,omitempty"`
}

// QualityProgression is one point in a session's quality-over-time trend.
type QualityProgression struct {
	OverallScore       int                `json:"overallScore"`
	RecordedAt         time.Time          `json:"recordedAt"`
	CompletionAnalysis CompletionAnalysis `json:"completionAnalysis"`
}

// PromptContext is the single continuity slot a PromptBuilder uses across
// calls within a session.
type PromptContext struct {
	Context     string    `json:"context"`
	StoredAt    time.Time `json:"storedAt"`
	SessionLoop int       `json:"sessionLoop"`
}

// CodexFailure is a non-fatal record of a judge invocation failure.
type CodexFailure struct {
	ThoughtNumber int       `json:"thoughtNumber"`
	Error         string    `json:"error"`
	Context       string    `json:"context,omitempty"`
	RecordedAt    time.Time `json:"recordedAt"`
}

// HistoryEntry is one completed audit, recorded against the thought that
// produced it.
type HistoryEntry struct {
	ThoughtNumber int            `json:"thoughtNumber"`
	Review        review.Review  `json:"review"`
	Config        map[string]any `json:"config,omitempty"`
	RecordedAt    time.Time      `json:"recordedAt"`
}

// Config is the minimal session configuration persisted alongside state;
// the engine's richer SessionConfig is mapped into this shape on write.
type Config struct {
	Task       string `json:"task"`
	Scope      string `json:"scope,omitempty"`
	Threshold  int    `json:"threshold"`
	MaxCycles  int    `json:"maxCycles"`
	Candidates int    `json:"candidates"`
}

// State is the full persisted shape of one session file.
type State struct {
	ID        string         `json:"id"`
	Config    Config         `json:"config"`
	History   []HistoryEntry `json:"history"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`

	CurrentLoop        int                  `json:"currentLoop"`
	Iterations         []Iteration          `json:"iterations,omitempty"`
	WorkflowHistory    []WorkflowStepResult `json:"workflowHistory,omitempty"`
	QualityProgression []QualityProgression `json:"qualityProgression,omitempty"`
	PromptContext      *PromptContext       `json:"promptContext,omitempty"`
	LastReview         *review.Review       `json:"lastReview,omitempty"`

	IsComplete       bool   `json:"isComplete,omitempty"`
	CompletionReason string `json:"completionReason,omitempty"`

	HasCodexIssues   bool           `json:"hasCodexIssues,omitempty"`
	LastCodexFailure *time.Time     `json:"lastCodexFailure,omitempty"`
	CodexFailures    []CodexFailure `json:"codexFailures,omitempty"`
}

// Info summarizes a session for listing without loading its full history.
type Info struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Loops     int       `json:"loops"`
}

// ProgressReport is analyzeProgress's return shape (spec.md §4.10).
type ProgressReport struct {
	CurrentLoop        int
	ScoreProgression   []int
	AverageImprovement float64
	IsStagnant         bool
}

// StagnationReport is detectStagnation's return shape.
type StagnationReport struct {
	IsStagnant      bool
	DetectedAtLoop  int
	SimilarityScore float64
	Recommendation  string
}

const (
	maxIterations      = 25
	maxWorkflowEntries = 100
	maxQualityEntries  = 50
)
