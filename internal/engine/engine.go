// Package engine is the single synchronous entry point the outer system
// calls: it turns a Thought into a Review by way of cache lookup,
// concurrency-bounded queueing, and fallback synthesis on failure
// (spec.md §4.9).
package engine

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/codeauditor/codeauditor/internal/auditcache"
	"github.com/codeauditor/codeauditor/internal/auditqueue"
	apperrors "github.com/codeauditor/codeauditor/internal/errors"
	"github.com/codeauditor/codeauditor/internal/judgeclient"
	"github.com/codeauditor/codeauditor/internal/logging"
	"github.com/codeauditor/codeauditor/internal/progress"
	"github.com/codeauditor/codeauditor/internal/review"
)

const fallbackJudgeModel = "synchronous-audit-engine-fallback"

// Config bounds the engine's own behavior, independent of queue/judge
// tuning owned by their respective constructors.
type Config struct {
	EnableAudit   bool          // false short-circuits every audit to the skipped review
	EngineTimeout time.Duration // default 30s, enforced ahead of the queue/child timeouts
	QueuePriority int
	QueueTimeout  time.Duration // per-job timeout passed to the queue, default 30s
	MaxRetries    int           // per-job retry budget passed to the queue; negative selects 2
	Strict        bool          // true: a queue/judge failure leaves Review zero-valued instead of a fallback
	PathEnv       string        // PATH value used to resolve the judge binary; defaults to os.Getenv("PATH")
}

func (c Config) withDefaults() Config {
	if c.EngineTimeout <= 0 {
		c.EngineTimeout = 30 * time.Second
	}
	if c.QueueTimeout <= 0 {
		c.QueueTimeout = 30 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 2
	}
	if c.PathEnv == "" {
		c.PathEnv = os.Getenv("PATH")
	}
	return c
}

// Engine wires the cache (C6), queue (C8), and judge client (C5) into the
// six-step pipeline described in spec.md §4.9.
type Engine struct {
	cfg      Config
	cache    *auditcache.Cache
	queue    *auditqueue.Queue
	judge    *judgeclient.Client
	tracker  *progress.Tracker
	sessions SessionRecorder
	logger   *logging.Logger
}

// New creates an Engine. sessions and tracker may be nil: without a
// SessionRecorder the engine simply does not append to session history;
// without a Tracker it does not emit progress events.
func New(cfg Config, cache *auditcache.Cache, queue *auditqueue.Queue, judge *judgeclient.Client, tracker *progress.Tracker, sessions SessionRecorder, logger *logging.Logger) *Engine {
	return &Engine{
		cfg:      cfg.withDefaults(),
		cache:    cache,
		queue:    queue,
		judge:    judge,
		tracker:  tracker,
		sessions: sessions,
		logger:   logger,
	}
}

// AuditAndWait runs the pipeline for thought against sessionCfg, optionally
// tied to sessionID for history and progress reporting. On failure the
// result carries a synthesized fallback Review, except when cfg.Strict is
// set and the queue or judge fails: the Review is then left at its zero
// value and the failure is reported only through Success and Error; no
// typed error is returned. A request that fails validation gets the
// fallback Review in strict mode too.
func (e *Engine) AuditAndWait(thought Thought, sessionID string, sessionCfg SessionConfig, contextPack string) AuditResult {
	start := time.Now()
	auditID := auditIDFor(sessionID, thought.ThoughtNumber)

	if e.tracker != nil {
		e.tracker.StartTracking(auditID)
		defer func() { e.tracker.CompleteTracking(auditID, true) }()
	}

	if !e.cfg.EnableAudit {
		return e.skipped(start, sessionID, "auditing is disabled")
	}
	if !hasCodeLikeContent(thought.Text) {
		return e.skipped(start, sessionID, "no code-like content detected")
	}

	if e.tracker != nil {
		e.tracker.UpdateStage(auditID, progress.StageParsingCode, "detecting submission format")
	}
	format := detectFormat(thought.Text)
	issues := formatIssues(thought.Text)
	if len(issues) > 0 && e.logger != nil {
		e.logger.Debug("format issues detected, continuing on original text", "format", string(format), "issues", strings.Join(issues, "; "))
	}

	req := AuditRequest{
		Task:        sessionCfg.Task,
		Candidate:   thought.Text,
		ContextPack: contextPack,
		Rubric:      sessionCfg.Rubric,
		Budget: review.Budget{
			MaxCycles:  sessionCfg.MaxCycles,
			Candidates: sessionCfg.Candidates,
			Threshold:  sessionCfg.Threshold,
		},
	}
	if err := req.Validate(); err != nil {
		return e.finish(start, sessionID, AuditResult{
			Review:  fallbackReview(50, review.VerdictRevise, "request validation failed: "+err.Error(), sessionCfg.Rubric),
			Success: false,
			Error:   err.Error(),
		})
	}

	fp := auditcache.Fingerprint(auditcache.FingerprintInput{
		Candidate:   req.Candidate,
		Task:        req.Task,
		Rubric:      req.Rubric,
		Budget:      req.Budget,
		ContextPack: req.ContextPack,
	})
	if e.tracker != nil {
		e.tracker.UpdateStage(auditID, progress.StageRunningChecks, "checking cache")
	}
	if cached, ok := e.cache.Get(fp); ok {
		return e.finish(start, sessionID, AuditResult{Review: cached, Success: true})
	}

	if e.tracker != nil {
		e.tracker.UpdateStage(auditID, progress.StageEvaluatingQuality, "awaiting judge")
	}
	rev, err := e.submit(auditID, req)
	if err != nil {
		result := e.classify(err)
		if e.cfg.Strict {
			return AuditResult{Success: false, TimedOut: result.TimedOut, Duration: time.Since(start).Seconds(), Error: err.Error(), SessionID: sessionID}
		}
		if e.sessions != nil {
			e.sessions.RecordCodexFailure(sessionID, thought.ThoughtNumber, err.Error())
		}
		return e.finish(start, sessionID, result)
	}

	e.cache.Set(fp, rev)
	if e.sessions != nil {
		if serr := e.sessions.AddAuditToHistory(sessionID, thought.ThoughtNumber, rev, sessionCfg); serr != nil && e.logger != nil {
			e.logger.Warn("failed to append audit to session history", "session_id", sessionID, "error", serr)
		}
	}
	return e.finish(start, sessionID, AuditResult{Review: rev, Success: true})
}

// submit translates req into a judgeclient.Request and hands it to the
// queue, blocking until the queue resolves the job's result channel.
func (e *Engine) submit(auditID string, req AuditRequest) (review.Review, error) {
	jreq := judgeclient.Request{
		Task:        req.Task,
		Candidate:   req.Candidate,
		ContextPack: req.ContextPack,
		Rubric:      req.Rubric,
		Budget:      req.Budget,
	}

	resultCh, err := e.queue.Submit(auditID, e.cfg.QueuePriority, e.cfg.QueueTimeout, e.cfg.MaxRetries, func() (review.Review, error) {
		return e.judge.Review(jreq, e.cfg.PathEnv)
	})
	if err != nil {
		return review.Review{}, err
	}

	select {
	case res := <-resultCh:
		return res.Review, res.Err
	case <-time.After(e.cfg.EngineTimeout):
		return review.Review{}, apperrors.NewTimeoutError("engine", "audit engine timed out waiting for the queue", e.cfg.EngineTimeout.Seconds(), e.cfg.EngineTimeout.Seconds())
	}
}

// classify maps a pipeline error to the fallback Review shape spec.md §4.9
// step 5 requires: distinct wording for service-unavailable and timeout,
// a generic fallback for everything else. Never retried here — retry
// policy lives entirely in C5 and C8.
func (e *Engine) classify(err error) AuditResult {
	msg := err.Error()
	lower := strings.ToLower(msg)

	var notAvailable *apperrors.NotAvailableError
	var timeoutErr *apperrors.TimeoutError
	switch {
	case apperrors.As(err, &notAvailable) || strings.Contains(lower, "not available") || strings.Contains(lower, "connection refused"):
		return AuditResult{
			Review:  fallbackReview(50, review.VerdictRevise, "judge service is not available: "+msg, nil),
			Success: false,
			Error:   msg,
		}
	case apperrors.As(err, &timeoutErr) || strings.Contains(lower, "timed out"):
		return AuditResult{
			Review:   fallbackReview(50, review.VerdictRevise, "audit timed out: "+msg, nil),
			Success:  false,
			TimedOut: true,
			Error:    msg,
		}
	default:
		return AuditResult{
			Review:  fallbackReview(50, review.VerdictRevise, "audit failed: "+msg, nil),
			Success: false,
			Error:   msg,
		}
	}
}

func (e *Engine) skipped(start time.Time, sessionID, reason string) AuditResult {
	return e.finish(start, sessionID, AuditResult{
		Review:  fallbackReview(100, review.VerdictPass, "audit skipped: "+reason, nil),
		Success: true,
	})
}

func (e *Engine) finish(start time.Time, sessionID string, result AuditResult) AuditResult {
	result.Duration = time.Since(start).Seconds()
	result.SessionID = sessionID
	return result
}

// fallbackReview synthesizes the one Review shape the engine itself is
// allowed to construct directly (spec.md §4.9): every dimension at the same
// score, a single fallback judge card, never cached by the caller.
func fallbackReview(score int, verdict review.Verdict, summary string, rubric []review.RubricItem) review.Review {
	dims := make([]review.Dimension, 0, len(rubric))
	for _, item := range rubric {
		dims = append(dims, review.Dimension{Name: item.Name, Score: score})
	}
	if len(dims) == 0 {
		dims = append(dims, review.Dimension{Name: "overall", Score: score})
	}

	return review.Review{
		Overall:    score,
		Dimensions: dims,
		Verdict:    verdict,
		Summary:    summary,
		Inline:     nil,
		Citations:  nil,
		Iterations: 1,
		JudgeCards: []review.JudgeCard{{Model: fallbackJudgeModel, Score: score}},
	}
}

func auditIDFor(sessionID string, thoughtNumber int) string {
	return fmt.Sprintf("%s#%d", sessionID, thoughtNumber)
}
