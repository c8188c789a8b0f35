// Package progress reports stage and percentage updates for in-flight
// audits that run long enough to cross a visibility threshold, and
// estimates the time remaining. Tracking is entirely out-of-band: nothing
// in the synchronous engine path blocks on it (spec.md §4.7/§5).
package progress

import (
	"sort"
	"sync"
	"time"

	"github.com/codeauditor/codeauditor/internal/events"
)

// Stage is one named phase of an audit's progress, weighted toward its
// share of total wall-clock time.
type Stage string

const (
	StageInitializing      Stage = "initializing"
	StageParsingCode       Stage = "parsing_code"
	StageAnalyzingStruct   Stage = "analyzing_structure"
	StageRunningChecks     Stage = "running_checks"
	StageEvaluatingQuality Stage = "evaluating_quality"
	StageGeneratingFeed    Stage = "generating_feedback"
	StageFinalizing        Stage = "finalizing"
	StageCompleted         Stage = "completed"
	StageFailed            Stage = "failed"
)

// stageWeights are the relative shares of total progress each named stage
// accounts for; they sum to 100 across the non-terminal stages.
var stageWeights = map[Stage]int{
	StageInitializing:      5,
	StageParsingCode:       10,
	StageAnalyzingStruct:   15,
	StageRunningChecks:     40,
	StageEvaluatingQuality: 20,
	StageGeneratingFeed:    8,
	StageFinalizing:        2,
}

// stageOrder fixes the sequence stageFloor walks to compute the cumulative
// percentage a stage starts at.
var stageOrder = []Stage{
	StageInitializing, StageParsingCode, StageAnalyzingStruct,
	StageRunningChecks, StageEvaluatingQuality, StageGeneratingFeed, StageFinalizing,
}

func stageFloor(stage Stage) int {
	floor := 0
	for _, s := range stageOrder {
		if s == stage {
			return floor
		}
		floor += stageWeights[s]
	}
	return floor
}

type tracked struct {
	auditID      string
	startedAt    time.Time
	activatedAt  time.Time
	active       bool
	stage        Stage
	stageProgess int
	message      string
}

// percentage returns the overall completion estimate for the stage and
// within-stage progress currently recorded. Only meaningful for one of the
// seven non-terminal stages; callers transitioning to completed/failed
// capture this before changing stage.
func (t *tracked) percentage() int {
	floor := stageFloor(t.stage)
	weight := stageWeights[t.stage]
	if weight == 0 {
		return floor
	}
	pct := floor + weight*t.stageProgess/100
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Tracker reports progress for in-flight audits that exceed its activation
// threshold. Safe for concurrent use.
type Tracker struct {
	mu            sync.Mutex
	threshold     time.Duration
	tickInterval  time.Duration
	maxConcurrent int
	bus           *events.Bus

	audits map[string]*tracked
	timers map[string]*time.Timer
	ticker *time.Ticker
	stopCh chan struct{}
}

// New creates a Tracker. threshold is the delay before a tracked audit
// starts emitting updates; tickInterval is the periodic emitter's cadence;
// maxConcurrent bounds how many audits are tracked at once (excess requests
// are silently not tracked, never rejected). bus, if non-nil, receives
// ProgressUpdateEvent/ProgressCompleteEvent.
func New(threshold, tickInterval time.Duration, maxConcurrent int, bus *events.Bus) *Tracker {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	t := &Tracker{
		threshold:     threshold,
		tickInterval:  tickInterval,
		maxConcurrent: maxConcurrent,
		bus:           bus,
		audits:        make(map[string]*tracked),
		timers:        make(map[string]*time.Timer),
		stopCh:        make(chan struct{}),
	}
	t.ticker = time.NewTicker(tickInterval)
	go t.run()
	return t
}

// StartTracking begins tracking auditID, scheduling activation after the
// threshold elapses. If maxConcurrent trackers are already active, the
// audit is simply not tracked.
func (t *Tracker) StartTracking(auditID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.audits) >= t.maxConcurrent {
		return
	}
	if _, exists := t.audits[auditID]; exists {
		return
	}

	t.audits[auditID] = &tracked{
		auditID:   auditID,
		startedAt: time.Now(),
		stage:     StageInitializing,
	}

	timer := time.AfterFunc(t.threshold, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if a, ok := t.audits[auditID]; ok {
			a.active = true
			a.activatedAt = time.Now()
		}
	})
	t.timers[auditID] = timer
}

// UpdateStage advances auditID to stage, resetting its within-stage
// progress to zero.
func (t *Tracker) UpdateStage(auditID string, stage Stage, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.audits[auditID]
	if !ok {
		return
	}
	a.stage = stage
	a.stageProgess = 0
	a.message = message
}

// UpdateProgress refines progress within auditID's current stage.
// stageProgress is clamped to [0,100].
func (t *Tracker) UpdateProgress(auditID string, stageProgress int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.audits[auditID]
	if !ok {
		return
	}
	if stageProgress < 0 {
		stageProgress = 0
	}
	if stageProgress > 100 {
		stageProgress = 100
	}
	a.stageProgess = stageProgress
	if message != "" {
		a.message = message
	}
}

// CompleteTracking emits a final update and stops tracking auditID. The
// reported percentage is 100 on success, or the stage/progress reached at
// the time of failure otherwise.
func (t *Tracker) CompleteTracking(auditID string, success bool) {
	t.mu.Lock()
	a, ok := t.audits[auditID]
	if !ok {
		t.mu.Unlock()
		return
	}

	pct := a.percentage()
	stage := StageFailed
	if success {
		pct = 100
		stage = StageCompleted
	}
	message := a.message
	elapsed := time.Since(a.startedAt).Seconds()

	if timer, ok := t.timers[auditID]; ok {
		timer.Stop()
		delete(t.timers, auditID)
	}
	delete(t.audits, auditID)
	t.mu.Unlock()

	t.publish(events.NewProgressUpdateEvent(auditID, pct, string(stage), message, 0, false, elapsed))
	t.publish(events.NewProgressCompleteEvent(auditID, success))
}

// Stop halts the periodic emitter. Safe to call once.
func (t *Tracker) Stop() {
	close(t.stopCh)
	t.ticker.Stop()
}

func (t *Tracker) run() {
	for {
		select {
		case <-t.stopCh:
			return
		case <-t.ticker.C:
			t.emitActive()
		}
	}
}

func (t *Tracker) emitActive() {
	t.mu.Lock()
	ids := make([]string, 0, len(t.audits))
	for id, a := range t.audits {
		if a.active {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	type snapshot struct {
		id                 string
		percentage         int
		stage              string
		message            string
		elapsed            float64
		estimatedRemaining float64
		hasEstimate        bool
	}
	snapshots := make([]snapshot, 0, len(ids))
	for _, id := range ids {
		a := t.audits[id]
		elapsed := time.Since(a.startedAt).Seconds()
		pct := a.percentage()
		s := snapshot{id: id, percentage: pct, stage: string(a.stage), message: a.message, elapsed: elapsed}
		if pct > 0 {
			s.estimatedRemaining = elapsed / float64(pct) * float64(100-pct)
			s.hasEstimate = true
		}
		snapshots = append(snapshots, s)
	}
	t.mu.Unlock()

	for _, s := range snapshots {
		t.publish(events.NewProgressUpdateEvent(s.id, s.percentage, s.stage, s.message, s.estimatedRemaining, s.hasEstimate, s.elapsed))
	}
}

func (t *Tracker) publish(ev events.Event) {
	if t.bus == nil {
		return
	}
	t.bus.Publish(ev)
}
