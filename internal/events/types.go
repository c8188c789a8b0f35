// Package events defines the event types published across the audit
// pipeline: process lifecycle (C3), progress updates (C7), and queue
// admission/scheduling (C8). Publishing is decoupled from business logic —
// a component emits an event and moves on; delivery order and handler
// failures are the bus's problem, not the emitter's.
package events

import "time"

// Event is the interface every published event satisfies.
type Event interface {
	// EventType returns a string identifier for this event, conventionally
	// "category.action" (e.g. "process.started", "queue.job-enqueued").
	EventType() string
	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent supplies the common fields every concrete event embeds.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{eventType: eventType, timestamp: time.Now()}
}

// -----------------------------------------------------------------------------
// Process Lifecycle Events (C3)
// -----------------------------------------------------------------------------

// ProcessStartedEvent is emitted when a judge child process is spawned.
type ProcessStartedEvent struct {
	baseEvent
	ProcessID  string
	Executable string
	WorkingDir string
}

// NewProcessStartedEvent creates a ProcessStartedEvent.
func NewProcessStartedEvent(processID, executable, workingDir string) ProcessStartedEvent {
	return ProcessStartedEvent{
		baseEvent:  newBaseEvent("process.started"),
		ProcessID:  processID,
		Executable: executable,
		WorkingDir: workingDir,
	}
}

// ProcessQueuedEvent is emitted when a spawn request is enqueued because the
// concurrency cap is already in use.
type ProcessQueuedEvent struct {
	baseEvent
	ProcessID string
	QueueSize int
}

// NewProcessQueuedEvent creates a ProcessQueuedEvent.
func NewProcessQueuedEvent(processID string, queueSize int) ProcessQueuedEvent {
	return ProcessQueuedEvent{
		baseEvent: newBaseEvent("process.queued"),
		ProcessID: processID,
		QueueSize: queueSize,
	}
}

// ProcessTimeoutEvent is emitted when a child's hard timeout expires and a
// graceful-termination signal has been sent.
type ProcessTimeoutEvent struct {
	baseEvent
	ProcessID      string
	ElapsedSeconds float64
}

// NewProcessTimeoutEvent creates a ProcessTimeoutEvent.
func NewProcessTimeoutEvent(processID string, elapsedSeconds float64) ProcessTimeoutEvent {
	return ProcessTimeoutEvent{
		baseEvent:      newBaseEvent("process.timeout"),
		ProcessID:      processID,
		ElapsedSeconds: elapsedSeconds,
	}
}

// ProcessForceKillEvent is emitted when a child survived the cleanup window
// after SIGTERM and was sent SIGKILL.
type ProcessForceKillEvent struct {
	baseEvent
	ProcessID string
}

// NewProcessForceKillEvent creates a ProcessForceKillEvent.
func NewProcessForceKillEvent(processID string) ProcessForceKillEvent {
	return ProcessForceKillEvent{
		baseEvent: newBaseEvent("process.force-kill"),
		ProcessID: processID,
	}
}

// ProcessCompletedEvent is emitted when a child exits on its own, regardless
// of exit code.
type ProcessCompletedEvent struct {
	baseEvent
	ProcessID     string
	ExitCode      int
	ExecutionTime float64
}

// NewProcessCompletedEvent creates a ProcessCompletedEvent.
func NewProcessCompletedEvent(processID string, exitCode int, executionTime float64) ProcessCompletedEvent {
	return ProcessCompletedEvent{
		baseEvent:     newBaseEvent("process.completed"),
		ProcessID:     processID,
		ExitCode:      exitCode,
		ExecutionTime: executionTime,
	}
}

// ProcessFailedEvent is emitted for spawn failures, stdin-write failures, and
// other errors the process manager does not retry internally.
type ProcessFailedEvent struct {
	baseEvent
	ProcessID string
	Reason    string
}

// NewProcessFailedEvent creates a ProcessFailedEvent.
func NewProcessFailedEvent(processID, reason string) ProcessFailedEvent {
	return ProcessFailedEvent{
		baseEvent: newBaseEvent("process.failed"),
		ProcessID: processID,
		Reason:    reason,
	}
}

// HealthCheckEvent reports the process manager's periodic health snapshot.
type HealthCheckEvent struct {
	baseEvent
	Healthy     bool
	SuccessRate float64
	Total       int
}

// NewHealthCheckEvent creates a HealthCheckEvent.
func NewHealthCheckEvent(healthy bool, successRate float64, total int) HealthCheckEvent {
	return HealthCheckEvent{
		baseEvent:   newBaseEvent("health.check"),
		Healthy:     healthy,
		SuccessRate: successRate,
		Total:       total,
	}
}

// HealthWarningEvent is emitted when the health check degrades below the
// healthy threshold.
type HealthWarningEvent struct {
	baseEvent
	Message string
}

// NewHealthWarningEvent creates a HealthWarningEvent.
func NewHealthWarningEvent(message string) HealthWarningEvent {
	return HealthWarningEvent{
		baseEvent: newBaseEvent("health.warning"),
		Message:   message,
	}
}

// ShutdownCompleteEvent is emitted once every in-flight child has terminated
// following a shutdown request.
type ShutdownCompleteEvent struct {
	baseEvent
	Terminated int
}

// NewShutdownCompleteEvent creates a ShutdownCompleteEvent.
func NewShutdownCompleteEvent(terminated int) ShutdownCompleteEvent {
	return ShutdownCompleteEvent{
		baseEvent:  newBaseEvent("shutdown.complete"),
		Terminated: terminated,
	}
}

// -----------------------------------------------------------------------------
// Progress Events (C7)
// -----------------------------------------------------------------------------

// ProgressUpdateEvent carries a tracked audit's progress snapshot.
type ProgressUpdateEvent struct {
	baseEvent
	AuditID                string
	Percentage             int
	Stage                  string
	Message                string
	EstimatedTimeRemaining float64
	HasEstimate            bool
	ElapsedTime            float64
}

// NewProgressUpdateEvent creates a ProgressUpdateEvent.
func NewProgressUpdateEvent(auditID string, percentage int, stage, message string, estimatedRemaining float64, hasEstimate bool, elapsed float64) ProgressUpdateEvent {
	return ProgressUpdateEvent{
		baseEvent:              newBaseEvent("progress.update"),
		AuditID:                auditID,
		Percentage:             percentage,
		Stage:                  stage,
		Message:                message,
		EstimatedTimeRemaining: estimatedRemaining,
		HasEstimate:            hasEstimate,
		ElapsedTime:            elapsed,
	}
}

// ProgressCompleteEvent is emitted when a tracked audit finishes, successful
// or not, and is removed from tracking.
type ProgressCompleteEvent struct {
	baseEvent
	AuditID string
	Success bool
}

// NewProgressCompleteEvent creates a ProgressCompleteEvent.
func NewProgressCompleteEvent(auditID string, success bool) ProgressCompleteEvent {
	return ProgressCompleteEvent{
		baseEvent: newBaseEvent("progress.complete"),
		AuditID:   auditID,
		Success:   success,
	}
}

// -----------------------------------------------------------------------------
// Queue Events (C8)
// -----------------------------------------------------------------------------

// QueueJobEnqueuedEvent is emitted when a job is admitted to the pending
// list.
type QueueJobEnqueuedEvent struct {
	baseEvent
	JobID      string
	Priority   int
	PendingLen int
}

// NewQueueJobEnqueuedEvent creates a QueueJobEnqueuedEvent.
func NewQueueJobEnqueuedEvent(jobID string, priority, pendingLen int) QueueJobEnqueuedEvent {
	return QueueJobEnqueuedEvent{
		baseEvent:  newBaseEvent("queue.job-enqueued"),
		JobID:      jobID,
		Priority:   priority,
		PendingLen: pendingLen,
	}
}

// QueueJobStartedEvent is emitted when the scheduler moves a job from
// pending to running.
type QueueJobStartedEvent struct {
	baseEvent
	JobID      string
	RunningLen int
}

// NewQueueJobStartedEvent creates a QueueJobStartedEvent.
func NewQueueJobStartedEvent(jobID string, runningLen int) QueueJobStartedEvent {
	return QueueJobStartedEvent{
		baseEvent:  newBaseEvent("queue.job-started"),
		JobID:      jobID,
		RunningLen: runningLen,
	}
}

// QueueJobRetriedEvent is emitted when a failed job is reset and re-inserted
// by priority under its retry budget.
type QueueJobRetriedEvent struct {
	baseEvent
	JobID      string
	RetryCount int
}

// NewQueueJobRetriedEvent creates a QueueJobRetriedEvent.
func NewQueueJobRetriedEvent(jobID string, retryCount int) QueueJobRetriedEvent {
	return QueueJobRetriedEvent{
		baseEvent:  newBaseEvent("queue.job-retried"),
		JobID:      jobID,
		RetryCount: retryCount,
	}
}

// QueueJobCompletedEvent is emitted when a job's promise resolves
// successfully.
type QueueJobCompletedEvent struct {
	baseEvent
	JobID string
}

// NewQueueJobCompletedEvent creates a QueueJobCompletedEvent.
func NewQueueJobCompletedEvent(jobID string) QueueJobCompletedEvent {
	return QueueJobCompletedEvent{
		baseEvent: newBaseEvent("queue.job-completed"),
		JobID:     jobID,
	}
}

// QueueJobFailedEvent is emitted when a job exhausts its retry budget and
// its promise is rejected with the last error.
type QueueJobFailedEvent struct {
	baseEvent
	JobID  string
	Reason string
}

// NewQueueJobFailedEvent creates a QueueJobFailedEvent.
func NewQueueJobFailedEvent(jobID, reason string) QueueJobFailedEvent {
	return QueueJobFailedEvent{
		baseEvent: newBaseEvent("queue.job-failed"),
		JobID:     jobID,
		Reason:    reason,
	}
}
