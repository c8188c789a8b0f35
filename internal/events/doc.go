// Package events provides a pub-sub event bus for decoupled inter-component
// communication across the audit pipeline.
//
// The process manager (C3) publishes process lifecycle events, the progress
// tracker (C7) publishes progress updates, and the audit queue (C8) publishes
// admission and scheduling events. Nothing downstream is required; a
// component with no subscribers still runs correctly, and a subscriber's
// failure (panic) never interrupts delivery to others.
//
// # Main Types
//
//   - [Event]: interface every event implements, providing EventType() and Timestamp()
//   - [Bus]: synchronous pub-sub dispatcher, safe for concurrent use
//   - [Handler]: func(Event)
//
// # Event Categories
//
// Process lifecycle (C3):
//   - [ProcessStartedEvent], [ProcessQueuedEvent], [ProcessTimeoutEvent],
//     [ProcessForceKillEvent], [ProcessCompletedEvent], [ProcessFailedEvent]
//   - [HealthCheckEvent], [HealthWarningEvent], [ShutdownCompleteEvent]
//
// Progress (C7):
//   - [ProgressUpdateEvent], [ProgressCompleteEvent]
//
// Queue (C8):
//   - [QueueJobEnqueuedEvent], [QueueJobStartedEvent], [QueueJobRetriedEvent],
//     [QueueJobCompletedEvent], [QueueJobFailedEvent]
//
// # Basic Usage
//
//	bus := events.NewBus()
//
//	bus.Subscribe("process.timeout", func(e events.Event) {
//	    to := e.(events.ProcessTimeoutEvent)
//	    log.Printf("process %s timed out after %.1fs", to.ProcessID, to.ElapsedSeconds)
//	})
//
//	bus.SubscribeAll(func(e events.Event) {
//	    log.Printf("event: %s at %v", e.EventType(), e.Timestamp())
//	})
//
//	bus.Publish(events.NewProcessStartedEvent("proc-1", "codex", "/work"))
//
//	id := bus.Subscribe("queue.job-failed", handler)
//	bus.Unsubscribe(id)
//
// # Event Type Naming Convention
//
// Event types follow "category.action": process.started, process.timeout,
// progress.update, queue.job-enqueued, queue.job-failed.
package events
