// Package procmanager is the sole owner of child-process lifecycle for the
// audit pipeline: every invocation of the judge binary, from the validator's
// version check to the judge client's review request, goes through a
// Manager.
//
// # Concurrency
//
// A Manager bounds the number of simultaneous children to a configured cap;
// requests beyond the cap wait for a free slot up to a queue timeout before
// failing. A per-call timeout governs each child: on expiry the child is
// sent a graceful termination signal, then force-killed if it has not exited
// within the cleanup window. No child is ever left running past
// TerminateAllProcesses.
//
// # Observability
//
// A Manager optionally publishes lifecycle and health events to an
// [github.com/codeauditor/codeauditor/internal/events.Bus] so other
// components (progress reporting, diagnostics) can observe process
// behavior without coupling to the manager directly.
package procmanager
