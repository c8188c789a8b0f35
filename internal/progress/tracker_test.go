package progress

import (
	"sync"
	"testing"
	"time"

	"github.com/codeauditor/codeauditor/internal/events"
)

func collectEvents(bus *events.Bus) (*[]events.Event, func()) {
	var mu sync.Mutex
	var got []events.Event
	id := bus.SubscribeAll(func(e events.Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	})
	return &got, func() { bus.Unsubscribe(id) }
}

func TestStartTracking_RespectsMaxConcurrent(t *testing.T) {
	tr := New(time.Hour, time.Hour, 1, nil)
	defer tr.Stop()

	tr.StartTracking("a")
	tr.StartTracking("b")

	tr.mu.Lock()
	_, hasA := tr.audits["a"]
	_, hasB := tr.audits["b"]
	tr.mu.Unlock()

	if !hasA {
		t.Error("first StartTracking() call should be tracked")
	}
	if hasB {
		t.Error("StartTracking() beyond maxConcurrent should not be tracked")
	}
}

func TestUpdateStage_ResetsStageProgress(t *testing.T) {
	tr := New(time.Hour, time.Hour, 5, nil)
	defer tr.Stop()

	tr.StartTracking("a")
	tr.UpdateProgress("a", 80, "")
	tr.UpdateStage("a", StageRunningChecks, "checking")

	tr.mu.Lock()
	a := tr.audits["a"]
	tr.mu.Unlock()

	if a.stage != StageRunningChecks || a.stageProgess != 0 {
		t.Errorf("UpdateStage() = %+v, want stage reset to 0 progress", a)
	}
}

func TestPercentage_WeightedAcrossStages(t *testing.T) {
	tr := New(time.Hour, time.Hour, 5, nil)
	defer tr.Stop()

	tr.StartTracking("a")
	tr.UpdateStage("a", StageRunningChecks, "")
	tr.UpdateProgress("a", 50, "")

	tr.mu.Lock()
	pct := tr.audits["a"].percentage()
	tr.mu.Unlock()

	// floor for running_checks = 5+10+15 = 30, weight 40, half done = +20
	want := 50
	if pct != want {
		t.Errorf("percentage() = %d, want %d", pct, want)
	}
}

func TestCompleteTracking_Success(t *testing.T) {
	bus := events.NewBus()
	got, cleanup := collectEvents(bus)
	defer cleanup()

	tr := New(time.Hour, time.Hour, 5, bus)
	defer tr.Stop()

	tr.StartTracking("a")
	tr.CompleteTracking("a", true)

	tr.mu.Lock()
	_, stillTracked := tr.audits["a"]
	tr.mu.Unlock()
	if stillTracked {
		t.Error("CompleteTracking() should stop tracking the audit")
	}

	if len(*got) != 2 {
		t.Fatalf("got %d events, want 2 (update + complete)", len(*got))
	}
	update, ok := (*got)[0].(events.ProgressUpdateEvent)
	if !ok || update.Percentage != 100 {
		t.Errorf("final update = %+v, want percentage 100", (*got)[0])
	}
	complete, ok := (*got)[1].(events.ProgressCompleteEvent)
	if !ok || !complete.Success {
		t.Errorf("complete event = %+v, want success", (*got)[1])
	}
}

func TestCompleteTracking_Failure(t *testing.T) {
	tr := New(time.Hour, time.Hour, 5, nil)
	defer tr.Stop()

	tr.StartTracking("a")
	tr.UpdateStage("a", StageAnalyzingStruct, "")
	tr.CompleteTracking("a", false)

	tr.mu.Lock()
	_, stillTracked := tr.audits["a"]
	tr.mu.Unlock()
	if stillTracked {
		t.Error("CompleteTracking() should stop tracking a failed audit too")
	}
}

func TestCompleteTracking_UnknownAuditIsNoop(t *testing.T) {
	tr := New(time.Hour, time.Hour, 5, nil)
	defer tr.Stop()

	tr.CompleteTracking("never-started", true)
}

func TestPeriodicEmitter_OnlyEmitsActivated(t *testing.T) {
	bus := events.NewBus()
	got, cleanup := collectEvents(bus)
	defer cleanup()

	tr := New(10*time.Millisecond, 20*time.Millisecond, 5, bus)
	defer tr.Stop()

	tr.StartTracking("a")
	time.Sleep(80 * time.Millisecond)

	if len(*got) == 0 {
		t.Error("periodic emitter should have published at least one update after activation")
	}
}

func TestStageFloor_Monotonic(t *testing.T) {
	prev := -1
	for _, s := range stageOrder {
		f := stageFloor(s)
		if f <= prev {
			t.Errorf("stageFloor(%s) = %d, should increase monotonically", s, f)
		}
		prev = f
	}
	total := stageFloor(StageFinalizing) + stageWeights[StageFinalizing]
	if total != 100 {
		t.Errorf("stage weights sum to %d, want 100", total)
	}
}
