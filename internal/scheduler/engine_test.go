package scheduler

import (
	"testing"
	"time"
)

func TestEngineEmitsInTriggerOrder(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	now := time.Now().UTC()
	if err := engine.Schedule(TickEvent{ID: 2, Tag: "later", TriggerAt: now.Add(80 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule later: %v", err)
	}
	if err := engine.Schedule(TickEvent{ID: 1, Tag: "sooner", TriggerAt: now.Add(20 * time.Millisecond)}); err != nil {
		t.Fatalf("schedule sooner: %v", err)
	}

	first := waitEvent(t, engine.C(), time.Second)
	second := waitEvent(t, engine.C(), time.Second)
	if first.Tag != "sooner" || second.Tag != "later" {
		t.Fatalf("unexpected order: first=%s second=%s", first.Tag, second.Tag)
	}
}

func TestEngineRearmsPeriodicEvents(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	if err := engine.Schedule(TickEvent{ID: 7, TriggerAt: time.Now().UTC().Add(10 * time.Millisecond), Every: 15 * time.Millisecond}); err != nil {
		t.Fatalf("schedule periodic: %v", err)
	}
	for i := 0; i < 3; i++ {
		ev := waitEvent(t, engine.C(), time.Second)
		if ev.ID != 7 {
			t.Fatalf("unexpected tick id %d", ev.ID)
		}
	}
	if engine.Pending() != 1 {
		t.Fatalf("expected periodic event to stay queued, pending=%d", engine.Pending())
	}
}

func TestEngineCancelRemovesPendingEvents(t *testing.T) {
	engine := NewEngine(8)
	now := time.Now().UTC().Add(time.Hour)
	for _, id := range []uint64{1, 2, 1} {
		if err := engine.Schedule(TickEvent{ID: id, TriggerAt: now, Every: time.Second}); err != nil {
			t.Fatalf("schedule %d: %v", id, err)
		}
	}

	if removed := engine.Cancel(1); removed != 2 {
		t.Fatalf("expected 2 removed events, got %d", removed)
	}
	if removed := engine.Cancel(1); removed != 0 {
		t.Fatalf("expected idempotent cancel, got %d", removed)
	}
	if engine.Pending() != 1 {
		t.Fatalf("expected one pending event, got %d", engine.Pending())
	}
}

func TestEngineCancelledEventNeverFires(t *testing.T) {
	engine := NewEngine(8)
	engine.Start()
	defer engine.Stop()

	if err := engine.Schedule(TickEvent{ID: 9, TriggerAt: time.Now().UTC().Add(40 * time.Millisecond), Every: 10 * time.Millisecond}); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	engine.Cancel(9)

	select {
	case ev := <-engine.C():
		t.Fatalf("unexpected firing after cancel: %+v", ev)
	case <-time.After(120 * time.Millisecond):
	}
}

func TestEngineNonBlockingDropsWhenConsumerIsSlow(t *testing.T) {
	engine := NewEngine(1)
	engine.Start()
	defer engine.Stop()

	now := time.Now().UTC().Add(20 * time.Millisecond)
	for i := 0; i < 25; i++ {
		if err := engine.Schedule(TickEvent{
			ID:        uint64(i + 1),
			TriggerAt: now,
		}); err != nil {
			t.Fatalf("schedule event: %v", err)
		}
	}

	time.Sleep(120 * time.Millisecond)
	if engine.Dropped() == 0 {
		t.Fatalf("expected dropped events > 0, got %d", engine.Dropped())
	}
}

func TestScheduleValidatesEvent(t *testing.T) {
	engine := NewEngine(1)
	if err := engine.Schedule(TickEvent{ID: 1}); err != ErrInvalidTriggerTime {
		t.Fatalf("expected ErrInvalidTriggerTime, got %v", err)
	}
	if err := engine.Schedule(TickEvent{TriggerAt: time.Now()}); err != ErrInvalidTickID {
		t.Fatalf("expected ErrInvalidTickID, got %v", err)
	}
	engine.Stop()
	if err := engine.Schedule(TickEvent{ID: 1, TriggerAt: time.Now()}); err != ErrEngineStopped {
		t.Fatalf("expected ErrEngineStopped, got %v", err)
	}
}

func TestTickerStartStop(t *testing.T) {
	engine := NewEngine(4)
	ticker := NewTicker(engine, time.Second)

	if err := ticker.Start(3, "focus"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if engine.Pending() != 1 {
		t.Fatalf("expected one pending tick, got %d", engine.Pending())
	}
	ticker.Stop(3)
	ticker.Stop(3)
	if engine.Pending() != 0 {
		t.Fatalf("expected no pending ticks, got %d", engine.Pending())
	}
}

func waitEvent(t *testing.T, ch <-chan TickEvent, timeout time.Duration) TickEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for event")
		return TickEvent{}
	}
}
