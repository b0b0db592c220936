package undo_test

import (
	"slices"
	"testing"
	"time"

	"github.com/bigkaa/ejobportal/internal/undo"
	"github.com/bigkaa/ejobportal/internal/undo/undotest"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestRegistry_ScheduleTwiceFiresOnce(t *testing.T) {
	clock := undotest.NewManualClock(epoch)
	r := undo.NewRegistry(clock)

	var fired []string
	onFire := func(id string) { fired = append(fired, id) }

	r.Schedule([]string{"b"}, 10*time.Second, onFire)
	clock.Advance(time.Second)
	r.Schedule([]string{"b"}, 10*time.Second, onFire)

	if r.Len() != 1 {
		t.Fatalf("Len() = %d, хотели 1", r.Len())
	}
	if clock.Pending() != 1 {
		t.Fatalf("активных таймеров %d, хотели 1", clock.Pending())
	}

	clock.Advance(9 * time.Second)
	if len(fired) != 0 {
		t.Fatalf("таймер сработал по первому расписанию: %v", fired)
	}

	clock.Advance(time.Minute)
	if !slices.Equal(fired, []string{"b"}) {
		t.Errorf("сработали %v, хотели [b]", fired)
	}
	if r.Pending("b") {
		t.Error("запись b осталась в реестре после срабатывания")
	}
}

func TestRegistry_EntryTimes(t *testing.T) {
	clock := undotest.NewManualClock(epoch)
	r := undo.NewRegistry(clock)

	r.Schedule([]string{"a"}, 15*time.Second, func(string) {})

	e, ok := r.Entry("a")
	if !ok {
		t.Fatal("Entry(a) не найдена")
	}
	if !e.ScheduledAt.Equal(epoch) || !e.FireAt.Equal(epoch.Add(15*time.Second)) {
		t.Errorf("Entry(a) = {%v, %v}, хотели {%v, %v}", e.ScheduledAt, e.FireAt, epoch, epoch.Add(15*time.Second))
	}
	if _, ok := r.Entry("missing"); ok {
		t.Error("Entry(missing) найдена")
	}
}

func TestRegistry_CancelBeforeFire(t *testing.T) {
	clock := undotest.NewManualClock(epoch)
	r := undo.NewRegistry(clock)

	fired := 0
	r.Schedule([]string{"a", "b"}, 5*time.Second, func(string) { fired++ })

	if !r.Cancel("a") {
		t.Fatal("Cancel(a) = false, хотели true")
	}
	if r.Cancel("a") {
		t.Error("повторный Cancel(a) = true, хотели false")
	}
	if r.Cancel("missing") {
		t.Error("Cancel(missing) = true, хотели false")
	}

	clock.Advance(5 * time.Second)
	if fired != 1 {
		t.Errorf("сработало %d таймеров, хотели 1", fired)
	}
	if r.Cancel("b") {
		t.Error("Cancel(b) после срабатывания = true, хотели false")
	}
}

func TestRegistry_Stop(t *testing.T) {
	clock := undotest.NewManualClock(epoch)
	r := undo.NewRegistry(clock)

	fired := 0
	r.Schedule([]string{"c", "a", "b"}, 5*time.Second, func(string) { fired++ })

	stopped := r.Stop()
	if !slices.Equal(stopped, []string{"a", "b", "c"}) {
		t.Errorf("Stop() = %v, хотели [a b c]", stopped)
	}
	if r.Len() != 0 {
		t.Errorf("Len() после Stop = %d, хотели 0", r.Len())
	}

	clock.Advance(time.Minute)
	if fired != 0 {
		t.Errorf("после Stop сработало %d таймеров", fired)
	}
}
