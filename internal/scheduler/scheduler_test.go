package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shaiso/Tenders/internal/domain"
	"github.com/shaiso/Tenders/internal/mq"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fakeRunner struct {
	calls []domain.SyncSettings
	ids   []string
}

func (r *fakeRunner) RunWithID(_ context.Context, syncID string, settings domain.SyncSettings) domain.SyncResult {
	r.calls = append(r.calls, settings)
	r.ids = append(r.ids, syncID)
	return domain.SyncResult{Success: true, Message: "ok"}
}

type fakeDispatcher struct {
	payloads []mq.SyncRequestedPayload
	err      error
}

func (d *fakeDispatcher) PublishSyncRequested(_ context.Context, p mq.SyncRequestedPayload) error {
	if d.err != nil {
		return d.err
	}
	d.payloads = append(d.payloads, p)
	return nil
}

// --- NextDue Tests ---

func TestNextDue_Cron(t *testing.T) {
	from := time.Date(2025, 4, 17, 10, 15, 0, 0, time.UTC)
	sched := &domain.Schedule{CronExpr: "0 * * * *"}

	next, err := NextDue(sched, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 4, 17, 11, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestNextDue_CronTimezone(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	from := time.Date(2025, 4, 17, 0, 30, 0, 0, time.UTC) // 03:30 в UTC+3

	next, err := nextDueIn(&domain.Schedule{CronExpr: "0 6 * * *"}, from, loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 4, 17, 3, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestNextDue_Interval(t *testing.T) {
	from := time.Date(2025, 4, 17, 10, 0, 0, 0, time.UTC)

	next, err := NextDue(&domain.Schedule{IntervalSec: 90}, from)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !next.Equal(from.Add(90 * time.Second)) {
		t.Errorf("unexpected next %v", next)
	}
}

func TestNextDue_Invalid(t *testing.T) {
	if _, err := NextDue(&domain.Schedule{CronExpr: "bad"}, time.Now()); err == nil {
		t.Error("expected error for invalid cron")
	}
	if _, err := NextDue(&domain.Schedule{}, time.Now()); err == nil {
		t.Error("expected error for empty schedule")
	}
	if err := ValidateCronExpr("*/5 * * * *"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// --- Tick Tests ---

func TestTick_RunsDueSchedule(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 4, 17, 10, 0, 0, 0, time.UTC)}
	runner := &fakeRunner{}

	s := New(Config{
		Schedules: []domain.Schedule{
			{Name: "every-minute", IntervalSec: 60, Enabled: true, Settings: domain.SyncSettings{PageSize: domain.Int(10)}},
		},
		Runner: runner,
		Now:    clock.Now,
	})

	if n := s.Tick(context.Background()); n != 0 {
		t.Errorf("nothing should be due yet, triggered %d", n)
	}

	clock.now = clock.now.Add(time.Minute)
	if n := s.Tick(context.Background()); n != 1 {
		t.Fatalf("expected 1 trigger, got %d", n)
	}
	if len(runner.calls) != 1 || *runner.calls[0].PageSize != 10 {
		t.Errorf("schedule settings should be passed to the runner: %+v", runner.calls)
	}
	if runner.ids[0] == "" {
		t.Error("sync id should be generated")
	}

	scheds := s.Schedules()
	if scheds[0].LastRunAt == nil || !scheds[0].NextDueAt.Equal(clock.now.Add(time.Minute)) {
		t.Errorf("schedule not advanced: %+v", scheds[0])
	}

	// Повторный тик в ту же секунду ничего не запускает
	if n := s.Tick(context.Background()); n != 0 {
		t.Errorf("expected no trigger, got %d", n)
	}
}

func TestTick_PrefersDispatcher(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 4, 17, 10, 0, 0, 0, time.UTC)}
	runner := &fakeRunner{}
	dispatcher := &fakeDispatcher{}

	s := New(Config{
		Schedules:  []domain.Schedule{{Name: "hourly", CronExpr: "0 * * * *", Enabled: true}},
		Runner:     runner,
		Dispatcher: dispatcher,
		Now:        clock.Now,
	})

	clock.now = clock.now.Add(time.Hour)
	s.Tick(context.Background())

	if len(dispatcher.payloads) != 1 {
		t.Fatalf("expected 1 dispatched sync, got %d", len(dispatcher.payloads))
	}
	if dispatcher.payloads[0].Source != "scheduler" || dispatcher.payloads[0].SyncID == "" {
		t.Errorf("unexpected payload %+v", dispatcher.payloads[0])
	}
	if len(runner.calls) != 0 {
		t.Error("runner must not be used when a dispatcher is configured")
	}
}

func TestTick_DispatchFailureStillAdvances(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 4, 17, 10, 0, 0, 0, time.UTC)}
	dispatcher := &fakeDispatcher{err: errors.New("broker down")}

	s := New(Config{
		Schedules:  []domain.Schedule{{Name: "i", IntervalSec: 30, Enabled: true}},
		Dispatcher: dispatcher,
		Now:        clock.Now,
	})

	clock.now = clock.now.Add(30 * time.Second)
	if n := s.Tick(context.Background()); n != 0 {
		t.Errorf("failed dispatch must not count, got %d", n)
	}
	if next := s.Schedules()[0].NextDueAt; !next.After(clock.now) {
		t.Errorf("schedule should move forward after a failed attempt, next=%v", next)
	}
}

func TestNew_SkipsDisabledAndInvalid(t *testing.T) {
	s := New(Config{
		Schedules: []domain.Schedule{
			{Name: "off", IntervalSec: 60, Enabled: false},
			{Name: "broken", CronExpr: "nope", Enabled: true},
			{Name: "ok", IntervalSec: 60, Enabled: true},
		},
		Runner: &fakeRunner{},
	})

	scheds := s.Schedules()
	if len(scheds) != 1 || scheds[0].Name != "ok" {
		t.Errorf("expected only the valid enabled schedule, got %+v", scheds)
	}
}

func TestRun_TicksUntilCancelled(t *testing.T) {
	runner := &fakeRunner{}
	clock := &fakeClock{now: time.Date(2025, 4, 17, 10, 0, 0, 0, time.UTC)}

	s := New(Config{
		Schedules: []domain.Schedule{{Name: "fast", IntervalSec: 1, Enabled: true}},
		Runner:    runner,
		Now:       clock.Now,
	})
	clock.now = clock.now.Add(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}

	if len(runner.ids) == 0 {
		t.Error("expected at least one triggered sync")
	}
}
