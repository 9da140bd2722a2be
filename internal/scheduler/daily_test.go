package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"StockBrief/internal/domain/models"
	applogger "StockBrief/pkg/logger"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

type recorder struct {
	runs chan models.Trigger
}

func (r *recorder) Run(_ context.Context, trigger models.Trigger) *models.RunResult {
	r.runs <- trigger
	return &models.RunResult{RunID: "id", Trigger: trigger}
}

func newDaily(t *testing.T, immediate bool, clk *clock) (*Daily, *recorder) {
	rec := &recorder{runs: make(chan models.Trigger, 10)}
	d, err := New(rec, Config{At: "08:00", Location: time.UTC, PollInterval: 2 * time.Millisecond, RunImmediately: immediate}, applogger.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	d.now = clk.Now
	return d, rec
}

func expectRun(t *testing.T, rec *recorder, want models.Trigger) {
	t.Helper()
	select {
	case got := <-rec.runs:
		if got != want {
			t.Fatalf("expected %s run, got %s", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s run", want)
	}
}

func expectNoRun(t *testing.T, rec *recorder) {
	t.Helper()
	select {
	case got := <-rec.runs:
		t.Fatalf("unexpected %s run", got)
	case <-time.After(30 * time.Millisecond):
	}
}

func TestDailyRunsAtScheduledTime(t *testing.T) {
	clk := &clock{t: time.Date(2024, 5, 1, 7, 59, 0, 0, time.UTC)}
	d, rec := newDaily(t, false, clk)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Start(ctx) }()

	expectNoRun(t, rec)
	if want := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC); !d.Next().Equal(want) {
		t.Fatalf("next = %v", d.Next())
	}

	clk.Set(time.Date(2024, 5, 1, 8, 0, 30, 0, time.UTC))
	expectRun(t, rec, models.TriggerSchedule)
	expectNoRun(t, rec)

	if want := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC); !d.Next().Equal(want) {
		t.Fatalf("after a run next should be tomorrow, got %v", d.Next())
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("start returned %v", err)
	}
}

func TestDailyImmediateRunFiresOnce(t *testing.T) {
	clk := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	d, rec := newDaily(t, true, clk)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Start(ctx) }()

	expectRun(t, rec, models.TriggerImmediate)
	expectNoRun(t, rec)
	// 12:00 start: today's 08:00 is already gone and is not caught up
	if want := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC); !d.Next().Equal(want) {
		t.Fatalf("next = %v", d.Next())
	}
}

func TestDailyManualTrigger(t *testing.T) {
	clk := &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	d, rec := newDaily(t, false, clk)

	if err := d.Trigger(); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if err := d.Trigger(); !errors.Is(err, ErrTriggerPending) {
		t.Fatalf("second trigger should be rejected, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Start(ctx) }()

	expectRun(t, rec, models.TriggerManual)
	expectNoRun(t, rec)
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(&recorder{}, Config{At: "25:00", PollInterval: time.Second}, applogger.Nop()); err == nil {
		t.Fatal("expected clock parse error")
	}
	if _, err := New(&recorder{}, Config{At: "08:00"}, applogger.Nop()); err == nil {
		t.Fatal("expected poll interval error")
	}
}
