package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"StockBrief/internal/domain/models"
	applogger "StockBrief/pkg/logger"
	"StockBrief/pkg/util"
)

var ErrTriggerPending = errors.New("a manual run is already pending")

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, trigger models.Trigger) *models.RunResult
}

// Config controls when runs fire.
type Config struct {
	At             string // HH:MM
	Location       *time.Location
	PollInterval   time.Duration
	RunImmediately bool
}

// Daily fires the runner once a day at a fixed wall-clock time, plus on demand.
// All runs happen on the Start goroutine, so they never overlap.
type Daily struct {
	runner    Runner
	log       *applogger.Logger
	hour, min int
	loc       *time.Location
	poll      time.Duration
	immediate bool
	now       func() time.Time
	manual    chan struct{}

	mu      sync.RWMutex
	next    time.Time
	running bool
}

func New(runner Runner, cfg Config, log *applogger.Logger) (*Daily, error) {
	h, m, err := util.ParseClock(cfg.At)
	if err != nil {
		return nil, err
	}
	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", cfg.PollInterval)
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Daily{
		runner:    runner,
		log:       log.With(applogger.String("component", "scheduler")),
		hour:      h,
		min:       m,
		loc:       loc,
		poll:      cfg.PollInterval,
		immediate: cfg.RunImmediately,
		now:       time.Now,
		manual:    make(chan struct{}, 1),
	}, nil
}

// Trigger queues a manual run. Only one can be pending at a time.
func (d *Daily) Trigger() error {
	select {
	case d.manual <- struct{}{}:
		return nil
	default:
		return ErrTriggerPending
	}
}

// Next returns the next scheduled run time, zero before Start.
func (d *Daily) Next() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.next
}

// Running reports whether a run is in progress.
func (d *Daily) Running() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// Start blocks until ctx is done. A time missed while the process was down is not caught up.
func (d *Daily) Start(ctx context.Context) error {
	d.log.Info("scheduler started",
		applogger.String("at", fmt.Sprintf("%02d:%02d", d.hour, d.min)),
		applogger.String("location", d.loc.String()),
	)

	if d.immediate {
		d.log.Info("running report immediately")
		d.run(ctx, models.TriggerImmediate)
	}
	d.schedule()

	ticker := time.NewTicker(d.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.Info("scheduler stopped")
			return ctx.Err()
		case <-d.manual:
			d.run(ctx, models.TriggerManual)
		case <-ticker.C:
			if !d.now().Before(d.Next()) {
				d.run(ctx, models.TriggerSchedule)
				d.schedule()
			}
		}
	}
}

func (d *Daily) schedule() {
	next := util.NextDaily(d.now().In(d.loc), d.hour, d.min)
	d.mu.Lock()
	d.next = next
	d.mu.Unlock()
	d.log.Info("next run scheduled", applogger.String("next", next.Format(time.RFC3339)))
}

func (d *Daily) run(ctx context.Context, trigger models.Trigger) {
	d.mu.Lock()
	d.running = true
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	res := d.runner.Run(ctx, trigger)
	if res != nil {
		d.log.Info("run finished",
			applogger.String("run_id", res.RunID),
			applogger.String("trigger", string(trigger)),
			applogger.Bool("email_sent", res.EmailSent),
		)
	}
}
