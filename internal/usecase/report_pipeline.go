package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"StockBrief/internal/domain/models"
	drepo "StockBrief/internal/domain/repository"
	dsvc "StockBrief/internal/domain/service"
	"StockBrief/pkg/cache"
	applogger "StockBrief/pkg/logger"

	"github.com/google/uuid"
)

var (
	ErrLoginFailed = errors.New("login failed")
	ErrNoPositions = errors.New("no positions")
	ErrRunLocked   = errors.New("another run holds the lock")
)

// ReportBuilder renders the email for one run.
type ReportBuilder interface {
	Build(summaries map[string]models.Summary, positions models.Positions, date time.Time) (models.Report, error)
}

// ReportPipeline executes one daily run: positions, news, summaries, report, email, logout.
// Runs are sequential; Run must not be called concurrently.
type ReportPipeline struct {
	source     drepo.PositionSource
	news       drepo.NewsSource
	summarizer dsvc.Summarizer
	builder    ReportBuilder
	mailer     drepo.Mailer
	metrics    drepo.Metrics
	log        *applogger.Logger

	archive drepo.ReportArchive
	events  drepo.EventPublisher
	lock    drepo.RunLock

	newsLimit  int
	lockTTL    time.Duration
	runTimeout time.Duration
	now        func() time.Time

	mu      sync.RWMutex
	latest  *models.RunResult // last run that built a report
	lastRun *models.RunResult
}

// PipelineOption configures optional collaborators.
type PipelineOption func(*ReportPipeline)

func WithArchive(a drepo.ReportArchive) PipelineOption {
	return func(p *ReportPipeline) { p.archive = a }
}

func WithEventPublisher(e drepo.EventPublisher) PipelineOption {
	return func(p *ReportPipeline) { p.events = e }
}

// WithRunLock makes a run skip when another process already holds today's lock.
func WithRunLock(l drepo.RunLock, ttl time.Duration) PipelineOption {
	return func(p *ReportPipeline) {
		p.lock = l
		p.lockTTL = ttl
	}
}

func WithNewsLimit(n int) PipelineOption {
	return func(p *ReportPipeline) { p.newsLimit = n }
}

func WithRunTimeout(d time.Duration) PipelineOption {
	return func(p *ReportPipeline) { p.runTimeout = d }
}

func WithClock(now func() time.Time) PipelineOption {
	return func(p *ReportPipeline) { p.now = now }
}

func NewReportPipeline(
	source drepo.PositionSource,
	news drepo.NewsSource,
	summarizer dsvc.Summarizer,
	builder ReportBuilder,
	mailer drepo.Mailer,
	metrics drepo.Metrics,
	log *applogger.Logger,
	opts ...PipelineOption,
) *ReportPipeline {
	p := &ReportPipeline{
		source:     source,
		news:       news,
		summarizer: summarizer,
		builder:    builder,
		mailer:     mailer,
		metrics:    metrics,
		log:        log,
		newsLimit:  5,
		lockTTL:    30 * time.Minute,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the pipeline once. It never panics and never returns nil.
func (p *ReportPipeline) Run(ctx context.Context, trigger models.Trigger) *models.RunResult {
	if p.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.runTimeout)
		defer cancel()
	}

	res := &models.RunResult{
		RunID:     uuid.NewString(),
		Trigger:   trigger,
		StartedAt: p.now(),
	}
	log := p.log.With(applogger.String("run_id", res.RunID), applogger.String("trigger", string(trigger)))
	log.Info("starting daily stock report process")

	p.execute(ctx, res, log)

	res.States = append(res.States, models.StateDone)
	res.FinishedAt = p.now()
	p.finish(ctx, res, log)
	return res
}

// Latest returns the most recent run that produced a report.
func (p *ReportPipeline) Latest() (*models.RunResult, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.latest != nil
}

// LastRun returns the most recent finished run, aborted ones included.
func (p *ReportPipeline) LastRun() (*models.RunResult, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastRun, p.lastRun != nil
}

func (p *ReportPipeline) execute(ctx context.Context, res *models.RunResult, log *applogger.Logger) {
	var loggedIn bool
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			log.Error("run panicked", applogger.Error(err))
			p.abort(res, log, "panic", err)
			if loggedIn && !res.Reached(models.StateLoggedOut) {
				p.logout(ctx, res, log)
			}
		}
	}()

	res.States = append(res.States, models.StateStart)

	if p.lock != nil {
		key := cache.RunLockKey(res.StartedAt)
		ok, err := p.lock.TryLock(ctx, key, p.lockTTL)
		switch {
		case err != nil:
			log.Warn("run lock unavailable, continuing without it", applogger.Error(err))
		case !ok:
			p.abort(res, log, "locked", ErrRunLocked)
			return
		default:
			defer func() {
				if err := p.lock.Unlock(context.WithoutCancel(ctx), key); err != nil {
					log.Warn("release run lock", applogger.Error(err))
				}
			}()
		}
	}

	start := time.Now()
	if err := p.source.Login(ctx); err != nil {
		p.abort(res, log, "login", fmt.Errorf("%w: %v", ErrLoginFailed, err))
		return
	}
	loggedIn = true
	p.metrics.RecordLatency("login", time.Since(start).Seconds())
	res.States = append(res.States, models.StateAuthenticated)
	log.Info("authenticated")

	// from here on the session is always closed
	defer func() {
		if !res.Reached(models.StateLoggedOut) {
			p.logout(ctx, res, log)
		}
	}()

	start = time.Now()
	positions, err := p.source.Holdings(ctx)
	p.metrics.RecordLatency("positions", time.Since(start).Seconds())
	if err != nil {
		p.abort(res, log, "positions", fmt.Errorf("load positions: %w", err))
		return
	}
	if len(positions) == 0 {
		p.abort(res, log, "no_positions", ErrNoPositions)
		return
	}
	res.Positions = positions
	res.States = append(res.States, models.StatePositionsLoaded)
	p.metrics.RecordPositions(len(positions))
	log.Info("positions loaded", applogger.Int("count", len(positions)), applogger.Strings("tickers", positions.Tickers()))

	res.Summaries = make(map[string]models.Summary, len(positions))
	for _, ticker := range positions.Tickers() {
		res.Summaries[ticker] = p.summarize(ctx, ticker, positions[ticker], log)
	}
	res.States = append(res.States, models.StateSummarized)

	report, err := p.builder.Build(res.Summaries, positions, res.StartedAt)
	if err != nil {
		p.abort(res, log, "build", fmt.Errorf("build report: %w", err))
		return
	}
	report.RunID = res.RunID
	res.Report = &report
	res.States = append(res.States, models.StateReportBuilt)
	log.Info("report built", applogger.Int("sections", len(res.Summaries)))

	start = time.Now()
	if err := p.mailer.Send(ctx, report); err != nil {
		log.Error("failed to send email", applogger.Error(err))
		res.Error = err.Error()
	} else {
		res.EmailSent = true
		res.States = append(res.States, models.StateEmailSent)
		log.Info("email sent")
	}
	p.metrics.RecordLatency("email", time.Since(start).Seconds())

	p.logout(ctx, res, log)
}

func (p *ReportPipeline) summarize(ctx context.Context, ticker string, pos models.Position, log *applogger.Logger) models.Summary {
	tlog := log.With(applogger.String("ticker", ticker))

	start := time.Now()
	news := p.news.Fetch(ctx, ticker, p.newsLimit)
	p.metrics.RecordLatency("news", time.Since(start).Seconds())
	if news.Empty() {
		p.metrics.RecordTickerError("news")
		tlog.Warn("no news for ticker")
	}

	start = time.Now()
	s := p.summarizer.Summarize(ctx, ticker, pos, news)
	p.metrics.RecordLatency("summary", time.Since(start).Seconds())
	if s.Source == models.SummaryError {
		p.metrics.RecordTickerError("summary")
	}
	tlog.Info("ticker processed", applogger.String("source", string(s.Source)))
	return s
}

func (p *ReportPipeline) logout(ctx context.Context, res *models.RunResult, log *applogger.Logger) {
	// a cancelled run still gets its session closed
	lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	res.LoggedOut = true
	if err := p.source.Logout(lctx); err != nil {
		log.Error("logout failed", applogger.Error(err))
		res.LoggedOut = false
	}
	res.States = append(res.States, models.StateLoggedOut)
}

func (p *ReportPipeline) abort(res *models.RunResult, log *applogger.Logger, reason string, err error) {
	res.Aborted = true
	res.Error = err.Error()
	p.metrics.RecordAbort(reason)
	log.Error("run aborted", applogger.String("reason", reason), applogger.Error(err))
}

// finish runs best-effort side effects; none of them changes the outcome.
func (p *ReportPipeline) finish(ctx context.Context, res *models.RunResult, log *applogger.Logger) {
	p.metrics.RecordRun(string(res.Trigger), lastMeaningful(res), res.EmailSent)
	p.metrics.RecordLatency("run", res.FinishedAt.Sub(res.StartedAt).Seconds())

	p.mu.Lock()
	p.lastRun = res
	if res.Report != nil {
		p.latest = res
	}
	p.mu.Unlock()

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if p.archive != nil && res.Reached(models.StatePositionsLoaded) {
		if err := p.archive.Save(sctx, res); err != nil {
			log.Warn("archive run failed", applogger.Error(err))
		}
	}
	if p.events != nil {
		if err := p.events.PublishRun(sctx, res); err != nil {
			log.Warn("publish run event failed", applogger.Error(err))
		}
	}

	log.Info("daily stock report process completed",
		applogger.Bool("email_sent", res.EmailSent),
		applogger.Bool("aborted", res.Aborted),
		applogger.Duration("duration_ms", res.FinishedAt.Sub(res.StartedAt)),
	)
}

// lastMeaningful is the furthest state before Done and LoggedOut, used as the metric label.
func lastMeaningful(res *models.RunResult) models.RunState {
	for i := len(res.States) - 1; i >= 0; i-- {
		if s := res.States[i]; s != models.StateDone && s != models.StateLoggedOut {
			return s
		}
	}
	return models.StateStart
}
