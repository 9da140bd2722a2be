package repository

import (
	"context"
	"time"

	"StockBrief/internal/domain/models"
)

// PositionSource is the brokerage session: login, read holdings, logout.
type PositionSource interface {
	Login(ctx context.Context) error
	// Holdings returns only positions with a strictly positive quantity.
	Holdings(ctx context.Context) (models.Positions, error)
	Logout(ctx context.Context) error
}

// NewsSource never fails: errors are logged and an empty result is returned.
type NewsSource interface {
	Fetch(ctx context.Context, ticker string, limit int) models.NewsResult
}

type Mailer interface {
	Send(ctx context.Context, report models.Report) error
}

// ReportArchive stores finished runs for later inspection.
type ReportArchive interface {
	Save(ctx context.Context, run *models.RunResult) error
	Close() error
}

// EventPublisher announces finished runs to downstream consumers.
type EventPublisher interface {
	PublishRun(ctx context.Context, run *models.RunResult) error
	Close() error
}

// RunLock keeps two replicas from mailing the same report.
type RunLock interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

type Metrics interface {
	RecordRun(trigger string, final models.RunState, emailSent bool)
	RecordAbort(reason string)
	RecordTickerError(stage string)
	RecordPositions(n int)
	RecordLatency(op string, seconds float64)
}
