package repository

import (
	"context"
	"time"

	"StockBrief/internal/domain/models"
	"StockBrief/internal/domain/repository"
	"StockBrief/pkg/util"
)

const (
	EventReportGenerated = "report.generated"
	EventRunAborted      = "run.aborted"
)

// MessageProducer is implemented by pkg/kafka.Producer.
type MessageProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// RunEvent is the JSON payload announced for every finished run.
type RunEvent struct {
	Type       string                          `json:"type"`
	RunID      string                          `json:"run_id"`
	Trigger    string                          `json:"trigger"`
	Date       string                          `json:"date"`
	StartedAt  time.Time                       `json:"started_at"`
	FinishedAt time.Time                       `json:"finished_at"`
	FinalState string                          `json:"final_state"`
	EmailSent  bool                            `json:"email_sent"`
	Error      string                          `json:"error,omitempty"`
	Tickers    []string                        `json:"tickers"`
	Sources    map[string]models.SummarySource `json:"sources,omitempty"`
}

// KafkaRunPublisher implements EventPublisher on a Kafka topic, keyed by run id.
type KafkaRunPublisher struct {
	producer MessageProducer
	topic    string
}

func NewKafkaRunPublisher(producer MessageProducer, topic string) *KafkaRunPublisher {
	return &KafkaRunPublisher{producer: producer, topic: topic}
}

var _ repository.EventPublisher = (*KafkaRunPublisher)(nil)

// NewRunEvent flattens a run into its event payload.
func NewRunEvent(run *models.RunResult) RunEvent {
	ev := RunEvent{
		Type:       EventReportGenerated,
		RunID:      run.RunID,
		Trigger:    string(run.Trigger),
		Date:       util.FormatDate(run.StartedAt),
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		FinalState: string(run.Last()),
		EmailSent:  run.EmailSent,
		Error:      run.Error,
		Tickers:    run.Positions.Tickers(),
	}
	if run.Report == nil {
		ev.Type = EventRunAborted
	}
	if len(run.Summaries) > 0 {
		ev.Sources = make(map[string]models.SummarySource, len(run.Summaries))
		for t, s := range run.Summaries {
			ev.Sources[t] = s.Source
		}
	}
	return ev
}

func (p *KafkaRunPublisher) PublishRun(ctx context.Context, run *models.RunResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(run.RunID), NewRunEvent(run))
}

func (p *KafkaRunPublisher) Close() error {
	return p.producer.Close()
}
