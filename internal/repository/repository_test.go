package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"StockBrief/internal/domain/models"
)

func sampleRun() *models.RunResult {
	started := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	return &models.RunResult{
		RunID:      "run-1",
		Trigger:    models.TriggerSchedule,
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		States:     []models.RunState{models.StateStart, models.StateReportBuilt, models.StateDone},
		Positions: models.Positions{
			"TSLA": {Ticker: "TSLA", Quantity: models.Dec("2")},
			"AAPL": {Ticker: "AAPL", Quantity: models.Dec("10"), Equity: models.Dec("1500")},
		},
		Summaries: map[string]models.Summary{
			"AAPL": {Ticker: "AAPL", Text: "up", Source: models.SummaryFromModel, Citations: []string{"https://a"}},
			"TSLA": {Ticker: "TSLA", Text: "No recent news found for TSLA.", Source: models.SummaryNoNews},
		},
		Report:    &models.Report{Subject: "s", HTML: "<p>x</p>"},
		EmailSent: true,
	}
}

func TestPositionRowsSortedWithCitations(t *testing.T) {
	rows := positionRows(sampleRun())
	if len(rows) != 2 || rows[0].Ticker != "AAPL" || rows[1].Ticker != "TSLA" {
		t.Fatalf("rows %+v", rows)
	}
	if rows[0].Equity.String() != "1500" || rows[1].Equity != nil {
		t.Fatal("equity should carry through, nil stays nil")
	}
	if rows[1].Citations == nil || rows[1].Source != "no_news" {
		t.Fatalf("second row %+v", rows[1])
	}
}

func TestSchemaStatementsUseDatabase(t *testing.T) {
	stmts := SchemaStatements("brief")
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(stmts))
	}
	for _, want := range []string{"DATABASE IF NOT EXISTS brief", "brief.report_runs", "brief.report_positions"} {
		found := false
		for _, s := range stmts {
			if strings.Contains(s, want) {
				found = true
			}
		}
		if !found {
			t.Errorf("no statement contains %q", want)
		}
	}
}

type captureProducer struct {
	topic string
	key   []byte
	value interface{}
}

func (c *captureProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	c.topic, c.key, c.value = topic, key, value
	return nil
}

func (c *captureProducer) Close() error { return nil }

func TestKafkaRunPublisher(t *testing.T) {
	cp := &captureProducer{}
	p := NewKafkaRunPublisher(cp, "stockbrief.reports")

	if err := p.PublishRun(context.Background(), sampleRun()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	ev, ok := cp.value.(RunEvent)
	if !ok {
		t.Fatalf("unexpected payload %T", cp.value)
	}
	if cp.topic != "stockbrief.reports" || string(cp.key) != "run-1" {
		t.Fatalf("topic %s key %s", cp.topic, cp.key)
	}
	if ev.Type != EventReportGenerated || ev.Date != "2024-05-01" || ev.FinalState != "done" || !ev.EmailSent {
		t.Fatalf("event %+v", ev)
	}
	if len(ev.Tickers) != 2 || ev.Tickers[0] != "AAPL" || ev.Sources["TSLA"] != models.SummaryNoNews {
		t.Fatalf("event tickers %+v", ev)
	}

	aborted := &models.RunResult{RunID: "run-2", Aborted: true, Error: "login failed"}
	if ev := NewRunEvent(aborted); ev.Type != EventRunAborted || len(ev.Tickers) != 0 {
		t.Fatalf("aborted event %+v", ev)
	}
}
