package repository

import (
	"context"
	"database/sql"
	"fmt"

	"StockBrief/internal/domain/models"
	"StockBrief/internal/domain/repository"
	"StockBrief/pkg/util"

	"github.com/shopspring/decimal"
)

// ClickHouseReportStore archives finished runs and their per-ticker rows.
type ClickHouseReportStore struct {
	db       *sql.DB
	database string
}

// NewClickHouseReportStore creates the archive on top of an open pool.
func NewClickHouseReportStore(db *sql.DB, database string) *ClickHouseReportStore {
	return &ClickHouseReportStore{db: db, database: database}
}

var _ repository.ReportArchive = (*ClickHouseReportStore)(nil)

// SchemaStatements returns the idempotent DDL for database.
func SchemaStatements(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.report_runs (
    run_id       String,
    report_date  Date,
    trigger      LowCardinality(String),
    started_at   DateTime64(3),
    finished_at  DateTime64(3),
    final_state  LowCardinality(String),
    email_sent   UInt8,
    logged_out   UInt8,
    aborted      UInt8,
    error        String,
    positions    UInt32,
    subject      String,
    html         String CODEC(ZSTD(3))
) ENGINE = MergeTree
ORDER BY (report_date, started_at, run_id)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.report_positions (
    run_id            String,
    report_date       Date,
    ticker            LowCardinality(String),
    quantity          Nullable(Decimal(38, 8)),
    equity            Nullable(Decimal(38, 8)),
    average_buy_price Nullable(Decimal(38, 8)),
    percent_change    Nullable(Decimal(38, 8)),
    summary           String,
    summary_source    LowCardinality(String),
    citations         Array(String)
) ENGINE = MergeTree
ORDER BY (ticker, report_date, run_id)`, database),
	}
}

type positionRow struct {
	Ticker          string
	Quantity        *decimal.Decimal
	Equity          *decimal.Decimal
	AverageBuyPrice *decimal.Decimal
	PercentChange   *decimal.Decimal
	Summary         string
	Source          string
	Citations       []string
}

// positionRows joins positions with summaries, in ticker order.
func positionRows(run *models.RunResult) []positionRow {
	rows := make([]positionRow, 0, len(run.Positions))
	for _, t := range run.Positions.Tickers() {
		p := run.Positions[t]
		s := run.Summaries[t]
		citations := s.Citations
		if citations == nil {
			citations = []string{}
		}
		rows = append(rows, positionRow{
			Ticker:          t,
			Quantity:        p.Quantity,
			Equity:          p.Equity,
			AverageBuyPrice: p.AverageBuyPrice,
			PercentChange:   p.PercentChange,
			Summary:         s.Text,
			Source:          string(s.Source),
			Citations:       citations,
		})
	}
	return rows
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// Save writes one run row and one row per position in a single batch each.
func (s *ClickHouseReportStore) Save(ctx context.Context, run *models.RunResult) error {
	var subject, html string
	if run.Report != nil {
		subject, html = run.Report.Subject, run.Report.HTML
	}
	day := util.FormatDate(run.StartedAt)

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s.report_runs
        (run_id, report_date, trigger, started_at, finished_at, final_state, email_sent, logged_out, aborted, error, positions, subject, html)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.database),
		run.RunID,
		run.StartedAt,
		string(run.Trigger),
		run.StartedAt,
		run.FinishedAt,
		string(run.Last()),
		boolToUInt8(run.EmailSent),
		boolToUInt8(run.LoggedOut),
		boolToUInt8(run.Aborted),
		run.Error,
		uint32(len(run.Positions)),
		subject,
		html,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", run.RunID, err)
	}

	rows := positionRows(run)
	if len(rows) == 0 {
		return nil
	}

	// clickhouse-go batches every Exec of a prepared INSERT inside one transaction
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s.report_positions
        (run_id, report_date, ticker, quantity, equity, average_buy_price, percent_change, summary, summary_source, citations)`, s.database))
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare batch: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx,
			run.RunID, run.StartedAt, r.Ticker,
			r.Quantity, r.Equity, r.AverageBuyPrice, r.PercentChange,
			r.Summary, r.Source, r.Citations,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("append %s (%s): %w", r.Ticker, day, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// Close is a no-op: the pool belongs to the ClickHouse client.
func (s *ClickHouseReportStore) Close() error { return nil }
