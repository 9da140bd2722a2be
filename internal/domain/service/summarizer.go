package service

import (
	"context"

	"StockBrief/internal/domain/models"
)

// Summarizer turns a ticker's position and news into prose. It never fails:
// remote errors come back as an error sentence with SummaryError as source.
type Summarizer interface {
	Summarize(ctx context.Context, ticker string, position models.Position, news models.NewsResult) models.Summary
}
