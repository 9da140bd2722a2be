package summary

import (
	"context"
	"errors"
	"strings"
	"time"

	"StockBrief/internal/domain/models"
	dsvc "StockBrief/internal/domain/service"
	applogger "StockBrief/pkg/logger"
)

// Completer sends one prompt to a language model and returns the reply text.
type Completer interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// Service implements Summarizer on top of any Completer.
type Service struct {
	completer Completer
	log       *applogger.Logger
}

var _ dsvc.Summarizer = (*Service)(nil)

func New(c Completer, log *applogger.Logger) *Service {
	return &Service{
		completer: c,
		log:       log.With(applogger.String("component", "summary"), applogger.String("provider", c.Name())),
	}
}

var errEmptyReply = errors.New("empty response from model")

// Summarize never returns an error. An empty narrative short-circuits without a model call.
func (s *Service) Summarize(ctx context.Context, ticker string, p models.Position, news models.NewsResult) models.Summary {
	out := models.Summary{Ticker: ticker, Citations: news.Citations}
	if news.Empty() {
		out.Text = NoNewsText(ticker)
		out.Source = models.SummaryNoNews
		return out
	}

	start := time.Now()
	text, err := s.completer.Complete(ctx, BuildPrompt(ticker, p, news))
	if err == nil && strings.TrimSpace(text) == "" {
		err = errEmptyReply
	}
	if err != nil {
		s.log.Error("generate summary failed", applogger.String("ticker", ticker), applogger.Error(err))
		out.Text = ErrorText(ticker, err)
		out.Source = models.SummaryError
		return out
	}

	s.log.Debug("summary generated",
		applogger.String("ticker", ticker),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	out.Text = strings.TrimSpace(text)
	out.Source = models.SummaryFromModel
	return out
}
