package sonar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"StockBrief/internal/domain/models"
	drepo "StockBrief/internal/domain/repository"
	"StockBrief/internal/service/ratelimit"
	"StockBrief/pkg/cache"
	pkghttp "StockBrief/pkg/http"
	applogger "StockBrief/pkg/logger"
)

const DefaultLimit = 5

// Config holds the Perplexity endpoint settings.
type Config struct {
	URL        string
	APIKey     string
	Model      string
	CacheTTL   time.Duration
	RatePerSec float64
}

// Client implements NewsSource using the Perplexity Sonar chat completions API.
type Client struct {
	cfg     Config
	http    *pkghttp.Client
	log     *applogger.Logger
	cache   cache.Service
	limiter *ratelimit.Limiter
	now     func() time.Time
}

// Option configures Client.
type Option func(*Client)

// WithCache stores successful results per ticker and day.
func WithCache(c cache.Service) Option {
	return func(cl *Client) {
		cl.cache = c
	}
}

// WithLimiter throttles outgoing requests.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(cl *Client) {
		cl.limiter = l
	}
}

// WithHTTPOptions forwards options to the underlying HTTP client.
func WithHTTPOptions(opts ...pkghttp.ClientOption) Option {
	return func(cl *Client) {
		opts = append([]pkghttp.ClientOption{pkghttp.WithName("sonar")}, opts...)
		cl.http = pkghttp.NewClient(opts...)
	}
}

func New(cfg Config, log *applogger.Logger, opts ...Option) *Client {
	if cfg.Model == "" {
		cfg.Model = "sonar"
	}
	c := &Client{
		cfg:  cfg,
		http: pkghttp.NewClient(pkghttp.WithName("sonar")),
		log:  log.With(applogger.String("component", "sonar")),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ drepo.NewsSource = (*Client)(nil)

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations"`
}

// Prompt is the question sent for one ticker.
func Prompt(ticker string, limit int) string {
	return fmt.Sprintf("Give me the %d most recent and relevant news articles for %s stock.", limit, ticker)
}

// Fetch returns the news narrative for ticker. Any failure yields an empty result.
func (c *Client) Fetch(ctx context.Context, ticker string, limit int) models.NewsResult {
	if limit <= 0 {
		limit = DefaultLimit
	}
	log := c.log.With(applogger.String("ticker", ticker))

	key := cache.NewsKey(c.now(), ticker, limit)
	if c.cache != nil {
		if cached, err := cache.GetTyped[models.NewsResult](ctx, c.cache, key); err == nil {
			log.Debug("news served from cache")
			return cached
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn("news cache read failed", applogger.Error(err))
		}
	}

	res, err := c.fetch(ctx, ticker, limit)
	if err != nil {
		log.Error("fetch news failed", applogger.Error(err))
		return models.EmptyNews(ticker)
	}

	if c.cache != nil && !res.Empty() {
		if err := c.cache.Set(ctx, key, res, c.cfg.CacheTTL); err != nil {
			log.Warn("news cache write failed", applogger.Error(err))
		}
	}
	log.Info("news fetched", applogger.Int("citations", len(res.Citations)))
	return res
}

func (c *Client) fetch(ctx context.Context, ticker string, limit int) (models.NewsResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, "sonar", 1, c.cfg.RatePerSec); err != nil {
			return models.NewsResult{}, fmt.Errorf("rate limit: %w", err)
		}
	}

	var resp completionResponse
	err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    c.cfg.URL,
		Headers: map[string]string{
			"Authorization": "Bearer " + c.cfg.APIKey,
			"Content-Type":  "application/json",
		},
		Body: completionRequest{
			Model:    c.cfg.Model,
			Messages: []message{{Role: "user", Content: Prompt(ticker, limit)}},
		},
	}, &resp)
	if err != nil {
		return models.NewsResult{}, err
	}
	if len(resp.Choices) == 0 {
		return models.NewsResult{}, errors.New("no choices in response")
	}

	citations := resp.Citations
	if citations == nil {
		citations = []string{}
	}
	return models.NewsResult{
		Ticker:    ticker,
		News:      strings.TrimSpace(resp.Choices[0].Message.Content),
		Citations: citations,
	}, nil
}
