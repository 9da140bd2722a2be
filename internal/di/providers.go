package di

import (
	"context"
	"fmt"
	"time"

	"StockBrief/internal/domain/repository"
	dsvc "StockBrief/internal/domain/service"
	"StockBrief/internal/handler/api"
	internalrepo "StockBrief/internal/repository"
	"StockBrief/internal/scheduler"
	"StockBrief/internal/service/mailer"
	servicemetrics "StockBrief/internal/service/metrics"
	"StockBrief/internal/service/ratelimit"
	"StockBrief/internal/service/robinhood"
	"StockBrief/internal/service/sonar"
	"StockBrief/internal/services/report"
	"StockBrief/internal/services/summary"
	"StockBrief/internal/usecase"
	pkgcache "StockBrief/pkg/cache"
	pkgch "StockBrief/pkg/clickhouse"
	"StockBrief/pkg/config"
	pkghttp "StockBrief/pkg/http"
	pkgkafka "StockBrief/pkg/kafka"
	applogger "StockBrief/pkg/logger"
	"StockBrief/pkg/metrics"
	"StockBrief/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

// Optional clients (Redis, Kafka, ClickHouse) are nil when disabled in config.
// Providers that consume them must check for nil before wrapping them in interfaces.

// ProvideLogger creates the application logger. The cleanup closes the log file.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	return l, func() { _ = l.Close() }, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	servicemetrics.Register()
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideRedisCache connects to Redis when enabled.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := pkgcache.NewRedisCache(context.Background(),
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideNewsCache layers memory over Redis, or uses memory alone.
func ProvideNewsCache(rc *pkgcache.RedisCache) pkgcache.Service {
	if rc == nil {
		return pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(500))
	}
	return pkgcache.NewLayeredCache(rc, pkgcache.WithLayeredMemorySize(500))
}

// ProvideKafkaProducer creates a Kafka producer when enabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideClickHouseClient connects to ClickHouse and prepares the archive tables when enabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if err := client.InitSchema(ctx, internalrepo.SchemaStatements(client.Database())); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

func httpOptions(timeout time.Duration) []pkghttp.ClientOption {
	return []pkghttp.ClientOption{
		pkghttp.WithTimeout(timeout),
		pkghttp.WithObserver(servicemetrics.Observe),
	}
}

// ProvidePositionSource creates the Robinhood client.
func ProvidePositionSource(cfg *config.Config, l *applogger.Logger) repository.PositionSource {
	return robinhood.New(robinhood.Config{
		BaseURL:  cfg.Robinhood.BaseURL,
		Username: cfg.Robinhood.Username,
		Password: cfg.Robinhood.Password,
		MFACode:  cfg.Robinhood.MFACode,
		ClientID: cfg.Robinhood.ClientID,
	}, l, httpOptions(cfg.Robinhood.Timeout)...)
}

// ProvideNewsSource creates the Perplexity Sonar client with cache and throttle.
func ProvideNewsSource(cfg *config.Config, l *applogger.Logger, c pkgcache.Service) repository.NewsSource {
	return sonar.New(sonar.Config{
		URL:        cfg.News.URL,
		APIKey:     cfg.News.APIKey,
		Model:      cfg.News.Model,
		CacheTTL:   cfg.News.CacheTTL,
		RatePerSec: cfg.News.RatePerSec,
	}, l,
		sonar.WithCache(c),
		sonar.WithLimiter(ratelimit.New()),
		sonar.WithHTTPOptions(httpOptions(cfg.News.Timeout)...),
	)
}

// ProvideSummarizer picks the model provider from config.
func ProvideSummarizer(cfg *config.Config, l *applogger.Logger) (dsvc.Summarizer, error) {
	var completer summary.Completer
	switch cfg.Summary.Provider {
	case "gemini":
		g, err := summary.NewGemini(context.Background(), summary.GeminiConfig{
			APIKey:      cfg.Summary.GeminiKey,
			Model:       cfg.Summary.GeminiModel,
			MaxTokens:   cfg.Summary.MaxTokens,
			Temperature: cfg.Summary.Temperature,
		})
		if err != nil {
			return nil, err
		}
		completer = g
	default:
		completer = summary.NewOpenAI(summary.OpenAIConfig{
			URL:         cfg.Summary.OpenAIURL,
			APIKey:      cfg.Summary.OpenAIKey,
			Model:       cfg.Summary.Model,
			MaxTokens:   cfg.Summary.MaxTokens,
			Temperature: cfg.Summary.Temperature,
		}, httpOptions(cfg.Summary.Timeout)...)
	}
	return summary.New(completer, l), nil
}

func ProvideReportBuilder() usecase.ReportBuilder {
	return report.NewBuilder()
}

func ProvideMailer(cfg *config.Config, l *applogger.Logger) repository.Mailer {
	return mailer.New(mailer.Config{
		Host:      cfg.Email.Host,
		Port:      cfg.Email.Port,
		From:      cfg.Email.Address,
		Password:  cfg.Email.AppPassword,
		Recipient: cfg.Email.Recipient,
		Timeout:   cfg.Email.Timeout,
	}, l)
}

// ProvideReportPipeline assembles the run use case with whatever optional sinks are enabled.
func ProvideReportPipeline(
	cfg *config.Config,
	l *applogger.Logger,
	source repository.PositionSource,
	news repository.NewsSource,
	summarizer dsvc.Summarizer,
	builder usecase.ReportBuilder,
	mail repository.Mailer,
	m repository.Metrics,
	rc *pkgcache.RedisCache,
	producer *pkgkafka.Producer,
	ch *pkgch.Client,
) *usecase.ReportPipeline {
	opts := []usecase.PipelineOption{
		usecase.WithNewsLimit(cfg.News.Limit),
		usecase.WithRunTimeout(cfg.Schedule.RunTimeout),
	}
	if rc != nil {
		opts = append(opts, usecase.WithRunLock(rc, cfg.Redis.LockTTL))
	}
	if producer != nil {
		opts = append(opts, usecase.WithEventPublisher(internalrepo.NewKafkaRunPublisher(producer, cfg.Kafka.Topic)))
	}
	if ch != nil {
		opts = append(opts, usecase.WithArchive(internalrepo.NewClickHouseReportStore(ch.DB(), ch.Database())))
	}
	return usecase.NewReportPipeline(source, news, summarizer, builder, mail, m, l, opts...)
}

// ProvideScheduler creates the daily trigger loop.
func ProvideScheduler(cfg *config.Config, l *applogger.Logger, p *usecase.ReportPipeline) (*scheduler.Daily, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return scheduler.New(p, scheduler.Config{
		At:             cfg.Schedule.At,
		Location:       loc,
		PollInterval:   cfg.Schedule.PollInterval,
		RunImmediately: cfg.Schedule.RunImmediately,
	}, l)
}

func ProvideHTTPHandler(l *applogger.Logger, s *scheduler.Daily, p *usecase.ReportPipeline) pkghttp.Handler {
	return api.NewReportsEchoHandler(l, s, p)
}

// ProvideApp creates the application and hands it every client it must close.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	s *scheduler.Daily,
	h pkghttp.Handler,
	newsCache pkgcache.Service,
	producer *pkgkafka.Producer,
	ch *pkgch.Client,
) *server.App {
	app := server.New(cfg, l, s, h)
	// the layered cache closes the Redis client it wraps
	app.AddCloser("cache", newsCache)
	if producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   time.Minute,
			CountThreshold: 50,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      producer,
		})
		app.AddCloser("kafka", producer)
		// flush pending digests before the producer goes away
		app.AddCloser("log-collector", closerFunc(func() error {
			l.RemoveCollector()
			return nil
		}))
	}
	if ch != nil {
		app.AddCloser("clickhouse", ch)
	}
	return app
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
