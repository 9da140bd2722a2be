package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"StockBrief/pkg/util"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when STOCKBRIEF_CONFIG is unset.
const DefaultPath = "config/config.yaml"

type Config struct {
	Environment string `yaml:"environment" default:"production"`
	Log         struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
		Output string `yaml:"output" default:"both:stock_report.log"`
	} `yaml:"log"`
	Server struct {
		Enabled         bool          `yaml:"enabled" default:"true"`
		Port            int           `yaml:"port" default:"8080" validate:"gte=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		MetricsPath     string        `yaml:"metrics_path" default:"/metrics"`
	} `yaml:"server"`
	Schedule struct {
		At             string        `yaml:"at" default:"08:00" validate:"required"`
		Timezone       string        `yaml:"timezone" default:"Local"`
		PollInterval   time.Duration `yaml:"poll_interval" default:"60s" validate:"gt=0"`
		RunImmediately bool          `yaml:"run_immediately"`
		RunTimeout     time.Duration `yaml:"run_timeout" default:"30m"`
	} `yaml:"schedule"`
	Robinhood struct {
		Username string        `yaml:"username" validate:"required"`
		Password string        `yaml:"password" validate:"required"`
		MFACode  string        `yaml:"mfa_code"`
		BaseURL  string        `yaml:"base_url" default:"https://api.robinhood.com" validate:"url"`
		ClientID string        `yaml:"client_id" default:"c82SH0WZOsabOXGP2sxqcj34FxkvfnWRZBKlBjFS"`
		Timeout  time.Duration `yaml:"timeout" default:"30s"`
	} `yaml:"robinhood"`
	News struct {
		APIKey     string        `yaml:"api_key" validate:"required"`
		URL        string        `yaml:"url" default:"https://api.perplexity.ai/chat/completions" validate:"url"`
		Model      string        `yaml:"model" default:"sonar"`
		Limit      int           `yaml:"limit" default:"5" validate:"gt=0"`
		Timeout    time.Duration `yaml:"timeout" default:"60s"`
		CacheTTL   time.Duration `yaml:"cache_ttl" default:"12h"`
		RatePerSec float64       `yaml:"rate_per_sec" default:"1"`
	} `yaml:"news"`
	Summary struct {
		Provider    string        `yaml:"provider" default:"openai" validate:"oneof=openai gemini"`
		OpenAIKey   string        `yaml:"openai_api_key" validate:"required_if=Provider openai"`
		OpenAIURL   string        `yaml:"openai_url" default:"https://api.openai.com/v1/chat/completions"`
		GeminiKey   string        `yaml:"gemini_api_key" validate:"required_if=Provider gemini"`
		Model       string        `yaml:"model" default:"gpt-4o"`
		GeminiModel string        `yaml:"gemini_model" default:"gemini-2.0-flash"`
		MaxTokens   int           `yaml:"max_tokens" default:"500" validate:"gt=0"`
		Temperature float64       `yaml:"temperature" default:"0.2" validate:"gte=0,lte=2"`
		Timeout     time.Duration `yaml:"timeout" default:"60s"`
	} `yaml:"summary"`
	Email struct {
		Address     string        `yaml:"address" validate:"required,email"`
		AppPassword string        `yaml:"app_password" validate:"required"`
		Recipient   string        `yaml:"recipient" validate:"required,email"`
		Host        string        `yaml:"host" default:"smtp.gmail.com" validate:"required"`
		Port        int           `yaml:"port" default:"587" validate:"gt=0"`
		Timeout     time.Duration `yaml:"timeout" default:"30s"`
	} `yaml:"email"`
	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Host     string        `yaml:"host" default:"localhost"`
		Port     int           `yaml:"port" default:"6379"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		Prefix   string        `yaml:"prefix" default:"stockbrief"`
		LockTTL  time.Duration `yaml:"lock_ttl" default:"30m"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		Topic        string        `yaml:"topic" default:"stockbrief.reports"`
		LogsTopic    string        `yaml:"logs_topic" default:"stockbrief.logs"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host" default:"localhost"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"stockbrief"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		UseHTTP      bool          `yaml:"use_http"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"clickhouse"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file on top of the defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}

	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML, a .env file and the environment, then validates it.
func LoadWithEnv() (*Config, error) {
	// .env never overrides variables already present in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	path := os.Getenv("STOCKBRIEF_CONFIG")
	if path == "" {
		path = DefaultPath
	}
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.ApplyEnv(os.LookupEnv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides fields from environment variables. lookup is os.LookupEnv outside tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("ROBINHOOD_USERNAME", &c.Robinhood.Username)
	str("ROBINHOOD_PASSWORD", &c.Robinhood.Password)
	str("ROBINHOOD_MFA_CODE", &c.Robinhood.MFACode)
	str("SONAR_API_KEY", &c.News.APIKey)
	str("OPENAI_API_KEY", &c.Summary.OpenAIKey)
	str("GEMINI_API_KEY", &c.Summary.GeminiKey)
	str("SUMMARY_PROVIDER", &c.Summary.Provider)
	str("EMAIL_ADDRESS", &c.Email.Address)
	str("EMAIL_APP_PASSWORD", &c.Email.AppPassword)
	str("RECIPIENT_EMAIL", &c.Email.Recipient)
	str("REPORT_TIME", &c.Schedule.At)
	str("REPORT_TIMEZONE", &c.Schedule.Timezone)
	str("LOG_LEVEL", &c.Log.Level)

	if v, ok := lookup("LOG_FILE"); ok && v != "" {
		c.Log.Output = "both:" + v
	}

	if v, ok := lookup("RUN_IMMEDIATELY"); ok {
		c.Schedule.RunImmediately = strings.EqualFold(strings.TrimSpace(v), "true")
	}
	if v, ok := lookup("HTTP_PORT"); ok && v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v, ok := lookup("REDIS_ADDR"); ok && v != "" {
		host, port := util.SplitHostPort(v, c.Redis.Port)
		c.Redis.Host, c.Redis.Port, c.Redis.Enabled = host, port, true
	}
	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		c.Kafka.Brokers = util.SplitList(v)
		c.Kafka.Enabled = len(c.Kafka.Brokers) > 0
	}
	if v, ok := lookup("CLICKHOUSE_HOST"); ok && v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, _, err := util.ParseClock(c.Schedule.At); err != nil {
		return fmt.Errorf("schedule.at: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	return nil
}

// Location resolves the schedule time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" || c.Schedule.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Schedule.Timezone)
}
