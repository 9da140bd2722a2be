package kafka

import (
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
)

// Config describes the writer used for run events and log digests.
// Topics are chosen per message, so none is configured here.
type Config struct {
	Brokers      []string
	RequiredAcks int    // -1 waits for all in-sync replicas
	Compression  string // gzip, snappy, lz4 or zstd
	MaxAttempts  int
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	BatchTimeout time.Duration
	ClientID     string
}

// ProducerOption configures Producer.
type ProducerOption func(*Config)

func defaultConfig() Config {
	return Config{
		RequiredAcks: -1,
		Compression:  "gzip",
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		// a handful of messages a day, no point waiting for a batch to fill
		BatchTimeout: 50 * time.Millisecond,
		ClientID:     "stockbrief",
	}
}

func (c Config) writer() (*kafka.Writer, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("kafka: brokers are required")
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(c.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequiredAcks(c.RequiredAcks),
		Compression:            compressionCodec(c.Compression),
		MaxAttempts:            c.MaxAttempts,
		WriteTimeout:           c.WriteTimeout,
		ReadTimeout:            c.ReadTimeout,
		BatchTimeout:           c.BatchTimeout,
		AllowAutoTopicCreation: true,
		Transport:              &kafka.Transport{ClientID: c.ClientID},
	}, nil
}

func compressionCodec(name string) kafka.Compression {
	switch name {
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Gzip
	}
}

func WithBrokers(brokers []string) ProducerOption {
	return func(c *Config) { c.Brokers = brokers }
}

// WithCompression ignores an empty name.
func WithCompression(name string) ProducerOption {
	return func(c *Config) {
		if name != "" {
			c.Compression = name
		}
	}
}

func WithRequiredAcks(acks int) ProducerOption {
	return func(c *Config) { c.RequiredAcks = acks }
}

func WithMaxAttempts(n int) ProducerOption {
	return func(c *Config) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

// WithTimeouts sets writer timeouts. Zero keeps the default.
func WithTimeouts(write, read time.Duration) ProducerOption {
	return func(c *Config) {
		if write > 0 {
			c.WriteTimeout = write
		}
		if read > 0 {
			c.ReadTimeout = read
		}
	}
}
