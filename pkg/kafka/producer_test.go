package kafka

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/segmentio/kafka-go"
)

type memWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *memWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *memWriter) Close() error { w.closed = true; return nil }

func TestPublishEncodesValues(t *testing.T) {
	w := &memWriter{}
	p := newProducer(w, "gzip")
	ctx := context.Background()

	if err := p.Publish(ctx, "reports", []byte("run-1"), map[string]int{"n": 1}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := p.PublishMessage(ctx, "logs", "plain"); err != nil {
		t.Fatalf("publish message: %v", err)
	}

	if len(w.msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(w.msgs))
	}
	if w.msgs[0].Topic != "reports" || string(w.msgs[0].Key) != "run-1" || string(w.msgs[0].Value) != `{"n":1}` {
		t.Fatalf("unexpected first message %+v", w.msgs[0])
	}
	if w.msgs[1].Topic != "logs" || w.msgs[1].Key != nil || string(w.msgs[1].Value) != "plain" {
		t.Fatalf("unexpected second message %+v", w.msgs[1])
	}

	_ = p.Close()
	if !w.closed {
		t.Fatal("close should reach the writer")
	}
}

func TestPublishWrapsWriterError(t *testing.T) {
	p := newProducer(&memWriter{err: errors.New("leader not available")}, "gzip")
	err := p.Publish(context.Background(), "reports", nil, "x")
	if err == nil || !strings.Contains(err.Error(), "kafka publish reports") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	if _, err := NewProducer(); err == nil {
		t.Fatal("expected error without brokers")
	}
}

func TestConfigWriter(t *testing.T) {
	cfg := defaultConfig()
	for _, o := range []ProducerOption{
		WithBrokers([]string{"k1:9092", "k2:9092"}),
		WithCompression("zstd"),
		WithTimeouts(0, 0),
		WithMaxAttempts(0),
	} {
		o(&cfg)
	}
	w, err := cfg.writer()
	if err != nil {
		t.Fatalf("writer: %v", err)
	}
	if w.Compression != kafka.Zstd || w.MaxAttempts != 3 || w.WriteTimeout != defaultConfig().WriteTimeout {
		t.Fatalf("unexpected writer %+v", w)
	}
	if w.Addr.String() != "k1:9092,k2:9092" {
		t.Fatalf("addr %s", w.Addr.String())
	}
}
