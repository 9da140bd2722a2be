package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]DigestEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.([]DigestEntry))
	return nil
}

func TestWithCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf).With(String("run_id", "r-1"))
	l.Info("processing stock", String("ticker", "AAPL"))

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if line["run_id"] != "r-1" || line["ticker"] != "AAPL" || line["message"] != "processing stock" {
		t.Fatalf("unexpected line %v", line)
	}
}

func TestFileAndStdoutMirror(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stock_report.log")
	l, err := New(&Config{Level: "info", Format: "json", Output: "both:" + path})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	l.Error("failed to send email", Error(errors.New("smtp down")))
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(b), "smtp down") {
		t.Fatalf("log file missing entry: %s", b)
	}
}

func TestInvalidLevel(t *testing.T) {
	if _, err := New(&Config{Level: "loud", Output: "stdout"}); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}

func TestCollectorDeduplicatesAndFlushesOnClose(t *testing.T) {
	pub := &capturePublisher{}
	l := NewWriter(&bytes.Buffer{})
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "errors", Publisher: pub})

	for i := 0; i < 3; i++ {
		l.Error("error retrieving news", String("ticker", "AAPL"))
	}
	if got := l.collector.p.Load().Pending(); got != 1 {
		t.Fatalf("expected 1 distinct entry, got %d", got)
	}
	l.RemoveCollector()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if pub.topic != "errors" || len(pub.batches) != 1 {
		t.Fatalf("expected one batch on topic errors, got %d on %q", len(pub.batches), pub.topic)
	}
	if pub.batches[0][0].Count != 3 {
		t.Fatalf("expected count 3, got %d", pub.batches[0][0].Count)
	}
}

func TestChildLoggerReachesLaterCollector(t *testing.T) {
	pub := &capturePublisher{}
	root := NewWriter(&bytes.Buffer{})
	child := root.With(String("component", "sonar"))

	root.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "logs", Publisher: pub})
	child.Error("fetch news failed", String("ticker", "AAPL"))
	root.RemoveCollector()

	// logged after removal, must not resurrect anything
	child.Error("fetch news failed")

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.batches) != 1 || len(pub.batches[0]) != 1 {
		t.Fatalf("expected one digest from the child, got %v", pub.batches)
	}
	if pub.batches[0][0].Message != "fetch news failed" {
		t.Fatalf("unexpected digest %+v", pub.batches[0][0])
	}
}
