package cache

import (
	"testing"
	"time"
)

func TestKeys(t *testing.T) {
	day := time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC)
	if got := NewsKey(day, "aapl", 5); got != "news:2024-05-01:AAPL:5" {
		t.Fatalf("news key %q", got)
	}
	if got := RunLockKey(day); got != "run:2024-05-01" {
		t.Fatalf("lock key %q", got)
	}
	if got := Key("stockbrief", "news:x"); got != "stockbrief:news:x" {
		t.Fatalf("key %q", got)
	}
	if got := Key(); got != "" {
		t.Fatalf("empty key %q", got)
	}
}
