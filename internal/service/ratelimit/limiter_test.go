package ratelimit

import (
    "context"
    "testing"
    "time"
)

func TestAllowConsumesCapacity(t *testing.T) {
    l := New()
    fixed := time.Unix(1700000000, 0)
    l.now = func() time.Time { return fixed }

    for i := 0; i < 2; i++ {
        if !l.Allow("sonar", 2, 1) {
            t.Fatalf("call %d should be allowed", i)
        }
    }
    if l.Allow("sonar", 2, 1) {
        t.Fatal("third call should be limited")
    }
    if !l.Allow("openai", 2, 1) {
        t.Fatal("keys must not share buckets")
    }

    fixed = fixed.Add(time.Second)
    if !l.Allow("sonar", 2, 1) {
        t.Fatal("bucket should refill after one second")
    }
}

func TestWaitHonoursContext(t *testing.T) {
    l := New()
    fixed := time.Unix(1700000000, 0)
    l.now = func() time.Time { return fixed }
    if err := l.Wait(context.Background(), "k", 1, 0.001); err != nil {
        t.Fatalf("first wait: %v", err)
    }

    ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
    defer cancel()
    if err := l.Wait(ctx, "k", 1, 0.001); err == nil {
        t.Fatal("expected context error while bucket is empty")
    }
}

func TestWaitDisabled(t *testing.T) {
    l := New()
    for i := 0; i < 100; i++ {
        if err := l.Wait(context.Background(), "k", 1, 0); err != nil {
            t.Fatalf("disabled limiter returned %v", err)
        }
    }
}
