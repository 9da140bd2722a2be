package util

import (
    "testing"
    "time"
)

func TestParseClock(t *testing.T) {
    h, m, err := ParseClock("08:00")
    if err != nil || h != 8 || m != 0 {
        t.Fatalf("unexpected %d:%d err=%v", h, m, err)
    }
    if _, _, err := ParseClock("8am"); err == nil {
        t.Fatalf("expected error")
    }
}

func TestNextDailySameDay(t *testing.T) {
    now := time.Date(2024, 10, 10, 7, 59, 0, 0, time.UTC)
    got := NextDaily(now, 8, 0)
    want := time.Date(2024, 10, 10, 8, 0, 0, 0, time.UTC)
    if !got.Equal(want) {
        t.Fatalf("expected %v, got %v", want, got)
    }
}

func TestNextDailyRollsOver(t *testing.T) {
    now := time.Date(2024, 12, 31, 8, 0, 0, 0, time.UTC)
    got := NextDaily(now, 8, 0)
    want := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
    if !got.Equal(want) {
        t.Fatalf("expected %v, got %v", want, got)
    }
}

func TestSplitHelpers(t *testing.T) {
    if got := SplitList(" a, ,b "); len(got) != 2 || got[0] != "a" || got[1] != "b" {
        t.Fatalf("unexpected list %v", got)
    }
    if h, p := SplitHostPort("redis:6380", 6379); h != "redis" || p != 6380 {
        t.Fatalf("unexpected %s %d", h, p)
    }
    if h, p := SplitHostPort("redis", 6379); h != "redis" || p != 6379 {
        t.Fatalf("unexpected %s %d", h, p)
    }
}
