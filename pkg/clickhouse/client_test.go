package clickhouse

import (
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

func TestOptions(t *testing.T) {
	opt := options(Config{
		Host:         "ch.local",
		Port:         9440,
		User:         "reporter",
		Password:     "pw",
		UseHTTP:      true,
		QueryTimeout: 90 * time.Second,
	})
	if len(opt.Addr) != 1 || opt.Addr[0] != "ch.local:9440" {
		t.Fatalf("addr %v", opt.Addr)
	}
	if opt.Auth.Database != "default" || opt.Auth.Username != "reporter" {
		t.Fatalf("auth %+v", opt.Auth)
	}
	if opt.Protocol != clickhouse.HTTP {
		t.Fatal("expected http protocol")
	}
	if opt.Settings["max_execution_time"] != 90 {
		t.Fatalf("settings %v", opt.Settings)
	}
}

func TestNewClientRequiresHost(t *testing.T) {
	if _, err := NewClient(t.Context()); err == nil {
		t.Fatal("expected error without host")
	}
}

func TestOptionsKeepDefaults(t *testing.T) {
	cfg := defaultConfig()
	for _, o := range []ClientOption{WithPort(0), WithTimeouts(0, 0), WithHost("ch")} {
		o(&cfg)
	}
	if cfg.Port != 9000 || cfg.DialTimeout != 5*time.Second || cfg.ReadTimeout != 10*time.Second {
		t.Fatalf("defaults overwritten: %+v", cfg)
	}
	if err := cfg.validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	WithDatabase("")(&cfg)
	if err := cfg.validate(); err == nil {
		t.Fatal("expected error without database")
	}
}
