package cache

import (
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Client   *redis.Client // reused as is when set, the fields below are ignored
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
	Prefix   string // prepended to every key, "stockbrief" by default
}

type RedisOption func(*RedisConfig)

func defaultRedisConfig() RedisConfig {
	return RedisConfig{Host: "localhost", Port: 6379, PoolSize: 4, Prefix: "stockbrief"}
}

func WithRedisHost(host string) RedisOption {
	return func(c *RedisConfig) { c.Host = host }
}

func WithRedisPort(port int) RedisOption {
	return func(c *RedisConfig) { c.Port = port }
}

func WithRedisPassword(password string) RedisOption {
	return func(c *RedisConfig) { c.Password = password }
}

func WithRedisDB(db int) RedisOption {
	return func(c *RedisConfig) { c.DB = db }
}

func WithRedisClient(client *redis.Client) RedisOption {
	return func(c *RedisConfig) { c.Client = client }
}

// WithRedisPrefix ignores an empty prefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(c *RedisConfig) {
		if prefix != "" {
			c.Prefix = prefix
		}
	}
}

// MemoryConfig holds in-process cache settings.
type MemoryConfig struct {
	MaxSize         int
	CleanupInterval time.Duration
	DefaultTTL      time.Duration // applied when Set gets no expiration
}

type MemoryOption func(*MemoryConfig)

func defaultMemoryConfig() MemoryConfig {
	return MemoryConfig{MaxSize: 1000, CleanupInterval: 5 * time.Minute, DefaultTTL: 24 * time.Hour}
}

func WithMemoryMaxSize(size int) MemoryOption {
	return func(c *MemoryConfig) {
		if size > 0 {
			c.MaxSize = size
		}
	}
}

func WithMemoryDefaultTTL(ttl time.Duration) MemoryOption {
	return func(c *MemoryConfig) {
		if ttl > 0 {
			c.DefaultTTL = ttl
		}
	}
}

// LayeredConfig sizes the in-process layer in front of Redis.
type LayeredConfig struct {
	MemoryMaxSize int
	MemoryTTL     time.Duration // upper bound for entries copied from Redis
}

type LayeredOption func(*LayeredConfig)

func defaultLayeredConfig() LayeredConfig {
	return LayeredConfig{MemoryMaxSize: 1000, MemoryTTL: 10 * time.Minute}
}

func WithLayeredMemorySize(size int) LayeredOption {
	return func(c *LayeredConfig) {
		if size > 0 {
			c.MemoryMaxSize = size
		}
	}
}

func WithLayeredMemoryTTL(ttl time.Duration) LayeredOption {
	return func(c *LayeredConfig) {
		if ttl > 0 {
			c.MemoryTTL = ttl
		}
	}
}
