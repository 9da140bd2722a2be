package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func requiredEnv() map[string]string {
	return map[string]string{
		"ROBINHOOD_USERNAME": "user@example.com",
		"ROBINHOOD_PASSWORD": "secret",
		"SONAR_API_KEY":      "pplx-key",
		"OPENAI_API_KEY":     "sk-key",
		"EMAIL_ADDRESS":      "sender@example.com",
		"EMAIL_APP_PASSWORD": "app-pass",
		"RECIPIENT_EMAIL":    "me@example.com",
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Schedule.At != "08:00" || c.Schedule.PollInterval != time.Minute {
		t.Fatalf("unexpected schedule defaults %+v", c.Schedule)
	}
	if c.Email.Host != "smtp.gmail.com" || c.Email.Port != 587 {
		t.Fatalf("unexpected email defaults %+v", c.Email)
	}
	if c.Summary.Model != "gpt-4o" || c.Summary.MaxTokens != 500 || c.Summary.Temperature != 0.2 {
		t.Fatalf("unexpected summary defaults %+v", c.Summary)
	}
	if c.News.Limit != 5 || c.Schedule.RunImmediately {
		t.Fatalf("unexpected news/run defaults")
	}
}

func TestYAMLThenEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := "schedule:\n  at: \"07:30\"\nnews:\n  limit: 3\nrobinhood:\n  username: yaml-user\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Schedule.At != "07:30" || c.News.Limit != 3 {
		t.Fatalf("yaml not applied: %+v", c.Schedule)
	}
	// untouched defaults survive the YAML pass
	if c.Schedule.PollInterval != time.Minute {
		t.Fatalf("poll interval default lost")
	}

	env := requiredEnv()
	env["RUN_IMMEDIATELY"] = "TRUE"
	env["KAFKA_BROKERS"] = "k1:9092, k2:9092"
	c.ApplyEnv(envMap(env))

	if c.Robinhood.Username != "user@example.com" {
		t.Fatalf("env did not override yaml username")
	}
	if !c.Schedule.RunImmediately {
		t.Fatalf("RUN_IMMEDIATELY=TRUE should enable immediate run")
	}
	if !c.Kafka.Enabled || len(c.Kafka.Brokers) != 2 {
		t.Fatalf("kafka brokers not applied: %+v", c.Kafka.Brokers)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestRunImmediatelyOnlyTrue(t *testing.T) {
	c, _ := Load("")
	c.ApplyEnv(envMap(map[string]string{"RUN_IMMEDIATELY": "yes"}))
	if c.Schedule.RunImmediately {
		t.Fatalf("only \"true\" enables the immediate run")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing credentials", func(c *Config) { c.Robinhood.Password = "" }},
		{"bad recipient", func(c *Config) { c.Email.Recipient = "not-an-email" }},
		{"bad clock", func(c *Config) { c.Schedule.At = "25:99" }},
		{"gemini without key", func(c *Config) { c.Summary.Provider = "gemini" }},
		{"unknown provider", func(c *Config) { c.Summary.Provider = "llama" }},
		{"bad timezone", func(c *Config) { c.Schedule.Timezone = "Mars/Olympus" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			c.ApplyEnv(envMap(requiredEnv()))
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
