package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Scoring.High != 70 || cfg.Scoring.Medium != 40 {
		t.Errorf("unexpected thresholds: high=%d medium=%d", cfg.Scoring.High, cfg.Scoring.Medium)
	}
	if cfg.Intel.HTTPTimeout != 8*time.Second {
		t.Errorf("expected 8s http timeout, got %s", cfg.Intel.HTTPTimeout)
	}
	if cfg.Intel.CacheTTL != 30*time.Minute {
		t.Errorf("expected 30m cache ttl, got %s", cfg.Intel.CacheTTL)
	}
	if strings.Join(cfg.Scoring.HighRiskGeos, ",") != "RU,KP,IR,CN" {
		t.Errorf("unexpected high risk geos: %v", cfg.Scoring.HighRiskGeos)
	}
	if cfg.Decision.Sink != SinkNone {
		t.Errorf("expected default sink %q, got %q", SinkNone, cfg.Decision.Sink)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SCORE_HIGH", "80")
	t.Setenv("SCORE_MEDIUM", "50")
	t.Setenv("EMAIL_TO", "soc@example.com,oncall@example.com")
	t.Setenv("IOC_CACHE_TTL", "1m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Scoring.High != 80 || cfg.Scoring.Medium != 50 {
		t.Errorf("unexpected thresholds: high=%d medium=%d", cfg.Scoring.High, cfg.Scoring.Medium)
	}
	if len(cfg.Email.To) != 2 {
		t.Errorf("expected 2 recipients, got %v", cfg.Email.To)
	}
	if cfg.Intel.CacheTTL != time.Minute {
		t.Errorf("expected 1m cache ttl, got %s", cfg.Intel.CacheTTL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "equal thresholds", mutate: func(c *Config) { c.Scoring.Medium = 70 }},
		{name: "medium above high", mutate: func(c *Config) { c.Scoring.Medium = 80 }, wantErr: true},
		{name: "unknown sink", mutate: func(c *Config) { c.Decision.Sink = "s3" }, wantErr: true},
		{name: "kafka without brokers", mutate: func(c *Config) { c.Decision.Sink = SinkKafka }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.Intel.HTTPTimeout = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				Scoring:  ScoringConfig{High: 70, Medium: 40},
				Intel:    IntelConfig{HTTPTimeout: time.Second},
				Decision: DecisionConfig{Sink: SinkNone},
			}
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
