package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Decision sinks.
const (
	SinkNone  = "none"
	SinkRedis = "redis"
	SinkKafka = "kafka"
)

// Config holds all application configuration.
type Config struct {
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"json"`
	HTTPAddr     string `env:"HTTP_ADDR" envDefault:":8000"`
	MetricsAddr  string `env:"METRICS_ADDR" envDefault:":9091"`
	ServiceName  string `env:"SERVICE_NAME" envDefault:"alert-triage"`
	MaxEventSize int64  `env:"MAX_EVENT_SIZE_BYTES" envDefault:"1048576"` // 1MB

	Webhook  WebhookConfig
	Intel    IntelConfig
	Scoring  ScoringConfig
	Email    EmailConfig
	Autotask AutotaskConfig
	Decision DecisionConfig

	PostgresURL        string        `env:"POSTGRES_URL"`
	TokenCacheTTL      time.Duration `env:"TOKEN_CACHE_TTL" envDefault:"5m"`
	PIIRedactionFields []string      `env:"PII_REDACTION_FIELDS" envSeparator:"," envDefault:"password,passwd,secret,token,api_key"`
	AdminJWTSecret     string        `env:"ADMIN_JWT_SECRET"`
}

// WebhookConfig holds the optional inbound authentication settings.
type WebhookConfig struct {
	SharedSecret string `env:"WEBHOOK_SHARED_SECRET"`
	HMACSecret   string `env:"WEBHOOK_HMAC_SECRET"`
	HMACHeader   string `env:"WEBHOOK_HMAC_HEADER" envDefault:"X-Signature"`
	HMACPrefix   string `env:"WEBHOOK_HMAC_PREFIX" envDefault:"sha256="`
}

// IntelConfig holds threat-intel provider credentials and lookup limits.
// A provider participates only when its API key is set.
type IntelConfig struct {
	OTXAPIKey        string        `env:"OTX_API_KEY"`
	VTAPIKey         string        `env:"VT_API_KEY"`
	AbuseIPDBAPIKey  string        `env:"ABUSEIPDB_API_KEY"`
	OTXBaseURL       string        `env:"OTX_BASE_URL" envDefault:"https://otx.alienvault.com"`
	VTBaseURL        string        `env:"VT_BASE_URL" envDefault:"https://www.virustotal.com"`
	AbuseIPDBBaseURL string        `env:"ABUSEIPDB_BASE_URL" envDefault:"https://api.abuseipdb.com"`
	HTTPTimeout      time.Duration `env:"HTTP_TIMEOUT" envDefault:"8s"`
	CacheTTL         time.Duration `env:"IOC_CACHE_TTL" envDefault:"30m"`
	RateLimitPerMin  int           `env:"INTEL_RATE_LIMIT_PER_MIN" envDefault:"0"`
	MaxIndicators    int           `env:"INTEL_MAX_INDICATORS" envDefault:"32"`
	Concurrency      int           `env:"INTEL_CONCURRENCY" envDefault:"8"`
}

// ScoringConfig holds classification thresholds and contextual scoring inputs.
type ScoringConfig struct {
	High         int      `env:"SCORE_HIGH" envDefault:"70"`
	Medium       int      `env:"SCORE_MEDIUM" envDefault:"40"`
	HighRiskGeos []string `env:"HIGH_RISK_GEOS" envSeparator:"," envDefault:"RU,KP,IR,CN"`
}

// EmailConfig holds SMTP notification settings.
type EmailConfig struct {
	Enabled  bool     `env:"ENABLE_EMAIL" envDefault:"true"`
	SMTPHost string   `env:"SMTP_HOST"`
	SMTPPort int      `env:"SMTP_PORT" envDefault:"587"`
	Username string   `env:"SMTP_USERNAME"`
	Password string   `env:"SMTP_PASSWORD"`
	From     string   `env:"EMAIL_FROM"`
	To       []string `env:"EMAIL_TO" envSeparator:","`
}

// AutotaskConfig holds ticket-tracker settings.
type AutotaskConfig struct {
	Enabled         bool   `env:"ENABLE_AUTOTASK" envDefault:"true"`
	BaseURL         string `env:"AT_BASE_URL"`
	IntegrationCode string `env:"AT_API_INTEGRATION_CODE"`
	Username        string `env:"AT_USERNAME"`
	Secret          string `env:"AT_SECRET"`
	AccountID       int    `env:"AT_ACCOUNT_ID"`
	QueueID         int    `env:"AT_QUEUE_ID"`
	TicketPriority  int    `env:"AT_TICKET_PRIORITY" envDefault:"3"`
}

// DecisionConfig selects where triage decisions are published.
type DecisionConfig struct {
	Sink           string   `env:"DECISION_SINK" envDefault:"none"`
	RedisAddr      string   `env:"REDIS_ADDR" envDefault:"redis://localhost:6379/0"`
	Stream         string   `env:"DECISION_STREAM" envDefault:"triage_decisions"`
	StreamMaxLen   int64    `env:"DECISION_STREAM_MAXLEN" envDefault:"100000"`
	WALPath        string   `env:"WAL_PATH" envDefault:"./wal"`
	WALSegmentSize int64    `env:"WAL_SEGMENT_SIZE_BYTES" envDefault:"104857600"`   // 100MB
	WALMaxDiskSize int64    `env:"WAL_MAX_DISK_SIZE_BYTES" envDefault:"1073741824"` // 1GB
	KafkaBrokers   []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic     string   `env:"KAFKA_TOPIC" envDefault:"triage-decisions"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks constraints that span several fields.
func (c *Config) Validate() error {
	var errs []error
	if c.Scoring.Medium > c.Scoring.High {
		errs = append(errs, fmt.Errorf("SCORE_MEDIUM (%d) must not exceed SCORE_HIGH (%d)", c.Scoring.Medium, c.Scoring.High))
	}
	if c.Scoring.Medium < 0 || c.Scoring.High > 100 {
		errs = append(errs, errors.New("score thresholds must be within [0, 100]"))
	}
	if c.Intel.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must be positive"))
	}
	switch c.Decision.Sink {
	case SinkNone, SinkRedis:
	case SinkKafka:
		if len(c.Decision.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required when DECISION_SINK=kafka"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DECISION_SINK %q", c.Decision.Sink))
	}
	return errors.Join(errs...)
}
