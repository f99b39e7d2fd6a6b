// Package config loads the ledger's runtime configuration from the
// environment, grounded on the teacher's bootstrap.Config shape
// (components/audit/internal/bootstrap/config.go): one flat struct,
// `env` tags, loaded once at process start. The teacher wraps env-tag
// parsing in an internal pkg.SetConfigFromEnvVars helper this module
// has no source for; caarlos0/env/v11 is the public library with the
// same tag semantics (env + envDefault), used directly instead of
// fabricating a stub for the internal wrapper.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the top level configuration for the ledger process.
type Config struct {
	EnvName  string `env:"ENV_NAME" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL      string `env:"DATABASE_URL,required"`
	MigrationsPath   string `env:"MIGRATIONS_PATH" envDefault:"internal/storage/migrations"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	RabbitMQHost     string `env:"RABBITMQ_HOST" envDefault:"localhost"`
	RabbitMQPortAMQP string `env:"RABBITMQ_PORT_AMQP" envDefault:"5672"`
	RabbitMQUser     string `env:"RABBITMQ_DEFAULT_USER" envDefault:"guest"`
	RabbitMQPass     string `env:"RABBITMQ_DEFAULT_PASS" envDefault:"guest"`
	RabbitMQExchange string `env:"RABBITMQ_EXCHANGE" envDefault:"ledgercore.events"`

	IdempotencyTTLHours int `env:"IDEMPOTENCY_TTL_HOURS" envDefault:"24"`

	// PeriodLockOverridePolicy is the default ledger.OverridePolicy a
	// newly created accounting period gets when the caller doesn't
	// specify one (spec.md §4.5).
	PeriodLockOverridePolicy string `env:"PERIOD_LOCK_OVERRIDE_POLICY" envDefault:"deny"`

	// AuditChainHashAlgo selects internal/canonical's hash function
	// (spec.md §4.6). Only "sha256" is implemented; the field exists so
	// a future algorithm migration has a place to land without an API
	// change.
	AuditChainHashAlgo string `env:"AUDIT_CHAIN_HASH_ALGO" envDefault:"sha256"`

	PostingRetryMax     int   `env:"POSTING_RETRY_MAX" envDefault:"5"`
	LineAmountMaxMinor  int64 `env:"LINE_AMOUNT_MAX_MINOR" envDefault:"1000000000000"`
	LineCountMaxPerTxn  int   `env:"LINE_COUNT_MAX_PER_TXN" envDefault:"1000"`

	OtelServiceName         string `env:"OTEL_RESOURCE_SERVICE_NAME" envDefault:"ledgercore"`
	OtelServiceVersion      string `env:"OTEL_RESOURCE_SERVICE_VERSION"`
	OtelColExporterEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// IdempotencyTTL returns IdempotencyTTLHours as a time.Duration.
func (c Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempotencyTTLHours) * time.Hour
}

// Load parses Config from the process environment, applying defaults
// for every field that declares one.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}

	return cfg, nil
}
