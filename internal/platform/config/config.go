package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. All values come from the
// environment so main stays lean.
type Config struct {
	Addr          string
	DatabaseURL   string
	Redis         RedisConfig
	KafkaBrokers  []string
	AuditTopic    string
	S3Bucket      string
	S3Region      string
	S3Prefix      string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	// RetentionYears is the assumed statute-of-limitations window after a
	// procedure during which legal claims remain possible.
	RetentionYears int
	// MinClientAge is the minimum age at which a procedure may be recorded.
	MinClientAge int
}

// RedisConfig holds connection settings for the revocation store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables with development
// defaults. Production deployments must override the signing key.
func FromEnv() Config {
	cfg := Config{
		Addr:           envOr("INKREGISTER_ADDR", ":8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		AuditTopic:     envOr("AUDIT_TOPIC", "audit.events"),
		S3Bucket:       envOr("S3_BUCKET", "legal-docs"),
		S3Region:       envOr("S3_REGION", "eu-central-1"),
		S3Prefix:       envOr("S3_PREFIX", "/"),
		JWTSigningKey:  envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:      envOr("JWT_ISSUER", "inkregister"),
		JWTAudience:    envOr("JWT_AUDIENCE", "inkregister"),
		RetentionYears: envIntOr("RETENTION_YEARS", 3),
		MinClientAge:   envIntOr("MIN_CLIENT_AGE", 18),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envIntOr("REDIS_POOL_SIZE", 10),
			MinIdleConns: envIntOr("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
