package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	pkgstrings "learnhub/pkg/platform/strings"
)

// Server captures process level configuration. It is built once in main and
// handed to each component; nothing reads the environment after startup.
type Server struct {
	Addr           string
	Environment    string
	LogLevel       string
	LogFormat      string
	APIPrefix      string
	AllowedOrigins []string
	CookieSecure   bool

	Tokens    TokenConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	SMTP      SMTPConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
}

// TokenConfig holds signing secrets and lifetimes for every token kind.
type TokenConfig struct {
	ActivationSecret     string
	AccessSecret         string
	RefreshSecret        string
	Issuer               string
	AccessTTL            time.Duration
	RefreshTTL           time.Duration
	ActivationTTL        time.Duration
	ActivationCodeDigits int
}

// RedisConfig configures the session cache client. An empty URL means no
// Redis is configured.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig configures the account store pool.
type DatabaseConfig struct {
	URL      string
	MaxConns int32
	MinConns int32
}

// SMTPConfig configures outbound mail. An empty Host selects the log mailer.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// KafkaConfig configures the audit event stream.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// RateLimitConfig bounds requests per client IP on the unauthenticated auth
// endpoints.
type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

const (
	defaultAccessTTL     = 5 * time.Minute
	defaultRefreshTTL    = 72 * time.Hour
	defaultActivationTTL = 5 * time.Minute
	minCodeDigits        = 4
	maxCodeDigits        = 10
)

// FromEnv builds a Server config from environment variables so main stays lean.
// Malformed values are reported instead of silently replaced by defaults.
func FromEnv() (Server, error) {
	p := &parser{lookup: os.Getenv}
	return p.server()
}

// FromLookup is FromEnv with a custom variable source.
func FromLookup(lookup func(string) string) (Server, error) {
	p := &parser{lookup: lookup}
	return p.server()
}

type parser struct {
	lookup func(string) string
	errs   []error
}

func (p *parser) server() (Server, error) {
	cfg := Server{
		Addr:           p.str("LEARNHUB_ADDR", ":8080"),
		Environment:    p.str("LEARNHUB_ENV", "dev"),
		LogLevel:       p.str("LOG_LEVEL", "info"),
		LogFormat:      p.str("LOG_FORMAT", "json"),
		APIPrefix:      p.str("API_PREFIX", "/api/v1"),
		AllowedOrigins: p.list("ALLOWED_ORIGINS"),
		CookieSecure:   p.boolean("COOKIE_SECURE", false),
		Tokens: TokenConfig{
			ActivationSecret:     p.str("ACTIVATION_SECRET", ""),
			AccessSecret:         p.str("ACCESS_TOKEN_SECRET", ""),
			RefreshSecret:        p.str("REFRESH_TOKEN_SECRET", ""),
			Issuer:               p.str("TOKEN_ISSUER", "learnhub"),
			AccessTTL:            p.duration("ACCESS_TOKEN_TTL", defaultAccessTTL),
			RefreshTTL:           p.duration("REFRESH_TOKEN_TTL", defaultRefreshTTL),
			ActivationTTL:        p.duration("ACTIVATION_TTL", defaultActivationTTL),
			ActivationCodeDigits: p.integer("ACTIVATION_CODE_DIGITS", 6),
		},
		Redis: RedisConfig{
			URL:          p.str("REDIS_URL", ""),
			PoolSize:     p.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: p.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  p.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  p.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: p.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Database: DatabaseConfig{
			URL:      p.str("DATABASE_URL", ""),
			MaxConns: int32(p.integer("DATABASE_MAX_CONNS", 10)),
			MinConns: int32(p.integer("DATABASE_MIN_CONNS", 1)),
		},
		SMTP: SMTPConfig{
			Host:     p.str("SMTP_HOST", ""),
			Port:     p.integer("SMTP_PORT", 587),
			Username: p.str("SMTP_USER", ""),
			Password: p.str("SMTP_PASSWORD", ""),
			From:     p.str("SMTP_FROM", "no-reply@learnhub.local"),
		},
		Kafka: KafkaConfig{
			Brokers:    p.list("KAFKA_BROKERS"),
			AuditTopic: p.str("KAFKA_AUDIT_TOPIC", "learnhub.audit"),
		},
		RateLimit: RateLimitConfig{
			PerMinute: p.integer("AUTH_RATE_LIMIT_PER_MINUTE", 10),
			Burst:     p.integer("AUTH_RATE_LIMIT_BURST", 10),
		},
	}
	if len(p.errs) > 0 {
		return Server{}, errors.Join(p.errs...)
	}
	return cfg, nil
}

func (p *parser) str(key, fallback string) string {
	if v := strings.TrimSpace(p.lookup(key)); v != "" {
		return v
	}
	return fallback
}

func (p *parser) list(key string) []string {
	return pkgstrings.SplitList(p.lookup(key))
}

func (p *parser) boolean(key string, fallback bool) bool {
	raw := p.lookup(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) integer(key string, fallback int) int {
	raw := p.lookup(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	raw := p.lookup(key)
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

// Validate rejects configurations the services cannot run with.
func (s Server) Validate() error {
	var errs []error
	t := s.Tokens
	if t.ActivationSecret == "" || t.AccessSecret == "" || t.RefreshSecret == "" {
		errs = append(errs, errors.New("ACTIVATION_SECRET, ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET are required"))
	} else if t.ActivationSecret == t.AccessSecret || t.AccessSecret == t.RefreshSecret || t.ActivationSecret == t.RefreshSecret {
		errs = append(errs, errors.New("token secrets must be distinct per kind"))
	}
	if t.AccessTTL <= 0 || t.RefreshTTL <= 0 || t.ActivationTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if t.AccessTTL >= t.RefreshTTL {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be shorter than REFRESH_TOKEN_TTL"))
	}
	if t.ActivationCodeDigits < minCodeDigits || t.ActivationCodeDigits > maxCodeDigits {
		errs = append(errs, fmt.Errorf("ACTIVATION_CODE_DIGITS must be between %d and %d", minCodeDigits, maxCodeDigits))
	}
	if !strings.HasPrefix(s.APIPrefix, "/") {
		errs = append(errs, errors.New("API_PREFIX must start with /"))
	}
	if s.RateLimit.PerMinute <= 0 || s.RateLimit.Burst <= 0 {
		errs = append(errs, errors.New("auth rate limits must be positive"))
	}
	if s.SMTP.Host != "" && (s.SMTP.Port <= 0 || s.SMTP.From == "") {
		errs = append(errs, errors.New("SMTP_PORT and SMTP_FROM are required when SMTP_HOST is set"))
	}
	if len(s.Kafka.Brokers) > 0 && s.Kafka.AuditTopic == "" {
		errs = append(errs, errors.New("KAFKA_AUDIT_TOPIC is required when KAFKA_BROKERS is set"))
	}
	return errors.Join(errs...)
}

// IsDev reports whether the process runs in a development environment.
func (s Server) IsDev() bool {
	return s.Environment == "dev" || s.Environment == "local"
}
