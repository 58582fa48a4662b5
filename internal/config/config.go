package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

type Config struct {
	Port string `validate:"required,numeric"`

	// StoreURL selects the backend: mongodb:// or mongodb+srv:// for MongoDB,
	// postgres:// for Postgres. When empty, a Postgres DSN is built from the DB_* parts.
	StoreURL string `validate:"omitempty,url"`

	DBHost string
	DBPort string
	// DBName also names the MongoDB database.
	DBName string `validate:"required"`
	DBUser string
	DBPass string

	// DBMaxOpenConns is the maximum number of open connections per run (default 5).
	DBMaxOpenConns int
	// DBMaxIdleConns is the maximum number of idle connections per run (default 2).
	DBMaxIdleConns int
	// RunMigrations applies the embedded schema before the first run (Postgres only).
	RunMigrations bool

	PageSize        int           `validate:"min=1"`
	RecheckInterval time.Duration `validate:"gt=0"`
	// DailyCron is the primary daily trigger. Set DAILY_CRON to an empty string to disable it.
	DailyCron string
	// TargetDate pins every run to one calendar day (YYYY-MM-DD). Empty means "day of the run".
	TargetDate string `validate:"omitempty,datetime=2006-01-02"`
	// Timezone is an IANA name used for all day comparisons. Empty means the host zone.
	Timezone string

	DispatchTimeout     time.Duration `validate:"gt=0"`
	DispatchConcurrency int           `validate:"min=1"`
	// RetryOnConnectFailure lets a later attempt on the same day run again when
	// the store could not be reached.
	RetryOnConnectFailure bool
	// ReportTimeout bounds report delivery at the end of a run.
	ReportTimeout time.Duration `validate:"gt=0"`

	// SMSGatewayURL enables real delivery. When empty, greetings are only logged.
	SMSGatewayURL   string `validate:"omitempty,url"`
	SMSGatewayToken string
	SMSSender       string
	SMSRatePerSec   float64 `validate:"gte=0"`

	// SMTPHost enables the report e-mail.
	SMTPHost   string
	SMTPPort   string   `validate:"omitempty,numeric"`
	SMTPUser   string
	SMTPPass   string
	ReportFrom string   `validate:"required_with=SMTPHost,omitempty,email"`
	ReportTo   []string `validate:"required_with=SMTPHost,omitempty,dive,email"`

	SlackWebhookURL string `validate:"omitempty,url"`

	// JWTSecret protects the /v1 routes. When empty, they are open.
	JWTSecret string

	// TriggerRatePerMin limits manual triggers per client IP.
	TriggerRatePerMin int `validate:"min=1"`
	// TrustProxy takes the client IP from X-Forwarded-For / X-Real-IP. Enable it only
	// behind a proxy that overwrites those headers.
	TrustProxy bool

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string
	TLSKeyFile  string `validate:"required_with=TLSCertFile"`

	// LogFormat is "text" (default) or "json" for structured logging.
	LogFormat string `validate:"oneof=text json"`
	LogLevel  string `validate:"oneof=debug info warn error"`
	// LogFile additionally writes JSON logs to this path.
	LogFile string
}

func Load() Config {
	return Config{
		Port:     getEnv("PORT", "3000"),
		StoreURL: getEnv("STORE_URL", ""),

		DBHost: getEnv("DB_HOST", "localhost"),
		DBPort: getEnv("DB_PORT", "5432"),
		DBName: getEnv("DB_NAME", "getStatus"),
		DBUser: getEnv("DB_USER", "birthday"),
		DBPass: getEnv("DB_PASS", "birthday"),

		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 5),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 2),
		RunMigrations:  getEnvBool("RUN_MIGRATIONS", false),

		PageSize:        getEnvInt("PAGE_SIZE", 50),
		RecheckInterval: getEnvDuration("RECHECK_INTERVAL", time.Hour),
		DailyCron:       lookupEnv("DAILY_CRON", "0 0 * * *"),
		TargetDate:      getEnv("TARGET_DATE", ""),
		Timezone:        getEnv("TIMEZONE", ""),

		DispatchTimeout:       getEnvDuration("DISPATCH_TIMEOUT", 10*time.Second),
		DispatchConcurrency:   getEnvInt("DISPATCH_CONCURRENCY", 1),
		RetryOnConnectFailure: getEnvBool("RETRY_ON_CONNECT_FAILURE", false),
		ReportTimeout:         getEnvDuration("REPORT_TIMEOUT", 30*time.Second),

		SMSGatewayURL:   getEnv("SMS_GATEWAY_URL", ""),
		SMSGatewayToken: getEnv("SMS_GATEWAY_TOKEN", ""),
		SMSSender:       getEnv("SMS_SENDER", ""),
		SMSRatePerSec:   getEnvFloat("SMS_RATE_PER_SEC", 10),

		SMTPHost:   getEnv("SMTP_HOST", ""),
		SMTPPort:   getEnv("SMTP_PORT", "25"),
		SMTPUser:   getEnv("SMTP_USER", ""),
		SMTPPass:   getEnv("SMTP_PASS", ""),
		ReportFrom: getEnv("REPORT_FROM", ""),
		ReportTo:   parseList(getEnv("REPORT_TO", "")),

		SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),

		TriggerRatePerMin: getEnvInt("TRIGGER_RATE_PER_MIN", 10),
		TrustProxy:        getEnvBool("TRUST_PROXY", false),

		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFile:   getEnv("LOG_FILE", ""),
	}
}

// Validate checks field constraints and the values that need parsing.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.StoreURL != "" && c.StoreKind() == "" {
		return fmt.Errorf("invalid config: unsupported STORE_URL scheme %q", c.StoreURL)
	}
	return nil
}

// StoreKind is StoreMongo or StorePostgres, or "" for an unknown STORE_URL scheme.
func (c Config) StoreKind() string {
	switch {
	case c.StoreURL == "":
		return StorePostgres
	case strings.HasPrefix(c.StoreURL, "mongodb://"), strings.HasPrefix(c.StoreURL, "mongodb+srv://"):
		return StoreMongo
	case strings.HasPrefix(c.StoreURL, "postgres://"), strings.HasPrefix(c.StoreURL, "postgresql://"):
		return StorePostgres
	}
	return ""
}

func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid config: TIMEZONE: %w", err)
	}
	return loc, nil
}

// parseList splits a comma-separated list and trims spaces. Empty strings are omitted.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvDuration accepts whole seconds ("3600") or a Go duration ("1h").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// lookupEnv is getEnv, except that an explicitly empty variable wins over the fallback.
func lookupEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}
