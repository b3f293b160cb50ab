package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Session      SessionConfig
	Stripe       StripeConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Retention    RetentionConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string        `envconfig:"HYDRUS_APP_ENV" required:"true"`
	Port         string        `envconfig:"HYDRUS_APP_PORT" required:"true"`
	LogLevel     string        `envconfig:"HYDRUS_LOG_LEVEL" default:"info"`
	LogWarnStack bool          `envconfig:"HYDRUS_LOG_WARN_STACK" default:"false"`
	ReadTimeout  time.Duration `envconfig:"HYDRUS_HTTP_READ_TIMEOUT" default:"10s"`
	WriteTimeout time.Duration `envconfig:"HYDRUS_HTTP_WRITE_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	DSN    string `envconfig:"HYDRUS_DB_DSN"`
	Driver string `envconfig:"HYDRUS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HYDRUS_DB_HOST"`
	LegacyPort     int    `envconfig:"HYDRUS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HYDRUS_DB_USER"`
	LegacyPassword string `envconfig:"HYDRUS_DB_PASSWORD"`
	LegacyName     string `envconfig:"HYDRUS_DB_NAME"`
	LegacySSLMode  string `envconfig:"HYDRUS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HYDRUS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HYDRUS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HYDRUS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HYDRUS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"HYDRUS_DB_SLOW_QUERY" default:"200ms"`
}

// IsSQLite reports whether the sqlite driver is selected (local runs and tests).
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"HYDRUS_REDIS_URL"`
	Address      string        `envconfig:"HYDRUS_REDIS_ADDR"`
	Password     string        `envconfig:"HYDRUS_REDIS_PASSWORD"`
	DB           int           `envconfig:"HYDRUS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HYDRUS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HYDRUS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HYDRUS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HYDRUS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HYDRUS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SessionConfig describes the session tokens minted by the sign-in provider.
type SessionConfig struct {
	Secret     string        `envconfig:"HYDRUS_SESSION_SECRET" required:"true"`
	Issuer     string        `envconfig:"HYDRUS_SESSION_ISSUER" default:"hydrus"`
	CookieName string        `envconfig:"HYDRUS_SESSION_COOKIE" default:"hydrus_session"`
	TTL        time.Duration `envconfig:"HYDRUS_SESSION_TTL" default:"720h"`
}

type StripeConfig struct {
	APIKey           string        `envconfig:"HYDRUS_STRIPE_API_KEY"`
	WebhookSecret    string        `envconfig:"HYDRUS_STRIPE_WEBHOOK_SECRET"`
	Env              string        `envconfig:"HYDRUS_STRIPE_ENV" default:"test"`
	WebhookTolerance time.Duration `envconfig:"HYDRUS_STRIPE_WEBHOOK_TOLERANCE" default:"5m"`
	UsageMeterID     string        `envconfig:"HYDRUS_STRIPE_USAGE_METER_ID"`
	MaxRetries       int64         `envconfig:"HYDRUS_STRIPE_MAX_RETRIES" default:"2"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type GCPConfig struct {
	ProjectID       string `envconfig:"HYDRUS_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"HYDRUS_GCP_CREDENTIALS_JSON"`
	EmulatorHost    string `envconfig:"PUBSUB_EMULATOR_HOST"`
}

type PubSubConfig struct {
	DunningTopic string `envconfig:"HYDRUS_PUBSUB_DUNNING_TOPIC" default:"hydrus-dunning"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"HYDRUS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"HYDRUS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"HYDRUS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// RetentionConfig drives the cron worker's pruning jobs.
type RetentionConfig struct {
	Interval       time.Duration `envconfig:"HYDRUS_CRON_INTERVAL" default:"24h"`
	OutboxDays     int           `envconfig:"HYDRUS_OUTBOX_RETENTION_DAYS" default:"30"`
	WebhookLogDays int           `envconfig:"HYDRUS_WEBHOOK_LOG_RETENTION_DAYS" default:"90"`
	DeleteBatch    int           `envconfig:"HYDRUS_RETENTION_DELETE_BATCH" default:"1000"`
}

type CORSConfig struct {
	AllowedOrigins []string      `envconfig:"HYDRUS_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
	MaxAge         time.Duration `envconfig:"HYDRUS_CORS_MAX_AGE" default:"5m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HYDRUS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
