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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Stripe       StripeConfig
	Sendgrid     SendgridConfig
	Reminders    RemindersConfig
	Cron         CronConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"LEASEPOINT_APP_ENV" required:"true"`
	Port         string `envconfig:"LEASEPOINT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LEASEPOINT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LEASEPOINT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"LEASEPOINT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LEASEPOINT_DB_DSN"`
	Driver string `envconfig:"LEASEPOINT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LEASEPOINT_DB_HOST"`
	LegacyPort     int    `envconfig:"LEASEPOINT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LEASEPOINT_DB_USER"`
	LegacyPassword string `envconfig:"LEASEPOINT_DB_PASSWORD"`
	LegacyName     string `envconfig:"LEASEPOINT_DB_NAME"`
	LegacySSLMode  string `envconfig:"LEASEPOINT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LEASEPOINT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LEASEPOINT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LEASEPOINT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LEASEPOINT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LEASEPOINT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LEASEPOINT_REDIS_ADDR"`
	Password     string        `envconfig:"LEASEPOINT_REDIS_PASSWORD"`
	DB           int           `envconfig:"LEASEPOINT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LEASEPOINT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LEASEPOINT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LEASEPOINT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LEASEPOINT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LEASEPOINT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"LEASEPOINT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LEASEPOINT_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LEASEPOINT_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LEASEPOINT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LEASEPOINT_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	APIKey     string `envconfig:"LEASEPOINT_STRIPE_API_KEY"`
	Secret     string `envconfig:"LEASEPOINT_STRIPE_SECRET"`
	Env        string `envconfig:"LEASEPOINT_STRIPE_ENV" default:"test"`
	SuccessURL string `envconfig:"LEASEPOINT_STRIPE_SUCCESS_URL"`
	CancelURL  string `envconfig:"LEASEPOINT_STRIPE_CANCEL_URL"`
}

type SendgridConfig struct {
	APIKey      string `envconfig:"LEASEPOINT_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"LEASEPOINT_SENDGRID_FROM_EMAIL"`
	FromName    string `envconfig:"LEASEPOINT_SENDGRID_FROM_NAME" default:"LeasePoint"`
}

type RemindersConfig struct {
	GraceDays       int           `envconfig:"LEASEPOINT_REMINDER_GRACE_DAYS" default:"14"`
	DedupWindow     time.Duration `envconfig:"LEASEPOINT_REMINDER_DEDUP_WINDOW" default:"24h"`
	UpcomingOffset  int           `envconfig:"LEASEPOINT_REMINDER_UPCOMING_OFFSET_DAYS" default:"7"`
	OverdueOffset   int           `envconfig:"LEASEPOINT_REMINDER_OVERDUE_OFFSET_DAYS" default:"7"`
	ScanBatchSize   int           `envconfig:"LEASEPOINT_REMINDER_SCAN_BATCH_SIZE" default:"500"`
	PerRunTimeoutMS int           `envconfig:"LEASEPOINT_REMINDER_RUN_TIMEOUT_MS" default:"600000"`
}

type CronConfig struct {
	Interval   time.Duration `envconfig:"LEASEPOINT_CRON_INTERVAL" default:"24h"`
	RunTimeout time.Duration `envconfig:"LEASEPOINT_CRON_RUN_TIMEOUT" default:"30m"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"LEASEPOINT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"LEASEPOINT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"LEASEPOINT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
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
