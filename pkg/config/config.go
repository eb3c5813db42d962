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
	Outbox       OutboxConfig
	SMTP         SMTPConfig
	Cron         CronConfig
	Gamification GamificationConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if _, err := cfg.App.Location(); err != nil {
		return nil, err
	}
	if cfg.SMTP.Enabled && (cfg.SMTP.Host == "" || cfg.SMTP.From == "") {
		return nil, fmt.Errorf("%s and %s are required when %s is set", EnvSMTPHost, EnvSMTPFrom, EnvSMTPEnabled)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"SERVICEHUB_APP_ENV" required:"true"`
	Port         string   `envconfig:"SERVICEHUB_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"SERVICEHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"SERVICEHUB_LOG_WARN_STACK" default:"false"`
	Timezone     string   `envconfig:"SERVICEHUB_APP_TIMEZONE" default:"UTC"`
	CORSOrigins  []string `envconfig:"SERVICEHUB_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// Location resolves the configured business timezone used for calendar boundaries.
func (a AppConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(a.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvTimezone, name, err)
	}
	return loc, nil
}

type ServiceConfig struct {
	Kind string `envconfig:"SERVICEHUB_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SERVICEHUB_DB_DSN"`
	Driver string `envconfig:"SERVICEHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SERVICEHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"SERVICEHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SERVICEHUB_DB_USER"`
	LegacyPassword string `envconfig:"SERVICEHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"SERVICEHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"SERVICEHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SERVICEHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SERVICEHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SERVICEHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SERVICEHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SERVICEHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SERVICEHUB_REDIS_ADDR"`
	Password     string        `envconfig:"SERVICEHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"SERVICEHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SERVICEHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SERVICEHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SERVICEHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SERVICEHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SERVICEHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SERVICEHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SERVICEHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SERVICEHUB_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SERVICEHUB_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SERVICEHUB_AUTO_MIGRATE" default:"false"`
}

type OutboxConfig struct {
	BatchSize        int `envconfig:"SERVICEHUB_OUTBOX_DISPATCH_BATCH_SIZE" default:"50"`
	PollIntervalMS   int `envconfig:"SERVICEHUB_OUTBOX_DISPATCH_POLL_MS" default:"500"`
	MaxAttempts      int `envconfig:"SERVICEHUB_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays    int `envconfig:"SERVICEHUB_OUTBOX_RETENTION_DAYS" default:"30"`
	DLQRetentionDays int `envconfig:"SERVICEHUB_OUTBOX_DLQ_RETENTION_DAYS" default:"90"`
}

type SMTPConfig struct {
	Enabled  bool   `envconfig:"SERVICEHUB_SMTP_ENABLED" default:"false"`
	Host     string `envconfig:"SERVICEHUB_SMTP_HOST"`
	Port     int    `envconfig:"SERVICEHUB_SMTP_PORT" default:"587"`
	Username string `envconfig:"SERVICEHUB_SMTP_USERNAME"`
	Password string `envconfig:"SERVICEHUB_SMTP_PASSWORD"`
	From     string `envconfig:"SERVICEHUB_SMTP_FROM"`
}

// CronConfig holds one standard cron expression per scheduled job.
type CronConfig struct {
	OutboxRetention    string        `envconfig:"SERVICEHUB_CRON_OUTBOX_RETENTION" default:"0 3 * * *"`
	RedemptionExpiry   string        `envconfig:"SERVICEHUB_CRON_REDEMPTION_EXPIRY" default:"*/15 * * * *"`
	LeaderboardRefresh string        `envconfig:"SERVICEHUB_CRON_LEADERBOARD_REFRESH" default:"*/5 * * * *"`
	LockTTL            time.Duration `envconfig:"SERVICEHUB_CRON_LOCK_TTL" default:"10m"`
}

type GamificationConfig struct {
	LeaderboardCacheTTL   time.Duration `envconfig:"SERVICEHUB_LEADERBOARD_CACHE_TTL" default:"5m"`
	LeaderboardLimit      int           `envconfig:"SERVICEHUB_LEADERBOARD_DEFAULT_LIMIT" default:"10"`
	RedeemRateLimit       int           `envconfig:"SERVICEHUB_REDEEM_RATE_LIMIT" default:"5"`
	RedeemRateLimitWindow time.Duration `envconfig:"SERVICEHUB_REDEEM_RATE_LIMIT_WINDOW" default:"1m"`
	QuickResponseWindow   time.Duration `envconfig:"SERVICEHUB_QUICK_RESPONSE_WINDOW" default:"1h"`
	OnTimeGrace           time.Duration `envconfig:"SERVICEHUB_ON_TIME_GRACE" default:"15m"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.DSN = "file:servicehub.db?cache=shared&_foreign_keys=on"
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
