package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Stripe        StripeConfig
	Checkout      CheckoutConfig
	Webhook       WebhookConfig
	Cron          CronConfig
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
	Env          string `envconfig:"STOCKPLACE_APP_ENV" required:"true"`
	Port         string `envconfig:"STOCKPLACE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOCKPLACE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOCKPLACE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOCKPLACE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOCKPLACE_DB_DSN"`
	Driver string `envconfig:"STOCKPLACE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STOCKPLACE_DB_HOST"`
	LegacyPort     int    `envconfig:"STOCKPLACE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOCKPLACE_DB_USER"`
	LegacyPassword string `envconfig:"STOCKPLACE_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOCKPLACE_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOCKPLACE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOCKPLACE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOCKPLACE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOCKPLACE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOCKPLACE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOCKPLACE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOCKPLACE_REDIS_ADDR"`
	Password     string        `envconfig:"STOCKPLACE_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOCKPLACE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOCKPLACE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOCKPLACE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOCKPLACE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOCKPLACE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOCKPLACE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOCKPLACE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOCKPLACE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STOCKPLACE_JWT_EXPIRATION_MINUTES" required:"true"`
}

// AccessTokenTTL returns the access token lifetime configured in minutes.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"STOCKPLACE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"STOCKPLACE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"STOCKPLACE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"STOCKPLACE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"STOCKPLACE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"STOCKPLACE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"STOCKPLACE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"STOCKPLACE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"STOCKPLACE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"STOCKPLACE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"STOCKPLACE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOCKPLACE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOCKPLACE_AUTO_MIGRATE" default:"false"`
}

type StripeConfig struct {
	SecretKey     string `envconfig:"STOCKPLACE_STRIPE_SECRET_KEY"`
	WebhookSecret string `envconfig:"STOCKPLACE_STRIPE_WEBHOOK_SECRET"`
	Env           string `envconfig:"STOCKPLACE_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CheckoutConfig struct {
	PlatformFeePercent string `envconfig:"STOCKPLACE_CHECKOUT_PLATFORM_FEE_PERCENT" default:"10"`
	SuccessURL         string `envconfig:"STOCKPLACE_CHECKOUT_SUCCESS_URL" default:"http://localhost:3000/checkout/success"`
	CancelURL          string `envconfig:"STOCKPLACE_CHECKOUT_CANCEL_URL" default:"http://localhost:3000/checkout/cancel"`
	Currency           string `envconfig:"STOCKPLACE_CHECKOUT_CURRENCY" default:"eur"`
}

type WebhookConfig struct {
	GuardTTL    time.Duration `envconfig:"STOCKPLACE_WEBHOOK_GUARD_TTL" default:"24h"`
	MaxAttempts int           `envconfig:"STOCKPLACE_WEBHOOK_MAX_ATTEMPTS" default:"5"`
}

type CronConfig struct {
	RentalActivationInterval time.Duration `envconfig:"STOCKPLACE_CRON_RENTAL_ACTIVATION_INTERVAL" default:"1h"`
	RentalReleaseInterval    time.Duration `envconfig:"STOCKPLACE_CRON_RENTAL_RELEASE_INTERVAL" default:"1h"`
	WebhookReplayInterval    time.Duration `envconfig:"STOCKPLACE_CRON_WEBHOOK_REPLAY_INTERVAL" default:"5m"`
	WebhookReplayBatchSize   int           `envconfig:"STOCKPLACE_CRON_WEBHOOK_REPLAY_BATCH_SIZE" default:"50"`
	LockTTL                  time.Duration `envconfig:"STOCKPLACE_CRON_LOCK_TTL" default:"10m"`
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
