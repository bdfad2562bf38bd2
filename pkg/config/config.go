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
	Checkout      CheckoutConfig
	Resolution    ResolutionConfig
	Square        SquareConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"CARNIMORE_APP_ENV" required:"true"`
	Port         string `envconfig:"CARNIMORE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CARNIMORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CARNIMORE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CARNIMORE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CARNIMORE_DB_DSN"`
	Driver string `envconfig:"CARNIMORE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CARNIMORE_DB_HOST"`
	LegacyPort     int    `envconfig:"CARNIMORE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CARNIMORE_DB_USER"`
	LegacyPassword string `envconfig:"CARNIMORE_DB_PASSWORD"`
	LegacyName     string `envconfig:"CARNIMORE_DB_NAME"`
	LegacySSLMode  string `envconfig:"CARNIMORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CARNIMORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CARNIMORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CARNIMORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CARNIMORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CARNIMORE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CARNIMORE_REDIS_ADDR"`
	Password     string        `envconfig:"CARNIMORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CARNIMORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CARNIMORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CARNIMORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CARNIMORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CARNIMORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CARNIMORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"CARNIMORE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"CARNIMORE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"CARNIMORE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"CARNIMORE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CARNIMORE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CARNIMORE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CARNIMORE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CARNIMORE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CARNIMORE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"CARNIMORE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"CARNIMORE_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"CARNIMORE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"CARNIMORE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"CARNIMORE_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"CARNIMORE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CARNIMORE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CARNIMORE_AUTO_MIGRATE" default:"false"`
}

// CheckoutConfig tunes the checkout flow session and submission behavior.
type CheckoutConfig struct {
	SessionTTL time.Duration `envconfig:"CARNIMORE_CHECKOUT_SESSION_TTL" default:"2h"`
	// SettleDelay is how long payment submission waits before acknowledging,
	// giving the processor time to create the order record. Submission always
	// acknowledges receipt only; resolution happens via polling.
	SettleDelay time.Duration `envconfig:"CARNIMORE_CHECKOUT_SETTLE_DELAY" default:"5s"`
}

// ResolutionConfig tunes the order resolution poller.
type ResolutionConfig struct {
	InitialDelay time.Duration `envconfig:"CARNIMORE_RESOLUTION_INITIAL_DELAY" default:"4s"`
	PollInterval time.Duration `envconfig:"CARNIMORE_RESOLUTION_POLL_INTERVAL" default:"4s"`
	Timeout      time.Duration `envconfig:"CARNIMORE_RESOLUTION_TIMEOUT" default:"5m"`
	SweepLimit   int           `envconfig:"CARNIMORE_RESOLUTION_SWEEP_LIMIT" default:"50"`
}

type SquareConfig struct {
	AccessToken   string `envconfig:"CARNIMORE_SQUARE_ACCESS_TOKEN"`
	Env           string `envconfig:"CARNIMORE_SQUARE_ENV" default:"sandbox"`
	LocationID    string `envconfig:"CARNIMORE_SQUARE_LOCATION_ID"`
	WebhookSecret string `envconfig:"CARNIMORE_SQUARE_WEBHOOK_SECRET"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CARNIMORE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"CARNIMORE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CARNIMORE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"CARNIMORE_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription string `envconfig:"CARNIMORE_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"CARNIMORE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"CARNIMORE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"CARNIMORE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"CARNIMORE_OUTBOX_IDEMPOTENCY_TTL" default:"720h"`
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
