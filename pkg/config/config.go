package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App         AppConfig
	DB          DBConfig
	Redis       RedisConfig
	Session     SessionConfig
	Flutterwave FlutterwaveConfig
	Storefront  StorefrontConfig
	Checkout    CheckoutConfig
	FeatureFlag FeatureFlagsConfig
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
	Env          string `envconfig:"BISCENIC_APP_ENV" required:"true"`
	Port         string `envconfig:"BISCENIC_APP_PORT" default:"5050"`
	LogLevel     string `envconfig:"BISCENIC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BISCENIC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BISCENIC_DB_DSN"`
	Driver string `envconfig:"BISCENIC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BISCENIC_DB_HOST"`
	LegacyPort     int    `envconfig:"BISCENIC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BISCENIC_DB_USER"`
	LegacyPassword string `envconfig:"BISCENIC_DB_PASSWORD"`
	LegacyName     string `envconfig:"BISCENIC_DB_NAME"`
	LegacySSLMode  string `envconfig:"BISCENIC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BISCENIC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BISCENIC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BISCENIC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BISCENIC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BISCENIC_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BISCENIC_REDIS_ADDR"`
	Password     string        `envconfig:"BISCENIC_REDIS_PASSWORD"`
	DB           int           `envconfig:"BISCENIC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BISCENIC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BISCENIC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BISCENIC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BISCENIC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BISCENIC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SessionConfig controls the anonymous storefront session cookie. The cookie
// has to outlive the redirect to the payment gateway and back, so its TTL is
// measured in days, not minutes.
type SessionConfig struct {
	Secret     string `envconfig:"BISCENIC_SESSION_SECRET" required:"true"`
	Issuer     string `envconfig:"BISCENIC_SESSION_ISSUER" default:"biscenic"`
	CookieName string `envconfig:"BISCENIC_SESSION_COOKIE" default:"biscenic_session"`
	TTLDays    int    `envconfig:"BISCENIC_SESSION_TTL_DAYS" default:"30"`
	Secure     bool   `envconfig:"BISCENIC_SESSION_COOKIE_SECURE" default:"true"`
}

// TTL returns the configured session lifetime.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLDays <= 0 {
		return 0
	}
	return time.Duration(s.TTLDays) * 24 * time.Hour
}

type FlutterwaveConfig struct {
	SecretKey string        `envconfig:"BISCENIC_FLW_SECRET_KEY" required:"true"`
	BaseURL   string        `envconfig:"BISCENIC_FLW_BASE_URL" default:"https://api.flutterwave.com"`
	Env       string        `envconfig:"BISCENIC_FLW_ENV" default:"test"`
	Timeout   time.Duration `envconfig:"BISCENIC_FLW_TIMEOUT" default:"30s"`
}

// Environment returns the normalized Flutterwave environment (test/live).
func (f FlutterwaveConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(f.Env))
	if env == "" {
		return "test"
	}
	return env
}

// StorefrontConfig holds the browser-facing URLs the checkout flow redirects to.
type StorefrontConfig struct {
	BaseURL    string `envconfig:"BISCENIC_STOREFRONT_URL" required:"true"`
	SuccessURL string `envconfig:"BISCENIC_STOREFRONT_SUCCESS_PATH" default:"/order-success"`
	ErrorURL   string `envconfig:"BISCENIC_STOREFRONT_ERROR_PATH" default:"/order-error"`
	ReturnURL  string `envconfig:"BISCENIC_CHECKOUT_RETURN_URL" required:"true"`
	Currency   string `envconfig:"BISCENIC_STOREFRONT_CURRENCY" default:"NGN"`
}

type CheckoutConfig struct {
	CartTTL           time.Duration `envconfig:"BISCENIC_CART_TTL" default:"720h"`
	SessionTTL        time.Duration `envconfig:"BISCENIC_CHECKOUT_SESSION_TTL" default:"168h"`
	FinalizeLockTTL   time.Duration `envconfig:"BISCENIC_FINALIZE_LOCK_TTL" default:"10m"`
	IdempotencyTTL    time.Duration `envconfig:"BISCENIC_IDEMPOTENCY_TTL" default:"24h"`
	CriticalIdemTTL   time.Duration `envconfig:"BISCENIC_IDEMPOTENCY_CRITICAL_TTL" default:"168h"`
	TransactionPrefix string        `envconfig:"BISCENIC_TX_REF_PREFIX" default:"BSC"`
	PendingPaymentTTL time.Duration `envconfig:"BISCENIC_PENDING_PAYMENT_TTL" default:"24h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BISCENIC_AUTO_MIGRATE" default:"false"`
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
