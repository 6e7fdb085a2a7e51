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
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Payments     PaymentsConfig
	ERP          ERPConfig
	Shipping     ShippingConfig
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
	Env          string `envconfig:"OPTICA_APP_ENV" required:"true"`
	Port         string `envconfig:"OPTICA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"OPTICA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OPTICA_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"OPTICA_LOG_FORMAT" default:"json"`
	PublicURL    string `envconfig:"OPTICA_APP_PUBLIC_URL" default:"http://localhost:8080"`
	FrontendURL  string `envconfig:"OPTICA_APP_FRONTEND_URL" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"OPTICA_DB_DSN"`

	Host     string `envconfig:"OPTICA_DB_HOST"`
	Port     int    `envconfig:"OPTICA_DB_PORT" default:"5432"`
	User     string `envconfig:"OPTICA_DB_USER"`
	Password string `envconfig:"OPTICA_DB_PASSWORD"`
	Name     string `envconfig:"OPTICA_DB_NAME"`
	SSLMode  string `envconfig:"OPTICA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"OPTICA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OPTICA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OPTICA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OPTICA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"OPTICA_DB_SLOW_QUERY" default:"250ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OPTICA_REDIS_URL"`
	Address      string        `envconfig:"OPTICA_REDIS_ADDR"`
	Password     string        `envconfig:"OPTICA_REDIS_PASSWORD"`
	DB           int           `envconfig:"OPTICA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OPTICA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OPTICA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OPTICA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OPTICA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OPTICA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"OPTICA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"OPTICA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"OPTICA_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"OPTICA_AUTO_MIGRATE" default:"false"`
	ERPSync     bool `envconfig:"OPTICA_FEATURE_ERP_SYNC" default:"false"`
}

// PaymentsConfig configures the hosted-checkout payment gateway.
type PaymentsConfig struct {
	BaseURL         string        `envconfig:"OPTICA_PAYMENTS_BASE_URL" default:"https://api.mercadopago.com"`
	AccessToken     string        `envconfig:"OPTICA_PAYMENTS_ACCESS_TOKEN"`
	WebhookSecret   string        `envconfig:"OPTICA_PAYMENTS_WEBHOOK_SECRET"`
	SuccessURL      string        `envconfig:"OPTICA_PAYMENTS_SUCCESS_URL"`
	FailureURL      string        `envconfig:"OPTICA_PAYMENTS_FAILURE_URL"`
	PendingURL      string        `envconfig:"OPTICA_PAYMENTS_PENDING_URL"`
	NotificationURL string        `envconfig:"OPTICA_PAYMENTS_NOTIFICATION_URL"`
	Timeout         time.Duration `envconfig:"OPTICA_PAYMENTS_TIMEOUT" default:"10s"`
}

// BackURL falls back to the frontend order page when a specific return url is not configured.
func (p PaymentsConfig) BackURL(specific, frontend string) string {
	if strings.TrimSpace(specific) != "" {
		return specific
	}
	return strings.TrimRight(frontend, "/") + "/orders"
}

type ERPConfig struct {
	BaseURL      string        `envconfig:"OPTICA_ERP_BASE_URL"`
	TokenURL     string        `envconfig:"OPTICA_ERP_TOKEN_URL"`
	ClientID     string        `envconfig:"OPTICA_ERP_CLIENT_ID"`
	ClientSecret string        `envconfig:"OPTICA_ERP_CLIENT_SECRET"`
	AccountUser  string        `envconfig:"OPTICA_ERP_ACCOUNT_USER_ID"`
	Timeout      time.Duration `envconfig:"OPTICA_ERP_TIMEOUT" default:"10s"`
}

type ShippingConfig struct {
	BaseURL          string        `envconfig:"OPTICA_SHIPPING_BASE_URL"`
	Token            string        `envconfig:"OPTICA_SHIPPING_TOKEN"`
	OriginPostalCode string        `envconfig:"OPTICA_SHIPPING_ORIGIN_POSTAL_CODE" default:"01001000"`
	Timeout          time.Duration `envconfig:"OPTICA_SHIPPING_TIMEOUT" default:"5s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
