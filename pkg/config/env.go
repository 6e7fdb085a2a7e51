package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "OPTICA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "OPTICA_APP_ENV"
	EnvPort         = "OPTICA_APP_PORT"
	EnvLogLevel     = "OPTICA_LOG_LEVEL"
	EnvDBDSN        = "OPTICA_DB_DSN"
	EnvDBHost       = "OPTICA_DB_HOST"
	EnvDBUser       = "OPTICA_DB_USER"
	EnvDBName       = "OPTICA_DB_NAME"
	EnvDBPassword   = "OPTICA_DB_PASSWORD"
	EnvRedisURL     = "OPTICA_REDIS_URL"
	EnvJWTSecret    = "OPTICA_JWT_SECRET"
	EnvJWTIssuer    = "OPTICA_JWT_ISSUER"
	EnvAutoMigrate  = "OPTICA_AUTO_MIGRATE"
	EnvERPSync      = "OPTICA_FEATURE_ERP_SYNC"
	EnvPaymentsURL  = "OPTICA_PAYMENTS_BASE_URL"
	EnvPaymentsKey  = "OPTICA_PAYMENTS_ACCESS_TOKEN"
	EnvShippingURL  = "OPTICA_SHIPPING_BASE_URL"
	EnvShippingWait = "OPTICA_SHIPPING_TIMEOUT"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
