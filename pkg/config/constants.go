package config

// EnvPrefix is passed to envconfig for fields without explicit tags.
const EnvPrefix = "carnimore"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

// Canonical environment variable names, referenced from tests and error text.
const (
	EnvAppEnv   = "CARNIMORE_APP_ENV"
	EnvPort     = "CARNIMORE_APP_PORT"
	EnvLogLevel = "CARNIMORE_LOG_LEVEL"

	EnvDBDSN  = "CARNIMORE_DB_DSN"
	EnvDBHost = "CARNIMORE_DB_HOST"
	EnvDBUser = "CARNIMORE_DB_USER"
	EnvDBName = "CARNIMORE_DB_NAME"

	EnvRedisURL = "CARNIMORE_REDIS_URL"

	EnvJWTSecret              = "CARNIMORE_JWT_SECRET"
	EnvJWTIssuer              = "CARNIMORE_JWT_ISSUER"
	EnvJWTExpMins             = "CARNIMORE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "CARNIMORE_REFRESH_TOKEN_TTL_MINUTES"

	EnvGCPProjectID = "CARNIMORE_GCP_PROJECT_ID"

	EnvPubSubOrdersTopic = "CARNIMORE_PUBSUB_ORDERS_TOPIC"
	EnvPubSubOrdersSub   = "CARNIMORE_PUBSUB_ORDERS_SUBSCRIPTION"

	EnvSquareAccessToken = "CARNIMORE_SQUARE_ACCESS_TOKEN"
	EnvSquareEnv         = "CARNIMORE_SQUARE_ENV"
	EnvSquareLocationID  = "CARNIMORE_SQUARE_LOCATION_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
