package config

const (
	EnvPrefix = "CAMPUS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv       = "CAMPUS_APP_ENV"
	EnvPort         = "CAMPUS_APP_PORT"
	EnvLogLevel     = "CAMPUS_LOG_LEVEL"
	EnvLogWarnStack = "CAMPUS_LOG_WARN_STACK"
	EnvCORSOrigins  = "CAMPUS_CORS_ALLOWED_ORIGINS"

	EnvDBDSN      = "CAMPUS_DB_DSN"
	EnvDBHost     = "CAMPUS_DB_HOST"
	EnvDBPort     = "CAMPUS_DB_PORT"
	EnvDBUser     = "CAMPUS_DB_USER"
	EnvDBPassword = "CAMPUS_DB_PASSWORD"
	EnvDBName     = "CAMPUS_DB_NAME"
	EnvDBSSLMode  = "CAMPUS_DB_SSLMODE"

	EnvRedisURL = "CAMPUS_REDIS_URL"

	EnvAuthEmailDomain      = "CAMPUS_AUTH_EMAIL_DOMAIN"
	EnvAuthSuperAdminEmails = "CAMPUS_AUTH_SUPER_ADMIN_EMAILS"
	EnvAuthCodeTTL          = "CAMPUS_AUTH_CODE_TTL"
	EnvAuthTokenMaxAge      = "CAMPUS_AUTH_TOKEN_MAX_AGE"

	EnvIdentityJWTSecret = "CAMPUS_IDENTITY_JWT_SECRET"
	EnvIdentityIssuer    = "CAMPUS_IDENTITY_ISSUER"
	EnvIdentityAudience  = "CAMPUS_IDENTITY_AUDIENCE"

	EnvEmailProvider = "CAMPUS_EMAIL_PROVIDER"
	EnvEmailFrom     = "CAMPUS_EMAIL_FROM"
	EnvSMTPHost      = "CAMPUS_SMTP_HOST"
	EnvSMTPPort      = "CAMPUS_SMTP_PORT"
	EnvSMTPUser      = "CAMPUS_SMTP_USER"
	EnvSMTPPassword  = "CAMPUS_SMTP_PASSWORD"
	EnvSESRegion     = "CAMPUS_SES_REGION"
	EnvSESAccessKey  = "CAMPUS_SES_ACCESS_KEY_ID"
	EnvSESSecretKey  = "CAMPUS_SES_SECRET_ACCESS_KEY"

	EnvUseSQLite   = "CAMPUS_FEATURE_USE_SQLITE"
	EnvAutoMigrate = "CAMPUS_FEATURE_AUTO_MIGRATE"

	EnvOutboxDelivery = "CAMPUS_OUTBOX_DELIVERY"

	EnvGCPProjectID        = "CAMPUS_GCP_PROJECT_ID"
	EnvPubSubDomainTopic   = "CAMPUS_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubNotifySub     = "CAMPUS_PUBSUB_NOTIFICATION_SUBSCRIPTION"
	EnvTracingOTLPEndpoint = "CAMPUS_OTEL_EXPORTER_OTLP_ENDPOINT"

	EmailProviderLog  = "log"
	EmailProviderSMTP = "smtp"
	EmailProviderSES  = "ses"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	OutboxDeliveryLocal  = "local"
	OutboxDeliveryPubSub = "pubsub"
)

var legacyDBEnvVars = []string{
	EnvDBHost,
	EnvDBUser,
	EnvDBName,
}
