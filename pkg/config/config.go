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
	Auth         AuthConfig
	Password     PasswordConfig
	Identity     IdentityConfig
	Email        EmailConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	Outbox       OutboxConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Cron         CronConfig
	Tracing      TracingConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
	} else if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Email.Provider {
	case EmailProviderLog, EmailProviderSMTP, EmailProviderSES:
	default:
		return fmt.Errorf("%s must be one of log, smtp, ses (got %q)", EnvEmailProvider, c.Email.Provider)
	}
	switch c.Outbox.Delivery {
	case OutboxDeliveryLocal:
	case OutboxDeliveryPubSub:
		if strings.TrimSpace(c.GCP.ProjectID) == "" {
			return fmt.Errorf("%s is required when %s=pubsub", EnvGCPProjectID, EnvOutboxDelivery)
		}
		if strings.TrimSpace(c.PubSub.DomainTopic) == "" {
			return fmt.Errorf("%s is required when %s=pubsub", EnvPubSubDomainTopic, EnvOutboxDelivery)
		}
	default:
		return fmt.Errorf("%s must be local or pubsub (got %q)", EnvOutboxDelivery, c.Outbox.Delivery)
	}
	if !strings.HasPrefix(c.Auth.EmailDomain, "@") {
		return fmt.Errorf("%s must start with @", EnvAuthEmailDomain)
	}
	return nil
}

type AppConfig struct {
	Env          string `envconfig:"CAMPUS_APP_ENV" required:"true"`
	Port         string `envconfig:"CAMPUS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CAMPUS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CAMPUS_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"CAMPUS_CORS_ALLOWED_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CAMPUS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN        string `envconfig:"CAMPUS_DB_DSN"`
	Driver     string `envconfig:"CAMPUS_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"CAMPUS_DB_SQLITE_PATH" default:"campus.db"`

	LegacyHost     string `envconfig:"CAMPUS_DB_HOST"`
	LegacyPort     int    `envconfig:"CAMPUS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CAMPUS_DB_USER"`
	LegacyPassword string `envconfig:"CAMPUS_DB_PASSWORD"`
	LegacyName     string `envconfig:"CAMPUS_DB_NAME"`
	LegacySSLMode  string `envconfig:"CAMPUS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CAMPUS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CAMPUS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CAMPUS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CAMPUS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"CAMPUS_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CAMPUS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CAMPUS_REDIS_ADDR"`
	Password     string        `envconfig:"CAMPUS_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAMPUS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAMPUS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CAMPUS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CAMPUS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAMPUS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CAMPUS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// AuthConfig drives the signup flow. A zero TokenMaxAge keeps composite tokens
// valid regardless of issuance time.
type AuthConfig struct {
	EmailDomain       string        `envconfig:"CAMPUS_AUTH_EMAIL_DOMAIN" default:"@iitk.ac.in"`
	SuperAdminEmails  []string      `envconfig:"CAMPUS_AUTH_SUPER_ADMIN_EMAILS"`
	CodeTTL           time.Duration `envconfig:"CAMPUS_AUTH_CODE_TTL" default:"15m"`
	TokenMaxAge       time.Duration `envconfig:"CAMPUS_AUTH_TOKEN_MAX_AGE" default:"0"`
	FederatedCacheTTL time.Duration `envconfig:"CAMPUS_AUTH_FEDERATED_CACHE_TTL" default:"5m"`
	MinPasswordLength int           `envconfig:"CAMPUS_AUTH_MIN_PASSWORD_LENGTH" default:"6"`
	EchoCodeInDev     bool          `envconfig:"CAMPUS_AUTH_ECHO_CODE_IN_DEV" default:"true"`
}

// NormalizedSuperAdmins returns the configured super-admin emails lower-cased and trimmed.
func (a AuthConfig) NormalizedSuperAdmins() []string {
	out := make([]string, 0, len(a.SuperAdminEmails))
	for _, email := range a.SuperAdminEmails {
		if trimmed := strings.ToLower(strings.TrimSpace(email)); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CAMPUS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CAMPUS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CAMPUS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CAMPUS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CAMPUS_ARGON_KEY_LEN" default:"32"`
}

type IdentityConfig struct {
	JWTSecret string        `envconfig:"CAMPUS_IDENTITY_JWT_SECRET"`
	Issuer    string        `envconfig:"CAMPUS_IDENTITY_ISSUER"`
	Audience  string        `envconfig:"CAMPUS_IDENTITY_AUDIENCE"`
	Leeway    time.Duration `envconfig:"CAMPUS_IDENTITY_LEEWAY" default:"30s"`
}

// Enabled reports whether federated sign-in can be verified.
func (i IdentityConfig) Enabled() bool {
	return strings.TrimSpace(i.JWTSecret) != ""
}

type EmailConfig struct {
	Provider     string        `envconfig:"CAMPUS_EMAIL_PROVIDER" default:"log"`
	From         string        `envconfig:"CAMPUS_EMAIL_FROM" default:"noreply@loredrop.com"`
	SMTPHost     string        `envconfig:"CAMPUS_SMTP_HOST" default:"smtp.gmail.com"`
	SMTPPort     int           `envconfig:"CAMPUS_SMTP_PORT" default:"587"`
	SMTPUser     string        `envconfig:"CAMPUS_SMTP_USER"`
	SMTPPassword string        `envconfig:"CAMPUS_SMTP_PASSWORD"`
	SESRegion    string        `envconfig:"CAMPUS_SES_REGION" default:"ap-south-1"`
	SESAccessKey string        `envconfig:"CAMPUS_SES_ACCESS_KEY_ID"`
	SESSecretKey string        `envconfig:"CAMPUS_SES_SECRET_ACCESS_KEY"`
	SendTimeout  time.Duration `envconfig:"CAMPUS_EMAIL_SEND_TIMEOUT" default:"20s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CAMPUS_FEATURE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CAMPUS_FEATURE_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"CAMPUS_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	FanoutBatchSize      int           `envconfig:"CAMPUS_EVENTING_FANOUT_BATCH_SIZE" default:"500"`
}

type OutboxConfig struct {
	Delivery       string `envconfig:"CAMPUS_OUTBOX_DELIVERY" default:"local"`
	BatchSize      int    `envconfig:"CAMPUS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int    `envconfig:"CAMPUS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int    `envconfig:"CAMPUS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// PollInterval returns the relay poll cadence.
func (o OutboxConfig) PollInterval() time.Duration {
	if o.PollIntervalMS <= 0 {
		return 0
	}
	return time.Duration(o.PollIntervalMS) * time.Millisecond
}

type GCPConfig struct {
	ProjectID string `envconfig:"CAMPUS_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic              string `envconfig:"CAMPUS_PUBSUB_DOMAIN_TOPIC" default:"campus-domain-events"`
	NotificationSubscription string `envconfig:"CAMPUS_PUBSUB_NOTIFICATION_SUBSCRIPTION" default:"campus-notifications"`
}

type CronConfig struct {
	Interval              time.Duration `envconfig:"CAMPUS_CRON_INTERVAL" default:"24h"`
	VerificationCodeGrace time.Duration `envconfig:"CAMPUS_CRON_VERIFICATION_GRACE" default:"24h"`
	OutboxRetentionDays   int           `envconfig:"CAMPUS_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
}

type TracingConfig struct {
	OTLPEndpoint string `envconfig:"CAMPUS_OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure     bool   `envconfig:"CAMPUS_OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
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
