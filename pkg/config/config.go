package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix scopes every environment variable read by Load.
	EnvPrefix = "swapyard"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SWAPYARD_DB_DSN"
	EnvDBHost = "SWAPYARD_DB_HOST"
	EnvDBUser = "SWAPYARD_DB_USER"
	EnvDBName = "SWAPYARD_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Fees         FeeConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
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
	if err := cfg.Fees.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SWAPYARD_APP_ENV" required:"true"`
	Port         string `envconfig:"SWAPYARD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SWAPYARD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SWAPYARD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SWAPYARD_DB_DSN"`
	Driver string `envconfig:"SWAPYARD_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SWAPYARD_DB_HOST"`
	Port     int    `envconfig:"SWAPYARD_DB_PORT" default:"5432"`
	User     string `envconfig:"SWAPYARD_DB_USER"`
	Password string `envconfig:"SWAPYARD_DB_PASSWORD"`
	Name     string `envconfig:"SWAPYARD_DB_NAME"`
	SSLMode  string `envconfig:"SWAPYARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SWAPYARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SWAPYARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SWAPYARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SWAPYARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SWAPYARD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SWAPYARD_REDIS_ADDR"`
	Password     string        `envconfig:"SWAPYARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"SWAPYARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SWAPYARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SWAPYARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SWAPYARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SWAPYARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SWAPYARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SWAPYARD_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SWAPYARD_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SWAPYARD_JWT_EXPIRATION_MINUTES" required:"true"`
}

// FeeConfig carries the platform fee rates in basis points, keyed by offer
// kind. The settlement engine never hardcodes a rate.
type FeeConfig struct {
	PurchaseFeeBps int `envconfig:"SWAPYARD_FEE_PURCHASE_BPS" default:"1000"`
	TradeFeeBps    int `envconfig:"SWAPYARD_FEE_TRADE_BPS" default:"1000"`
}

func (f FeeConfig) validate() error {
	if f.PurchaseFeeBps < 0 || f.PurchaseFeeBps > 10000 {
		return fmt.Errorf("purchase fee bps out of range: %d", f.PurchaseFeeBps)
	}
	if f.TradeFeeBps < 0 || f.TradeFeeBps > 10000 {
		return fmt.Errorf("trade fee bps out of range: %d", f.TradeFeeBps)
	}
	return nil
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SWAPYARD_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SWAPYARD_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"SWAPYARD_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"SWAPYARD_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	SettlementTopic        string `envconfig:"SWAPYARD_PUBSUB_SETTLEMENT_TOPIC" default:"sy-settlement-events"`
	SettlementSubscription string `envconfig:"SWAPYARD_PUBSUB_SETTLEMENT_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"SWAPYARD_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SWAPYARD_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SWAPYARD_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
	for _, env := range requiredDBEnvVars {
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
