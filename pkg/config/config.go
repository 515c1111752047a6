package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is applied by envconfig on top of the per-field names below.
const EnvPrefix = "CB"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Names of the environment variables tests and error messages refer to.
const (
	EnvAppEnv = "CB_APP_ENV"
	EnvPort   = "CB_APP_PORT"
	EnvDBDSN  = "CB_DB_DSN"
	EnvDBHost = "CB_DB_HOST"
	EnvDBUser = "CB_DB_USER"
	EnvDBName = "CB_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Geo          GeoConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"CB_APP_ENV" required:"true"`
	Port         string `envconfig:"CB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CB_DB_DSN"`
	Driver string `envconfig:"CB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CB_DB_HOST"`
	LegacyPort     int    `envconfig:"CB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CB_DB_USER"`
	LegacyPassword string `envconfig:"CB_DB_PASSWORD"`
	LegacyName     string `envconfig:"CB_DB_NAME"`
	LegacySSLMode  string `envconfig:"CB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	Enabled      bool          `envconfig:"CB_REDIS_ENABLED" default:"false"`
	URL          string        `envconfig:"CB_REDIS_URL"`
	Address      string        `envconfig:"CB_REDIS_ADDR"`
	Password     string        `envconfig:"CB_REDIS_PASSWORD"`
	DB           int           `envconfig:"CB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// GeoConfig bounds the spatial query surface and the offline matcher.
type GeoConfig struct {
	MaxBulkPoints  int           `envconfig:"CB_GEO_MAX_BULK_POINTS" default:"1000"`
	MatchThreshold float64       `envconfig:"CB_GEO_MATCH_THRESHOLD" default:"0.5"`
	CacheTTL       time.Duration `envconfig:"CB_GEO_CACHE_TTL" default:"5m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CB_FEATURE_AUTO_MIGRATE" default:"false"`
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
