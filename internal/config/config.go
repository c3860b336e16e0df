package config

import (
	"github.com/sampleapi/users-service/internal/logger"
)

type Config struct {
	App        AppConfig           `mapstructure:"app"`
	Logger     logger.LoggerConfig `mapstructure:"logger" validate:"-"`
	Postgres   PostgresConfig      `mapstructure:"postgres"`
	Storage    StorageConfig       `mapstructure:"storage"`
	Auth       AuthConfig          `mapstructure:"auth"`
	Pagination PaginationConfig    `mapstructure:"pagination"`
	Users      UsersConfig         `mapstructure:"users"`
}

type AppConfig struct {
	Name            string `mapstructure:"name"`
	Version         string `mapstructure:"version"`
	Env             string `mapstructure:"env" validate:"oneof=dev test staging prod"`
	Port            int    `mapstructure:"port" validate:"min=1,max=65535"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout" validate:"min=1"` // seconds
	RequestTimeout  int    `mapstructure:"request_timeout" validate:"min=1"`  // seconds
}

// PostgresConfig secrets come from env (APP_POSTGRES_USER / _PASSWORD / _DB) and are
// only required when the postgres storage driver is selected.
type PostgresConfig struct {
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	DBName            string `mapstructure:"db"`
	SSLMode           string `mapstructure:"sslmode"`
	MaxConns          int32  `mapstructure:"max_conns"`
	MinConns          int32  `mapstructure:"min_conns"`
	MaxConnLifetime   int    `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime   int    `mapstructure:"max_conn_idle_time"`
	HealthCheckPeriod int    `mapstructure:"health_check_period"`
	AutoMigrate       bool   `mapstructure:"auto_migrate"`
}

type StorageConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=postgres memory"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=16"`
	Issuer    string `mapstructure:"issuer"`
	TokenTTL  int    `mapstructure:"token_ttl" validate:"min=1"` // minutes
}

type PaginationConfig struct {
	MinLimit int `mapstructure:"min_limit" validate:"min=1"`
	MaxLimit int `mapstructure:"max_limit" validate:"gtefield=MinLimit"`
}

type UsersConfig struct {
	DefaultTenantID int64 `mapstructure:"default_tenant_id" validate:"min=1"`
}
