package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// keys listed here are bound explicitly so APP_* env vars resolve even when the YAML omits them.
var envKeys = []string{
	"postgres.user",
	"postgres.password",
	"postgres.db",
	"postgres.host",
	"auth.jwt_secret",
	"storage.driver",
}

// Load reads YAML config at path, overlays .env and APP_* environment variables, and validates.
func Load(path string) (*Config, error) {
	// .env is optional; real env always wins over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	for _, k := range envKeys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", k, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "users-service")
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.port", 8080)
	v.SetDefault("app.shutdown_timeout", 10)
	v.SetDefault("app.request_timeout", 5)

	v.SetDefault("storage.driver", "postgres")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 1)
	v.SetDefault("postgres.max_conn_lifetime", 3600)
	v.SetDefault("postgres.max_conn_idle_time", 300)
	v.SetDefault("postgres.health_check_period", 30)
	v.SetDefault("postgres.auto_migrate", true)

	v.SetDefault("auth.issuer", "users-service")
	v.SetDefault("auth.token_ttl", 60)

	v.SetDefault("pagination.min_limit", 10)
	v.SetDefault("pagination.max_limit", 100)

	v.SetDefault("users.default_tenant_id", 2)
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation error: %w", err)
	}
	if c.Storage.Driver == "postgres" {
		var missing []string
		if c.Postgres.User == "" {
			missing = append(missing, "APP_POSTGRES_USER")
		}
		if c.Postgres.Password == "" {
			missing = append(missing, "APP_POSTGRES_PASSWORD")
		}
		if c.Postgres.DBName == "" {
			missing = append(missing, "APP_POSTGRES_DB")
		}
		if len(missing) > 0 {
			return fmt.Errorf("missing required postgres settings: %s", strings.Join(missing, ", "))
		}
	}
	return nil
}
