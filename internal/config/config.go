package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "BALANCER"

type Config struct {
	App    AppConfig
	HTTP   HTTPConfig
	Log    LogConfig
	Store  StoreConfig
	Roster RosterConfig
}

type AppConfig struct {
	Env string // "development" or "production"
}

type HTTPConfig struct {
	Addr            string
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level string
}

type StoreConfig struct {
	Driver      string // file | sqlite | postgres
	Dir         string
	SQLitePath  string        `mapstructure:"sqlite_path"`
	PostgresDSN string        `mapstructure:"postgres_dsn"`
	Timeout     time.Duration // bound on each save/load
}

type RosterConfig struct {
	// DefaultKey names the roster a lobby opens when none is requested,
	// e.g. "participants" -> participants.json for the file store.
	DefaultKey string `mapstructure:"default_key"`
}

func (c Config) Development() bool {
	return c.App.Env != "production"
}

// Load reads .env files (if present), then an optional config file, then
// BALANCER_* environment variables, e.g. BALANCER_STORE_DRIVER=sqlite.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, path := range envFiles {
		// missing files are fine; variables already set win
		_ = godotenv.Load(path)
	}

	v := viper.New()
	v.SetDefault("app.env", "development")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("store.driver", "file")
	v.SetDefault("store.dir", "data")
	v.SetDefault("store.sqlite_path", "data/balancer.db")
	v.SetDefault("store.postgres_dsn", "")
	v.SetDefault("store.timeout", 5*time.Second)
	v.SetDefault("roster.default_key", "participants")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) validate() error {
	switch c.Store.Driver {
	case "file", "sqlite":
	case "postgres":
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("config: store.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Roster.DefaultKey == "" {
		return fmt.Errorf("config: roster.default_key must not be empty")
	}
	return nil
}
