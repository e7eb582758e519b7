package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Port            string
	Mode            string
	DatabaseURL     string
	StoreDriver     string
	MigrateOnStart  bool
	AMQPURL         string
	EventsTopic     string
	DefaultPageSize int
	MaxPageSize     int
}

// Load reads .env when present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_MODE", "production")
	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("MIGRATE_ON_START", true)
	v.SetDefault("EVENTS_TOPIC", "customer_events")
	v.SetDefault("DEFAULT_PAGE_SIZE", 10)
	v.SetDefault("MAX_PAGE_SIZE", 100)
	v.SetDefault("DB_USER", "customers")
	v.SetDefault("DB_PASSWORD", "secret")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "customers")
	v.SetDefault("DB_SSLMODE", "disable")
	return v
}

func FromViper(v *viper.Viper) (Config, error) {
	dsn := strings.TrimSpace(v.GetString("DATABASE_URL"))
	if dsn == "" {
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			v.GetString("DB_USER"), v.GetString("DB_PASSWORD"), v.GetString("DB_HOST"),
			v.GetString("DB_PORT"), v.GetString("DB_NAME"), v.GetString("DB_SSLMODE"))
	}

	cfg := Config{
		Port:            v.GetString("APP_PORT"),
		Mode:            strings.ToLower(v.GetString("APP_MODE")),
		DatabaseURL:     dsn,
		StoreDriver:     strings.ToLower(v.GetString("STORE_DRIVER")),
		MigrateOnStart:  v.GetBool("MIGRATE_ON_START"),
		AMQPURL:         strings.TrimSpace(v.GetString("AMQP_URL")),
		EventsTopic:     v.GetString("EVENTS_TOPIC"),
		DefaultPageSize: v.GetInt("DEFAULT_PAGE_SIZE"),
		MaxPageSize:     v.GetInt("MAX_PAGE_SIZE"),
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.DefaultPageSize <= 0 || cfg.MaxPageSize < cfg.DefaultPageSize {
		return Config{}, fmt.Errorf("invalid page sizes: default=%d max=%d", cfg.DefaultPageSize, cfg.MaxPageSize)
	}
	return cfg, nil
}
