package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Port               string
	Env                string
	Store              string
	DatabaseURL        string
	SQLitePath         string
	RedisAddr          string
	RedisPassword      string
	DescriptorCacheTTL time.Duration
	Timezone           string
	GraceDaysPerWeek   int
	StreakWindowDays   int
	RateLimitRPS       float64
	RateLimitBurst     int
}

var defaults = map[string]any{
	"PORT":                 "8080",
	"APP_ENV":              "production",
	"SQLITE_PATH":          "collection.db",
	"DESCRIPTOR_CACHE_TTL": "10m",
	"TIMEZONE":             "UTC",
	"GRACE_DAYS_PER_WEEK":  1,
	"STREAK_WINDOW_DAYS":   30,
	"RATE_LIMIT_RPS":       10.0,
	"RATE_LIMIT_BURST":     20,
}

// Load reads settings from the environment, with an optional .env file in
// the working directory underneath. Malformed numbers fall back to defaults.
func Load() Config {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()
	v.AutomaticEnv()
	for k, def := range defaults {
		v.SetDefault(k, def)
	}

	cfg := Config{
		Port:               v.GetString("PORT"),
		Env:                v.GetString("APP_ENV"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		SQLitePath:         v.GetString("SQLITE_PATH"),
		RedisAddr:          v.GetString("REDIS_ADDR"),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		DescriptorCacheTTL: getDuration(v, "DESCRIPTOR_CACHE_TTL"),
		Timezone:           v.GetString("TIMEZONE"),
		GraceDaysPerWeek:   getPositiveInt(v, "GRACE_DAYS_PER_WEEK"),
		StreakWindowDays:   getPositiveInt(v, "STREAK_WINDOW_DAYS"),
		RateLimitRPS:       getPositiveFloat(v, "RATE_LIMIT_RPS"),
		RateLimitBurst:     getPositiveInt(v, "RATE_LIMIT_BURST"),
	}

	cfg.Store = strings.ToLower(strings.TrimSpace(v.GetString("STORE")))
	switch cfg.Store {
	case StoreSQLite, StorePostgres, StoreMemory:
	default:
		if cfg.DatabaseURL != "" {
			cfg.Store = StorePostgres
		} else {
			cfg.Store = StoreSQLite
		}
	}
	return cfg
}

// Location resolves Timezone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getPositiveInt(v *viper.Viper, key string) int {
	if n := v.GetInt(key); n > 0 {
		return n
	}
	return defaults[key].(int)
}

func getPositiveFloat(v *viper.Viper, key string) float64 {
	if f := v.GetFloat64(key); f > 0 {
		return f
	}
	return defaults[key].(float64)
}

func getDuration(v *viper.Viper, key string) time.Duration {
	if d := v.GetDuration(key); d > 0 {
		return d
	}
	d, _ := time.ParseDuration(defaults[key].(string))
	return d
}
