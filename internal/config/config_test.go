package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "APP_ENV", "STORE", "DATABASE_URL", "SQLITE_PATH", "REDIS_ADDR", "REDIS_PASSWORD",
		"DESCRIPTOR_CACHE_TTL", "TIMEZONE", "GRACE_DAYS_PER_WEEK", "STREAK_WINDOW_DAYS",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want %q", cfg.Port, "8080")
	}
	if cfg.Store != StoreSQLite {
		t.Errorf("Store = %q, want %q", cfg.Store, StoreSQLite)
	}
	if cfg.SQLitePath != "collection.db" {
		t.Errorf("SQLitePath = %q, want %q", cfg.SQLitePath, "collection.db")
	}
	if cfg.DescriptorCacheTTL != 10*time.Minute {
		t.Errorf("DescriptorCacheTTL = %v, want 10m", cfg.DescriptorCacheTTL)
	}
	if cfg.GraceDaysPerWeek != 1 {
		t.Errorf("GraceDaysPerWeek = %d, want 1", cfg.GraceDaysPerWeek)
	}
	if cfg.StreakWindowDays != 30 {
		t.Errorf("StreakWindowDays = %d, want 30", cfg.StreakWindowDays)
	}
	if cfg.RateLimitRPS != 10 || cfg.RateLimitBurst != 20 {
		t.Errorf("rate limit = %v/%d, want 10/20", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.Env != "production" {
		t.Errorf("Env = %q, want %q", cfg.Env, "production")
	}
	if cfg.Location() != time.UTC {
		t.Errorf("Location() = %v, want UTC", cfg.Location())
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "3000")
	t.Setenv("DATABASE_URL", "postgres://localhost/cards")
	t.Setenv("DESCRIPTOR_CACHE_TTL", "90s")
	t.Setenv("GRACE_DAYS_PER_WEEK", "2")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("TIMEZONE", "Europe/Berlin")

	cfg := Load()

	if cfg.Port != "3000" {
		t.Errorf("Port = %q, want %q", cfg.Port, "3000")
	}
	if cfg.Store != StorePostgres {
		t.Errorf("Store = %q, want %q when DATABASE_URL is set", cfg.Store, StorePostgres)
	}
	if cfg.DescriptorCacheTTL != 90*time.Second {
		t.Errorf("DescriptorCacheTTL = %v, want 90s", cfg.DescriptorCacheTTL)
	}
	if cfg.GraceDaysPerWeek != 2 {
		t.Errorf("GraceDaysPerWeek = %d, want 2", cfg.GraceDaysPerWeek)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Errorf("RateLimitRPS = %v, want 2.5", cfg.RateLimitRPS)
	}
	if got := cfg.Location().String(); got != "Europe/Berlin" {
		t.Errorf("Location() = %q, want %q", got, "Europe/Berlin")
	}
}

func TestLoad_ExplicitStoreWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/cards")
	t.Setenv("STORE", "Memory")

	if cfg := Load(); cfg.Store != StoreMemory {
		t.Errorf("Store = %q, want %q", cfg.Store, StoreMemory)
	}
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("GRACE_DAYS_PER_WEEK", "abc")
	t.Setenv("STREAK_WINDOW_DAYS", "-4")
	t.Setenv("DESCRIPTOR_CACHE_TTL", "soon")
	t.Setenv("TIMEZONE", "Mars/Olympus")

	cfg := Load()

	if cfg.GraceDaysPerWeek != 1 {
		t.Errorf("GraceDaysPerWeek = %d, want %d (fallback)", cfg.GraceDaysPerWeek, 1)
	}
	if cfg.StreakWindowDays != 30 {
		t.Errorf("StreakWindowDays = %d, want %d (fallback)", cfg.StreakWindowDays, 30)
	}
	if cfg.DescriptorCacheTTL != 10*time.Minute {
		t.Errorf("DescriptorCacheTTL = %v, want 10m (fallback)", cfg.DescriptorCacheTTL)
	}
	if cfg.Location() != time.UTC {
		t.Errorf("Location() = %v, want UTC fallback", cfg.Location())
	}
}
