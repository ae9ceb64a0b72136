package config

import (
	"os"
	"strconv"
)

// Config collects every environment-driven knob of the generator service.
// Mains call godotenv.Load() before Load(), matching how the rest of the
// deployment passes settings.
type Config struct {
	Port        string
	DatabaseURL string
	Driver      string // "postgres" or "sqlite3"
	AuthKey     string // X-API-KEY value required on mutating endpoints
	LogMode     string

	// Generation volumes.
	UserCount        int
	SignupWindowDays int
	SessionsMin      int
	SessionsMax      int
	OrderProbability float64
	CopyThreshold    int // row count above which bulk load switches to COPY
	Seed             int64
}

func Load() Config {
	return Config{
		Port:        envStr("PORT", "8080"),
		DatabaseURL: envStr("DATABASE_URL", ""),
		Driver:      envStr("DB_DRIVER", "postgres"),
		AuthKey:     envStr("AUTH_DEFAULT", ""),
		LogMode:     envStr("LOG_MODE", "dev"),

		UserCount:        envInt("GEN_USER_COUNT", 1000),
		SignupWindowDays: envInt("GEN_SIGNUP_WINDOW_DAYS", 30),
		SessionsMin:      envInt("GEN_SESSIONS_MIN", 1),
		SessionsMax:      envInt("GEN_SESSIONS_MAX", 5),
		OrderProbability: envFloat("GEN_ORDER_PROBABILITY", 0.85),
		CopyThreshold:    envInt("GEN_COPY_THRESHOLD", 5000),
		Seed:             int64(envInt("GEN_SEED", 0)),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
