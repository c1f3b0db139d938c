// Package config reads service settings from the environment. A .env file, if
// present, is loaded first by the commands.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	DB       Database
	Redis    Redis
	Session  Session
	Auth     Auth
	Uploads  string
	ViewsDev bool

	LowStockThreshold int
}

type Database struct {
	// Driver is "postgres" (default) or "sqlite".
	Driver   string
	Host     string
	User     string
	Password string
	Name     string
	Port     string
	SSLMode  string
	// Path is the sqlite file; ":memory:" is allowed.
	Path     string
	LogLevel string
}

func (d Database) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

type Redis struct {
	// Addr empty means wizard sessions stay in process memory.
	Addr     string
	Password string
	DB       int
}

type Session struct {
	TTL        time.Duration
	CookieName string
	Secure     bool
}

type Auth struct {
	JWTSecret     string
	TokenTTL      time.Duration
	LoginAttempts int
	LoginWindow   time.Duration
}

// Load builds a Config from environment variables, applying defaults.
func Load() (*Config, error) {
	var errs []error
	cfg := &Config{
		Port: port(getenv("PORT", "8080")),
		DB: Database{
			Driver:   getenv("DB_DRIVER", "postgres"),
			Host:     getenv("DB_HOST", "localhost"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			Port:     getenv("DB_PORT", "5432"),
			SSLMode:  getenv("DB_SSLMODE", "disable"),
			Path:     getenv("DB_PATH", "jem.db"),
			LogLevel: getenv("DB_LOG_LEVEL", "warn"),
		},
		Redis: Redis{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       intEnv("REDIS_DB", 0, &errs),
		},
		Session: Session{
			TTL:        durationEnv("SESSION_TTL", time.Hour, &errs),
			CookieName: getenv("SESSION_COOKIE", "jem_session"),
			Secure:     boolEnv("SESSION_SECURE", false, &errs),
		},
		Auth: Auth{
			JWTSecret:     os.Getenv("JWT_SECRET"),
			TokenTTL:      durationEnv("JWT_TTL", 24*time.Hour, &errs),
			LoginAttempts: intEnv("LOGIN_MAX_ATTEMPTS", 5, &errs),
			LoginWindow:   durationEnv("LOGIN_WINDOW", 5*time.Minute, &errs),
		},
		Uploads:           getenv("UPLOADS_DIR", "./public/uploads"),
		ViewsDev:          boolEnv("VIEWS_RELOAD", false, &errs),
		LowStockThreshold: intEnv("LOW_STOCK_THRESHOLD", 5, &errs),
	}

	if cfg.DB.Driver != "postgres" && cfg.DB.Driver != "sqlite" {
		errs = append(errs, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", cfg.DB.Driver))
	}
	if cfg.Auth.JWTSecret == "" {
		errs = append(errs, fmt.Errorf("JWT_SECRET is required"))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("config: %v", errs)
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func port(p string) string {
	if p[0] != ':' {
		return ":" + p
	}
	return p
}

func intEnv(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func boolEnv(key string, def bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func durationEnv(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
