package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	LogLevel         string
	JWTSecret        string
	AllowedOrigins   string
	PublicAPIBaseURL string
	CookieSecure     bool
	CSRFMode         string

	Database DatabaseConfig
	Redis    RedisConfig
	TMDB     TMDBConfig
	AMQPURL  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type TMDBConfig struct {
	APIKey     string
	BaseURL    string
	Language   string
	Timeout    time.Duration
	RatePerSec float64
}

// Load reads .env (when present) and the process environment.
// The returned bool reports whether a .env file was found.
func Load() (*Config, bool, error) {
	dotenv := godotenv.Load() == nil

	cfg := &Config{
		Port:             GetEnv("PORT", "8080"),
		LogLevel:         GetEnv("LOG_LEVEL", "info"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		AllowedOrigins:   os.Getenv("ALLOWED_ORIGINS"),
		PublicAPIBaseURL: strings.TrimRight(os.Getenv("PUBLIC_API_BASE_URL"), "/"),
		CookieSecure:     GetBool("COOKIE_SECURE", true),
		CSRFMode:         GetEnv("CSRF_MODE", "token"),
		Database: DatabaseConfig{
			Host:     GetEnv("DB_HOST", "localhost"),
			Port:     GetEnv("DB_PORT", "5432"),
			User:     GetEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     GetEnv("DB_NAME", "movienight"),
			SSLMode:  GetEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     GetEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       GetInt("REDIS_DB", 0),
		},
		TMDB: TMDBConfig{
			APIKey:     os.Getenv("TMDB_API_KEY"),
			BaseURL:    GetEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
			Language:   GetEnv("TMDB_LANGUAGE", "es-AR"),
			Timeout:    GetDuration("TMDB_TIMEOUT", 10*time.Second),
			RatePerSec: GetFloat("TMDB_RATE_PER_SEC", 20),
		},
		AMQPURL: os.Getenv("AMQP_URL"),
	}

	if cfg.JWTSecret == "" {
		return nil, dotenv, errors.New("JWT_SECRET is required")
	}
	return cfg, dotenv, nil
}

func (c DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode
}

// GetEnv returns the value for key, or def when unset or empty.
func GetEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func GetInt(key string, def int) int {
	if n, err := strconv.Atoi(GetEnv(key, "")); err == nil {
		return n
	}
	return def
}

func GetFloat(key string, def float64) float64 {
	if f, err := strconv.ParseFloat(GetEnv(key, ""), 64); err == nil && f > 0 {
		return f
	}
	return def
}

func GetBool(key string, def bool) bool {
	if b, err := strconv.ParseBool(GetEnv(key, "")); err == nil {
		return b
	}
	return def
}

func GetDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(GetEnv(key, "")); err == nil && d > 0 {
		return d
	}
	return def
}
