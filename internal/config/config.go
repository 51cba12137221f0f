package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	// probe and metrics port for the worker binary
	WorkerPort int

	DBURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// comma separated list of allowed origins for the two static front-ends
	CORSOrigins []string

	// fixed-window rate limit for the student-facing write endpoints
	RateLimit       int
	RateLimitWindow time.Duration

	OTLPEndpoint string
}

func Load() Config {
	// best effort: a missing .env is normal in containers
	_ = godotenv.Load()

	return Config{
		Env:             getEnv("APP_ENV", "dev"),
		Port:            getEnvInt("PORT", 5000),
		WorkerPort:      getEnvInt("WORKER_PORT", 5001),
		DBURL:           buildDBURL(),
		RedisAddr:       getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "http://localhost:5000")),
		RateLimit:       getEnvInt("RATE_LIMIT", 30),
		RateLimitWindow: time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		OTLPEndpoint:    getEnv("OTLP_ENDPOINT", ""),
	}
}

func buildDBURL() string {
	// an explicit DATABASE_URL wins over the individual parts
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "campus")
	pass := getEnv("DB_PASSWORD", "campus")
	name := getEnv("DB_NAME", "campus_events")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")

	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)

		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}
