package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	CORS    CORSConfig
	Order   OrderConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

// StorageConfig selects the key-value store backing the cart and
// recurring-order snapshots.
//
// Driver values: "redis", "sqlite", "memory".
type StorageConfig struct {
	Driver string
	Redis  RedisConfig
	SQLite SQLiteConfig
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type SQLiteConfig struct {
	Path        string
	BusyTimeout time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type OrderConfig struct {
	// RunnerEnabled starts the cron-driven recurring-order runner.
	RunnerEnabled bool
	// RunnerWindowHours is the lookahead window the runner polls with.
	RunnerWindowHours int
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Storage: StorageConfig{
			Driver: getEnv("STORAGE_DRIVER", "memory"),
			Redis: RedisConfig{
				Host:     getEnv("REDIS_HOST", "localhost"),
				Port:     getEnv("REDIS_PORT", "6379"),
				Password: getEnv("REDIS_PASSWORD", ""),
				DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
			},
			SQLite: SQLiteConfig{
				Path:        getEnv("SQLITE_PATH", "data/babdal.db"),
				BusyTimeout: parseDuration(getEnv("SQLITE_BUSY_TIMEOUT", "1s")),
			},
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Order: OrderConfig{
			RunnerEnabled:     getEnv("RECURRING_RUNNER_ENABLED", "true") == "true",
			RunnerWindowHours: parseInt(getEnv("RECURRING_RUNNER_WINDOW_HOURS", "1"), 1),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(s string, defaultValue int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, defaultValue)
		return defaultValue
	}
	return v
}

func parseDuration(s string) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default 1s", s)
		return time.Second
	}
	return duration
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for i := 0; i < len(s); {
		end := i
		for end < len(s) && s[end] != ',' {
			end++
		}
		result = append(result, s[i:end])
		i = end + 1
	}
	return result
}
