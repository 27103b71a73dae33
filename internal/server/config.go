package server

import (
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	BACKEND_POSTGRES = "postgres"
	BACKEND_REDIS    = "redis"
	BACKEND_MEMORY   = "memory"
)

type Config struct {
	Port             int
	Backend          string
	StartingBalance  int64
	MaxStake         int64
	GeneratorTimeout time.Duration
	StorageTimeout   time.Duration
	MigrationsPath   string
	RateLimit        int
	CORSOrigins      string
}

// LoadConfig reads the service settings from the environment.
func LoadConfig() Config {
	return Config{
		Port:             getEnvAsInt("PORT", 8080),
		Backend:          getEnv("LEDGER_BACKEND", BACKEND_POSTGRES),
		StartingBalance:  int64(getEnvAsInt("STARTING_BALANCE", 1000)),
		MaxStake:         int64(getEnvAsInt("MAX_STAKE", 0)),
		GeneratorTimeout: getEnvAsDuration("GENERATOR_TIMEOUT", 2*time.Second),
		StorageTimeout:   getEnvAsDuration("STORAGE_TIMEOUT", 3*time.Second),
		MigrationsPath:   getEnv("MIGRATIONS_PATH", ""),
		RateLimit:        getEnvAsInt("RATE_LIMIT", 100),
		CORSOrigins:      getEnv("CORS_ORIGINS", "*"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

// getEnvAsDuration accepts Go duration strings ("1500ms") or whole seconds.
func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}
