// Package config provides centralized default values for Formflow
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseBool(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%t (default: %t)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Database
	DBDriver                 string
	DBPath                   string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int
	DBConnMaxIdleMinutes     int
	SlowQueryThreshold       time.Duration

	// Redis / Aggregate Cache
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	AnalyticsCacheTTL  time.Duration
	TimelineWindowDays int

	// Auth
	JWTAccessSecret      string
	JWTRefreshSecret     string
	JWTAccessExpiration  time.Duration
	JWTRefreshExpiration time.Duration
	BcryptCost           int

	// Pagination
	DefaultPageSize int
	MaxPageSize     int

	// Email Notifications
	NotificationsEnabled bool
	EmailFrom            string
	EmailFromName        string
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Database
	DBDriver = getEnvString("DB_DRIVER", "sqlite3")
	DBPath = getEnvString("DB_PATH", "formflow.db")
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	DBConnMaxIdleMinutes = getEnvInt("DB_CONN_MAX_IDLE_MINUTES", 3)
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 100*time.Millisecond)

	// Redis / Aggregate Cache
	RedisAddr = getEnvString("REDIS_ADDR", "localhost:6379")
	RedisPassword = getEnvString("REDIS_PASSWORD", "")
	RedisDB = getEnvInt("REDIS_DB", 0)
	AnalyticsCacheTTL = time.Duration(getEnvInt("ANALYTICS_CACHE_TTL_SECONDS", 300)) * time.Second
	TimelineWindowDays = getEnvInt("TIMELINE_WINDOW_DAYS", 30)

	// Auth
	JWTAccessSecret = getEnvString("JWT_ACCESS_SECRET", "dev-access-secret-change-me")
	JWTRefreshSecret = getEnvString("JWT_REFRESH_SECRET", "dev-refresh-secret-change-me")
	JWTAccessExpiration = getEnvDuration("JWT_ACCESS_EXPIRATION", 15*time.Minute)
	JWTRefreshExpiration = getEnvDuration("JWT_REFRESH_EXPIRATION", 7*24*time.Hour)
	BcryptCost = getEnvInt("BCRYPT_ROUNDS", 12)

	// Pagination
	DefaultPageSize = getEnvInt("DEFAULT_PAGE_SIZE", 20)
	MaxPageSize = getEnvInt("MAX_PAGE_SIZE", 100)

	// Email Notifications
	NotificationsEnabled = getEnvBool("SUBMISSION_NOTIFICATIONS_ENABLED", false)
	EmailFrom = getEnvString("EMAIL_FROM", "noreply@formflow.dev")
	EmailFromName = getEnvString("EMAIL_FROM_NAME", "Formflow")
}
