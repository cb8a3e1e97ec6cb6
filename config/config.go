package config

import (
	"log"
	"os"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultAccessTokenTTLSec  = 900     // 15 minutes
	DefaultRefreshTokenTTLSec = 2592000 // 30 days
	DefaultLoginAttemptLimit  = 10
	DefaultLoginAttemptWindow = 900
	DefaultMaxActiveTokens    = 5
)

// Config is loaded once at boot and injected everywhere; nothing reads the
// environment after startup. The signing secret is never rotated at runtime.
type Config struct {
	Env                string
	Port               string
	DBURL              string
	RedisAddr          string
	AccessTokenSecret  string
	AccessTokenTTLSec  int
	RefreshTokenTTLSec int
	BcryptCost         int
	LoginAttemptLimit  int
	LoginAttemptWindow int
	MaxActiveTokens    int
}

func Load() *Config {
	return &Config{
		Env:                getEnv("ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		DBURL:              mustGetEnv("DB_URL"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		AccessTokenSecret:  mustGetEnv("ACCESS_TOKEN_SECRET"),
		AccessTokenTTLSec:  getEnvAsInt("ACCESS_TOKEN_TTL", DefaultAccessTokenTTLSec),
		RefreshTokenTTLSec: getEnvAsInt("REFRESH_TOKEN_TTL", DefaultRefreshTokenTTLSec),
		BcryptCost:         getEnvAsInt("BCRYPT_COST", bcrypt.DefaultCost),
		LoginAttemptLimit:  getEnvAsInt("LOGIN_ATTEMPT_LIMIT", DefaultLoginAttemptLimit),
		LoginAttemptWindow: getEnvAsInt("LOGIN_ATTEMPT_WINDOW", DefaultLoginAttemptWindow),
		MaxActiveTokens:    getEnvAsInt("MAX_ACTIVE_TOKENS", DefaultMaxActiveTokens),
	}
}

// IsProduction controls the Secure flag on session cookies.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func mustGetEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Fatalf("Missing required environment variable: %s", key)
	return ""
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %d", key, defaultVal)
		return defaultVal
	}
	return val
}
