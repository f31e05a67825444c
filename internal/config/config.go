package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     string
	SessionStore  string
	SessionSecret string

	JWTSecret               string
	TokenTTL                time.Duration
	IdentityAssertionSecret string

	EventsRelay        string
	EventsRedisChannel string
	EventsKeepAlive    time.Duration
	EventsBuffer       int

	AuthRateLimit float64
	AuthRateBurst int

	OpenAIAPIKey string
}

// Load reads configuration from the environment, after loading a .env file
// when one is present in the working directory.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "8080"),
		GinMode:  getEnv("GIN_MODE", "debug"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DBDriver:   getEnv("DB_DRIVER", "mysql"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "taskuser"),
		DBPassword: getEnv("DB_PASSWORD", "taskpassword"),
		DBName:     getEnv("DB_NAME", "task_management"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		SessionStore:  getEnv("SESSION_STORE", "redis"),
		SessionSecret: getEnv("SESSION_SECRET", "default-secret-key-change-me"),

		JWTSecret:               getEnv("JWT_SECRET", "dev-jwt-secret-change-me"),
		TokenTTL:                getEnvAsDuration("TOKEN_TTL", 24*time.Hour),
		IdentityAssertionSecret: getEnv("IDENTITY_ASSERTION_SECRET", ""),

		EventsRelay:        getEnv("EVENTS_RELAY", "local"),
		EventsRedisChannel: getEnv("EVENTS_REDIS_CHANNEL", "taskboard:events"),
		EventsKeepAlive:    getEnvAsDuration("EVENTS_KEEPALIVE", 25*time.Second),
		EventsBuffer:       getEnvAsInt("EVENTS_BUFFER", 16),

		AuthRateLimit: getEnvAsFloat("AUTH_RATE_LIMIT", 5),
		AuthRateBurst: getEnvAsInt("AUTH_RATE_BURST", 10),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
	}
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// RedisAddr returns the host:port of the redis server.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
