package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Database DatabaseConfig
	Redis    RedisConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func LoadConfig() *Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "4000"),
			CORSOrigins: strings.Split(getEnv("CORS_ORIGIN", "http://localhost:3000"), ","),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "secret"),
			TokenTTL:  getEnvDuration("JWT_EXPIRES_IN", 7*24*time.Hour),
		},
		Database: GetDatabaseConfig(),
		Redis:    GetRedisConfig(),
	}
}

// LoadTestConfig points at the throwaway containers used by integration tests.
func LoadTestConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "4000",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Auth: AuthConfig{
			JWTSecret: "test-secret",
			TokenTTL:  time.Hour,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     "5433",
			User:     "postgres",
			Password: "postgres",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     "6380",
			Password: "",
			DB:       1,
		},
	}
}

func GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "eventgraph"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}
}

func GetRedisConfig() RedisConfig {
	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		panic(err)
	}

	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
