package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Admin     AdminConfig
	Estimator EstimatorConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins string
}

type AdminConfig struct {
	APIKey string
}

// EstimatorConfig selects exactly one estimation strategy. "local" runs the
// market-data heuristic in process; "remote" delegates to the prediction
// service at ServiceURL.
type EstimatorConfig struct {
	Mode              string
	ServiceURL        string
	ServiceTimeoutSec int
	PriceCacheTTLSec  int
}

func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment")
	}

	serverPort, err := getIntEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := getIntEnv("DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	redisPort, err := getIntEnv("REDIS_PORT", 6379)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}

	redisDB, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	predictionTimeout, err := getIntEnv("PREDICTION_TIMEOUT_SEC", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid PREDICTION_TIMEOUT_SEC: %w", err)
	}

	cacheTTL, err := getIntEnv("PRICE_CACHE_TTL_SEC", 300)
	if err != nil {
		return nil, fmt.Errorf("invalid PRICE_CACHE_TTL_SEC: %w", err)
	}

	mode := getEnv("ESTIMATOR_MODE", "local")
	if mode != "local" && mode != "remote" {
		return nil, fmt.Errorf("invalid ESTIMATOR_MODE %q: must be local or remote", mode)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: serverPort,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "scraplink"),
			Password: getEnv("DB_PASSWORD", "scraplink_dev_password"),
			Name:     getEnv("DB_NAME", "scraplink"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     redisPort,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Admin: AdminConfig{
			APIKey: getEnv("ADMIN_API_KEY", ""),
		},
		Estimator: EstimatorConfig{
			Mode:              mode,
			ServiceURL:        getEnv("PREDICTION_SERVICE_URL", "http://localhost:5000"),
			ServiceTimeoutSec: predictionTimeout,
			PriceCacheTTLSec:  cacheTTL,
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}
