package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// This function will Load the ENVIRONMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		err := godotenv.Load()
		if err != nil {
			return err
		}
	}

	return nil
}

type Environment struct {
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL string
	// RabbitMQ Configuration
	RABBITMQ_URL   string
	RABBITMQ_QUEUE string
	// Razorpay Configuration
	RAZORPAY_KEY_ID         string
	RAZORPAY_KEY_SECRET     string
	RAZORPAY_WEBHOOK_SECRET string
	RAZORPAY_BASE_URL       string
	RAZORPAY_TIMEOUT        time.Duration
	// SMTP Configuration
	SMTP_HOST     string
	SMTP_PORT     int
	SMTP_USERNAME string
	SMTP_PASSWORD string
	SMTP_FROM     string
	APP_URL       string
	// Receipt archive (S3 compatible)
	RECEIPTS_BUCKET     string
	RECEIPTS_REGION     string
	RECEIPTS_ENDPOINT   string
	RECEIPTS_ACCESS_KEY string
	RECEIPTS_SECRET_KEY string
	// Server
	ALLOWED_ORIGINS     string
	CRON_ENABLED        bool
	SHUTDOWN_TIMEOUT    time.Duration
	RATE_LIMIT_REQUESTS int
	RATE_LIMIT_WINDOW   time.Duration
	// Seeding
	ADMIN_EMAIL    string
	ADMIN_PASSWORD string
}

// IsProduction reports whether detailed error messages must be hidden from clients
func (e *Environment) IsProduction() bool {
	return e.GO_ENV == "production"
}

func Get() (*Environment, error) {

	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	smtpPort, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		smtpPort = 587
	}

	rateLimit, err := strconv.Atoi(os.Getenv("RATE_LIMIT_REQUESTS"))
	if err != nil {
		rateLimit = 100
	}

	envVariables := &Environment{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      getEnvOrDefault("DB_HOST", "localhost"),
		DB_PORT:      getEnvOrDefault("DB_PORT", "5432"),
		DB_SSL_MODE:  getEnvOrDefault("DB_SSL_MODE", "disable"),
		PORT:         port,
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: getEnvOrDefault("JWT_ISSUER", "skillnestx-api"),
		// Redis
		REDIS_URL: getEnvOrDefault("REDIS_URL", "redis://localhost:6379/0"),
		// RabbitMQ
		RABBITMQ_URL:   os.Getenv("RABBITMQ_URL"),
		RABBITMQ_QUEUE: getEnvOrDefault("RABBITMQ_QUEUE", "payment.events"),
		// Razorpay
		RAZORPAY_KEY_ID:         os.Getenv("RAZORPAY_KEY_ID"),
		RAZORPAY_KEY_SECRET:     os.Getenv("RAZORPAY_KEY_SECRET"),
		RAZORPAY_WEBHOOK_SECRET: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		RAZORPAY_BASE_URL:       getEnvOrDefault("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
		RAZORPAY_TIMEOUT:        getDurationOrDefault("RAZORPAY_TIMEOUT", 10*time.Second),
		// SMTP
		SMTP_HOST:     getEnvOrDefault("SMTP_HOST", "smtp.gmail.com"),
		SMTP_PORT:     smtpPort,
		SMTP_USERNAME: os.Getenv("SMTP_USERNAME"),
		SMTP_PASSWORD: os.Getenv("SMTP_PASSWORD"),
		SMTP_FROM:     getEnvOrDefault("SMTP_FROM", "noreply@skillnestx.com"),
		APP_URL:       getEnvOrDefault("APP_URL", "http://localhost:3000"),
		// Receipts
		RECEIPTS_BUCKET:     os.Getenv("RECEIPTS_BUCKET"),
		RECEIPTS_REGION:     getEnvOrDefault("RECEIPTS_REGION", "us-east-1"),
		RECEIPTS_ENDPOINT:   os.Getenv("RECEIPTS_ENDPOINT"),
		RECEIPTS_ACCESS_KEY: os.Getenv("RECEIPTS_ACCESS_KEY"),
		RECEIPTS_SECRET_KEY: os.Getenv("RECEIPTS_SECRET_KEY"),
		// Server
		ALLOWED_ORIGINS:     getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
		CRON_ENABLED:        !strings.EqualFold(os.Getenv("CRON_ENABLED"), "false"), // Default to enabled
		SHUTDOWN_TIMEOUT:    getDurationOrDefault("SHUTDOWN_TIMEOUT", 15*time.Second),
		RATE_LIMIT_REQUESTS: rateLimit,
		RATE_LIMIT_WINDOW:   getDurationOrDefault("RATE_LIMIT_WINDOW", time.Minute),
		// Seeding
		ADMIN_EMAIL:    os.Getenv("ADMIN_EMAIL"),
		ADMIN_PASSWORD: os.Getenv("ADMIN_PASSWORD"),
	}

	return envVariables, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getDurationOrDefault accepts Go duration strings ("10s") or plain seconds ("10")
func getDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}
