package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Config holds all environment configuration
type Config struct {
	// Database
	DatabaseHost     string
	DatabasePort     string
	PostgresUser     string
	PostgresPassword string
	DatabaseName     string

	// Authentication
	JWTSecret        string
	AdminEmails      []string
	SuperAdminEmails []string

	// Payment gateway
	GatewayBaseURL     string
	GatewayAppKey      string
	GatewayAppSecret   string
	GatewayTokenURL    string
	GatewayCallbackURL string
	Currency           string

	// Mail
	MailAPIURL string
	MailAPIKey string
	MailFrom   string

	// Certificate rendering
	PdfServerURL string

	// Cron
	CronSecret string

	// Other
	KafkaBroker string
}

var (
	appConfig *Config
	onceEnv   sync.Once
)

// loadConfig loads and validates all environment variables
func loadConfig() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	config := &Config{
		// Database - required
		DatabaseHost:     getEnvWithDefault("DATABASE_HOST", "localhost"),
		DatabasePort:     getEnvWithDefault("DATABASE_PORT", "5432"),
		PostgresUser:     getEnvWithDefault("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnvWithDefault("POSTGRES_PASSWORD", "postgres"),
		DatabaseName:     getEnvWithDefault("DATABASE_NAME", "postgres"),

		// JWT - required
		JWTSecret: getEnvWithDefault("JWT_SECRET", "dummyjwt"),

		// Role seed lists, migrated into the users table at startup
		AdminEmails:      getEnvAsList("ADMIN_EMAILS"),
		SuperAdminEmails: getEnvAsList("SUPERADMIN_EMAILS"),

		// Payment gateway - required for paid events
		GatewayBaseURL:     getEnv("GATEWAY_BASE_URL"),
		GatewayAppKey:      getEnv("GATEWAY_APP_KEY"),
		GatewayAppSecret:   getEnv("GATEWAY_APP_SECRET"),
		GatewayTokenURL:    getEnv("GATEWAY_TOKEN_URL"),
		GatewayCallbackURL: getEnv("GATEWAY_CALLBACK_URL"),
		Currency:           getEnvWithDefault("GATEWAY_CURRENCY", "BDT"),

		// Mail - required
		MailAPIURL: getEnv("MAIL_API_URL"),
		MailAPIKey: getEnv("MAIL_API_KEY"),
		MailFrom:   getEnvWithDefault("MAIL_FROM", "noreply@eventdesk.app"),

		// Certificate rendering - optional
		PdfServerURL: getEnvWithDefault("PDF_SERVER_URL", "http://localhost:8080"),

		// Cron - required
		CronSecret: getEnv("CRON_SECRET"),

		// Other - optional, audit stream is disabled when unset
		KafkaBroker: getEnvWithDefault("KAFKA_BROKER", ""),
	}

	appConfig = config
	return config
}

func Env() *Config {
	onceEnv.Do(func() {
		appConfig = loadConfig()
	})
	return appConfig
}

// Helper functions
func getEnv(key string) string {
	value := os.Getenv(key)
	if value == "" && IsProduction() {
		panic(fmt.Sprintf("Required environment variable %s is not set", key))
	}
	return value
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	list := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(strings.ToLower(part))
		if part != "" {
			list = append(list, part)
		}
	}
	return list
}

func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// IsProduction returns true if running in production
func IsProduction() bool {
	return getEnvWithDefault("ENVIRONMENT", "development") == "production"
}

// IsDevelopment returns true if running in development
func IsDevelopment() bool {
	return !IsProduction()
}
