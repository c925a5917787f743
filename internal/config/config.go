package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	ListenAddr  string

	AuthJWTSecret string
	AuthTokenTTL  time.Duration

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	Mpesa     MpesaConfig
	Bootstrap BootstrapConfig
}

// BootstrapConfig controls first-run seeding for self-hosted installs.
type BootstrapConfig struct {
	EnsureAdminUser bool
}

// MpesaConfig carries the Daraja gateway credentials and endpoints.
// Everything is injected at construction; nothing reads the environment
// at request time.
type MpesaConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string
	Timeout        time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "stegashield"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       environment,
		ListenAddr:        getenv("LISTEN_ADDR", ":8080"),
		AuthJWTSecret:     strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
		AuthTokenTTL:      getenvDuration("AUTH_TOKEN_TTL", 7*24*time.Hour),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "stegashield"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 1800),
		Mpesa: MpesaConfig{
			BaseURL:        getenv("MPESA_BASE_URL", "https://sandbox.safaricom.co.ke"),
			ConsumerKey:    strings.TrimSpace(getenv("MPESA_CONSUMER_KEY", "")),
			ConsumerSecret: strings.TrimSpace(getenv("MPESA_CONSUMER_SECRET", "")),
			ShortCode:      getenv("MPESA_SHORTCODE", "174379"),
			Passkey:        strings.TrimSpace(getenv("MPESA_PASSKEY", "")),
			CallbackURL:    getenv("MPESA_CALLBACK_URL", ""),
			Timeout:        getenvDuration("MPESA_TIMEOUT", 30*time.Second),
		},
		Bootstrap: BootstrapConfig{
			EnsureAdminUser: getenvBool("BOOTSTRAP_ENSURE_ADMIN_USER", true),
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvBool(key string, def bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}
