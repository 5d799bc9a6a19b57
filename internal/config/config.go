package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Wallet   WalletConfig
	QR       QRConfig
	State    StateConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Admin    AdminConfig
}

// ServerConfig holds BFF server configuration
type ServerConfig struct {
	Port string
	Env  string
	// PublicBaseURL prefixes generated verification deep links.
	PublicBaseURL  string
	AllowedOrigins []string
}

// BackendConfig points at the certificate REST backend
type BackendConfig struct {
	URL     string
	Timeout time.Duration
}

// WalletConfig holds wallet provider and network settings
type WalletConfig struct {
	ProviderRPCURL      string
	EventPollInterval   time.Duration
	DefaultNetwork      string
	BalancePollInterval time.Duration
	ShowBalance         bool
	AutoReconnect       bool
}

// QRConfig holds camera scanning settings
type QRConfig struct {
	ScanInterval time.Duration
}

// StateConfig selects where client state (onboarding, search history,
// wallet flag) is persisted: memory, redis, sqlite or postgres.
type StateConfig struct {
	Backend    string
	SQLitePath string
	Namespace  string
	// EncryptionKey is a hex AES-256 key for Redis values; empty stores plaintext.
	EncryptionKey string
	TTL           time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	PASSWORD string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

// AdminConfig holds the credentials guarding issue and revoke
type AdminConfig struct {
	Username     string
	PasswordHash string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Env:            getEnv("SERVER_ENV", "development"),
			PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Backend: BackendConfig{
			URL:     strings.TrimRight(getEnvFirst([]string{"BACKEND_URL", "REACT_APP_BACKEND_URL"}, "http://localhost:8000"), "/"),
			Timeout: getEnvAsDuration("BACKEND_TIMEOUT", 15*time.Second),
		},
		Wallet: WalletConfig{
			ProviderRPCURL:      getEnv("WALLET_RPC_URL", ""),
			EventPollInterval:   getEnvAsDuration("WALLET_EVENT_POLL_INTERVAL", 2*time.Second),
			DefaultNetwork:      getEnv("DEFAULT_NETWORK", "SCROLL_SEPOLIA"),
			BalancePollInterval: getEnvAsDuration("BALANCE_POLL_INTERVAL", 10*time.Second),
			ShowBalance:         getEnvAsBool("SHOW_BALANCE", true),
			AutoReconnect:       getEnvAsBool("WALLET_AUTO_RECONNECT", true),
		},
		QR: QRConfig{
			ScanInterval: getEnvAsDuration("QR_SCAN_INTERVAL", 16*time.Millisecond),
		},
		State: StateConfig{
			Backend:       strings.ToLower(getEnv("STATE_BACKEND", "memory")),
			SQLitePath:    getEnv("STATE_SQLITE_PATH", "certverify-state.db"),
			Namespace:     getEnv("STATE_NAMESPACE", "default"),
			EncryptionKey: getEnv("STATE_ENCRYPTION_KEY", ""),
			TTL:           getEnvAsDuration("STATE_TTL", 0),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "certverify"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			PASSWORD: getEnv("REDIS_PASSWORD", ""),
		},
		JWT: JWTConfig{
			Secret:       getEnv("JWT_SECRET", "change-this-in-production"),
			AccessExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", 1*time.Hour),
		},
		Admin: AdminConfig{
			Username:     getEnv("ADMIN_USERNAME", "admin"),
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFirst(keys []string, defaultValue string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
