package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	Port       int
	Host       string
	LogLevel   string
	CORSOrigin string

	// Database
	DatabaseDriver string // sqlite3 or postgres
	DatabasePath   string
	DatabaseURL    string

	// Rate Limiting
	PostRateLimit   int // per window, per user or IP
	ToggleRateLimit int
	UserRateLimit   int
	RateLimitWindow time.Duration

	// Image generation
	StabilityAPIKey string
	StabilityAPIURL string

	// IPFS pinning
	PinataJWT    string
	PinataAPIURL string
	IPFSGateway  string

	// IP asset registration
	IPRelayURL       string
	IPRelayToken     string
	IPSPGNFTContract string

	// Events
	NATSURL string

	UpstreamTimeout time.Duration
}

func Load() *Config {
	return &Config{
		Port:             getEnvInt("PORT", 3001),
		Host:             getEnv("HOST", "0.0.0.0"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		CORSOrigin:       getEnv("CORS_ORIGIN", "*"),
		DatabaseDriver:   getEnv("DATABASE_DRIVER", "sqlite3"),
		DatabasePath:     getEnv("DATABASE_PATH", "storyx.db"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		PostRateLimit:    getEnvInt("POST_RATE_LIMIT", 30),
		ToggleRateLimit:  getEnvInt("TOGGLE_RATE_LIMIT", 240),
		UserRateLimit:    getEnvInt("USER_RATE_LIMIT", 20),
		RateLimitWindow:  getEnvDuration("RATE_LIMIT_WINDOW", time.Hour),
		StabilityAPIKey:  getEnv("STABILITY_API_KEY", ""),
		StabilityAPIURL:  getEnv("STABILITY_API_URL", "https://api.stability.ai"),
		PinataJWT:        getEnv("PINATA_JWT", ""),
		PinataAPIURL:     getEnv("PINATA_API_URL", "https://api.pinata.cloud"),
		IPFSGateway:      getEnv("IPFS_GATEWAY", "gateway.pinata.cloud"),
		IPRelayURL:       getEnv("IP_RELAY_URL", ""),
		IPRelayToken:     getEnv("IP_RELAY_TOKEN", ""),
		IPSPGNFTContract: getEnv("IP_SPG_NFT_CONTRACT", ""),
		NATSURL:          getEnv("NATS_URL", ""),
		UpstreamTimeout:  getEnvDuration("UPSTREAM_TIMEOUT", 60*time.Second),
	}
}

// Validate reports configuration that would prevent the server from starting.
// Missing collaborator credentials are not errors; those endpoints fail at
// request time instead.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}

	switch c.DatabaseDriver {
	case "sqlite3":
		if c.DatabasePath == "" {
			errs = append(errs, errors.New("DATABASE_PATH is required for sqlite3"))
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be sqlite3 or postgres, got %q", c.DatabaseDriver))
	}

	if c.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive"))
	}
	if c.UpstreamTimeout <= 0 {
		errs = append(errs, errors.New("UPSTREAM_TIMEOUT must be positive"))
	}

	return errors.Join(errs...)
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
