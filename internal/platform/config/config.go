package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

const defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	JWTSecret     string

	// StoreDriver selects the ledger store: postgres or memory.
	StoreDriver string
	// DistributionAtomic runs every commit step inside one database transaction.
	DistributionAtomic bool

	// RedisAddress enables the cross-instance project lock and the shared rate limit store.
	RedisAddress  string
	RedisPassword string
	RedisDB       int
	LockTTL       time.Duration

	AMQPURL             string
	ReconciliationQueue string
	// ReconciliationCron is a six-field (seconds first) cron spec for the sweeper.
	ReconciliationCron string
	StaleRunAfter      time.Duration

	// RateLimit uses the limiter "<limit>-<period>" format, e.g. "100-M".
	RateLimit          string
	CORSAllowedOrigins []string
	PostHogAPIKey      string
	PostHogEndpoint    string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	viper.SetDefault("DISTRIBUTION_ATOMIC", false)
	viper.SetDefault("REDIS_ADDRESS", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("LOCK_TTL", "2m")
	viper.SetDefault("AMQP_URL", "")
	viper.SetDefault("RECONCILIATION_QUEUE", "distribution_events")
	viper.SetDefault("RECONCILIATION_CRON", "0 */5 * * * *")
	viper.SetDefault("STALE_RUN_AFTER", "15m")
	viper.SetDefault("RATE_LIMIT", "100-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("POSTHOG_API_KEY", "")
	viper.SetDefault("POSTHOG_ENDPOINT", "https://us.i.posthog.com")

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:         viper.GetString("PGSQL_URL"),
		Port:                viper.GetString("PORT"),
		IsProduction:        viper.GetBool("IS_PRODUCTION"),
		EnableDBCheck:       viper.GetBool("ENABLE_DB_CHECK"),
		JWTSecret:           viper.GetString("JWT_SECRET"),
		StoreDriver:         strings.ToLower(strings.TrimSpace(viper.GetString("STORE_DRIVER"))),
		DistributionAtomic:  viper.GetBool("DISTRIBUTION_ATOMIC"),
		RedisAddress:        viper.GetString("REDIS_ADDRESS"),
		RedisPassword:       viper.GetString("REDIS_PASSWORD"),
		RedisDB:             viper.GetInt("REDIS_DB"),
		AMQPURL:             viper.GetString("AMQP_URL"),
		ReconciliationQueue: viper.GetString("RECONCILIATION_QUEUE"),
		ReconciliationCron:  viper.GetString("RECONCILIATION_CRON"),
		RateLimit:           viper.GetString("RATE_LIMIT"),
		CORSAllowedOrigins:  splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		PostHogAPIKey:       viper.GetString("POSTHOG_API_KEY"),
		PostHogEndpoint:     viper.GetString("POSTHOG_ENDPOINT"),
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL is required when STORE_DRIVER is %s", StoreDriverPostgres)
		}
	case StoreDriverMemory:
		log.Println("Warning: STORE_DRIVER=memory, ledger data will not survive a restart.")
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = defaultJWTSecret
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}

	cfg.LockTTL = durationOr("LOCK_TTL", 2*time.Minute)
	cfg.StaleRunAfter = durationOr("STALE_RUN_AFTER", 15*time.Minute)

	if cfg.DistributionAtomic && cfg.StoreDriver == StoreDriverMemory {
		log.Println("Warning: DISTRIBUTION_ATOMIC with the memory store uses snapshot rollback.")
	}

	return cfg, nil
}

func durationOr(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback.String())
		}
		return fallback
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
