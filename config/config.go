package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"piggyvault/database"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// HTTP API configuration
	HTTPListenAddr     string
	AdminToken         string // Bearer token required by the admin surface
	AdminAccount       string // Owner key debited when the reward pool is funded
	RateLimitPerMinute int    // Per-client request budget for mutating endpoints

	// Vault configuration
	AssetDecimals            int    // Decimal places of the asset's base unit
	MaturityBonusBasisPoints int64  // Bonus rate applied on matured withdrawals
	CompoundingMode          string // "iterative" or "closed_form"
	MaxCompoundingDays       int    // Iteration bound for daily compounding

	// Accrual sweep configuration
	AccrualSweepMinutes int // Minutes between background accrual sweeps, 0 disables

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated)

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "otlp", "console", or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			// In test environment, use a default test config instead of panicking
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// UnitScale returns the base units per whole asset unit (10^AssetDecimals)
func (c *Config) UnitScale() int64 {
	scale := int64(1)
	for i := 0; i < c.AssetDecimals; i++ {
		scale *= 10
	}
	return scale
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// HTTP API
		HTTPListenAddr:     getEnvWithDefault("HTTP_LISTEN_ADDR", ":8080"),
		AdminToken:         os.Getenv("ADMIN_TOKEN"),
		AdminAccount:       getEnvWithDefault("ADMIN_ACCOUNT", "vault:admin"),
		RateLimitPerMinute: getEnvIntWithDefault("RATE_LIMIT_PER_MINUTE", 60),

		// Vault settings with defaults
		AssetDecimals:            getEnvIntWithDefault("ASSET_DECIMALS", 6),
		MaturityBonusBasisPoints: 500,
		CompoundingMode:          getEnvWithDefault("COMPOUNDING_MODE", "iterative"),
		MaxCompoundingDays:       getEnvIntWithDefault("MAX_COMPOUNDING_DAYS", 365),

		// Accrual sweep
		AccrualSweepMinutes: getEnvIntWithDefault("ACCRUAL_SWEEP_MINUTES", 60),

		// NATS
		NATSServers: getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),

		// OpenTelemetry
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "piggyvault"),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "none"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_OTLP_ENDPOINT", "localhost:4317"),
		OTelExportIntervalMillis: getEnvIntWithDefault("OTEL_EXPORT_INTERVAL_MILLIS", 60000),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	config.OTelEnabled = config.OTelExporterType != "none"

	if bonus := os.Getenv("MATURITY_BONUS_BASIS_POINTS"); bonus != "" {
		parsed, err := strconv.ParseInt(bonus, 10, 64)
		if err != nil || parsed < 0 || parsed > 10000 {
			return nil, fmt.Errorf("MATURITY_BONUS_BASIS_POINTS must be an integer in [0, 10000]")
		}
		config.MaturityBonusBasisPoints = parsed
	}

	if config.CompoundingMode != "iterative" && config.CompoundingMode != "closed_form" {
		return nil, fmt.Errorf("COMPOUNDING_MODE must be %q or %q", "iterative", "closed_form")
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.AdminToken == "" {
			return nil, fmt.Errorf("ADMIN_TOKEN is required")
		}
		// If DatabaseName is provided, ensure it's not empty
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntWithDefault returns the environment variable parsed as int or a default
func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
// This should only be called from test files
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
// This should only be called from test files
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:              "test",
		HTTPListenAddr:           ":0",
		AdminToken:               "test-admin-token",
		AdminAccount:             "vault:admin",
		RateLimitPerMinute:       1000,
		AssetDecimals:            6,
		MaturityBonusBasisPoints: 500,
		CompoundingMode:          "iterative",
		MaxCompoundingDays:       365,
		AccrualSweepMinutes:      0,
		OTelExporterType:         "none",
	}
}
