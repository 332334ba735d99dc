// Package config provides configuration management for up-ynab-sync.
// It loads configuration from environment variables and .env files into
// an explicit value that is constructed once at process start and passed
// into the clients and the sync engine; core logic never reads the
// environment itself.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Up    UpConfig
	YNAB  YNABConfig
	Sync  SyncConfig
	Debug bool
}

// UpConfig represents Up Bank API configuration.
type UpConfig struct {
	APIURL      string
	AccessToken string
}

// YNABConfig represents YNAB API configuration.
type YNABConfig struct {
	APIURL      string
	AccessToken string
	BudgetID    string
}

// SyncConfig represents sync engine configuration.
type SyncConfig struct {
	// AccountsFile is the YAML file mapping Up accounts to YNAB accounts.
	AccountsFile string
	// DBPath is the SQLite sync history database.
	DBPath string
	// WatermarkFloor is the historical floor date (YYYY-MM-DD) used when
	// scanning the destination for reconciled transactions.
	WatermarkFloor string
	// FallbackLookback is how far back to sync when an account has no
	// reconciliation history at all.
	FallbackLookback time.Duration
	// HTTPTimeout applies per network call.
	HTTPTimeout time.Duration
	// MaxAttempts bounds retries of transport failures.
	MaxAttempts int
	// RetryBaseDelay is the base of the exponential retry backoff.
	RetryBaseDelay time.Duration
	// BatchSize is the number of transactions submitted per create call.
	BatchSize int
	// Concurrency bounds the number of account syncs running at once.
	Concurrency int
}

// Load loads configuration from environment variables. It automatically
// loads a .env file from the current directory if available; a custom
// .env path can be given instead.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	lookbackDays, err := parseIntEnv("FALLBACK_LOOKBACK_DAYS", 30)
	if err != nil {
		return nil, err
	}
	maxAttempts, err := parseIntEnv("MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	batchSize, err := parseIntEnv("BATCH_SIZE", 100)
	if err != nil {
		return nil, err
	}
	concurrency, err := parseIntEnv("SYNC_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}
	httpTimeout, err := parseDurationEnv("HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	retryBase, err := parseDurationEnv("RETRY_BASE_DELAY", time.Second)
	if err != nil {
		return nil, err
	}

	config := &Config{
		Up: UpConfig{
			APIURL:      getEnvOrDefault("UP_API_URL", "https://api.up.com.au/api/v1"),
			AccessToken: os.Getenv("UP_API_KEY"),
		},
		YNAB: YNABConfig{
			APIURL:      getEnvOrDefault("YNAB_API_URL", "https://api.ynab.com/v1"),
			AccessToken: os.Getenv("YNAB_API_KEY"),
			BudgetID:    os.Getenv("YNAB_BUDGET_ID"),
		},
		Sync: SyncConfig{
			AccountsFile:     getEnvOrDefault("ACCOUNTS_FILE", "resources.yaml"),
			DBPath:           getEnvOrDefault("SYNC_DB_PATH", ".sync/sync.db"),
			WatermarkFloor:   getEnvOrDefault("WATERMARK_FLOOR", "2020-01-01"),
			FallbackLookback: time.Duration(lookbackDays) * 24 * time.Hour,
			HTTPTimeout:      httpTimeout,
			MaxAttempts:      maxAttempts,
			RetryBaseDelay:   retryBase,
			BatchSize:        batchSize,
			Concurrency:      concurrency,
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate checks that every credential and setting a sync run needs is
// present. It runs before any network call; a failure here is a
// configuration error, not a sync failure.
func (c *Config) Validate() error {
	var missing []string

	checks := []struct {
		key   string
		value string
	}{
		{"UP_API_KEY", c.Up.AccessToken},
		{"YNAB_API_KEY", c.YNAB.AccessToken},
		{"YNAB_BUDGET_ID", c.YNAB.BudgetID},
		{"ACCOUNTS_FILE", c.Sync.AccountsFile},
	}
	for _, check := range checks {
		if check.value == "" {
			missing = append(missing, check.key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	if _, err := time.Parse("2006-01-02", c.Sync.WatermarkFloor); err != nil {
		return fmt.Errorf("invalid WATERMARK_FLOOR (want YYYY-MM-DD): %w", err)
	}
	if c.Sync.MaxAttempts < 1 {
		return fmt.Errorf("MAX_ATTEMPTS must be at least 1")
	}
	if c.Sync.BatchSize < 1 {
		return fmt.Errorf("BATCH_SIZE must be at least 1")
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv parses an int from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %s", key, value)
	}

	return parsed, nil
}

// parseDurationEnv parses a time.Duration from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value for %s: %s", key, value)
	}

	return parsed, nil
}
