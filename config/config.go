package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/hujadis/geraship/internal/adapters/logger"
)

// Position source names accepted in POSITION_SOURCES.
const (
	SourceSQLite  = "sqlite"
	SourceCSV     = "csv"
	SourceBinance = "binance"
)

// Report formats accepted in REPORT_FORMAT.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds all application configuration.
type Config struct {
	// Sources, in the order their positions are concatenated
	Sources []string
	DBPath  string
	CSVPath string

	// Binance API
	APIKey       string
	SecretKey    string
	IsTestnet    bool
	AccountLabel string // wallet address given to Binance positions

	// Analysis
	Now                    time.Time // zero means wall clock at analysis time
	IncludePatterns        bool
	IncludeRecommendations bool
	PatternSampleLimit     int

	// Output
	ReportFormat string
	ReportTopN   int

	// Logging
	LogLevel logger.LogLevel

	FetchTimeout time.Duration
}

// HasSource reports whether name is one of the configured sources.
func (c *Config) HasSource(name string) bool {
	for _, s := range c.Sources {
		if s == name {
			return true
		}
	}
	return false
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Sources
	cfg.Sources, err = parseSources(getEnv("POSITION_SOURCES", SourceSQLite))
	if err != nil {
		errs = append(errs, err.Error())
	}
	cfg.DBPath = getEnv("DB_PATH", "./data/positions.db")
	cfg.CSVPath = getEnv("CSV_PATH", "./data/positions.csv")

	// Binance API
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", true) // Default to testnet for safety
	cfg.AccountLabel = getEnv("ACCOUNT_LABEL", "binance-main")
	if cfg.HasSource(SourceBinance) {
		if cfg.APIKey == "" {
			errs = append(errs, "BINANCE_API_KEY must be set when binance is a position source")
		}
		if cfg.SecretKey == "" {
			errs = append(errs, "BINANCE_API_SECRET must be set when binance is a position source")
		}
	}

	// Analysis
	if raw := getEnv("ANALYSIS_NOW", ""); raw != "" {
		cfg.Now, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid ANALYSIS_NOW (want RFC3339): %v", err))
		}
	}
	cfg.IncludePatterns = getEnvAsBool("INCLUDE_PATTERNS", true)
	cfg.IncludeRecommendations = getEnvAsBool("INCLUDE_RECOMMENDATIONS", true)

	cfg.PatternSampleLimit, err = getEnvAsIntRequired("PATTERN_SAMPLE_LIMIT", 5)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid PATTERN_SAMPLE_LIMIT: %v", err))
	} else if cfg.PatternSampleLimit <= 0 {
		errs = append(errs, "PATTERN_SAMPLE_LIMIT must be positive")
	}

	// Output
	cfg.ReportFormat = strings.ToLower(getEnv("REPORT_FORMAT", FormatText))
	if cfg.ReportFormat != FormatText && cfg.ReportFormat != FormatJSON {
		errs = append(errs, fmt.Sprintf("REPORT_FORMAT must be %q or %q", FormatText, FormatJSON))
	}
	cfg.ReportTopN, err = getEnvAsIntRequired("REPORT_TOP_N", 10)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid REPORT_TOP_N: %v", err))
	} else if cfg.ReportTopN <= 0 {
		errs = append(errs, "REPORT_TOP_N must be positive")
	}

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))

	timeoutSeconds, err := getEnvAsIntRequired("FETCH_TIMEOUT_SECONDS", 30)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid FETCH_TIMEOUT_SECONDS: %v", err))
	} else if timeoutSeconds <= 0 {
		errs = append(errs, "FETCH_TIMEOUT_SECONDS must be positive")
	}
	cfg.FetchTimeout = time.Duration(timeoutSeconds) * time.Second

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

func parseSources(raw string) ([]string, error) {
	var sources []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		switch name {
		case SourceSQLite, SourceCSV, SourceBinance:
		default:
			return nil, fmt.Errorf("unknown position source %q in POSITION_SOURCES", name)
		}
		if !seen[name] {
			seen[name] = true
			sources = append(sources, name)
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("POSITION_SOURCES must name at least one source")
	}
	return sources, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
