package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"sniperbot/internal/adapters/logger" // Import the logger package for LogLevel
	"sniperbot/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	// Binance API
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Symbols and timeframes
	Symbols     []string // symbols scanned each cycle
	EntryTF     string   // entry timeframe, e.g. "15m"
	StorylineTF string   // higher timeframe, e.g. "4h"
	QuoteAsset  string   // asset used for balance lookups, e.g. "USDT"

	// Zone engine
	ZoneLookback     int
	MitigationBuffer float64 // fraction of the zone midpoint
	MissWindow       int

	// Structure engine
	SwingLookback int
	BOSLookback   int

	// Arrival filter
	MarubozuMultiple float64
	ArrivalLookback  int
	AvgBodyWindow    int

	// Risk & screening
	RiskPercent   float64 // percent of balance risked per trade
	MinRR         float64
	MaxRiskPips   float64
	MaxOpenTrades int

	// Signal frequency & execution
	CooldownBars    int
	ExecMode        domain.EntryMode
	LimitExpiryBars int
	Slippage        float64 // fill deviation fraction tolerated before a warning

	// Session & news gating
	Session             string // LONDON, NY or BOTH
	UseNewsFilter       bool
	NewsImpact          []string
	NewsCacheTTL        time.Duration
	NewsBlackoutMinutes int
	CalendarURL         string

	// Kafka decision publishing
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Database
	DBPath string

	// Logging
	LogLevel  logger.LogLevel
	LogFormat string // "std" or "json" (zerolog)

	// Connection Settings
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Binance API
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", true) // Default to testnet for safety

	// Symbols and timeframes
	cfg.Symbols = splitList(getEnv("SYMBOLS", "BTCUSDT"))
	if len(cfg.Symbols) == 0 {
		errs = append(errs, "SYMBOLS must list at least one symbol")
	}
	cfg.EntryTF = getEnv("ENTRY_TF", "15m")
	cfg.StorylineTF = getEnv("STORYLINE_TF", "4h")
	if cfg.EntryTF == cfg.StorylineTF {
		errs = append(errs, "ENTRY_TF and STORYLINE_TF must differ")
	}
	cfg.QuoteAsset = getEnv("QUOTE_ASSET", "USDT")

	// Zone engine
	cfg.ZoneLookback = getEnvAsInt("ZONE_LOOKBACK", 40)
	if cfg.ZoneLookback < 2 {
		errs = append(errs, "ZONE_LOOKBACK must be at least 2")
	}
	cfg.MitigationBuffer, err = getEnvAsFloatRequired("MITIGATION_BUFFER", 0.001)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MITIGATION_BUFFER: %v", err))
	} else if cfg.MitigationBuffer < 0 || cfg.MitigationBuffer >= 0.1 {
		errs = append(errs, "MITIGATION_BUFFER must be in [0, 0.1)")
	}
	cfg.MissWindow = getEnvAsInt("MISS_WINDOW", 3)
	if cfg.MissWindow <= 0 {
		errs = append(errs, "MISS_WINDOW must be positive")
	}

	// Structure engine
	cfg.SwingLookback = getEnvAsInt("SWING_LOOKBACK", 3)
	cfg.BOSLookback = getEnvAsInt("BOS_LOOKBACK", 5)
	if cfg.SwingLookback <= 0 || cfg.BOSLookback <= 0 {
		errs = append(errs, "SWING_LOOKBACK and BOS_LOOKBACK must be positive")
	}

	// Arrival filter
	cfg.MarubozuMultiple = getEnvAsFloat("MARUBOZU_MULTIPLE", 2.5)
	cfg.ArrivalLookback = getEnvAsInt("ARRIVAL_LOOKBACK", 3)
	cfg.AvgBodyWindow = getEnvAsInt("AVG_BODY_WINDOW", 50)
	if cfg.MarubozuMultiple <= 1 {
		errs = append(errs, "MARUBOZU_MULTIPLE must exceed 1")
	}
	if cfg.ArrivalLookback <= 0 || cfg.AvgBodyWindow <= 0 {
		errs = append(errs, "ARRIVAL_LOOKBACK and AVG_BODY_WINDOW must be positive")
	}

	// Risk & screening
	cfg.RiskPercent, err = getEnvAsFloatRequired("RISK_PERCENT", 1.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid RISK_PERCENT: %v", err))
	} else if cfg.RiskPercent <= 0 || cfg.RiskPercent > 100 {
		errs = append(errs, "RISK_PERCENT must be in (0, 100]")
	}
	cfg.MinRR = getEnvAsFloat("MIN_RR", 2.0)
	if cfg.MinRR < 0 {
		errs = append(errs, "MIN_RR cannot be negative")
	}
	cfg.MaxRiskPips, err = getEnvAsFloatRequired("MAX_RISK_PIPS", 50)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MAX_RISK_PIPS: %v", err))
	} else if cfg.MaxRiskPips <= 0 {
		errs = append(errs, "MAX_RISK_PIPS must be positive")
	}
	cfg.MaxOpenTrades = getEnvAsInt("MAX_OPEN_TRADES", 1)
	if cfg.MaxOpenTrades <= 0 {
		errs = append(errs, "MAX_OPEN_TRADES must be positive")
	}

	// Signal frequency & execution
	cfg.CooldownBars = getEnvAsInt("COOLDOWN_BARS", 4)
	if cfg.CooldownBars < 0 {
		errs = append(errs, "COOLDOWN_BARS cannot be negative")
	}
	execMode := strings.ToUpper(getEnv("EXEC_MODE", "MARKET"))
	switch execMode {
	case "MARKET":
		cfg.ExecMode = domain.EntryMarket
	case "LIMIT":
		cfg.ExecMode = domain.EntryLimit
	default:
		errs = append(errs, fmt.Sprintf("EXEC_MODE must be MARKET or LIMIT, got %q", execMode))
	}
	cfg.LimitExpiryBars = getEnvAsInt("LIMIT_EXPIRY_BARS", 8)
	if cfg.LimitExpiryBars <= 0 {
		errs = append(errs, "LIMIT_EXPIRY_BARS must be positive")
	}
	cfg.Slippage = getEnvAsFloat("SLIPPAGE", 0.0005)
	if cfg.Slippage < 0 {
		errs = append(errs, "SLIPPAGE cannot be negative")
	}

	// Session & news gating
	cfg.Session = strings.ToUpper(getEnv("SESSION", "BOTH"))
	switch cfg.Session {
	case "LONDON", "NY", "BOTH":
	default:
		errs = append(errs, fmt.Sprintf("SESSION must be LONDON, NY or BOTH, got %q", cfg.Session))
	}
	cfg.UseNewsFilter = getEnvAsBool("USE_NEWS_FILTER", true)
	cfg.NewsImpact = splitList(getEnv("NEWS_IMPACT", "High,Medium"))
	newsCacheTTL := getEnvAsInt("NEWS_CACHE_TTL_SECONDS", 3600)
	if newsCacheTTL <= 0 {
		errs = append(errs, "NEWS_CACHE_TTL_SECONDS must be positive")
	}
	cfg.NewsCacheTTL = time.Duration(newsCacheTTL) * time.Second
	cfg.NewsBlackoutMinutes = getEnvAsInt("NEWS_BLACKOUT_MINUTES", 30)
	cfg.CalendarURL = getEnv("CALENDAR_URL", "https://nfs.faireconomy.media/ff_calendar_thisweek.xml")

	// Kafka decision publishing
	cfg.KafkaEnabled = getEnvAsBool("KAFKA_ENABLED", false)
	cfg.KafkaBrokers = splitList(getEnv("KAFKA_BROKERS", "localhost:9092"))
	cfg.KafkaTopic = getEnv("KAFKA_DECISION_TOPIC", "trading.decisions")
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		errs = append(errs, "KAFKA_BROKERS must be set when KAFKA_ENABLED")
	}

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/sniperbot.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	// Logging
	cfg.LogLevel = logger.ParseLevel(getEnv("LOG_LEVEL", "INFO"))
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "std"))
	if cfg.LogFormat != "std" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be std or json, got %q", cfg.LogFormat))
	}

	// Connection Settings
	reconnectDelaySeconds := getEnvAsInt("RECONNECT_DELAY_SECONDS", 5)
	if reconnectDelaySeconds <= 0 {
		errs = append(errs, "RECONNECT_DELAY_SECONDS must be positive")
	}
	cfg.ReconnectDelay = time.Duration(reconnectDelaySeconds) * time.Second

	cfg.MaxReconnectAttempts = getEnvAsInt("MAX_RECONNECT_ATTEMPTS", 10)
	if cfg.MaxReconnectAttempts < 0 {
		errs = append(errs, "MAX_RECONNECT_ATTEMPTS cannot be negative")
	}

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// For non-required fields, default is acceptable.
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
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
