package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Backend   BackendConfig
	Rates     RatesConfig
	Log       LogConfig
	Telegram  TelegramConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// LoginRedirectDelay is reported to clients after an authorization
	// failure so they can show a message before navigating to login.
	LoginRedirectDelay time.Duration
}

type DatabaseConfig struct {
	Path string
}

type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RatesConfig struct {
	PriceIndexURL   string
	RefreshInterval time.Duration
	PriceCacheTTL   time.Duration
	MethodsFile     string
}

type LogConfig struct {
	Level  string
	Pretty bool
}

type TelegramConfig struct {
	BotToken string
	ChatID   int64
}

type RateLimitConfig struct {
	RequestsPerSecond int
	BurstSize         int
}

// Load reads the configuration from the environment. Call godotenv.Load
// beforehand to pick up a local .env file.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        time.Duration(getEnvAsInt("READ_TIMEOUT", 10)) * time.Second,
			WriteTimeout:       time.Duration(getEnvAsInt("WRITE_TIMEOUT", 10)) * time.Second,
			LoginRedirectDelay: getEnvAsDuration("LOGIN_REDIRECT_DELAY", 2*time.Second),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./cloutcoin.db"),
		},
		Backend: BackendConfig{
			BaseURL: strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:5000/api"), "/"),
			Timeout: getEnvAsDuration("BACKEND_TIMEOUT", 15*time.Second),
		},
		Rates: RatesConfig{
			PriceIndexURL:   strings.TrimRight(getEnv("PRICE_INDEX_URL", "https://api.coingecko.com/api/v3"), "/"),
			RefreshInterval: getEnvAsDuration("RATE_REFRESH_INTERVAL", 0),
			PriceCacheTTL:   getEnvAsDuration("PRICE_CACHE_TTL", time.Minute),
			MethodsFile:     getEnv("WITHDRAW_METHODS_FILE", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvAsBool("LOG_PRETTY", false),
		},
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   int64(getEnvAsInt("TELEGRAM_CHAT_ID", 0)),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsInt("RATE_LIMIT_RPS", 10),
			BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
	}
}

// MethodOverride replaces the fixed fields of a withdrawal method, or adds a
// new fiat/gift-card method when the id is not built in.
type MethodOverride struct {
	ID                 string   `yaml:"id"`
	DisplayName        string   `yaml:"display_name"`
	Kind               string   `yaml:"kind"`
	Rate               *float64 `yaml:"rate"`
	MinWithdrawUnits   *float64 `yaml:"min_withdraw_units"`
	FeeCoins           *float64 `yaml:"fee_coins"`
	ServerCostFraction *float64 `yaml:"server_cost_fraction"`
	WaitTime           string   `yaml:"wait_time"`
}

type methodsFile struct {
	Methods []MethodOverride `yaml:"methods"`
}

// LoadMethodOverrides reads the optional withdrawal method schedule. An empty
// path yields no overrides.
func LoadMethodOverrides(path string) ([]MethodOverride, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read methods file: %w", err)
	}

	var f methodsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse methods file: %w", err)
	}

	for i, m := range f.Methods {
		if strings.TrimSpace(m.ID) == "" {
			return nil, fmt.Errorf("methods file: entry %d has no id", i)
		}
	}

	return f.Methods, nil
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultVal
}
