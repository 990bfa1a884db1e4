// Package config loads daemon settings from environment variables.
package config

import (
	"os"
)

// Config holds everything the daemon needs to come up.
type Config struct {
	ListenAddr   string
	DatabasePath string
	EventLogDir  string
	LogLevel     string

	TokenName       string
	TokenSymbol     string
	AdminAddress    string
	TreasuryAddress string
}

// Load reads configuration from the environment, falling back to defaults
// suitable for local development.
func Load() *Config {
	return &Config{
		ListenAddr:      getEnv("LEDGER_LISTEN_ADDR", ":8440"),
		DatabasePath:    getEnv("LEDGER_DB_PATH", "./data/ledger.db"),
		EventLogDir:     getEnv("LEDGER_EVENT_LOG_DIR", "./data/events"),
		LogLevel:        getEnv("LEDGER_LOG_LEVEL", "info"),
		TokenName:       getEnv("LEDGER_TOKEN_NAME", "Gravity"),
		TokenSymbol:     getEnv("LEDGER_TOKEN_SYMBOL", "GRV"),
		AdminAddress:    getEnv("LEDGER_ADMIN_ADDRESS", "system"),
		TreasuryAddress: getEnv("LEDGER_TREASURY_ADDRESS", "treasury"),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
