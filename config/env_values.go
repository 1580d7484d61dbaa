package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Environment struct {
	// Backend configs
	APIBaseURL       string
	RequestTimeoutMS int
	ChatTimeoutMS    int
	Environment      string
	ChatSourceLimit  int
	IncludeSources   bool

	// Local secure store configs
	StorePath       string
	StorePassphrase string
}

var Env Environment

// LoadEnv loads environment variables from .env file if present
// and validates required variables
func LoadEnv() error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	// Backend configs
	Env.APIBaseURL = getEnvWithDefault("ALFRED_API_BASE_URL", "https://apepdcl-alfred.pathsetter.ai/api")
	Env.RequestTimeoutMS = getIntEnvWithDefault("ALFRED_REQUEST_TIMEOUT_MS", 15000)
	Env.ChatTimeoutMS = getIntEnvWithDefault("ALFRED_CHAT_TIMEOUT_MS", 30000) // Chat answers can take a while
	Env.Environment = getEnvWithDefault("ENVIRONMENT", "DEVELOPMENT")
	Env.ChatSourceLimit = getIntEnvWithDefault("ALFRED_CHAT_SOURCE_LIMIT", 5)
	Env.IncludeSources = getEnvWithDefault("ALFRED_INCLUDE_SOURCES", "true") == "true"

	// Secure store configs
	Env.StorePath = getEnvWithDefault("ALFRED_STORE_PATH", defaultStorePath())
	Env.StorePassphrase = getEnvWithDefault("ALFRED_STORE_PASSPHRASE", "alfred_field_store_passphrase")

	return validateConfig()
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "alfred.db"
	}
	return filepath.Join(home, ".alfred-field", "alfred.db")
}

// Helper functions to get environment variables with defaults and validation
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) int {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(strValue)
	if err != nil {
		fmt.Printf("Warning: Invalid value for %s, using default: %d\n", key, defaultValue)
		return defaultValue
	}
	return value
}

func validateConfig() error {
	if !strings.HasPrefix(Env.APIBaseURL, "http://") && !strings.HasPrefix(Env.APIBaseURL, "https://") {
		return fmt.Errorf("invalid ALFRED_API_BASE_URL format: %s", Env.APIBaseURL)
	}

	if Env.RequestTimeoutMS <= 0 {
		return fmt.Errorf("ALFRED_REQUEST_TIMEOUT_MS must be positive, got: %d", Env.RequestTimeoutMS)
	}

	if Env.ChatTimeoutMS <= 0 {
		return fmt.Errorf("ALFRED_CHAT_TIMEOUT_MS must be positive, got: %d", Env.ChatTimeoutMS)
	}

	if Env.StorePassphrase == "" {
		return fmt.Errorf("ALFRED_STORE_PASSPHRASE must not be empty")
	}

	return nil
}
