package main

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds the process-wide configuration, loaded once at startup.
// Credentials are immutable for the process lifetime.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AccessToken  string // optional pre-set token, used when no stored token exists
	TokenFile    string
	LogLevel     string
}

// LoadConfig reads configuration from the environment, with an optional .env
// file (the helper binaries under cmd/ write one).
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		ClientID:     os.Getenv("OURA_CLIENT_ID"),
		ClientSecret: os.Getenv("OURA_CLIENT_SECRET"),
		RedirectURI:  getEnv("OURA_REDIRECT_URI", "http://localhost:8080/callback"),
		AccessToken:  os.Getenv("OURA_ACCESS_TOKEN"),
		TokenFile:    getEnv("OURA_TOKEN_FILE", defaultTokenFile()),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}
}

// HasCredentials reports whether the OAuth2 flow can be used at all.
func (c *Config) HasCredentials() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "oura_token.json"
	}
	return filepath.Join(home, ".oura-mcp", "token.json")
}
