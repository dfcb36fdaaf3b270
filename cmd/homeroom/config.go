package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Config holds all gateway configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	ListenAddr     string `json:"listen_addr"`
	DBPath         string `json:"db_path"`
	LogLevel       string `json:"log_level"`
	MCP            bool   `json:"mcp"`
	RequestTimeout int    `json:"request_timeout_seconds"`

	Classroom struct {
		AccessToken string `json:"access_token"`
	} `json:"classroom"`
	Twilio struct {
		AccountSID string `json:"account_sid"`
		AuthToken  string `json:"auth_token"`
		FromNumber string `json:"from_number"`
	} `json:"twilio"`
	Resend struct {
		APIKey string `json:"api_key"`
		From   string `json:"from"`
	} `json:"resend"`
	Perplexity struct {
		APIKey string `json:"api_key"`
	} `json:"perplexity"`
	OpenAI struct {
		APIKey string `json:"api_key"`
		Model  string `json:"model"`
	} `json:"openai"`

	VaultPassphrase string `json:"vault_passphrase"`
	VaultSalt       string `json:"vault_salt"`
}

func defaultConfig() Config {
	cfg := Config{
		ListenAddr:     ":4200",
		DBPath:         filepath.Join(homeroomDir(), "homeroom.db"),
		LogLevel:       "info",
		RequestTimeout: 30,
	}
	return cfg
}

func homeroomDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".homeroom"
	}
	return filepath.Join(home, ".homeroom")
}

func settingsPath() string {
	return filepath.Join(homeroomDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	overrideString(&cfg.ListenAddr, "HOMEROOM_LISTEN_ADDR")
	overrideString(&cfg.DBPath, "HOMEROOM_DB_PATH")
	overrideString(&cfg.LogLevel, "HOMEROOM_LOG_LEVEL")
	if v := os.Getenv("HOMEROOM_MCP"); v != "" {
		cfg.MCP = v == "true" || v == "1"
	}

	overrideString(&cfg.Classroom.AccessToken, "HOMEROOM_CLASSROOM_ACCESS_TOKEN")
	overrideString(&cfg.Twilio.AccountSID, "HOMEROOM_TWILIO_ACCOUNT_SID")
	overrideString(&cfg.Twilio.AuthToken, "HOMEROOM_TWILIO_AUTH_TOKEN")
	overrideString(&cfg.Twilio.FromNumber, "HOMEROOM_TWILIO_FROM_NUMBER")
	overrideString(&cfg.Resend.APIKey, "HOMEROOM_RESEND_API_KEY")
	overrideString(&cfg.Resend.From, "HOMEROOM_RESEND_FROM")
	overrideString(&cfg.Perplexity.APIKey, "HOMEROOM_PERPLEXITY_API_KEY")
	overrideString(&cfg.OpenAI.APIKey, "HOMEROOM_OPENAI_API_KEY")
	overrideString(&cfg.OpenAI.Model, "HOMEROOM_OPENAI_MODEL")
	overrideString(&cfg.VaultPassphrase, "HOMEROOM_VAULT_PASSPHRASE")
	overrideString(&cfg.VaultSalt, "HOMEROOM_VAULT_SALT")

	return cfg
}

func overrideString(dst *string, envVar string) {
	if v := os.Getenv(envVar); v != "" {
		*dst = v
	}
}

func (c Config) requestTimeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.RequestTimeout) * time.Second
}
