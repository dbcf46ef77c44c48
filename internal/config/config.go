package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type GeminiConfig struct {
	APIKey string `json:"api_key"`
	Model  string `json:"model"`
	// Timeouts are seconds per call type: notes generation needs far more
	// headroom than query generation or answer evaluation.
	NotesTimeout    int `json:"notes_timeout"`
	CallTimeout     int `json:"call_timeout"`
	PollInterval    int `json:"poll_interval"`
	PollMaxAttempts int `json:"poll_max_attempts"`
}

type SearchConfig struct {
	APIKey     string `json:"api_key"`
	EngineID   string `json:"engine_id"`
	NumResults int    `json:"num_results"`
}

type PipelineConfig struct {
	PageCharLimit    int `json:"page_char_limit"`
	WebPageCharLimit int `json:"web_page_char_limit"`
	WebContextBudget int `json:"web_context_budget"`
	ChatWebBudget    int `json:"chat_web_budget"`
	PrimaryTextLimit int `json:"primary_text_limit"`
	MaxHistoryPairs  int `json:"max_history_pairs"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type CleanupConfig struct {
	Spec          string `json:"spec"`
	RetentionDays int    `json:"retention_days"`
}

type Config struct {
	Port          int              `json:"port"`
	LogConfig     logger.LogConfig `json:"log_config"`
	Database      DatabaseConfig   `json:"database"`
	Gemini        GeminiConfig     `json:"gemini"`
	Search        SearchConfig     `json:"search"`
	Pipeline      PipelineConfig   `json:"pipeline"`
	FileStore     FileStoreConfig  `json:"file_store"`
	Cleanup       CleanupConfig    `json:"cleanup"`
	CORSAllowlist []string         `json:"cors_allowlist"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("gemini.api_key is required")
	}
	if cfg.Database.DSN == "" && (cfg.Database.Host == "" || cfg.Database.DBName == "") {
		return nil, fmt.Errorf("database.dsn or database.host/dbname is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-2.5-flash"
	}
	if cfg.Gemini.NotesTimeout <= 0 {
		cfg.Gemini.NotesTimeout = 600
	}
	if cfg.Gemini.CallTimeout <= 0 {
		cfg.Gemini.CallTimeout = 120
	}
	if cfg.Gemini.PollInterval <= 0 {
		cfg.Gemini.PollInterval = 5
	}
	if cfg.Gemini.PollMaxAttempts <= 0 {
		cfg.Gemini.PollMaxAttempts = 12
	}
	if cfg.Search.NumResults <= 0 {
		cfg.Search.NumResults = 2
	}
	if cfg.Pipeline.PageCharLimit <= 0 {
		cfg.Pipeline.PageCharLimit = 15000
	}
	if cfg.Pipeline.WebPageCharLimit <= 0 {
		cfg.Pipeline.WebPageCharLimit = 1000
	}
	if cfg.Pipeline.WebContextBudget <= 0 {
		cfg.Pipeline.WebContextBudget = 20000
	}
	if cfg.Pipeline.ChatWebBudget <= 0 {
		cfg.Pipeline.ChatWebBudget = 5000
	}
	if cfg.Pipeline.PrimaryTextLimit <= 0 {
		cfg.Pipeline.PrimaryTextLimit = 30000
	}
	if cfg.Pipeline.MaxHistoryPairs <= 0 {
		cfg.Pipeline.MaxHistoryPairs = 10
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
		cfg.FileStore.Data = map[string]interface{}{"dir": "./uploads"}
	}
	if cfg.Cleanup.Spec == "" {
		cfg.Cleanup.Spec = "0 3 * * *"
	}
	if cfg.Cleanup.RetentionDays <= 0 {
		cfg.Cleanup.RetentionDays = 30
	}
}
