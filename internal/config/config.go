package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Auth for job and stats endpoints
	APIKey string

	// Artifact locations
	SourceDir     string
	TranslatedDir string
	AlignmentDir  string
	IndexPath     string
	SQLitePath    string
	DictionaryDir string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Citation index
	ContextRadius  int
	OracleURL      string
	OracleAPIKey   string
	OracleCommand  string
	OracleSelector string
	OracleTimeout  time.Duration

	// Claude translation
	AnthropicAPIKey string
	AnthropicModel  string
	CheckpointEvery int

	// Job state
	JobTTL time.Duration

	LogLevel  string
	LogFormat string
}

func Load() Config {
	cfg := Config{
		Port: envOr("IHYA_PORT", "8090"),

		APIKey: os.Getenv("IHYA_API_KEY"),

		SourceDir:     envOr("IHYA_SOURCE_DIR", "data/processed"),
		TranslatedDir: envOr("IHYA_TRANSLATED_DIR", "data/raw/english"),
		AlignmentDir:  envOr("IHYA_ALIGNMENT_DIR", "data/translations"),
		IndexPath:     envOr("IHYA_INDEX_PATH", "data/citation_index.json"),
		SQLitePath:    os.Getenv("IHYA_SQLITE_PATH"),
		DictionaryDir: envOr("IHYA_DICTIONARY_DIR", "data/dictionary"),

		WorkerCount:  envInt("IHYA_WORKER_COUNT", 4),
		MaxQueueSize: envInt("IHYA_MAX_QUEUE_SIZE", 16),

		ContextRadius:  envInt("IHYA_CONTEXT_RADIUS", 30),
		OracleURL:      os.Getenv("IHYA_ORACLE_URL"),
		OracleAPIKey:   os.Getenv("IHYA_ORACLE_API_KEY"),
		OracleCommand:  os.Getenv("IHYA_ORACLE_COMMAND"),
		OracleSelector: envOr("IHYA_ORACLE_SELECTOR", "all"),
		OracleTimeout:  envDuration("IHYA_ORACLE_TIMEOUT", 2*time.Minute),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		CheckpointEvery: envInt("IHYA_CHECKPOINT_EVERY", 5),

		JobTTL: envDuration("IHYA_JOB_TTL", 1*time.Hour),

		LogLevel:  envOr("IHYA_LOG_LEVEL", "info"),
		LogFormat: envOr("IHYA_LOG_FORMAT", "json"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 16
	}
	if cfg.ContextRadius <= 0 {
		cfg.ContextRadius = 30
	}
	if cfg.OracleTimeout <= 0 {
		cfg.OracleTimeout = 2 * time.Minute
	}
	if cfg.CheckpointEvery <= 0 {
		cfg.CheckpointEvery = 5
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

// ValidateIndex checks the settings needed to build a citation index.
func (c Config) ValidateIndex() error {
	if c.OracleURL == "" && c.OracleCommand == "" {
		return fmt.Errorf("IHYA_ORACLE_URL or IHYA_ORACLE_COMMAND is required")
	}
	if c.OracleURL != "" && c.OracleCommand != "" {
		return fmt.Errorf("set only one of IHYA_ORACLE_URL and IHYA_ORACLE_COMMAND")
	}
	return nil
}

// ValidateTranslate checks the settings needed for LLM translation.
func (c Config) ValidateTranslate() error {
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	return nil
}

// ValidateServe checks the settings needed to run the HTTP API.
func (c Config) ValidateServe() error {
	if c.APIKey == "" {
		return fmt.Errorf("IHYA_API_KEY is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("IHYA_PORT must be a number: %q", c.Port)
	}
	return nil
}

// LoadDotenv loads a .env file from the working directory when present.
// Variables already set in the environment win.
func LoadDotenv(log *slog.Logger, files ...string) {
	if err := godotenv.Load(files...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		log.Warn(".env file not loaded", "error", err)
		return
	}
	log.Debug("environment loaded from .env")
}

// NewLogger builds the process logger from level and format names.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
