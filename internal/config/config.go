package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// DefaultHistoryMaxDepth is the number of undoable commands kept per fit.
const DefaultHistoryMaxDepth = 50

// Config holds application configuration.
type Config struct {
	// HistoryMaxDepth caps each fit's undo stack. The oldest command is dropped first.
	HistoryMaxDepth int `json:"history_max_depth"`

	// CatalogPath points at a YAML item catalog that replaces the embedded one.
	// Relative paths are resolved against the directory holding config.json.
	CatalogPath string `json:"catalog_path,omitempty"`

	// LogLevel is one of debug, info, warn, error. Unknown values fall back to info.
	LogLevel string `json:"log_level,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default (unlimited). Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of type names to disable entirely.
	// Known types: "fit", "module", "projected", "history", "item".
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		HistoryMaxDepth: DefaultHistoryMaxDepth,
		LogLevel:        "info",
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.loadout.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.loadout) and repo (.loadout) directories.
// Repo config is found by walking upward from startDir to find the nearest .loadout/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repoConfigPath := FindRepoConfig(startDir)
	repo, err := loadFileRaw(repoConfigPath)
	if err != nil {
		return nil, err
	}

	// Apply defaults, then global, then repo
	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// envOverlay holds settings that LOADOUT_* variables may override.
// Nil pointers are unset.
type envOverlay struct {
	HistoryMaxDepth *int     `env:"LOADOUT_HISTORY_MAX_DEPTH"`
	CatalogPath     *string  `env:"LOADOUT_CATALOG_PATH"`
	LogLevel        *string  `env:"LOADOUT_LOG_LEVEL"`
	DisabledTools   []string `env:"LOADOUT_DISABLED_TOOLS" envSeparator:","`
	DisabledTypes   []string `env:"LOADOUT_DISABLED_TYPES" envSeparator:","`
}

// ApplyEnv overrides cfg from LOADOUT_* variables, which take precedence over
// both config files. Disabled lists are merged like repo config. A nil
// environ reads the process environment.
func ApplyEnv(cfg *Config, environ map[string]string) error {
	var o envOverlay
	if err := env.ParseWithOptions(&o, env.Options{Environment: environ}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	if o.HistoryMaxDepth != nil {
		if *o.HistoryMaxDepth < 1 {
			return fmt.Errorf("LOADOUT_HISTORY_MAX_DEPTH must be positive, got %d", *o.HistoryMaxDepth)
		}
		cfg.HistoryMaxDepth = *o.HistoryMaxDepth
	}
	if o.CatalogPath != nil {
		cfg.CatalogPath = *o.CatalogPath
	}
	if o.LogLevel != nil {
		cfg.LogLevel = *o.LogLevel
	}
	cfg.DisabledTools = mergeStringSlice(cfg.DisabledTools, o.DisabledTools)
	cfg.DisabledTypes = mergeStringSlice(cfg.DisabledTypes, o.DisabledTypes)
	return nil
}

// FindRepoConfig walks upward from startDir to find the nearest .loadout/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".loadout", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if cfg.CatalogPath != "" && !filepath.IsAbs(cfg.CatalogPath) {
		cfg.CatalogPath = filepath.Join(filepath.Dir(configPath), cfg.CatalogPath)
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.HistoryMaxDepth = overlay.HistoryMaxDepth
	if result.HistoryMaxDepth == 0 {
		result.HistoryMaxDepth = base.HistoryMaxDepth
	}

	result.CatalogPath = overlay.CatalogPath
	if result.CatalogPath == "" {
		result.CatalogPath = base.CatalogPath
	}

	result.LogLevel = overlay.LogLevel
	if result.LogLevel == "" {
		result.LogLevel = base.LogLevel
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

// SlogLevel maps LogLevel onto a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
