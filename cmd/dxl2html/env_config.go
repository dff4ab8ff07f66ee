package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string // DXL2HTML_CONFIG: config file path
	InputDir   string // DXL2HTML_INPUT_DIR: default input directory
	OutputDir  string // DXL2HTML_OUTPUT_DIR: default output root
	DBTitle    string // DXL2HTML_DB_TITLE: source database title
	BodyItem   string // DXL2HTML_BODY_ITEM: rich-text item name
	FontFamily string // DXL2HTML_FONT_FAMILY: rendered font family
	LinkBase   string // DXL2HTML_LINK_BASE: doclink redirect base URL
	Progress   string // DXL2HTML_PROGRESS: JSONL checkpoint path
	Workers    int    // DXL2HTML_WORKERS: parallel workers
}

// knownEnvVars lists valid DXL2HTML_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"DXL2HTML_CONFIG":      true,
	"DXL2HTML_INPUT_DIR":   true,
	"DXL2HTML_OUTPUT_DIR":  true,
	"DXL2HTML_DB_TITLE":    true,
	"DXL2HTML_BODY_ITEM":   true,
	"DXL2HTML_FONT_FAMILY": true,
	"DXL2HTML_LINK_BASE":   true,
	"DXL2HTML_PROGRESS":    true,
	"DXL2HTML_WORKERS":     true,
}

// loadEnvConfig reads configuration from environment variables.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("DXL2HTML_CONFIG"),
		InputDir:   os.Getenv("DXL2HTML_INPUT_DIR"),
		OutputDir:  os.Getenv("DXL2HTML_OUTPUT_DIR"),
		DBTitle:    os.Getenv("DXL2HTML_DB_TITLE"),
		BodyItem:   os.Getenv("DXL2HTML_BODY_ITEM"),
		FontFamily: os.Getenv("DXL2HTML_FONT_FAMILY"),
		LinkBase:   os.Getenv("DXL2HTML_LINK_BASE"),
		Progress:   os.Getenv("DXL2HTML_PROGRESS"),
	}

	if workers := os.Getenv("DXL2HTML_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized DXL2HTML_* variables.
// Helps catch typos like DXL2HTML_DATABASE instead of DXL2HTML_DB_TITLE.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "DXL2HTML_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values to config.
// Only sets values the config file left empty, so the precedence is
// CLI flags > config file > env vars > defaults
// (CLI flags are applied later via mergeFlags).
func applyEnvConfig(env *envConfig, cfg *Config) {
	if env.InputDir != "" && cfg.Input.DefaultDir == "" {
		cfg.Input.DefaultDir = env.InputDir
	}
	if env.OutputDir != "" && cfg.Output.DefaultDir == "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
	if env.DBTitle != "" && cfg.Database.Title == "" {
		cfg.Database.Title = env.DBTitle
	}
	if env.BodyItem != "" && cfg.Input.BodyItem == "" {
		cfg.Input.BodyItem = env.BodyItem
	}
	if env.FontFamily != "" && cfg.Render.FontFamily == "" {
		cfg.Render.FontFamily = env.FontFamily
	}
	if env.LinkBase != "" && cfg.Render.LinkRedirectBase == "" {
		cfg.Render.LinkRedirectBase = env.LinkBase
	}
	if env.Progress != "" && cfg.Progress.File == "" {
		cfg.Progress.File = env.Progress
	}
}
