package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-dxl2html/internal/fileutil"
	"github.com/alnah/go-dxl2html/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
)

// Config holds all configuration for a conversion batch.
type Config struct {
	Input    InputConfig    `yaml:"input"`
	Output   OutputConfig   `yaml:"output"`
	Database DatabaseConfig `yaml:"database"`
	Render   RenderConfig   `yaml:"render"`
	Progress ProgressConfig `yaml:"progress"`
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default input directory (empty = must specify)
	BodyItem   string `yaml:"bodyItem"`   // Rich-text item name (empty = Body)
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default output root (empty = ./out)
	Markdown   bool   `yaml:"markdown"`   // Also write a Markdown rendition
	JSON       bool   `yaml:"json"`       // Also write the normalized document as JSON
}

// DatabaseConfig describes the source database.
type DatabaseConfig struct {
	Title string `yaml:"title"` // First output path segment (empty = placeholder)
}

// RenderConfig defines HTML rendering options.
type RenderConfig struct {
	FontFamily       string `yaml:"fontFamily"`
	LinkRedirectBase string `yaml:"linkRedirectBase"`
}

// ProgressConfig defines checkpoint options for resumable batches.
type ProgressConfig struct {
	File string `yaml:"file"` // JSONL checkpoint path (empty = no checkpointing)
}

// DefaultOutputDir is used when neither flags, env, nor config name an
// output root.
const DefaultOutputDir = "out"

// DefaultConfig returns a neutral configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{JSON: true},
	}
}

// WriteDefaultConfig writes a starter configuration file at path for
// the user to edit. Refuses to clobber an existing file.
func WriteDefaultConfig(path string) error {
	if fileutil.FileExists(path) {
		return fmt.Errorf("config file already exists: %s", path)
	}
	data, err := yamlutil.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, data)
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		resolved, err := resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
		configPath = resolved
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-dxl2html/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-dxl2html", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
