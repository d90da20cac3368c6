// Package config resolves server settings from defaults, an optional YAML
// file, a .env file and the environment, in that order of precedence
// (later wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const DefaultMaxUploadBytes = int64(200 * 1024 * 1024)

type Config struct {
	Addr           string `yaml:"addr"`
	StorePath      string `yaml:"store_path"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	StrictPDF      bool   `yaml:"strict_pdf"`
	LogLevel       string `yaml:"log_level"`
	GeminiAPIKey   string `yaml:"gemini_api_key"`
	GeminiModel    string `yaml:"gemini_model"`
}

func Default() Config {
	return Config{
		Addr:           ":8080",
		MaxUploadBytes: DefaultMaxUploadBytes,
		LogLevel:       "info",
		GeminiModel:    "gemini-2.5-flash",
	}
}

// Load builds a Config. path may be empty; a missing .env is not an error.
// The result is not validated, so callers can layer flags on top first.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// envKeys lists every variable applyEnv reads.
var envKeys = []string{
	"PDFTOOLKIT_ADDR", "PDFTOOLKIT_STORE", "PDFTOOLKIT_MAX_UPLOAD_BYTES",
	"PDFTOOLKIT_STRICT", "LOG_LEVEL", "GOOGLE_API_KEY", "GEMINI_MODEL",
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PDFTOOLKIT_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("PDFTOOLKIT_STORE"); v != "" {
		c.StorePath = v
	}
	if v := os.Getenv("PDFTOOLKIT_MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("PDFTOOLKIT_MAX_UPLOAD_BYTES: %w", err)
		}
		c.MaxUploadBytes = n
	}
	if v := os.Getenv("PDFTOOLKIT_STRICT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PDFTOOLKIT_STRICT: %w", err)
		}
		c.StrictPDF = b
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		c.GeminiAPIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		c.GeminiModel = v
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("addr must not be empty")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// NewLogger returns a logrus logger at the configured level.
func (c Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
