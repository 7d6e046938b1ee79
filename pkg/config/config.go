// Package config reads application configuration from environment variables.
package config

import (
	"os"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Template TemplateConfig
	Output   OutputConfig
	Logging  LoggingConfig
}

// TemplateConfig locates the base spreadsheet template.
type TemplateConfig struct {
	Path string
}

// OutputConfig controls where generated artifacts land.
type OutputConfig struct {
	Path       string
	ArchiveDir string // empty disables archiving
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string // debug, info, warn, error
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Template: TemplateConfig{
			Path: getEnv("PLANILHA_TEMPLATE", "Planilha Base de Teste.xlsx"),
		},
		Output: OutputConfig{
			Path:       getEnv("PLANILHA_OUTPUT", "Itens NT - preenchido.xlsx"),
			ArchiveDir: getEnv("PLANILHA_ARCHIVE_DIR", ""),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}
