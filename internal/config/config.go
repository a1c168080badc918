package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

const dotEnvPath = ".env"

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env  string `env:"APP_ENV" envDefault:"development"`
	Port string `env:"PORT" envDefault:"8080"`

	DBPath       string `env:"DB_PATH" envDefault:"./dev.db"`
	DocumentsDir string `env:"DOCUMENTS_DIR" envDefault:"./documents"`

	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	SessionSecret    string        `env:"SESSION_SECRET"`
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	MaxLoginAttempts int           `env:"MAX_LOGIN_ATTEMPTS" envDefault:"5"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
	LogFile   string `env:"LOG_FILE"`
}

// Load reads the local .env file (if any) and then the environment.
func Load() (Config, error) {
	// Best-effort: production should inject real environment variables.
	if err := loadDotEnv(dotEnvPath); err != nil {
		return Config{}, fmt.Errorf("load %s: %w", dotEnvPath, err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if cfg.MaxLoginAttempts < 1 {
		return Config{}, fmt.Errorf("MAX_LOGIN_ATTEMPTS must be at least 1, got %d", cfg.MaxLoginAttempts)
	}
	if !cfg.IsDev() && cfg.SessionSecret == "" {
		return Config{}, fmt.Errorf("SESSION_SECRET is required outside development")
	}

	return cfg, nil
}

// IsDev reports whether the application runs in development mode.
func (c Config) IsDev() bool {
	return c.Env == "" || c.Env == "development"
}

// Warnings lists settings that are tolerated but unsafe.
func (c Config) Warnings() []string {
	var warnings []string
	if c.AdminEmail == "" || c.AdminPassword == "" {
		warnings = append(warnings, "ADMIN_EMAIL or ADMIN_PASSWORD is not set, no administrator will be seeded")
	}
	if c.SessionSecret == "" {
		warnings = append(warnings, "SESSION_SECRET is not set, using an insecure development secret")
	}
	return warnings
}
