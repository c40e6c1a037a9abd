// Package config loads tally settings from flags, environment and config files.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/tally/internal/common"
	"github.com/Veraticus/tally/internal/llm"
	"github.com/Veraticus/tally/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. TALLY_LLM_MODEL.
const EnvPrefix = "TALLY"

// Defaults.
const (
	DefaultDatabasePath = "~/.local/share/tally/tally.db"
	DefaultTimeout      = 60 * time.Second
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "console"
)

// Config is the resolved application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Budget   BudgetConfig   `mapstructure:"budget"`
}

// LLMConfig controls the model gateway.
type LLMConfig struct {
	Model string `mapstructure:"model" validate:"required"`
	// RateLimit is requests per minute; 0 disables throttling.
	RateLimit int `mapstructure:"rate_limit" validate:"gte=0"`
	// Cooldown skips an exhausted credential for this long; 0 disables it.
	Cooldown time.Duration `mapstructure:"cooldown" validate:"gte=0"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// DatabaseConfig locates the record store.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// BudgetConfig holds the monthly limit used for categories without one.
type BudgetConfig struct {
	Default float64 `mapstructure:"default" validate:"gte=0,lte=20000"`
}

// LoggingConfig mirrors the --log-level and --log-format flags.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

// SetDefaults registers every key with its default so environment overrides
// are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("llm.model", llm.DefaultModel)
	v.SetDefault("llm.rate_limit", 0)
	v.SetDefault("llm.cooldown", time.Duration(0))
	v.SetDefault("llm.timeout", DefaultTimeout)
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("budget.default", model.DefaultBudget)
	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
}

// BindEnv enables TALLY_* overrides for nested keys.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load resolves and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	dbPath, err := ResolveDatabasePath(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	cfg.Database.Path = dbPath
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	return &cfg, nil
}
