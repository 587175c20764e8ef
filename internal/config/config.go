// Package config provides Viper-based configuration loading for the advisor
// engines.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// AdvisorConfig holds the tunable weights of the domestic advisor.
type AdvisorConfig struct {
	// BuyWantCap bounds any single city's want so one urgent city cannot
	// starve treasury-funded purchases elsewhere. Must stay below the
	// buy-immediately threshold of 200.
	BuyWantCap int `mapstructure:"buy_want_cap"`
	// ExpansionPercent scales settler and founder desire.
	ExpansionPercent int `mapstructure:"expansion_percent"`
	// TradeSamePercent weighs same-continent trade destinations.
	TradeSamePercent int `mapstructure:"trade_same_percent"`
	// TradeCrossPercent weighs cross-continent trade destinations.
	TradeCrossPercent int `mapstructure:"trade_cross_percent"`
	// HunterSearchTurns bounds the pursuit search horizon, in turns of
	// movement from the hunter.
	HunterSearchTurns int `mapstructure:"hunter_search_turns"`
}

// HandicapConfig holds difficulty-dependent overrides.
type HandicapConfig struct {
	// EasyDefenseWant is the flat defense-building want used for easy-mode
	// players instead of the threat model.
	EasyDefenseWant int `mapstructure:"easy_defense_want"`
}

// Config is the top-level application configuration.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Advisor  AdvisorConfig  `mapstructure:"advisor"`
	Handicap HandicapConfig `mapstructure:"handicap"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateAdvisor(c.Advisor); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Handicap.EasyDefenseWant < 0 {
		errs = append(errs, fmt.Sprintf("handicap.easy_defense_want must be >= 0, got %d", c.Handicap.EasyDefenseWant))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateAdvisor(a AdvisorConfig) error {
	var errs []string
	if a.BuyWantCap < 1 || a.BuyWantCap > 199 {
		errs = append(errs, fmt.Sprintf("advisor.buy_want_cap must be 1-199, got %d", a.BuyWantCap))
	}
	if a.ExpansionPercent < 0 {
		errs = append(errs, fmt.Sprintf("advisor.expansion_percent must be >= 0, got %d", a.ExpansionPercent))
	}
	if a.TradeSamePercent < 0 || a.TradeCrossPercent < 0 {
		errs = append(errs, "advisor trade percents must be >= 0")
	}
	if a.HunterSearchTurns < 1 {
		errs = append(errs, fmt.Sprintf("advisor.hunter_search_turns must be >= 1, got %d", a.HunterSearchTurns))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with WARCOUNCIL_ prefix
	v.SetEnvPrefix("WARCOUNCIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Default returns the built-in configuration without reading any file.
//
// Postcondition: Default().Validate() == nil.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Unmarshal of defaults cannot fail: the keys mirror the struct tags.
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("advisor.buy_want_cap", 199)
	v.SetDefault("advisor.expansion_percent", 100)
	v.SetDefault("advisor.trade_same_percent", 50)
	v.SetDefault("advisor.trade_cross_percent", 100)
	v.SetDefault("advisor.hunter_search_turns", 6)

	v.SetDefault("handicap.easy_defense_want", 40)
}
