package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/qbitlm/qbit/internal/llm"
	"github.com/qbitlm/qbit/internal/store"
)

type Config struct {
	Gemini  GeminiConfig `mapstructure:"gemini"`
	Chat    ChatConfig   `mapstructure:"chat"`
	Storage store.Config `mapstructure:"storage"`
	Log     LogConfig    `mapstructure:"log"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type ChatConfig struct {
	// RefusalPolicy controls document chats when the answer is not in
	// the source: "disclose" falls back to model knowledge and says
	// so, "refuse" declines.
	RefusalPolicy string `mapstructure:"refusal_policy"`
}

type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
	File  string `mapstructure:"file"`  // empty disables file logging
}

func Load() (*Config, error) {
	configPath, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	v.SetDefault("gemini.model", llm.DefaultModel)
	v.SetDefault("chat.refusal_policy", string(llm.RefusalDisclose))
	v.SetDefault("log.level", "warn")
	// storage.path default is computed, see store.GetDBPath

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Gemini.APIKey = expandEnv(cfg.Gemini.APIKey)
	if cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	if _, err := llm.ParseRefusalPolicy(cfg.Chat.RefusalPolicy); err != nil {
		return nil, fmt.Errorf("chat.refusal_policy: %w", err)
	}

	return &cfg, nil
}

// ApplyOverrides applies command-line overrides to the config.
func (c *Config) ApplyOverrides(model, storagePath string) {
	if model != "" {
		c.Gemini.Model = model
	}
	if storagePath != "" {
		c.Storage.Path = storagePath
	}
}

// RefusalPolicy returns the parsed document-chat refusal policy.
// Load already validated the raw value.
func (c *Config) RefusalPolicy() llm.RefusalPolicy {
	policy, err := llm.ParseRefusalPolicy(c.Chat.RefusalPolicy)
	if err != nil {
		return llm.RefusalDisclose
	}
	return policy
}

func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}

// GetConfigDir returns the XDG config directory for qbit.
// Uses $XDG_CONFIG_HOME if set, otherwise ~/.config
func GetConfigDir() (string, error) {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, "qbit"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "qbit"), nil
}

// GetConfigPath returns the path where the config file should be located
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}
