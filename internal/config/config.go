package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/samsaffron/quest-buddy/internal/settings"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const appName = "quest-buddy"

type Config struct {
	Remote   RemoteConfig   `mapstructure:"remote" yaml:"remote"`
	Local    LocalConfig    `mapstructure:"local" yaml:"local"`
	Settings SettingsConfig `mapstructure:"settings" yaml:"settings"`
	Usage    UsageConfig    `mapstructure:"usage" yaml:"usage"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// RemoteConfig is the hosted chat-completion endpoint. The API key is not
// configured here; it lives in the settings store.
type RemoteConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	Model   string `mapstructure:"model" yaml:"model"`
}

// LocalConfig is the OpenAI-compatible local inference server.
type LocalConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	Model   string `mapstructure:"model" yaml:"model"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key,omitempty"`
}

type SettingsConfig struct {
	Path string `mapstructure:"path" yaml:"path,omitempty"`
}

type UsageConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file,omitempty"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	return &Config{
		Remote: RemoteConfig{
			BaseURL: "https://api.openai.com/v1/",
			Model:   "gpt-4o-mini",
		},
		Local: LocalConfig{
			BaseURL: "http://localhost:11434/v1/",
			Model:   "tinyllama",
		},
		Usage: UsageConfig{Enabled: true},
		Log:   LogConfig{Level: "info"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("remote.base_url", d.Remote.BaseURL)
	v.SetDefault("remote.model", d.Remote.Model)
	v.SetDefault("local.base_url", d.Local.BaseURL)
	v.SetDefault("local.model", d.Local.Model)
	v.SetDefault("local.api_key", "")
	v.SetDefault("settings.path", "")
	v.SetDefault("usage.enabled", d.Usage.Enabled)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", "")
}

// Load reads the config file at path, or searches the default locations when
// path is empty. A missing file is not an error. QUEST_BUDDY_* environment
// variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("QUEST_BUDDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
		case path != "" && errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	key, err := ResolveSecret(cfg.Local.APIKey)
	if err != nil {
		return nil, fmt.Errorf("local.api_key: %w", err)
	}
	cfg.Local.APIKey = key

	return &cfg, nil
}

// Dir returns the directory holding config.yaml.
func Dir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config dir: %w", err)
	}
	return filepath.Join(configDir, appName), nil
}

// GetConfigPath returns the path where the config file should be located
func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Exists returns true if a config file exists at path (or the default path when empty).
func Exists(path string) bool {
	if path == "" {
		var err error
		if path, err = GetConfigPath(); err != nil {
			return false
		}
	}
	_, err := os.Stat(path)
	return err == nil
}

// Save writes cfg as YAML to path, or to the default path when empty.
func Save(path string, cfg *Config) error {
	if path == "" {
		var err error
		if path, err = GetConfigPath(); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// DataDir is where the settings database, usage logs and log file live.
func DataDir() string {
	dir, err := settings.DataDir()
	if err != nil {
		return filepath.Join(".", "."+appName)
	}
	return dir
}

// LogFile returns the configured log file or the default under DataDir.
func (c *Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(DataDir(), appName+".log")
}
