package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Polling interval bounds in seconds, matching the log monitor.
const (
	MinPollingInterval = 1
	MaxPollingInterval = 10

	defaultPollingInterval = 2
	defaultStatsTTLMinutes = 10
)

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"` // empty disables the file handler
}

type Config struct {
	APIKey          string        `mapstructure:"apiKey"`
	LogPath         string        `mapstructure:"logPath"` // "auto" triggers launcher detection
	PollingInterval int           `mapstructure:"pollingInterval"`
	StatsTTLMinutes int           `mapstructure:"statsTTLMinutes"`
	Logging         LoggingConfig `mapstructure:"logging"`
}

// Load reads hypestats.yml (or .toml) from the working directory and
// applies environment overrides. A missing config file yields the
// defaults; a missing API key is only an error at Validate time so
// that commands like "tail" still work without one.
func Load() (*Config, error) {
	// Pick up HYPIXEL_API_KEY and friends from a local .env if present.
	_ = godotenv.Load()

	viper.SetConfigName("hypestats")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("HYPESTATS")
	viper.BindEnv("apiKey", "HYPIXEL_API_KEY")

	viper.SetDefault("logPath", "auto")
	viper.SetDefault("pollingInterval", defaultPollingInterval)
	viper.SetDefault("statsTTLMinutes", defaultStatsTTLMinutes)
	viper.SetDefault("logging.level", "info")

	// Try YAML first, then TOML.
	viper.SetConfigType("yml")
	if err := viper.ReadInConfig(); err != nil {
		viper.SetConfigType("toml")
		if err := viper.ReadInConfig(); err != nil {
			// No config file - run on defaults and env vars.
			cfg := &Config{}
			if err := viper.Unmarshal(cfg); err != nil {
				return nil, err
			}
			cfg.clamp()
			return cfg, nil
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.clamp()
	return &cfg, nil
}

func (c *Config) clamp() {
	if c.PollingInterval < MinPollingInterval {
		c.PollingInterval = MinPollingInterval
	}
	if c.PollingInterval > MaxPollingInterval {
		c.PollingInterval = MaxPollingInterval
	}
	if c.StatsTTLMinutes <= 0 {
		c.StatsTTLMinutes = defaultStatsTTLMinutes
	}
}

// Validate checks everything monitoring needs: an API key and a
// resolvable log path.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("missing Hypixel API key: set apiKey in hypestats.yml or the HYPIXEL_API_KEY environment variable")
	}
	if _, err := c.ResolveLogPath(); err != nil {
		return err
	}
	return nil
}

// ResolveLogPath returns the configured log file path, auto-detecting
// across known launcher locations when configured as "auto".
func (c *Config) ResolveLogPath() (string, error) {
	if c.LogPath != "" && c.LogPath != "auto" {
		if _, err := os.Stat(c.LogPath); err != nil {
			return "", fmt.Errorf("configured log path does not exist: %s", c.LogPath)
		}
		return c.LogPath, nil
	}

	for _, candidate := range DefaultLogPaths() {
		if _, err := os.Stat(candidate.Path); err == nil {
			return candidate.Path, nil
		}
	}
	return "", fmt.Errorf("could not auto-detect a Minecraft log file; set logPath in hypestats.yml")
}

// LogPathCandidate names one known launcher log location.
type LogPathCandidate struct {
	Launcher string
	Path     string
}

// DefaultLogPaths lists the latest.log locations of the launchers the
// companion knows about, in detection priority order.
func DefaultLogPaths() []LogPathCandidate {
	home, _ := os.UserHomeDir()
	roaming := home
	if runtime.GOOS == "windows" {
		if appdata := os.Getenv("APPDATA"); appdata != "" {
			roaming = appdata
		}
	}

	return []LogPathCandidate{
		{"Vanilla Minecraft", filepath.Join(roaming, ".minecraft", "logs", "latest.log")},
		{"Badlion Client", filepath.Join(roaming, ".minecraft", "logs", "blclient", "minecraft", "latest.log")},
		{"Lunar Client", filepath.Join(home, ".lunarclient", "offline", "multiver", "logs", "latest.log")},
		{"Feather Client", filepath.Join(roaming, ".feather", "client", "logs", "latest.log")},
		{"Prism Launcher", filepath.Join(roaming, "PrismLauncher", "instances", "Vanilla", ".minecraft", "logs", "latest.log")},
	}
}

// Exists reports whether a config file is present in the working
// directory.
func Exists() bool {
	for _, name := range []string{"hypestats.yml", "hypestats.yaml", "hypestats.toml"} {
		if _, err := os.Stat(name); err == nil {
			return true
		}
	}
	return false
}
