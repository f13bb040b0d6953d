package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the environment prefix for every setting (AMBIENT_READER_LOG_LEVEL, ...).
const EnvPrefix = "AMBIENT_READER"

// LogConfig controls console and rotating file logging.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// AppConfig is process configuration, distinct from user preferences.
type AppConfig struct {
	DataDir          string        `mapstructure:"data_dir"`
	Log              LogConfig     `mapstructure:"log"`
	ProgressDebounce time.Duration `mapstructure:"progress_debounce"`
	RecentLimit      int           `mapstructure:"recent_limit"`
	PresetCacheTTL   time.Duration `mapstructure:"preset_cache_ttl"`
	WatchPresets     bool          `mapstructure:"watch_presets"`
	MemoryBackend    bool          `mapstructure:"memory_backend"`
}

// Paths is the on-disk layout under the data directory.
type Paths struct {
	Root        string
	Preferences string
	Presets     string
	Media       string
	Backgrounds string
	Covers      string
	Library     string
	Logs        string
}

// Paths derives the directory layout from DataDir.
func (c AppConfig) Paths() Paths {
	root := c.DataDir
	return Paths{
		Root:        root,
		Preferences: filepath.Join(root, "preferences.json"),
		Presets:     filepath.Join(root, "presets"),
		Media:       filepath.Join(root, "media"),
		Backgrounds: filepath.Join(root, "media", "backgrounds"),
		Covers:      filepath.Join(root, "cache", "covers"),
		Library:     filepath.Join(root, "library"),
		Logs:        filepath.Join(root, "logs"),
	}
}

// DefaultDataDir is ~/.epub-reader, or ./.epub-reader without a home directory.
func DefaultDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".epub-reader")
}

// DefaultAppConfig returns baseline process configuration.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		DataDir: DefaultDataDir(),
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		ProgressDebounce: 2 * time.Second,
		RecentLimit:      20,
		PresetCacheTTL:   10 * time.Minute,
		WatchPresets:     true,
	}
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"data-dir": "data_dir",
	"memory":   "memory_backend",
}

// Load reads configuration from defaults, an optional YAML file, the
// environment and flags. Flags that were set win and are bound before the
// file lookup, so --data-dir also moves the implicit <data dir>/config.yaml.
// An explicit configFile must exist; the implicit one is optional.
func Load(configFile string, flags *pflag.FlagSet) (AppConfig, error) {
	defaults := DefaultAppConfig()

	v := viper.New()
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", defaults.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", defaults.Log.MaxBackups)
	v.SetDefault("log.max_age_days", defaults.Log.MaxAgeDays)
	v.SetDefault("log.compress", defaults.Log.Compress)
	v.SetDefault("progress_debounce", defaults.ProgressDebounce)
	v.SetDefault("recent_limit", defaults.RecentLimit)
	v.SetDefault("preset_cache_ttl", defaults.PresetCacheTTL)
	v.SetDefault("watch_presets", defaults.WatchPresets)
	v.SetDefault("memory_backend", defaults.MemoryBackend)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return AppConfig{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(v.GetString("data_dir"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return AppConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("decode config: %w", err)
	}
	return normalizeAppConfig(cfg), nil
}

// normalizeAppConfig fills derived values and repairs out-of-range numbers.
func normalizeAppConfig(cfg AppConfig) AppConfig {
	defaults := DefaultAppConfig()
	cfg.DataDir = strings.TrimSpace(cfg.DataDir)
	if cfg.DataDir == "" {
		cfg.DataDir = defaults.DataDir
	}
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(cfg.Paths().Logs, "reader.log")
	}
	if cfg.ProgressDebounce <= 0 {
		cfg.ProgressDebounce = defaults.ProgressDebounce
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = defaults.RecentLimit
	}
	if cfg.PresetCacheTTL <= 0 {
		cfg.PresetCacheTTL = defaults.PresetCacheTTL
	}
	return cfg
}
