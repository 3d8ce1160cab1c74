package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const fileName = "config.yaml"

type RuntimeConfig struct {
	DefaultMinutes       int    `yaml:"default_minutes" validate:"min=1,max=60"`
	AudioAsset           string `yaml:"audio_asset"`
	AudioPlayer          string `yaml:"audio_player"`
	Silent               bool   `yaml:"silent"`
	DesktopNotifications bool   `yaml:"desktop_notifications"`
	SchedulerBuffer      int    `yaml:"scheduler_buffer" validate:"min=1,max=4096"`
	LogLevel             string `yaml:"log_level" validate:"oneof=trace debug info warn error"`
	LogFile              string `yaml:"log_file"`

	Cache CacheConfig `yaml:"cache"`
}

type CacheConfig struct {
	Generation    string   `yaml:"generation" validate:"required"`
	DBPath        string   `yaml:"db_path" validate:"required"`
	Origin        string   `yaml:"origin" validate:"required,url"`
	Listen        string   `yaml:"listen" validate:"required,hostname_port"`
	Prefix        string   `yaml:"prefix"`
	Paths         []string `yaml:"paths"`
	External      []string `yaml:"external"`
	Fallback      string   `yaml:"fallback"`
	StrictInstall bool     `yaml:"strict_install"`
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		DefaultMinutes:  25,
		AudioAsset:      "audio.mp3",
		SchedulerBuffer: 8,
		LogLevel:        "info",
		Cache: CacheConfig{
			Generation: "pomo-timer-v1",
			DBPath:     "pomo-cache.db",
			Origin:     "http://localhost:8000",
			Listen:     "127.0.0.1:8080",
			Prefix:     "/",
		},
	}
}

// DefaultPath is config.yaml under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "pomo", fileName), nil
}

// LoadFile overlays the YAML file at path on base. Keys absent from the
// file keep their base values.
func LoadFile(path string, base RuntimeConfig) (RuntimeConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config file: %w", err)
	}
	cfg := base
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return base, fmt.Errorf("parse config yaml: %w", err)
	}
	return cfg, nil
}

// Load builds the effective configuration: defaults, then the config file,
// then POMO_* environment variables. An empty path reads the default file
// if it exists.
func Load(path string) (RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		loaded, err := LoadFile(path, cfg)
		switch {
		case err == nil:
			cfg = loaded
		case !explicit && errors.Is(err, os.ErrNotExist):
		default:
			return cfg, err
		}
	}
	cfg = FromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func FromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	if v, ok := getEnvInt("POMO_DEFAULT_MINUTES"); ok && v > 0 {
		cfg.DefaultMinutes = v
	}
	if v, ok := getEnvString("POMO_AUDIO_ASSET"); ok {
		cfg.AudioAsset = v
	}
	if v, ok := getEnvString("POMO_AUDIO_PLAYER"); ok {
		cfg.AudioPlayer = v
	}
	if v, ok := getEnvBool("POMO_SILENT"); ok {
		cfg.Silent = v
	}
	if v, ok := getEnvBool("POMO_DESKTOP_NOTIFICATIONS"); ok {
		cfg.DesktopNotifications = v
	}
	if v, ok := getEnvInt("POMO_SCHEDULER_BUFFER"); ok && v > 0 {
		cfg.SchedulerBuffer = v
	}
	if v, ok := getEnvString("POMO_LOG_LEVEL"); ok {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v, ok := getEnvString("POMO_LOG_FILE"); ok {
		cfg.LogFile = v
	}
	if v, ok := getEnvString("POMO_CACHE_NAME"); ok {
		cfg.Cache.Generation = v
	}
	if v, ok := getEnvString("POMO_CACHE_DB"); ok {
		cfg.Cache.DBPath = v
	}
	if v, ok := getEnvString("POMO_ORIGIN"); ok {
		cfg.Cache.Origin = v
	}
	if v, ok := getEnvString("POMO_LISTEN"); ok {
		cfg.Cache.Listen = v
	}
	if v, ok := getEnvString("POMO_PREFIX"); ok {
		cfg.Cache.Prefix = v
	}
	if v, ok := getEnvString("POMO_FALLBACK"); ok {
		cfg.Cache.Fallback = v
	}
	if v, ok := getEnvBool("POMO_STRICT_INSTALL"); ok {
		cfg.Cache.StrictInstall = v
	}
	return cfg
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	return raw, raw != ""
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
