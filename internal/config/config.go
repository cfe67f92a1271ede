package config

import (
	"strings"
	"time"
)

type Config struct {
	Server ServerConfig
	Gemini GeminiConfig
	Video  VideoConfig
	Log    LogConfig
}

type ServerConfig struct {
	Port  int
	Token string
}

type GeminiConfig struct {
	APIKey  string
	BaseURL string
}

// VideoConfig bounds the long-running video generation loop. PollInterval
// and PollCeiling are Go duration strings.
type VideoConfig struct {
	PollInterval string
	PollCeiling  string
	Dir          string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4700,
		},
		Video: VideoConfig{
			PollInterval: "10s",
			PollCeiling:  "10m",
			Dir:          defaultVideoDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the platform-native backend, environment
// variables, and platform secret store.
//
// On macOS the backend is UserDefaults (domain: com.renovo.app) and the
// Gemini key falls back to macOS Keychain.
// On Linux the backend is a JSON file at $XDG_CONFIG_HOME/renovo/config.json
// and secrets must be provided via environment variables.
//
// Environment variables (RENOVO_*) override backend values on all platforms.
// A missing Gemini key is not fatal: the daemon starts with AI capabilities
// reporting an auth error until a key is configured.
func Load() (Config, error) {
	return loadWith(newPlatformBackend(), keychainReader{})
}

// keychain abstracts Keychain access for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	// Try the platform keychain for the API key if still empty.
	if cfg.Gemini.APIKey == "" {
		if key, err := kc.Get("renovo", "gemini_api_key"); err == nil && key != "" {
			cfg.Gemini.APIKey = key
		}
	}

	if err := validateDurations(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validateDurations(cfg Config) error {
	if _, err := time.ParseDuration(cfg.Video.PollInterval); err != nil {
		return err
	}
	_, err := time.ParseDuration(cfg.Video.PollCeiling)
	return err
}

// keychainReader reads from the platform secret store.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := keychainExec(service, account)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
