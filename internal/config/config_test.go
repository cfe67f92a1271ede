package config

import (
	"os"
	"strconv"
	"testing"
)

// mapBackend is an in-memory ConfigBackend for tests.
type mapBackend map[string]string

func (m mapBackend) GetString(key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m mapBackend) GetInt(key string) (int, bool, error) {
	v, ok := m[key]
	if !ok {
		return 0, false, nil
	}
	i, err := strconv.Atoi(v)
	return i, true, err
}

func (m mapBackend) SetString(key, val string) error  { m[key] = val; return nil }
func (m mapBackend) SetInt(key string, val int) error { m[key] = strconv.Itoa(val); return nil }
func (m mapBackend) Delete(key string) error          { delete(m, key); return nil }

// mockKeychain is a test double for the keychain interface.
type mockKeychain struct {
	value string
	err   error
}

func (m mockKeychain) Get(service, account string) (string, error) {
	return m.value, m.err
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		if s.env != "" {
			t.Setenv(s.env, "")
		}
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(mapBackend{}, mockKeychain{})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 4700 {
		t.Errorf("port = %d, want 4700", cfg.Server.Port)
	}
	if cfg.Video.PollInterval != "10s" || cfg.Video.PollCeiling != "10m" {
		t.Errorf("video polling = %s/%s", cfg.Video.PollInterval, cfg.Video.PollCeiling)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if cfg.Gemini.APIKey != "" {
		t.Errorf("unexpected api key %q", cfg.Gemini.APIKey)
	}
}

func TestBackendValuesApply(t *testing.T) {
	clearEnv(t)

	b := mapBackend{
		"gemini.base_url":     "http://localhost:9999",
		"video.poll_interval": "5s",
		"log.level":           "debug",
	}
	cfg, err := loadWith(b, mockKeychain{})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Gemini.BaseURL != "http://localhost:9999" {
		t.Errorf("base url = %q", cfg.Gemini.BaseURL)
	}
	if cfg.Video.PollInterval != "5s" {
		t.Errorf("poll interval = %q", cfg.Video.PollInterval)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
}

func TestEnvOverridesBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("RENOVO_LOG_LEVEL", "warn")
	t.Setenv("RENOVO_GEMINI_API_KEY", "env-key")

	b := mapBackend{"log.level": "debug"}
	cfg, err := loadWith(b, mockKeychain{value: "keychain-key"})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log level = %q, want env override", cfg.Log.Level)
	}
	if cfg.Gemini.APIKey != "env-key" {
		t.Errorf("api key = %q, env must beat keychain", cfg.Gemini.APIKey)
	}
}

func TestKeychainFallback(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(mapBackend{}, mockKeychain{value: "kc-key"})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Gemini.APIKey != "kc-key" {
		t.Errorf("api key = %q, want keychain fallback", cfg.Gemini.APIKey)
	}

	cfg, err = loadWith(mapBackend{}, mockKeychain{err: os.ErrNotExist})
	if err != nil {
		t.Fatalf("loadWith with missing keychain: %v", err)
	}
	if cfg.Gemini.APIKey != "" {
		t.Errorf("api key = %q, want empty", cfg.Gemini.APIKey)
	}
}

func TestInvalidDurationRejected(t *testing.T) {
	clearEnv(t)
	t.Setenv("RENOVO_VIDEO_POLL_INTERVAL", "soon")

	if _, err := loadWith(mapBackend{}, mockKeychain{}); err == nil {
		t.Fatal("expected error for invalid poll interval")
	}
}

func TestValidKeysExcludeSecrets(t *testing.T) {
	for _, k := range ValidKeys() {
		if k == "gemini.api_key" || k == "server.token" {
			t.Errorf("secret key %q listed", k)
		}
	}
}
