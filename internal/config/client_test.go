package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearClientEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"API_BASE_URL", "API_TOKEN", "API_TIMEOUT", "APP_TITLE", "APP_ENV", "ENABLE_MOCK"} {
		t.Setenv(key, "")
	}
}

func TestClientConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ClientConfig
		wantErr bool
	}{
		{
			name:    "empty config",
			cfg:     ClientConfig{},
			wantErr: true,
		},
		{
			name:    "not a url",
			cfg:     ClientConfig{ServerURL: "localhost:4000"},
			wantErr: true,
		},
		{
			name:    "negative timeout",
			cfg:     ClientConfig{ServerURL: "http://localhost:4000/api/v1", Timeout: -time.Second},
			wantErr: true,
		},
		{
			name:    "valid config",
			cfg:     ClientConfig{ServerURL: "https://i18n.example.com/api/v1"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClientConfig_RequestTimeout(t *testing.T) {
	cfg := ClientConfig{}
	if got := cfg.RequestTimeout(); got != 30*time.Second {
		t.Errorf("expected default 30s, got %s", got)
	}
	cfg.Timeout = 5 * time.Second
	if got := cfg.RequestTimeout(); got != 5*time.Second {
		t.Errorf("expected 5s, got %s", got)
	}
}

func TestProxyConfig_HasProxy(t *testing.T) {
	var nilProxy *ProxyConfig
	if nilProxy.HasProxy() {
		t.Error("nil proxy config should report no proxy")
	}
	if (&ProxyConfig{NoProxy: "localhost"}).HasProxy() {
		t.Error("no_proxy alone is not a proxy")
	}
	if !(&ProxyConfig{SOCKS5Proxy: "socks5://127.0.0.1:1080"}).HasProxy() {
		t.Error("expected socks5 proxy to be reported")
	}
}

func TestLoadClientFile_NonExistent(t *testing.T) {
	cfg, err := LoadClientFile("/nonexistent/path/config.yml")
	if err != nil {
		t.Fatalf("expected no error for non-existent file, got %v", err)
	}
	if cfg.ServerURL != "" || cfg.Token != "" {
		t.Error("expected empty config for non-existent file")
	}
}

func TestClientConfig_SaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yml")

	original := &ClientConfig{
		ServerURL: "https://i18n.example.com/api/v1",
		Token:     "secret-token",
		Timeout:   10 * time.Second,
		Proxy:     &ProxyConfig{HTTPSProxy: "http://proxy:3128", NoProxy: "localhost"},
		AppTitle:  "not persisted",
	}

	if err := original.Save(configPath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("stat config file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected permissions 0600, got %o", perm)
	}

	loaded, err := LoadClientFile(configPath)
	if err != nil {
		t.Fatalf("LoadClientFile() error = %v", err)
	}
	if loaded.ServerURL != original.ServerURL {
		t.Errorf("ServerURL = %q, want %q", loaded.ServerURL, original.ServerURL)
	}
	if loaded.Token != original.Token {
		t.Errorf("Token = %q, want %q", loaded.Token, original.Token)
	}
	if loaded.Timeout != original.Timeout {
		t.Errorf("Timeout = %s, want %s", loaded.Timeout, original.Timeout)
	}
	if loaded.Proxy == nil || loaded.Proxy.HTTPSProxy != "http://proxy:3128" {
		t.Errorf("Proxy = %+v, want https proxy", loaded.Proxy)
	}
	if loaded.AppTitle != "" {
		t.Errorf("AppTitle should not be persisted, got %q", loaded.AppTitle)
	}
}

func TestLoadClientFile_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(configPath, []byte("server_url: [unclosed"), 0600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := LoadClientFile(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadClientConfig_Defaults(t *testing.T) {
	clearClientEnv(t)

	cfg, err := LoadClientConfig(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerURL != "http://localhost:4000/api/v1" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.AppTitle != "I18n Platform" {
		t.Errorf("AppTitle = %q", cfg.AppTitle)
	}
	if cfg.Environment != EnvDevelopment {
		t.Errorf("Environment = %q", cfg.Environment)
	}
	if cfg.EnableMock {
		t.Error("EnableMock should default to false")
	}
	if cfg.IsAuthenticated() {
		t.Error("expected no token")
	}
}

func TestLoadClientConfig_EnvOverridesFile(t *testing.T) {
	clearClientEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yml")
	file := &ClientConfig{ServerURL: "https://file.example.com/api/v1", Token: "file-token"}
	if err := file.Save(configPath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	t.Setenv("API_BASE_URL", "https://env.example.com/api/v1/")
	t.Setenv("APP_ENV", "staging")
	t.Setenv("ENABLE_MOCK", "true")

	cfg, err := LoadClientConfig(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServerURL != "https://env.example.com/api/v1" {
		t.Errorf("ServerURL = %q", cfg.ServerURL)
	}
	if cfg.Token != "file-token" {
		t.Errorf("Token = %q, want file token", cfg.Token)
	}
	if cfg.Environment != EnvStaging {
		t.Errorf("Environment = %q", cfg.Environment)
	}
	if !cfg.EnableMock {
		t.Error("expected EnableMock")
	}
}
