package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MacJediWizard/i18n/pkg/models"
)

// Client defaults.
const (
	DefaultAPIBaseURL = "http://localhost:4000" + models.APIPrefix
	DefaultAppTitle   = "I18n Platform"
)

// DefaultConfigDir returns the default config directory (~/.i18n).
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".i18n"), nil
}

// DefaultConfigPath returns the default config file path (~/.i18n/config.yml).
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yml"), nil
}

// ProxyConfig holds outbound proxy settings for the client transport.
type ProxyConfig struct {
	HTTPProxy   string `yaml:"http_proxy,omitempty"`
	HTTPSProxy  string `yaml:"https_proxy,omitempty"`
	NoProxy     string `yaml:"no_proxy,omitempty"`
	SOCKS5Proxy string `yaml:"socks5_proxy,omitempty"`
}

// HasProxy reports whether any proxy is configured.
func (p *ProxyConfig) HasProxy() bool {
	return p != nil && (p.HTTPProxy != "" || p.HTTPSProxy != "" || p.SOCKS5Proxy != "")
}

// ClientConfig holds the configuration of API clients. The persisted fields
// live in the YAML config file; the rest come from the environment only.
type ClientConfig struct {
	ServerURL string        `yaml:"server_url,omitempty"`
	Token     string        `yaml:"token,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	Proxy     *ProxyConfig  `yaml:"proxy,omitempty"`

	AppTitle    string      `yaml:"-"`
	Environment Environment `yaml:"-"`
	EnableMock  bool        `yaml:"-"`
}

// Validate checks that the configuration can be used to reach a server.
func (c *ClientConfig) Validate() error {
	if c.ServerURL == "" {
		return errors.New("server_url is required")
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("parse server_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server_url must be an http or https URL, got %q", c.ServerURL)
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

// IsAuthenticated returns true if a token is available.
func (c *ClientConfig) IsAuthenticated() bool {
	return c.Token != ""
}

// RequestTimeout returns the configured timeout or the default.
func (c *ClientConfig) RequestTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return models.DefaultRequestTimeout
}

// LoadClientFile reads the persisted configuration from the given path.
// If the file does not exist, an empty config is returned.
func LoadClientFile(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ClientConfig{}, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg ClientConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadClientConfig reads the config file at path and applies environment
// overrides and defaults. Environment variables win over the file.
func LoadClientConfig(path string) (*ClientConfig, error) {
	cfg, err := LoadClientFile(path)
	if err != nil {
		return nil, err
	}

	cfg.ServerURL = strings.TrimRight(getEnv("API_BASE_URL", cfg.ServerURL), "/")
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultAPIBaseURL
	}
	cfg.Token = getEnv("API_TOKEN", cfg.Token)
	cfg.Timeout = getEnvDuration("API_TIMEOUT", cfg.Timeout)
	cfg.AppTitle = getEnv("APP_TITLE", DefaultAppTitle)
	cfg.Environment = parseEnvironment(os.Getenv("APP_ENV"))
	cfg.EnableMock = getEnvBool("ENABLE_MOCK", false)

	return cfg, nil
}

// Save writes the persisted fields to the given path, creating directories as needed.
func (c *ClientConfig) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// The file holds the API token.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}
