package qs

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/blang/semver"
	"gopkg.in/yaml.v3"
)

const DEFAULT_TIMEOUT = 60 * time.Second

const (
	ENV_SERVER_URL           = "QS_SERVER_URL"
	ENV_CERTIFICATE          = "QS_CERTIFICATE"
	ENV_CERTIFICATE_PASSWORD = "QS_CERTIFICATE_PASSWORD"
	ENV_TIMEOUT              = "QS_TIMEOUT"
	ENV_ENVELOPE             = "QS_ENVELOPE"
	ENV_CONFIG               = "QS_CONFIG"
)

type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type Config struct {
	ServerURL           string        `yaml:"server_url"`
	Certificate         string        `yaml:"certificate"`
	CertificatePassword string        `yaml:"certificate_password"`
	Timeout             time.Duration `yaml:"timeout"`
	Envelope            bool          `yaml:"envelope"`
	MinServerVersion    string        `yaml:"min_server_version"`
	RateLimit           *RateLimit    `yaml:"rate_limit"`
}

//	DefaultConfigPath is read when neither a path nor $QS_CONFIG is given.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

//	LoadConfig reads path (or $QS_CONFIG, or DefaultConfigPath when it exists)
//	and applies environment overrides.
func LoadConfig(path string) (config Config, err error) {
	if path == "" {
		path = os.Getenv(ENV_CONFIG)
	}
	if path == "" {
		if _, statErr := os.Stat(DefaultConfigPath()); statErr == nil {
			path = DefaultConfigPath()
		}
	}
	if path != "" {
		var raw []byte
		raw, err = os.ReadFile(path)
		if err != nil {
			err = &ConfigError{Field: "path", Err: err}
			return
		}
		err = yaml.Unmarshal(raw, &config)
		if err != nil {
			err = &ConfigError{Field: "yaml", Err: err}
			return
		}
	}
	err = config.applyEnv()
	if err != nil {
		return
	}
	if config.Timeout == 0 {
		config.Timeout = DEFAULT_TIMEOUT
	}
	return
}

func (c *Config) applyEnv() (err error) {
	if v := strings.TrimSpace(os.Getenv(ENV_SERVER_URL)); v != "" {
		c.ServerURL = v
	}
	if v := strings.TrimSpace(os.Getenv(ENV_CERTIFICATE)); v != "" {
		c.Certificate = v
	}
	if v := os.Getenv(ENV_CERTIFICATE_PASSWORD); v != "" {
		c.CertificatePassword = v
	}
	if v := strings.TrimSpace(os.Getenv(ENV_TIMEOUT)); v != "" {
		c.Timeout, err = time.ParseDuration(v)
		if err != nil {
			err = &ConfigError{Field: "timeout", Err: err}
			return
		}
	}
	if v := strings.TrimSpace(os.Getenv(ENV_ENVELOPE)); v != "" {
		c.Envelope, err = strconv.ParseBool(v)
		if err != nil {
			err = &ConfigError{Field: "envelope", Err: err}
			return
		}
	}
	return
}

//	ParsedServerURL validates and returns the base server URL.
func (c Config) ParsedServerURL() (serverURL *url.URL, err error) {
	if c.ServerURL == "" {
		err = &ConfigError{Field: "server_url", Err: errors.New("required")}
		return
	}
	serverURL, err = url.Parse(c.ServerURL)
	if err != nil {
		err = &ConfigError{Field: "server_url", Err: err}
		return
	}
	if serverURL.Scheme != "http" && serverURL.Scheme != "https" {
		err = &ConfigError{Field: "server_url", Err: errors.New("scheme must be http or https")}
		serverURL = nil
		return
	}
	return
}

func (c Config) ParsedMinServerVersion() (version *semver.Version, err error) {
	if c.MinServerVersion == "" {
		return
	}
	parsed, err := semver.ParseTolerant(c.MinServerVersion)
	if err != nil {
		err = &ConfigError{Field: "min_server_version", Err: err}
		return
	}
	version = &parsed
	return
}

func (c Config) Validate() (err error) {
	if _, err = c.ParsedServerURL(); err != nil {
		return
	}
	if _, err = c.ParsedMinServerVersion(); err != nil {
		return
	}
	if c.Timeout < 0 {
		err = &ConfigError{Field: "timeout", Err: errors.New("must not be negative")}
		return
	}
	if c.RateLimit != nil && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		err = &ConfigError{Field: "rate_limit", Err: errors.New("rps and burst must be positive")}
		return
	}
	return
}
