package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	appLog "csvcal/internal/log"
)

const (
	defaultListen       = "127.0.0.1:8080"
	defaultFetchTimeout = 30
	defaultICSName      = "Agenda"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the page and API.
//
// Either Password (plain text) or PasswordHash (Argon2id, see
// `csvcal hash-password`) may be set; the hash wins when both are.
type BasicAuthConfig struct {
	Username     string `yaml:"username" json:"username"`
	Password     string `yaml:"password,omitempty" json:"password,omitempty"`
	PasswordHash string `yaml:"password_hash,omitempty" json:"password_hash,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the page and API.
	Listen string `yaml:"listen" json:"listen"`

	// Sources are the primary CSV feeds, loaded in order. Entries are
	// http(s) URLs or local paths.
	Sources []string `yaml:"sources" json:"sources"`

	// Fallback replaces the first source when that one fails to load.
	Fallback string `yaml:"fallback" json:"fallback"`

	// Refresh is an optional cron schedule (e.g. "*/30 * * * *") for
	// reloading the feeds. Empty means load once at startup.
	Refresh string `yaml:"refresh" json:"refresh"`

	// FetchTimeoutSeconds bounds a single source fetch.
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds" json:"fetch_timeout_seconds"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// ICSName is the calendar name advertised by /calendar.ics.
	ICSName string `yaml:"ics_name" json:"ics_name"`

	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:              defaultListen,
		Sources:             []string{},
		Fallback:            "./csv/Agenda.csv",
		Refresh:             "",
		FetchTimeoutSeconds: defaultFetchTimeout,
		LogLevel:            "info",
		ICSName:             defaultICSName,
		BasicAuth:           nil,
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Sources == nil {
		c.Sources = []string{}
	}
	cleaned := c.Sources[:0]
	for _, s := range c.Sources {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	c.Sources = cleaned
	c.Fallback = strings.TrimSpace(c.Fallback)
	c.Refresh = strings.TrimSpace(c.Refresh)

	if c.FetchTimeoutSeconds <= 0 {
		c.FetchTimeoutSeconds = defaultFetchTimeout
	}
	if _, ok := appLog.ParseLevel(c.LogLevel); !ok {
		c.LogLevel = "info"
	}
	if c.ICSName == "" {
		c.ICSName = defaultICSName
	}
}

// Validate reports settings that Normalize cannot repair.
func (c *Config) Validate() error {
	if c.Refresh != "" {
		if _, err := cron.ParseStandard(c.Refresh); err != nil {
			return fmt.Errorf("config: invalid refresh schedule %q: %w", c.Refresh, err)
		}
	}
	if ba := c.BasicAuth; ba != nil && ba.Username != "" && ba.Password == "" && ba.PasswordHash == "" {
		return errors.New("config: basic_auth needs password or password_hash")
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the YAML is read, normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the given configuration to path atomically (temp file in the
// same directory, then rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".csvcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method delegating to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
