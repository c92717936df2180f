package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrMissing is wrapped by Validate for required settings that are unset.
var ErrMissing = errors.New("missing required setting")

const defaultTimeout = 30 * time.Second

// Config represents the application configuration
type Config struct {
	BaseURL    string `yaml:"base_url" toml:"base_url" json:"base_url"`
	APIKey     string `yaml:"api_key" toml:"api_key" json:"api_key"`
	Slug       string `yaml:"slug" toml:"slug" json:"slug"`
	AuthScheme string `yaml:"auth_scheme" toml:"auth_scheme" json:"auth_scheme"`
	Timeout    string `yaml:"timeout" toml:"timeout" json:"timeout"`

	Conflicts string `yaml:"conflicts" toml:"conflicts" json:"conflicts"`
	StartRow  int    `yaml:"start_row" toml:"start_row" json:"start_row"`
	Header    bool   `yaml:"header" toml:"header" json:"header"`
	Delimiter string `yaml:"delimiter" toml:"delimiter" json:"delimiter"`

	JournalPath string `yaml:"journal" toml:"journal" json:"journal"`
	Jobs        int    `yaml:"jobs" toml:"jobs" json:"jobs"`
	Retries     int    `yaml:"retries" toml:"retries" json:"retries"`
	Full        bool   `yaml:"full" toml:"full" json:"full"`

	LogLevel  string `yaml:"log_level" toml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" toml:"log_format" json:"log_format"`
	Output    string `yaml:"output" toml:"output" json:"output"`
}

// Load loads configuration from multiple sources with precedence:
// 1. Environment variables
// 2. ./.env.local (dotenv) - walks up parent directories to find it
// 3. the config file at path, or ~/.config/clashsync/config.yaml when path is empty
//
// An explicit path must exist; the default file is optional.
func Load(path string) (*Config, error) {
	cfg := &Config{
		AuthScheme: "Token",
		Timeout:    defaultTimeout.String(),
		StartRow:   1,
		Delimiter:  ",",
		Jobs:       1,
		LogLevel:   "info",
		LogFormat:  "auto",
		Output:     "table",
	}

	// Load .env.local if it exists (walking up parent directories)
	if envPath := findEnvLocal(); envPath != "" {
		_ = godotenv.Load(envPath)
	}

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	} else if defaultPath := defaultConfigPath(); defaultPath != "" {
		if _, err := os.Stat(defaultPath); err == nil {
			if err := loadFile(defaultPath, cfg); err != nil {
				return nil, err
			}
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("CLASHSYNC_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := getEnvOrFile("CLASHSYNC_API_KEY", "CLASHSYNC_API_KEY_FILE"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("CLASHSYNC_SLUG"); v != "" {
		cfg.Slug = v
	}
	if v := os.Getenv("CLASHSYNC_AUTH_SCHEME"); v != "" {
		cfg.AuthScheme = v
	}
	if v := os.Getenv("CLASHSYNC_TIMEOUT"); v != "" {
		cfg.Timeout = v
	}
	if v := os.Getenv("CLASHSYNC_CONFLICTS"); v != "" {
		cfg.Conflicts = v
	}
	if v := os.Getenv("CLASHSYNC_START_ROW"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CLASHSYNC_START_ROW %q: %w", v, err)
		}
		cfg.StartRow = n
	}
	if v := os.Getenv("CLASHSYNC_JOURNAL"); v != "" {
		cfg.JournalPath = v
	}
	if v := os.Getenv("CLASHSYNC_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CLASHSYNC_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("CLASHSYNC_OUTPUT"); v != "" {
		cfg.Output = v
	}
	return nil
}

// loadFile reads a YAML or TOML config file, chosen by extension.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("config load failed (%s): unsupported file type", path)
	}
	if err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", "clashsync", "config.yaml")
}

// getEnvOrFile gets an environment variable value, or reads it from a file
// if the _FILE variant is set
func getEnvOrFile(envVar, fileVar string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}

	if filePath := os.Getenv(fileVar); filePath != "" {
		data, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(data))
		}
	}

	return ""
}

// findEnvLocal searches for .env.local starting from cwd and walking up
// parent directories. Stops at the user's home directory.
// Returns the path to .env.local if found, empty string otherwise.
func findEnvLocal() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// If we can't get home dir, just check cwd
		if _, err := os.Stat(".env.local"); err == nil {
			return ".env.local"
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Clean paths for reliable comparison
	homeDir = filepath.Clean(homeDir)
	dir := filepath.Clean(cwd)

	for {
		envPath := filepath.Join(dir, ".env.local")
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}

		// Stop if we've reached home directory
		if dir == homeDir {
			break
		}

		parent := filepath.Dir(dir)

		// Stop if we've reached the filesystem root
		if parent == dir {
			break
		}

		dir = parent
	}

	return ""
}

// Validate checks the settings a sync run needs.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%w: base URL (set CLASHSYNC_BASE_URL or --base-url)", ErrMissing)
	}
	if strings.TrimSpace(c.Slug) == "" {
		return fmt.Errorf("%w: tournament slug (set CLASHSYNC_SLUG or --slug)", ErrMissing)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w: API key (set CLASHSYNC_API_KEY or CLASHSYNC_API_KEY_FILE)", ErrMissing)
	}
	return c.ValidateSheet()
}

// ValidateSheet checks only the settings used to read the conflicts sheet
// and run the emission phase.
func (c *Config) ValidateSheet() error {
	if c.StartRow < 1 {
		return fmt.Errorf("start row must be at least 1, got %d", c.StartRow)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative, got %d", c.Retries)
	}
	if _, err := c.DelimiterRune(); err != nil {
		return err
	}
	if _, err := c.RequestTimeout(); err != nil {
		return err
	}
	return nil
}

// DelimiterRune returns the sheet cell separator.
func (c *Config) DelimiterRune() (rune, error) {
	switch c.Delimiter {
	case "", ",":
		return ',', nil
	case "tab", "\\t", "\t":
		return '\t', nil
	case ";":
		return ';', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter %q (use ',', ';' or 'tab')", c.Delimiter)
	}
}

// RequestTimeout returns the per-request timeout.
func (c *Config) RequestTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return defaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return d, nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	out := *c
	if out.APIKey != "" {
		out.APIKey = "********"
	}
	return out
}
