package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// SPAM_SCANNER_MODEL_PATH for model.path
const EnvPrefix = "SPAM_SCANNER"

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New loads configuration from the standard search paths
func New() (*Config, error) {
	return NewFromFile("")
}

// NewFromFile loads configuration from path, or from the standard search
// paths when path is empty. A missing file in the search paths is not an
// error; an explicitly named missing file is.
func NewFromFile(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/spam-scanner/")
		v.AddConfigPath("$HOME/.spam-scanner")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{v: v}, nil
}

// NewFromViper wraps an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	// Model
	v.SetDefault("model.path", "./spam-model.json")

	// Scanning
	v.SetDefault("scan.short_message_threshold", 50)
	v.SetDefault("scan.top_terms", 10)
	v.SetDefault("scan.max_in_flight", 8)
	v.SetDefault("scan.correction_ttl", "24h")
	v.SetDefault("scan.include_subject", false)
	v.SetDefault("scan.whitelisted_domains", []string{})

	// Sources
	v.SetDefault("source.type", "maildir")
	v.SetDefault("source.maildir.path", "./maildir/new")
	v.SetDefault("source.smtp.listen_address", "127.0.0.1:10025")
	v.SetDefault("source.smtp.max_message_bytes", 10*1024*1024)

	// Feedback
	v.SetDefault("feedback.type", "memory")
	v.SetDefault("feedback.sqlite_path", "/data/feedback.db")
	v.SetDefault("feedback.mysql_dsn", "user:password@tcp(localhost:3306)/spam_scanner")

	// Status board
	v.SetDefault("http.enabled", true)
	v.SetDefault("http.listen_address", "127.0.0.1:8080")
	v.SetDefault("http.recent_results", 200)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Set overrides a key, typically from a command-line flag
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetInt64 gets an int64 value from the configuration
func (c *Config) GetInt64(key string) int64 {
	return c.v.GetInt64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration parses a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
