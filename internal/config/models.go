package config

import (
	"fmt"
	"time"
)

// ModelConfig locates the trained model artifact
type ModelConfig struct {
	Path string
}

// ScanConfig holds the classification and coordinator policy
type ScanConfig struct {
	ShortMessageThreshold int
	TopTerms              int
	MaxInFlight           int
	CorrectionTTL         time.Duration
	IncludeSubject        bool
	WhitelistedDomains    []string
}

// SourceConfig selects and configures the message source
type SourceConfig struct {
	Type                string
	MaildirPath         string
	SMTPListenAddress   string
	SMTPMaxMessageBytes int64
}

// FeedbackConfig selects and configures the feedback store
type FeedbackConfig struct {
	Type       string
	SQLitePath string
	MySQLDSN   string
}

// HTTPConfig configures the status board
type HTTPConfig struct {
	Enabled       bool
	ListenAddress string
	RecentResults int
}

// GetModel returns the model configuration
func (c *Config) GetModel() ModelConfig {
	return ModelConfig{
		Path: c.GetString("model.path"),
	}
}

// GetScan returns the scanning configuration
func (c *Config) GetScan() (ScanConfig, error) {
	ttl, err := c.GetDuration("scan.correction_ttl")
	if err != nil {
		return ScanConfig{}, err
	}

	cfg := ScanConfig{
		ShortMessageThreshold: c.GetInt("scan.short_message_threshold"),
		TopTerms:              c.GetInt("scan.top_terms"),
		MaxInFlight:           c.GetInt("scan.max_in_flight"),
		CorrectionTTL:         ttl,
		IncludeSubject:        c.GetBool("scan.include_subject"),
		WhitelistedDomains:    c.GetStringSlice("scan.whitelisted_domains"),
	}
	if cfg.ShortMessageThreshold < 0 {
		return ScanConfig{}, fmt.Errorf("scan.short_message_threshold must not be negative")
	}
	if cfg.TopTerms < 0 {
		return ScanConfig{}, fmt.Errorf("scan.top_terms must not be negative")
	}
	return cfg, nil
}

// GetSource returns the message source configuration
func (c *Config) GetSource() SourceConfig {
	return SourceConfig{
		Type:                c.GetString("source.type"),
		MaildirPath:         c.GetString("source.maildir.path"),
		SMTPListenAddress:   c.GetString("source.smtp.listen_address"),
		SMTPMaxMessageBytes: c.GetInt64("source.smtp.max_message_bytes"),
	}
}

// GetFeedback returns the feedback store configuration
func (c *Config) GetFeedback() FeedbackConfig {
	return FeedbackConfig{
		Type:       c.GetString("feedback.type"),
		SQLitePath: c.GetString("feedback.sqlite_path"),
		MySQLDSN:   c.GetString("feedback.mysql_dsn"),
	}
}

// GetHTTP returns the status board configuration
func (c *Config) GetHTTP() HTTPConfig {
	return HTTPConfig{
		Enabled:       c.GetBool("http.enabled"),
		ListenAddress: c.GetString("http.listen_address"),
		RecentResults: c.GetInt("http.recent_results"),
	}
}
