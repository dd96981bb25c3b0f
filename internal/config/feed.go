package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Feed describes the publication being monitored. The defaults target the
// GIA weather press-release index; a YAML file may override any field.
type Feed struct {
	BaseURL            string `yaml:"base_url"`            // index pages live at {base_url}/YYYYMM/DD.htm
	WarningPhrase      string `yaml:"warning_phrase"`      // link text of an issuance
	CancellationPhrase string `yaml:"cancellation_phrase"` // link text of a cancellation
	AdvisoryName       string `yaml:"advisory_name"`       // paragraph marker inside an article
	UserAgent          string `yaml:"user_agent"`
}

// DefaultFeed returns the Heat Stress at Work Warning feed.
func DefaultFeed() Feed {
	return Feed{
		BaseURL:            "https://www.info.gov.hk/gia/wr",
		WarningPhrase:      "heat stress at work warning in force",
		CancellationPhrase: "cancellation of heat stress at work warning",
		AdvisoryName:       "heat stress at work warning",
		UserAgent:          "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/58.0.3029.110 Safari/537.3",
	}
}

// IndexURL returns the index page for day.
func (f Feed) IndexURL(day time.Time) string {
	return fmt.Sprintf("%s/%04d%02d/%02d.htm", f.BaseURL, day.Year(), int(day.Month()), day.Day())
}

// LoadFeed overlays the YAML file at path on DefaultFeed. An empty path
// returns the defaults.
func LoadFeed(path string) (Feed, error) {
	feed := DefaultFeed()
	if path == "" {
		return feed, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return Feed{}, fmt.Errorf("read feed file: %w", err)
	}
	var override Feed
	if err := yaml.Unmarshal(b, &override); err != nil {
		return Feed{}, fmt.Errorf("parse feed file: %w", err)
	}

	if override.BaseURL != "" {
		feed.BaseURL = strings.TrimRight(override.BaseURL, "/")
	}
	if override.WarningPhrase != "" {
		feed.WarningPhrase = strings.ToLower(override.WarningPhrase)
	}
	if override.CancellationPhrase != "" {
		feed.CancellationPhrase = strings.ToLower(override.CancellationPhrase)
	}
	if override.AdvisoryName != "" {
		feed.AdvisoryName = strings.ToLower(override.AdvisoryName)
	}
	if override.UserAgent != "" {
		feed.UserAgent = override.UserAgent
	}
	return feed, nil
}
