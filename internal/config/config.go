package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve in minimal images

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/heat-stress-etl/internal/domain"
)

// Sink names accepted in SINKS.
const (
	SinkCSV      = "csv"
	SinkPostgres = "postgres"
	SinkMongo    = "mongo"
	SinkKafka    = "kafka"
)

const defaultStartDate = "2024-10-10"

// Config holds all service settings, populated from environment variables.
type Config struct {
	StartDate time.Time
	EndDate   time.Time // zero means "today" in Location at run time
	Location  *time.Location

	Feed            Feed
	FetchTimeout    time.Duration
	FetchCacheSize  int
	PacingDelay     time.Duration
	PairingStrategy domain.PairingStrategy

	Sinks            []string
	CSVDir           string
	PostgresDSN      string
	MongoURI         string
	MongoDatabase    string
	KafkaBrokers     []string
	KafkaTopicPrefix string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(sharedcfg.EnvOrDefault("TIMEZONE", "Asia/Hong_Kong"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	start, err := parseDate(sharedcfg.EnvOrDefault("START_DATE", defaultStartDate), loc)
	if err != nil {
		return nil, fmt.Errorf("invalid START_DATE: %w", err)
	}
	var end time.Time
	if s := os.Getenv("END_DATE"); s != "" {
		if end, err = parseDate(s, loc); err != nil {
			return nil, fmt.Errorf("invalid END_DATE: %w", err)
		}
		if end.Before(start) {
			return nil, errors.New("END_DATE is before START_DATE")
		}
	} else if start.After(startOfDay(time.Now(), loc)) {
		return nil, errors.New("START_DATE is after today; set END_DATE or an earlier START_DATE")
	}

	feed, err := LoadFeed(os.Getenv("FEED_FILE"))
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	pacing, err := time.ParseDuration(sharedcfg.EnvOrDefault("PACING_DELAY", "1s"))
	if err != nil || pacing < 0 {
		return nil, errors.New("invalid PACING_DELAY")
	}

	strategy, err := domain.ParsePairingStrategy(sharedcfg.EnvOrDefault("PAIRING_STRATEGY", string(domain.PairPositional)))
	if err != nil {
		return nil, fmt.Errorf("invalid PAIRING_STRATEGY: %w", err)
	}

	var brokers []string
	if s := os.Getenv("KAFKA_BROKERS"); s != "" {
		brokers = sharedcfg.ParseBrokers(s)
	}

	cfg := &Config{
		StartDate:       start,
		EndDate:         end,
		Location:        loc,
		Feed:            feed,
		FetchTimeout:    fetchTimeout,
		FetchCacheSize:  parseCacheSize(),
		PacingDelay:     pacing,
		PairingStrategy: strategy,

		Sinks:            parseList(sharedcfg.EnvOrDefault("SINKS", SinkCSV)),
		CSVDir:           sharedcfg.EnvOrDefault("CSV_DIR", "data"),
		PostgresDSN:      os.Getenv("POSTGRES_DSN"),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDatabase:    sharedcfg.EnvOrDefault("MONGO_DATABASE", "heat_stress"),
		KafkaBrokers:     brokers,
		KafkaTopicPrefix: sharedcfg.EnvOrDefault("KAFKA_TOPIC_PREFIX", "heat-stress"),

		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if err := cfg.validateSinks(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Range resolves the inclusive date range, substituting today for an unset end.
func (c *Config) Range(now time.Time) (time.Time, time.Time) {
	end := c.EndDate
	if end.IsZero() {
		end = startOfDay(now, c.Location)
	}
	return c.StartDate, end
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	n := t.In(loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
}

func (c *Config) validateSinks() error {
	if len(c.Sinks) == 0 {
		return errors.New("SINKS is required")
	}
	for _, s := range c.Sinks {
		switch s {
		case SinkCSV:
			if c.CSVDir == "" {
				return errors.New("CSV_DIR is required for the csv sink")
			}
		case SinkPostgres:
			if c.PostgresDSN == "" {
				return errors.New("POSTGRES_DSN is required for the postgres sink")
			}
		case SinkMongo:
			if c.MongoURI == "" {
				return errors.New("MONGO_URI is required for the mongo sink")
			}
		case SinkKafka:
			if len(c.KafkaBrokers) == 0 {
				return errors.New("KAFKA_BROKERS is required for the kafka sink")
			}
		default:
			return fmt.Errorf("unknown sink %q", s)
		}
	}
	return nil
}

// parseDate accepts YYYY-MM-DD or YYYYMMDD.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.DateOnly, domain.DateLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseCacheSize() int {
	if s := os.Getenv("FETCH_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 32
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
