// Command etl collects heat stress advisories for the configured date range
// and publishes the detailed and summary tables to the configured sinks.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/heat-stress-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/heat-stress-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/heat-stress-etl/internal/adapter/kafka"
	"github.com/couchcryptid/heat-stress-etl/internal/adapter/mongodb"
	"github.com/couchcryptid/heat-stress-etl/internal/adapter/postgres"
	"github.com/couchcryptid/heat-stress-etl/internal/adapter/web"
	"github.com/couchcryptid/heat-stress-etl/internal/config"
	"github.com/couchcryptid/heat-stress-etl/internal/domain"
	"github.com/couchcryptid/heat-stress-etl/internal/extract"
	"github.com/couchcryptid/heat-stress-etl/internal/observability"
	"github.com/couchcryptid/heat-stress-etl/internal/pipeline"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	os.Exit(run(cfg))
}

func run(cfg *config.Config) int {
	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sinks, closers, err := openSinks(ctx, cfg, logger)
	defer closeAll(closers, logger)
	if err != nil {
		logger.Error("failed to open sinks", "error", err)
		return 1
	}

	client := web.NewClient(cfg.FetchTimeout, cfg.Feed.UserAgent, metrics, logger)
	fetcher := web.NewCachedFetcher(client, cfg.FetchCacheSize, metrics)
	extractor := extract.New(fetcher, domain.RegexTimeParser{}, cfg.Feed, logger)

	clock := clockwork.NewRealClock()
	builder := pipeline.NewBuilder(extractor, cfg.Feed.IndexURL, clock, cfg.PacingDelay, logger, metrics)
	p := pipeline.New(builder, pipeline.NewMultiSink(logger, metrics, sinks...), cfg.PairingStrategy, logger, metrics)

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	start, end := cfg.Range(clock.Now())
	_, runErr := p.Run(ctx, start, end)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	if runErr != nil {
		logger.Error("pipeline failed", "error", runErr)
		return 1
	}
	return 0
}

// openSinks connects every sink named in cfg.Sinks, in that order. Closers
// are returned even on error so partially opened sinks can be released.
func openSinks(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]pipeline.Sink, []func() error, error) {
	var (
		sinks   []pipeline.Sink
		closers []func() error
	)
	for _, name := range cfg.Sinks {
		switch name {
		case config.SinkCSV:
			sinks = append(sinks, csvfile.NewSink(cfg.CSVDir, logger))
		case config.SinkPostgres:
			pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
			if err != nil {
				return nil, closers, err
			}
			closers = append(closers, func() error { pool.Close(); return nil })
			sinks = append(sinks, postgres.NewSink(pool, logger))
		case config.SinkMongo:
			client, db, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
			if err != nil {
				return nil, closers, err
			}
			closers = append(closers, func() error { return client.Disconnect(context.Background()) })
			sinks = append(sinks, mongodb.NewSink(db, logger))
		case config.SinkKafka:
			w := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopicPrefix, logger)
			closers = append(closers, w.Close)
			sinks = append(sinks, w)
		default:
			return nil, closers, fmt.Errorf("unknown sink %q", name)
		}
		logger.Info("sink enabled", "sink", name)
	}
	return sinks, closers, nil
}

func closeAll(closers []func() error, logger *slog.Logger) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			logger.Error("sink close error", "error", err)
		}
	}
}
