package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/heat-stress-etl/internal/domain"
	"github.com/couchcryptid/heat-stress-etl/internal/observability"
)

// DayExtractor reads the advisory events listed on one day's index page.
type DayExtractor interface {
	Extract(ctx context.Context, indexURL string, day time.Time) ([]domain.Event, error)
}

// Builder walks a date range and collects the events of each day.
type Builder struct {
	extractor DayExtractor
	indexURL  func(day time.Time) string
	clock     clockwork.Clock
	pacing    time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
	processed atomic.Int64
}

// NewBuilder creates a Builder. indexURL maps a date to its index page and
// pacing is the pause between consecutive dates.
func NewBuilder(e DayExtractor, indexURL func(time.Time) string, clock clockwork.Clock, pacing time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Builder {
	return &Builder{
		extractor: e,
		indexURL:  indexURL,
		clock:     clock,
		pacing:    pacing,
		logger:    logger,
		metrics:   metrics,
	}
}

// Processed reports how many dates have been handled so far.
func (b *Builder) Processed() int64 {
	return b.processed.Load()
}

// Build returns every event in [start, end], ascending by date and in page
// order within a date. A date with no matching links, or whose index page
// could not be retrieved, contributes one NoRecord event. The only error is
// context cancellation.
func (b *Builder) Build(ctx context.Context, start, end time.Time) ([]domain.Event, error) {
	if end.Before(start) {
		return nil, errors.New("end date is before start date")
	}

	var events []domain.Event
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if day.After(start) && !b.pause(ctx) {
			return events, ctx.Err()
		}
		if err := ctx.Err(); err != nil {
			return events, err
		}

		events = append(events, b.buildDay(ctx, day)...)
		b.processed.Add(1)
		b.metrics.DatesProcessed.Inc()
	}
	return events, nil
}

func (b *Builder) buildDay(ctx context.Context, day time.Time) []domain.Event {
	url := b.indexURL(day)
	date := day.Format(domain.DateLayout)

	found, err := b.extractor.Extract(ctx, url, day)
	if err != nil {
		b.logger.Error("index retrieval failed, recording no data", "date", date, "url", url, "error", err)
		found = nil
	}
	if len(found) == 0 {
		found = []domain.Event{domain.NewNoRecordEvent(day)}
	}

	for _, e := range found {
		b.metrics.EventsExtracted.WithLabelValues(e.Type.String()).Inc()
	}
	b.logger.Info("date processed", "date", date, "events", len(found))
	return found
}

// pause waits for the pacing delay. It returns false if ctx ends first.
func (b *Builder) pause(ctx context.Context) bool {
	if b.pacing <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-b.clock.After(b.pacing):
		return true
	}
}
