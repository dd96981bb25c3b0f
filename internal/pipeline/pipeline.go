package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/heat-stress-etl/internal/domain"
	"github.com/couchcryptid/heat-stress-etl/internal/observability"
)

// Result is the outcome of one run.
type Result struct {
	Events    []domain.Event
	Summaries []domain.Summary
	Pairing   domain.PairingResult
}

// Run phases reported by Progress.
const (
	PhaseIdle       = "idle"
	PhaseBuilding   = "building"
	PhasePairing    = "pairing"
	PhasePublishing = "publishing"
	PhaseDone       = "done"
	PhaseFailed     = "failed"
)

// Progress is a point-in-time view of a run.
type Progress struct {
	Phase          string `json:"phase"`
	DatesProcessed int64  `json:"dates_processed"`
}

// Pipeline runs build, pair, aggregate and publish over a date range.
type Pipeline struct {
	builder  *Builder
	sink     Sink
	strategy domain.PairingStrategy
	logger   *slog.Logger
	metrics  *observability.Metrics
	phase    atomic.Value // string
}

// New creates a Pipeline with the given stages and observability.
func New(b *Builder, sink Sink, strategy domain.PairingStrategy, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	p := &Pipeline{
		builder:  b,
		sink:     sink,
		strategy: strategy,
		logger:   logger,
		metrics:  metrics,
	}
	p.phase.Store(PhaseIdle)
	return p
}

// Progress reports the current phase and how many dates have been handled.
func (p *Pipeline) Progress() Progress {
	return Progress{
		Phase:          p.phase.Load().(string),
		DatesProcessed: p.builder.Processed(),
	}
}

// CheckReadiness returns nil once at least one date has been processed,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.builder.Processed() == 0 {
		return errors.New("pipeline has not processed any dates yet")
	}
	return nil
}

// Run processes [start, end] once. Publication errors are returned as is;
// if the summary append fails after the detailed append succeeded, the two
// destinations are left out of step.
func (p *Pipeline) Run(ctx context.Context, start, end time.Time) (res Result, err error) {
	defer func() {
		if err != nil {
			p.phase.Store(PhaseFailed)
		}
	}()

	began := p.builder.clock.Now()
	p.logger.Info("pipeline started",
		"start", start.Format(domain.DateLayout),
		"end", end.Format(domain.DateLayout),
		"pairing", string(p.strategy),
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	p.phase.Store(PhaseBuilding)
	events, err := p.builder.Build(ctx, start, end)
	if err != nil {
		return Result{Events: events}, fmt.Errorf("build events: %w", err)
	}

	p.phase.Store(PhasePairing)
	pairing := domain.ComputeDurations(events, p.strategy, p.logger)
	p.metrics.DurationsComputed.Add(float64(pairing.Computed))
	p.metrics.PairingsSkipped.Add(float64(pairing.Skipped))

	summaries := domain.Summarize(events)
	res = Result{Events: events, Summaries: summaries, Pairing: pairing}

	p.phase.Store(PhasePublishing)
	for _, t := range []domain.Table{
		domain.DetailedTable(events).Sanitized(),
		domain.SummaryTable(summaries).Sanitized(),
	} {
		if err := p.sink.Append(ctx, t); err != nil {
			return res, fmt.Errorf("publish: %w", err)
		}
	}

	p.phase.Store(PhaseDone)
	elapsed := p.builder.clock.Since(began)
	p.metrics.RunDuration.Observe(elapsed.Seconds())
	p.logger.Info("pipeline finished",
		"events", len(events),
		"summary_rows", len(summaries),
		"durations", pairing.Computed,
		"skipped_pairs", pairing.Skipped,
		"elapsed", elapsed,
	)
	return res, nil
}
