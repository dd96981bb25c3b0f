package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/heat-stress-etl/internal/domain"
	"github.com/couchcryptid/heat-stress-etl/internal/observability"
)

// Sink is an append-only tabular destination. The destination named by the
// table is created on first use. Appends are not deduplicated.
type Sink interface {
	Name() string
	Append(ctx context.Context, table domain.Table) error
}

// MultiSink appends each table to several sinks in order.
type MultiSink struct {
	sinks   []Sink
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewMultiSink fans appends out to sinks.
func NewMultiSink(logger *slog.Logger, metrics *observability.Metrics, sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks, logger: logger, metrics: metrics}
}

func (m *MultiSink) Name() string { return "multi" }

// Append stops at the first failing sink. Sinks earlier in the list keep
// what they already wrote.
func (m *MultiSink) Append(ctx context.Context, table domain.Table) error {
	for _, s := range m.sinks {
		if err := s.Append(ctx, table); err != nil {
			m.metrics.PublishErrors.WithLabelValues(s.Name()).Inc()
			return fmt.Errorf("%s sink: append %q: %w", s.Name(), table.Name, err)
		}
		m.metrics.RowsPublished.WithLabelValues(s.Name(), table.Slug()).Add(float64(len(table.Rows)))
		m.logger.Info("table published", "sink", s.Name(), "table", table.Name, "rows", len(table.Rows))
	}
	return nil
}
