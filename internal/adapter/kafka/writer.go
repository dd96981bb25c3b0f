package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/heat-stress-etl/internal/domain"
)

// Writer publishes table rows to Kafka, one topic per table.
// It implements pipeline.Sink.
type Writer struct {
	writer *kafkago.Writer
	prefix string
	logger *slog.Logger
}

// NewWriter creates a Kafka producer. Rows of a table go to
// "<prefix>.<table slug>", which is created if the broker allows it.
func NewWriter(brokers []string, prefix string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, prefix: prefix, logger: logger}
}

func (w *Writer) Name() string { return "kafka" }

// Topic returns the topic a table is published to.
func (w *Writer) Topic(table domain.Table) string {
	return TopicName(w.prefix, table)
}

// TopicName joins a prefix and the table slug.
func TopicName(prefix string, table domain.Table) string {
	if prefix == "" {
		return table.Slug()
	}
	return prefix + "." + table.Slug()
}

// Append publishes every row in a single WriteMessages call.
func (w *Writer) Append(ctx context.Context, table domain.Table) error {
	if len(table.Rows) == 0 {
		return nil
	}
	msgs, err := tableMessages(w.Topic(table), table)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write to %s: %w", w.Topic(table), err)
	}
	w.logger.Debug("rows produced", "topic", w.Topic(table), "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// tableMessages marshals each row into a JSON object keyed by column name.
// The message key is the row's first column: row_key for detailed rows,
// date for summary rows.
func tableMessages(topic string, table domain.Table) ([]kafkago.Message, error) {
	msgs := make([]kafkago.Message, len(table.Rows))
	for i := range table.Rows {
		data, err := json.Marshal(table.Record(i))
		if err != nil {
			return nil, fmt.Errorf("serialize %s row %d: %w", table.Slug(), i, err)
		}
		var key string
		if len(table.Rows[i]) > 0 {
			key = domain.CellText(table.Rows[i][0])
		}
		msgs[i] = kafkago.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: data,
			Headers: []kafkago.Header{
				{Key: "table", Value: []byte(table.Name)},
			},
		}
	}
	return msgs, nil
}
