package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/groundwater-monthly/internal/domain"
	"github.com/couchcryptid/groundwater-monthly/internal/observability"
	"github.com/couchcryptid/groundwater-monthly/internal/pipeline"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes wide-table rows to a Kafka topic, one message per well.
type Writer struct {
	writer  messageWriter
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the export topic.
func NewWriter(brokers []string, topic string, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, metrics: metrics, logger: logger}
}

// WellRow is the message payload for one well of a wide table.
type WellRow struct {
	Variant     domain.Variant      `json:"variant"`
	Well        string              `json:"well"`
	Statistics  []string            `json:"statistics"`
	GeneratedAt time.Time           `json:"generated_at"`
	Metadata    map[string]any      `json:"metadata"`
	Values      map[string]*float64 `json:"values"`
}

// Publish sends every row of the report's wide table in a single
// WriteMessages call. Messages are keyed by well identifier so that a
// well's exports land on one partition.
func (w *Writer) Publish(ctx context.Context, report *pipeline.Report) error {
	if len(report.Wide.Rows) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(report.Wide.Rows))
	for i := range report.Wide.Rows {
		msg, err := serializeToMessage(report, i)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %s: %w", report.Variant, err)
	}
	w.metrics.ExportMessagesProduced.Add(float64(len(msgs)))
	w.logger.Info("wide table published", "variant", report.Variant, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals row i of the report's wide table into a Kafka message.
func serializeToMessage(report *pipeline.Report, i int) (kafkago.Message, error) {
	wide := report.Wide
	row := wide.Rows[i]

	payload := WellRow{
		Variant:     report.Variant,
		Well:        row.WellID,
		Statistics:  report.Statistics.Names(),
		GeneratedAt: report.GeneratedAt,
		Metadata:    make(map[string]any, len(wide.MetadataKeys)),
		Values:      make(map[string]*float64, len(wide.Columns)),
	}
	for j, key := range wide.MetadataKeys {
		var v any
		if j < len(row.Metadata) {
			v = row.Metadata[j]
		}
		payload.Metadata[key] = v
	}
	for j, col := range wide.Columns {
		payload.Values[col.Name()] = row.Cells[j]
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize well %s: %w", row.WellID, err)
	}
	return kafkago.Message{
		Key:   []byte(row.WellID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "variant", Value: []byte(report.Variant)},
			{Key: "statistics", Value: []byte(strings.Join(payload.Statistics, ","))},
			{Key: "generated_at", Value: []byte(report.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
