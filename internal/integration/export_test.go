//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/groundwater-monthly/internal/adapter/catalog"
	"github.com/couchcryptid/groundwater-monthly/internal/adapter/kafka"
	"github.com/couchcryptid/groundwater-monthly/internal/adapter/store"
	"github.com/couchcryptid/groundwater-monthly/internal/domain"
	"github.com/couchcryptid/groundwater-monthly/internal/observability"
	"github.com/couchcryptid/groundwater-monthly/internal/pipeline"
)

const testExportTopic = "test-groundwater-monthly-wide"

const deepCatalog = "Rendszam,VMOEov_EOVx,VMOEov_EOVy\n" +
	"W1,650000,240000\n" +
	"W2,651000,241000\n"

// TestExportEndToEnd wires store, catalog, pipeline and Kafka writer and
// verifies one message per well arrives on the export topic.
func TestExportEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testExportTopic)

	catalogSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, deepCatalog)
	}))
	t.Cleanup(catalogSrv.Close)

	metrics := observability.NewMetricsForTesting()

	st, err := store.Open(ctx, "sqlite", seedStore(t), discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	variants := domain.DefaultVariants()
	deep := variants[domain.Deep]
	deep.Metadata.URL = catalogSrv.URL + "/deep.csv"
	variants[domain.Deep] = deep

	cat := catalog.NewCachedCatalog(catalog.NewClient(5*time.Second, metrics, discardLogger()), metrics)
	p := pipeline.New(st, cat, variants, discardLogger(), metrics)

	report, err := p.Run(ctx, pipeline.Request{Variant: domain.Deep, Statistics: []string{"mean", "max"}})
	require.NoError(t, err)
	require.Empty(t, report.Warnings)
	assert.Equal(t, 1, report.Dropped.MissingDate)

	writer := kafka.NewWriter([]string{broker}, testExportTopic, metrics, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.Publish(ctx, report))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testExportTopic,
		GroupID:     fmt.Sprintf("test-export-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := make(map[string]kafka.WellRow)
	for len(received) < 2 {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := consumer.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from export topic")

		var row kafka.WellRow
		require.NoError(t, json.Unmarshal(msg.Value, &row))
		assert.Equal(t, row.Well, string(msg.Key))
		received[row.Well] = row
	}

	w1 := received["W1"]
	assert.Equal(t, domain.Deep, w1.Variant)
	assert.Equal(t, []string{"mean", "max"}, w1.Statistics)
	assert.InDelta(t, 650000.0, w1.Metadata["VMOEov_EOVx"], 0)
	require.NotNil(t, w1.Values["2021_01_mean"])
	assert.InDelta(t, 7.5, *w1.Values["2021_01_mean"], 1e-9)
	require.NotNil(t, w1.Values["2021_02_max"])
	assert.InDelta(t, 7.5, *w1.Values["2021_02_max"], 1e-9)

	w2 := received["W2"]
	assert.Nil(t, w2.Values["2021_01_mean"], "missing month is null, not zero")
	require.NotNil(t, w2.Values["2021_02_mean"])
	assert.InDelta(t, 8.0, *w2.Values["2021_02_mean"], 1e-9)
}
