// Command export computes wide monthly tables and writes them as CSV files,
// optionally publishing every well row to Kafka.
//
// Usage:
//
//	go run ./cmd/export -variant melyviz -stats mean,max -out exports
//	go run ./cmd/export -variant all -publish
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/groundwater-monthly/internal/adapter/catalog"
	kafkaadapter "github.com/couchcryptid/groundwater-monthly/internal/adapter/kafka"
	"github.com/couchcryptid/groundwater-monthly/internal/adapter/sheet"
	"github.com/couchcryptid/groundwater-monthly/internal/adapter/store"
	"github.com/couchcryptid/groundwater-monthly/internal/config"
	"github.com/couchcryptid/groundwater-monthly/internal/domain"
	"github.com/couchcryptid/groundwater-monthly/internal/observability"
	"github.com/couchcryptid/groundwater-monthly/internal/pipeline"
)

type options struct {
	variant string
	stats   string
	outDir  string
	publish bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var opts options
	flag.StringVar(&opts.variant, "variant", "all", "talajviz, melyviz, or all")
	flag.StringVar(&opts.stats, "stats", strings.Join(cfg.DefaultStatistics, ","), "comma-separated statistics (mean,min,max)")
	flag.StringVar(&opts.outDir, "out", ".", `output directory, or "-" for stdout`)
	flag.BoolVar(&opts.publish, "publish", cfg.ExportKafkaEnabled, "publish wide rows to KAFKA_EXPORT_TOPIC")
	flag.Parse()

	if code := run(cfg, opts, observability.NewMetrics()); code != 0 {
		os.Exit(code)
	}
}

func run(cfg *config.Config, opts options, metrics *observability.Metrics) int {
	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.StoreDriver, cfg.StoreDSN, logger)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		return 1
	}
	defer st.Close()

	var catalogSource pipeline.CatalogSource
	if cfg.CatalogEnabled {
		client := catalog.NewClient(cfg.CatalogTimeout, metrics, logger)
		catalogSource = catalog.NewCachedCatalog(client, metrics)
	}
	p := pipeline.New(st, catalogSource, cfg.Variants(), logger, metrics)

	reports, err := runReports(ctx, p, opts)
	if err != nil {
		logger.Error("export failed", "error", err)
		return 1
	}

	for _, report := range reports {
		for _, w := range report.Warnings {
			logger.Warn("report warning", "variant", report.Variant, "warning", w)
		}
		if err := writeReport(report, opts.outDir); err != nil {
			logger.Error("write export failed", "variant", report.Variant, "error", err)
			return 1
		}
	}

	if opts.publish {
		writer := kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaExportTopic, metrics, logger)
		defer writer.Close()
		for _, report := range reports {
			if err := writer.Publish(ctx, report); err != nil {
				logger.Error("publish failed", "variant", report.Variant, "error", err)
				return 1
			}
		}
	}
	return 0
}

func runReports(ctx context.Context, p *pipeline.Pipeline, opts options) ([]*pipeline.Report, error) {
	stats := strings.Split(opts.stats, ",")
	if strings.EqualFold(strings.TrimSpace(opts.variant), "all") {
		return p.RunAll(ctx, stats)
	}
	v, err := domain.ParseVariant(opts.variant)
	if err != nil {
		return nil, err
	}
	report, err := p.Run(ctx, pipeline.Request{Variant: v, Statistics: stats})
	if err != nil {
		return nil, err
	}
	return []*pipeline.Report{report}, nil
}

func writeReport(report *pipeline.Report, outDir string) error {
	frame := report.Wide.Frame()
	if outDir == "-" {
		return sheet.WriteCSV(os.Stdout, frame)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(outDir, sheet.FileName(report.Variant, report.Statistics))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := sheet.WriteCSV(f, frame); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d wells, %d columns)\n", path, len(report.Wide.Rows), len(frame.Columns))
	return nil
}
