package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/groundwater-monthly/internal/domain"
	"github.com/couchcryptid/groundwater-monthly/internal/observability"
)

// MeasurementStore reads measurement tables.
type MeasurementStore interface {
	LoadTable(ctx context.Context, table string) (domain.Table, error)
	ListTables(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// CatalogSource fetches a metadata catalog by URL.
type CatalogSource interface {
	Fetch(ctx context.Context, url string) (domain.Table, error)
}

// StoreError reports that the measurement store could not serve a table.
type StoreError struct {
	Table string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("load table %s: %v", e.Table, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Request selects what a report contains.
type Request struct {
	Variant    domain.Variant
	Statistics []string
	Wells      []string // preview subset; empty means every well
}

// Report is the result of one run over a variant.
type Report struct {
	Variant     domain.Variant
	Statistics  domain.Statistics
	Long        domain.LongTable
	Wide        domain.WideTable
	Wells       []string // every well with at least one valid row
	Warnings    []string
	Dropped     domain.DropCounts
	RowsRead    int
	GeneratedAt time.Time
}

// Pipeline runs the load, enrich, derive and summarize stages for a variant.
type Pipeline struct {
	store    MeasurementStore
	catalog  CatalogSource
	variants domain.Variants
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a Pipeline. Pass a nil catalog to disable metadata enrichment.
func New(store MeasurementStore, catalog CatalogSource, variants domain.Variants, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		store:    store,
		catalog:  catalog,
		variants: variants,
		logger:   logger,
		metrics:  metrics,
	}
}

// Variants returns the configured variants in a stable order.
func (p *Pipeline) Variants() []domain.Variant {
	return p.variants.Names()
}

// CheckReadiness returns nil if the measurement store is reachable.
func (p *Pipeline) CheckReadiness(ctx context.Context) error {
	if err := p.store.Ping(ctx); err != nil {
		return fmt.Errorf("store unreachable: %w", err)
	}
	return nil
}

// ListTables returns the tables in the measurement store.
func (p *Pipeline) ListTables(ctx context.Context) ([]string, error) {
	tables, err := p.store.ListTables(ctx)
	if err != nil {
		return nil, &StoreError{Table: "*", Err: err}
	}
	return tables, nil
}

// Run builds the long and wide tables for one variant. The statistic selection
// is validated before the store is touched.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Report, error) {
	start := time.Now()
	label := p.variantLabel(req.Variant)

	report, err := p.run(ctx, req)
	p.metrics.Reports.WithLabelValues(label, outcome(err)).Inc()
	if err != nil {
		p.logger.Error("report failed", "variant", req.Variant, "error", err)
		return nil, err
	}

	p.metrics.ReportDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	p.logger.Info("report computed",
		"variant", report.Variant,
		"statistics", report.Statistics.Names(),
		"rows_read", report.RowsRead,
		"wells", len(report.Wells),
		"long_rows", len(report.Long.Rows),
		"wide_columns", len(report.Wide.Columns),
		"duration", time.Since(start),
	)
	return report, nil
}

// RunAll runs every configured variant concurrently with the same statistics.
// Reports are returned in variant order; the first error cancels the rest.
func (p *Pipeline) RunAll(ctx context.Context, statistics []string) ([]*Report, error) {
	variants := p.variants.Names()
	reports := make([]*Report, len(variants))

	g, ctx := errgroup.WithContext(ctx)
	for i, v := range variants {
		g.Go(func() error {
			r, err := p.Run(ctx, Request{Variant: v, Statistics: statistics})
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// Wells returns the sorted identifiers of wells with at least one valid row.
func (p *Pipeline) Wells(ctx context.Context, v domain.Variant) ([]string, error) {
	spec, err := p.variants.Lookup(v)
	if err != nil {
		return nil, err
	}
	prep, err := p.prepare(ctx, spec)
	if err != nil {
		return nil, err
	}
	return prep.wells(), nil
}

func (p *Pipeline) run(ctx context.Context, req Request) (*Report, error) {
	sel, err := domain.ParseStatistics(req.Statistics)
	if err != nil {
		return nil, err
	}
	spec, err := p.variants.Lookup(req.Variant)
	if err != nil {
		return nil, err
	}

	prep, err := p.prepare(ctx, spec)
	if err != nil {
		return nil, err
	}

	long, err := domain.BuildLongForm(prep.valid, req.Wells, sel, prep.metaKeys)
	if err != nil {
		return nil, err
	}
	wide, err := domain.BuildWideForm(prep.valid, sel, prep.metaKeys)
	if err != nil {
		return nil, err
	}

	return &Report{
		Variant:     spec.Variant,
		Statistics:  sel,
		Long:        long,
		Wide:        wide,
		Wells:       prep.wells(),
		Warnings:    prep.warnings,
		Dropped:     prep.dropped,
		RowsRead:    prep.rowsRead,
		GeneratedAt: domain.Now(),
	}, nil
}

// prepared holds the valid derived rows of a variant, ready for aggregation.
type prepared struct {
	valid    []domain.DerivedRow
	metaKeys []string
	warnings []string
	dropped  domain.DropCounts
	rowsRead int
}

func (pr prepared) wells() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range pr.valid {
		if _, ok := seen[r.WellID]; ok {
			continue
		}
		seen[r.WellID] = struct{}{}
		out = append(out, r.WellID)
	}
	sort.Strings(out)
	return out
}

func (p *Pipeline) prepare(ctx context.Context, spec domain.VariantSpec) (prepared, error) {
	label := string(spec.Variant)

	tbl, err := p.store.LoadTable(ctx, string(spec.Variant))
	if err != nil {
		return prepared{}, &StoreError{Table: string(spec.Variant), Err: err}
	}
	p.metrics.RowsRead.WithLabelValues(label).Add(float64(len(tbl.Rows)))

	fields, err := domain.ResolveFields(spec, tbl.Columns)
	if err != nil {
		return prepared{}, err
	}

	var warnings []string
	cat, err := p.loadCatalog(ctx, spec)
	if err != nil {
		warnings = append(warnings, err.Error())
		p.metrics.ReportWarnings.WithLabelValues(label).Inc()
		p.logger.Warn("metadata unavailable, continuing without it",
			"variant", spec.Variant, "url", spec.Metadata.URL, "error", err)
	}

	merged, mr := domain.MergeMetadata(tbl, cat)
	if cat != nil {
		p.logger.Debug("metadata merged",
			"variant", spec.Variant,
			"added", mr.Added,
			"dropped", mr.Dropped,
			"matched", mr.Matched,
			"unmatched", mr.Unmatched,
		)
	}

	metaKeys := domain.MetadataKeys(merged, spec.Metadata.Fields)
	valid, drops := domain.FilterValid(domain.Derive(merged, fields, metaKeys))
	p.recordDrops(label, drops)

	return prepared{
		valid:    valid,
		metaKeys: metaKeys,
		warnings: warnings,
		dropped:  drops,
		rowsRead: len(tbl.Rows),
	}, nil
}

// loadCatalog returns nil without error when the variant is not enriched.
// Failures come back as *domain.MetadataFetchError.
func (p *Pipeline) loadCatalog(ctx context.Context, spec domain.VariantSpec) (*domain.Catalog, error) {
	if p.catalog == nil || !spec.Metadata.Enabled() {
		return nil, nil
	}

	tbl, err := p.catalog.Fetch(ctx, spec.Metadata.URL)
	if err != nil {
		return nil, &domain.MetadataFetchError{URL: spec.Metadata.URL, Err: err}
	}
	if !tbl.HasColumn(spec.Metadata.Key) {
		return nil, &domain.MetadataFetchError{
			URL: spec.Metadata.URL,
			Err: fmt.Errorf("catalog has no %s column", spec.Metadata.Key),
		}
	}
	return domain.NewCatalog(spec.Metadata.Key, tbl).Project(spec.Metadata.Fields), nil
}

func (p *Pipeline) recordDrops(label string, d domain.DropCounts) {
	if d.Total() == 0 {
		return
	}
	p.metrics.RowsDropped.WithLabelValues(label, "missing_well").Add(float64(d.MissingWell))
	p.metrics.RowsDropped.WithLabelValues(label, "missing_elevation").Add(float64(d.MissingElevation))
	p.metrics.RowsDropped.WithLabelValues(label, "missing_date").Add(float64(d.MissingDate))
	p.logger.Warn("rows dropped before aggregation",
		"variant", label,
		"dropped_missing_well", d.MissingWell,
		"dropped_missing_elevation", d.MissingElevation,
		"dropped_missing_date", d.MissingDate,
	)
}

func (p *Pipeline) variantLabel(v domain.Variant) string {
	if _, ok := p.variants[v]; ok {
		return string(v)
	}
	return "unknown"
}

func outcome(err error) string {
	var (
		missing *domain.MissingFieldError
		unknown *domain.UnknownStatisticError
		store   *StoreError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrEmptyStatisticSelection), errors.As(err, &unknown):
		return "bad_request"
	case errors.Is(err, domain.ErrUnknownVariant):
		return "unknown_variant"
	case errors.As(err, &missing):
		return "missing_field"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.As(err, &store):
		return "store_error"
	default:
		return "error"
	}
}
