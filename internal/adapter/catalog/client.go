// Package catalog downloads well metadata catalogs published as CSV over HTTP.
package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/groundwater-monthly/internal/domain"
	"github.com/couchcryptid/groundwater-monthly/internal/observability"
)

const utf8BOM = "\uFEFF"

// maxCatalogBytes bounds a single catalog download.
const maxCatalogBytes = 32 << 20

// ErrCatalogTooLarge is returned when a catalog body exceeds the download limit.
var ErrCatalogTooLarge = errors.New("catalog exceeds size limit")

// Client fetches a catalog CSV and returns it as a table of string cells.
type Client struct {
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
	maxBytes   int64 // zero means maxCatalogBytes
}

// NewClient creates a catalog client with the given request timeout.
func NewClient(timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch downloads and parses the catalog at url. Empty cells become nil.
func (c *Client) Fetch(ctx context.Context, url string) (domain.Table, error) {
	start := time.Now()
	t, err := c.fetch(ctx, url)
	c.metrics.CatalogFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.CatalogFetches.WithLabelValues("error").Inc()
		return domain.Table{}, err
	}
	c.metrics.CatalogFetches.WithLabelValues("success").Inc()
	c.logger.Debug("catalog fetched", "url", url, "rows", len(t.Rows), "columns", len(t.Columns))
	return t, nil
}

func (c *Client) fetch(ctx context.Context, url string) (domain.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Table{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Table{}, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Table{}, fmt.Errorf("catalog error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	limit := c.maxBytes
	if limit <= 0 {
		limit = maxCatalogBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return domain.Table{}, fmt.Errorf("read catalog: %w", err)
	}
	if int64(len(data)) > limit {
		return domain.Table{}, fmt.Errorf("%w: more than %d bytes", ErrCatalogTooLarge, limit)
	}
	return ParseCSV(bytes.NewReader(data))
}

// ParseCSV reads a headed CSV into a table. The delimiter is ',' unless the
// header line only contains ';'. Short records are padded with nil and extra
// cells beyond the header are ignored.
func ParseCSV(r io.Reader) (domain.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Table{}, fmt.Errorf("read catalog: %w", err)
	}
	text := strings.TrimPrefix(string(data), utf8BOM)

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = sniffDelimiter(text)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return domain.Table{}, errors.New("catalog is empty")
	}
	if err != nil {
		return domain.Table{}, fmt.Errorf("read catalog header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t := domain.Table{Columns: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Table{}, fmt.Errorf("read catalog record: %w", err)
		}
		row := make(domain.Row, len(header))
		for i, col := range header {
			if i >= len(rec) {
				row[col] = nil
				continue
			}
			if v := strings.TrimSpace(rec[i]); v != "" {
				row[col] = v
			} else {
				row[col] = nil
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func sniffDelimiter(text string) rune {
	line, _, _ := strings.Cut(text, "\n")
	if !strings.Contains(line, ",") && strings.Contains(line, ";") {
		return ';'
	}
	return ','
}
