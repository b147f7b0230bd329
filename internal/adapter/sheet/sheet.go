// Package sheet renders report frames as CSV downloads.
package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/couchcryptid/groundwater-monthly/internal/domain"
)

// ContentType is the media type of [WriteCSV] output.
const ContentType = "text/csv; charset=utf-8"

// WriteCSV writes the frame header and rows. Cells are rendered with
// [domain.FormatCell], so nulls become empty fields.
func WriteCSV(w io.Writer, f domain.Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(f.Columns))
	for _, row := range f.Rows {
		for i := range rec {
			if i < len(row) {
				rec[i] = domain.FormatCell(row[i])
			} else {
				rec[i] = ""
			}
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName names a wide export, e.g. "monthly_mean_max_melyviz_table.csv".
func FileName(v domain.Variant, sel domain.Statistics) string {
	return fmt.Sprintf("monthly_%s_%s.csv", strings.Join(sel.Names(), "_"), v)
}
