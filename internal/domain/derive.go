package domain

import (
	"strings"
	"time"
)

// timestampLayouts are the accepted date spellings. Anything else is null.
var timestampLayouts = []string{
	"2006-1-2",
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
	"2006-1-2T15:04:05",
	time.RFC3339,
	"2006.1.2",
	"2006.1.2.",
	"2006. 1. 2.",
	"2006.1.2 15:04:05",
	"2006/1/2",
	"2006/1/2 15:04:05",
}

// DerivedRow is a measurement reduced to what aggregation needs.
type DerivedRow struct {
	WellID    string
	Elevation *float64
	Date      *time.Time
	Year      int // zero when Date is nil
	Month     int // zero when Date is nil
	Metadata  []any
}

// DropCounts tallies rows excluded from aggregation, each under its first failing reason.
type DropCounts struct {
	MissingWell      int `json:"missing_well"`
	MissingElevation int `json:"missing_elevation"`
	MissingDate      int `json:"missing_date"`
}

// Total returns the number of dropped rows.
func (d DropCounts) Total() int {
	return d.MissingWell + d.MissingElevation + d.MissingDate
}

// Derive computes the bottom elevation and the (year, month) bin of every row.
// Metadata values are copied in metaKeys order. Unparseable numbers and dates
// become nulls; nothing here fails.
func Derive(t Table, f ResolvedFields, metaKeys []string) []DerivedRow {
	out := make([]DerivedRow, len(t.Rows))
	for i, r := range t.Rows {
		d := DerivedRow{
			WellID:    wellID(r[WellIDField]),
			Elevation: elevation(r[f.ReferenceElevation], r[f.WaterLevel]),
		}
		if ts, ok := ParseTimestamp(r[f.Timestamp]); ok {
			d.Date = &ts
			d.Year = ts.Year()
			d.Month = int(ts.Month())
		}
		if len(metaKeys) > 0 {
			d.Metadata = make([]any, len(metaKeys))
			for j, k := range metaKeys {
				d.Metadata[j] = r[k]
			}
		}
		out[i] = d
	}
	return out
}

// FilterValid keeps rows with a well, an elevation and a date.
func FilterValid(rows []DerivedRow) ([]DerivedRow, DropCounts) {
	var drops DropCounts
	valid := make([]DerivedRow, 0, len(rows))
	for _, r := range rows {
		switch {
		case r.WellID == "":
			drops.MissingWell++
		case r.Elevation == nil:
			drops.MissingElevation++
		case r.Date == nil:
			drops.MissingDate++
		default:
			valid = append(valid, r)
		}
	}
	return valid, drops
}

// ParseTimestamp accepts time values and strings in one of the known layouts.
func ParseTimestamp(v any) (time.Time, bool) {
	var s string
	switch ts := v.(type) {
	case time.Time:
		return ts, !ts.IsZero()
	case *time.Time:
		if ts == nil || ts.IsZero() {
			return time.Time{}, false
		}
		return *ts, true
	case string:
		s = ts
	case []byte:
		s = string(ts)
	default:
		return time.Time{}, false
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func elevation(ref, level any) *float64 {
	r, ok := ParseNumber(ref)
	if !ok {
		return nil
	}
	l, ok := ParseNumber(level)
	if !ok {
		return nil
	}
	e := r + l
	return &e
}
