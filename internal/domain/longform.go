package domain

import (
	"sort"
	"time"
)

// LongRow is one (well, month) line of the preview table.
type LongRow struct {
	WellID   string
	Metadata []any
	Year     int
	Month    int
	Date     time.Time // first day of the month, UTC
	Values   map[Statistic]float64
}

// LongTable is the preview and plotting table.
type LongTable struct {
	MetadataKeys []string
	Statistics   Statistics
	Rows         []LongRow
}

// BuildLongForm aggregates the rows of the selected wells (all wells when wells
// is empty) and sorts the result by well and date.
func BuildLongForm(rows []DerivedRow, wells []string, sel Statistics, metaKeys []string) (LongTable, error) {
	if len(sel) == 0 {
		return LongTable{}, ErrEmptyStatisticSelection
	}

	selected := rows
	if len(wells) > 0 {
		want := make(map[string]struct{}, len(wells))
		for _, w := range wells {
			want[w] = struct{}{}
		}
		selected = make([]DerivedRow, 0, len(rows))
		for _, r := range rows {
			if _, ok := want[r.WellID]; ok {
				selected = append(selected, r)
			}
		}
	}

	aggs, err := Aggregate(selected, sel)
	if err != nil {
		return LongTable{}, err
	}

	out := LongTable{MetadataKeys: metaKeys, Statistics: sel, Rows: make([]LongRow, len(aggs))}
	for i, a := range aggs {
		out.Rows[i] = LongRow{
			WellID:   a.WellID,
			Metadata: a.Metadata,
			Year:     a.Year,
			Month:    a.Month,
			Date:     time.Date(a.Year, time.Month(a.Month), 1, 0, 0, 0, 0, time.UTC),
			Values:   a.Values,
		}
	}
	sort.SliceStable(out.Rows, func(i, j int) bool {
		a, b := out.Rows[i], out.Rows[j]
		if a.WellID != b.WellID {
			return a.WellID < b.WellID
		}
		return a.Date.Before(b.Date)
	})
	return out, nil
}

// Columns returns the display order: identifier, metadata, Year, Month, date, statistics.
func (t LongTable) Columns() []string {
	cols := make([]string, 0, 4+len(t.MetadataKeys)+len(t.Statistics))
	cols = append(cols, WellIDField)
	cols = append(cols, t.MetadataKeys...)
	cols = append(cols, "Year", "Month", "date")
	return append(cols, t.Statistics.Names()...)
}

// Frame renders the table in [LongTable.Columns] order.
func (t LongTable) Frame() Frame {
	f := Frame{Columns: t.Columns(), Rows: make([][]any, len(t.Rows))}
	for i, r := range t.Rows {
		rec := make([]any, 0, len(f.Columns))
		rec = append(rec, r.WellID)
		for j := range t.MetadataKeys {
			rec = append(rec, metadataAt(r.Metadata, j))
		}
		rec = append(rec, r.Year, r.Month, r.Date)
		for _, s := range t.Statistics {
			rec = append(rec, r.Values[s])
		}
		f.Rows[i] = rec
	}
	return f
}

// Point is one monthly value of a plot series.
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Series is the line of one statistic for one well.
type Series struct {
	WellID    string    `json:"well"`
	Statistic Statistic `json:"statistic"`
	Points    []Point   `json:"points"`
}

// Series splits the table into one date-ordered line per well and statistic.
func (t LongTable) Series() []Series {
	var out []Series
	index := make(map[string]int)
	for _, r := range t.Rows {
		for _, s := range t.Statistics {
			key := r.WellID + "\x1f" + string(s)
			i, ok := index[key]
			if !ok {
				i = len(out)
				index[key] = i
				out = append(out, Series{WellID: r.WellID, Statistic: s})
			}
			out[i].Points = append(out[i].Points, Point{Date: r.Date, Value: r.Values[s]})
		}
	}
	return out
}

func metadataAt(meta []any, i int) any {
	if i < len(meta) {
		return meta[i]
	}
	return nil
}
