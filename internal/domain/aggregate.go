package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
)

// Statistic is one monthly summary of the bottom elevation.
type Statistic string

const (
	StatMean Statistic = "mean"
	StatMin  Statistic = "min"
	StatMax  Statistic = "max"
)

// statisticOrder is the column order of every output table.
var statisticOrder = []Statistic{StatMean, StatMin, StatMax}

// ErrEmptyStatisticSelection is returned when no statistic is selected.
var ErrEmptyStatisticSelection = errors.New("at least one statistic must be selected")

// UnknownStatisticError names a statistic outside mean, min and max.
type UnknownStatisticError struct {
	Name string
}

func (e *UnknownStatisticError) Error() string {
	return fmt.Sprintf("unknown statistic %q (want mean, min or max)", e.Name)
}

// Statistics is a non-empty selection in mean, min, max order.
type Statistics []Statistic

// ParseStatistics validates names and returns them deduplicated in canonical order.
func ParseStatistics(names []string) (Statistics, error) {
	selected := make(map[Statistic]bool, len(statisticOrder))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		s := Statistic(n)
		if s != StatMean && s != StatMin && s != StatMax {
			return nil, &UnknownStatisticError{Name: n}
		}
		selected[s] = true
	}

	out := make(Statistics, 0, len(selected))
	for _, s := range statisticOrder {
		if selected[s] {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyStatisticSelection
	}
	return out, nil
}

// Names returns the selection as strings.
func (s Statistics) Names() []string {
	out := make([]string, len(s))
	for i, st := range s {
		out[i] = string(st)
	}
	return out
}

// AggregateRow is one (well, year, month, metadata) group.
type AggregateRow struct {
	WellID   string
	Year     int
	Month    int
	Metadata []any
	Values   map[Statistic]float64
}

type groupKey struct {
	well  string
	year  int
	month int
	meta  string
}

type group struct {
	row    AggregateRow
	values stats.Float64Data
}

// Aggregate groups rows by well, bin and metadata and computes sel over the
// non-null elevations of each group. Rows without a bin are skipped. Output is
// sorted by well, year, month. An empty selection is rejected before any work.
func Aggregate(rows []DerivedRow, sel Statistics) ([]AggregateRow, error) {
	if len(sel) == 0 {
		return nil, ErrEmptyStatisticSelection
	}

	groups := make(map[groupKey]*group)
	for _, r := range rows {
		if r.Elevation == nil || r.Date == nil {
			continue
		}
		k := groupKey{well: r.WellID, year: r.Year, month: r.Month, meta: metadataKey(r.Metadata)}
		g, ok := groups[k]
		if !ok {
			g = &group{row: AggregateRow{WellID: r.WellID, Year: r.Year, Month: r.Month, Metadata: r.Metadata}}
			groups[k] = g
		}
		g.values = append(g.values, *r.Elevation)
	}

	out := make([]AggregateRow, 0, len(groups))
	for k, g := range groups {
		values, err := summarize(g.values, sel)
		if err != nil {
			return nil, fmt.Errorf("aggregate %s %04d-%02d: %w", k.well, k.year, k.month, err)
		}
		g.row.Values = values
		out = append(out, g.row)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.WellID != b.WellID {
			return a.WellID < b.WellID
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return metadataKey(a.Metadata) < metadataKey(b.Metadata)
	})
	return out, nil
}

func summarize(values stats.Float64Data, sel Statistics) (map[Statistic]float64, error) {
	out := make(map[Statistic]float64, len(sel))
	for _, s := range sel {
		var (
			v   float64
			err error
		)
		switch s {
		case StatMean:
			v, err = stats.Mean(values)
		case StatMin:
			v, err = stats.Min(values)
		case StatMax:
			v, err = stats.Max(values)
		default:
			err = &UnknownStatisticError{Name: string(s)}
		}
		if err != nil {
			return nil, err
		}
		out[s] = v
	}
	return out, nil
}

// metadataKey encodes metadata values, keeping their types apart so that the
// string "1" and the number 1 do not share a group. Nulls form their own group.
func metadataKey(meta []any) string {
	if len(meta) == 0 {
		return ""
	}
	var b strings.Builder
	for i, v := range meta {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		if v == nil {
			b.WriteString("<nil>")
			continue
		}
		fmt.Fprintf(&b, "%T:%v", v, v)
	}
	return b.String()
}
