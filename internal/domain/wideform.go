package domain

import (
	"fmt"
	"sort"
)

// Bin is a calendar month.
type Bin struct {
	Year  int
	Month int
}

// Token renders the bin as "<year>_<MM>".
func (b Bin) Token() string {
	return fmt.Sprintf("%d_%02d", b.Year, b.Month)
}

// WideColumn is one statistic of one month. It stays structured through the
// pivot and is only rendered to a name in [WideTable.Frame].
type WideColumn struct {
	Bin       Bin
	Statistic Statistic
}

// Name renders the column as "<year>_<MM>_<stat>".
func (c WideColumn) Name() string {
	return c.Bin.Token() + "_" + string(c.Statistic)
}

// WideRow is one well. Cells line up with [WideTable.Columns]; nil means the
// well has no observation that month.
type WideRow struct {
	WellID   string
	Metadata []any
	Cells    []*float64
}

// WideTable is the export table.
type WideTable struct {
	MetadataKeys []string
	Statistics   Statistics
	Columns      []WideColumn
	Rows         []WideRow
}

type wellBin struct {
	well string
	bin  Bin
}

// BuildWideForm pivots all rows into one row per well. Every well present in
// rows appears exactly once, sorted by identifier; wells known only to the
// catalog never do. Columns are every month seen anywhere, ordered by token,
// each followed by sel in mean, min, max order. Metadata comes from the first
// row of each well.
func BuildWideForm(rows []DerivedRow, sel Statistics, metaKeys []string) (WideTable, error) {
	if len(sel) == 0 {
		return WideTable{}, ErrEmptyStatisticSelection
	}

	meta := make(map[string][]any)
	stripped := make([]DerivedRow, len(rows))
	for i, r := range rows {
		if _, ok := meta[r.WellID]; !ok {
			meta[r.WellID] = r.Metadata
		}
		r.Metadata = nil
		stripped[i] = r
	}

	aggs, err := Aggregate(stripped, sel)
	if err != nil {
		return WideTable{}, err
	}

	cells := make(map[wellBin]map[Statistic]float64, len(aggs))
	bins := make(map[Bin]struct{})
	var wells []string
	seenWell := make(map[string]struct{})
	for _, a := range aggs {
		b := Bin{Year: a.Year, Month: a.Month}
		cells[wellBin{well: a.WellID, bin: b}] = a.Values
		bins[b] = struct{}{}
		if _, ok := seenWell[a.WellID]; !ok {
			seenWell[a.WellID] = struct{}{}
			wells = append(wells, a.WellID)
		}
	}
	sort.Strings(wells)

	ordered := make([]Bin, 0, len(bins))
	for b := range bins {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Token() < ordered[j].Token() })

	out := WideTable{MetadataKeys: metaKeys, Statistics: sel}
	for _, b := range ordered {
		for _, s := range sel {
			out.Columns = append(out.Columns, WideColumn{Bin: b, Statistic: s})
		}
	}

	out.Rows = make([]WideRow, len(wells))
	for i, w := range wells {
		row := WideRow{WellID: w, Metadata: meta[w], Cells: make([]*float64, len(out.Columns))}
		for j, c := range out.Columns {
			values, ok := cells[wellBin{well: w, bin: c.Bin}]
			if !ok {
				continue
			}
			v := values[c.Statistic]
			row.Cells[j] = &v
		}
		out.Rows[i] = row
	}
	return out, nil
}

// Header returns the flat column names: identifier, metadata, month columns.
func (t WideTable) Header() []string {
	h := make([]string, 0, 1+len(t.MetadataKeys)+len(t.Columns))
	h = append(h, WellIDField)
	h = append(h, t.MetadataKeys...)
	for _, c := range t.Columns {
		h = append(h, c.Name())
	}
	return h
}

// Frame renders the table in [WideTable.Header] order.
func (t WideTable) Frame() Frame {
	f := Frame{Columns: t.Header(), Rows: make([][]any, len(t.Rows))}
	for i, r := range t.Rows {
		rec := make([]any, 0, len(f.Columns))
		rec = append(rec, r.WellID)
		for j := range t.MetadataKeys {
			rec = append(rec, metadataAt(r.Metadata, j))
		}
		for _, c := range r.Cells {
			if c == nil {
				rec = append(rec, nil)
				continue
			}
			rec = append(rec, *c)
		}
		f.Rows[i] = rec
	}
	return f
}
