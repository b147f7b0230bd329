package domain

import (
	"fmt"
	"strings"
)

// MetadataFetchError reports that a catalog could not be retrieved. It is
// recoverable: the run continues without metadata columns.
type MetadataFetchError struct {
	URL string
	Err error
}

func (e *MetadataFetchError) Error() string {
	return fmt.Sprintf("fetch metadata catalog %s: %v", e.URL, e.Err)
}

func (e *MetadataFetchError) Unwrap() error { return e.Err }

// Catalog is per-well reference metadata, unique on Key.
type Catalog struct {
	Key     string
	Columns []string // excludes Key

	records map[string]Row
	ids     []string
}

// NewCatalog indexes t by key. The first record seen for an identifier wins and
// records without an identifier are skipped. Numeric-looking strings become
// float64 and empty strings become null, so catalog coordinates export as numbers.
func NewCatalog(key string, t Table) *Catalog {
	c := &Catalog{
		Key:     key,
		records: make(map[string]Row, len(t.Rows)),
	}
	for _, col := range t.Columns {
		if col != key {
			c.Columns = append(c.Columns, col)
		}
	}
	for _, r := range t.Rows {
		id := wellID(r[key])
		if id == "" {
			continue
		}
		if _, seen := c.records[id]; seen {
			continue
		}
		rec := make(Row, len(c.Columns))
		for _, col := range c.Columns {
			rec[col] = catalogValue(r[col])
		}
		c.records[id] = rec
		c.ids = append(c.ids, id)
	}
	return c
}

// Len returns the number of distinct identifiers.
func (c *Catalog) Len() int { return len(c.ids) }

// Lookup returns the record for a well identifier.
func (c *Catalog) Lookup(id string) (Row, bool) {
	r, ok := c.records[id]
	return r, ok
}

// Project restricts the catalog to fields, in the order given. Fields the
// catalog does not carry are left out. Records are shared with c.
func (c *Catalog) Project(fields []string) *Catalog {
	have := make(map[string]struct{}, len(c.Columns))
	for _, col := range c.Columns {
		have[col] = struct{}{}
	}
	p := &Catalog{Key: c.Key, records: c.records, ids: c.ids}
	for _, f := range fields {
		if _, ok := have[f]; ok && f != c.Key {
			p.Columns = append(p.Columns, f)
		}
	}
	return p
}

// MergeResult describes what a metadata join contributed.
type MergeResult struct {
	Added     []string // catalog columns appended to the table, in catalog order
	Dropped   []string // catalog columns skipped because the table already has them
	Matched   int      // rows whose well was found in the catalog
	Unmatched int
}

// MergeMetadata left-joins c onto t by well identifier. Catalog columns that t
// already has are dropped from the join, so measurement values are never
// overwritten and no duplicate column names appear. The result has exactly
// len(t.Rows) rows; unmatched wells carry nulls. A nil catalog returns t as is.
func MergeMetadata(t Table, c *Catalog) (Table, MergeResult) {
	var res MergeResult
	if c == nil || len(c.Columns) == 0 {
		return t, res
	}

	for _, col := range c.Columns {
		if t.HasColumn(col) {
			res.Dropped = append(res.Dropped, col)
			continue
		}
		res.Added = append(res.Added, col)
	}
	if len(res.Added) == 0 {
		return t, res
	}

	out := Table{
		Columns: append(append(make([]string, 0, len(t.Columns)+len(res.Added)), t.Columns...), res.Added...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		row := make(Row, len(r)+len(res.Added))
		for k, v := range r {
			row[k] = v
		}
		meta, ok := c.Lookup(wellID(r[c.Key]))
		if ok {
			res.Matched++
		} else {
			res.Unmatched++
		}
		for _, col := range res.Added {
			if ok {
				row[col] = meta[col]
			} else {
				row[col] = nil
			}
		}
		out.Rows[i] = row
	}
	return out, res
}

// MetadataKeys returns the whitelisted fields t carries, in whitelist order.
// A field the measurement table already had counts, so its own values are
// grouped and pivoted on in place of the catalog's.
func MetadataKeys(t Table, fields []string) []string {
	var keys []string
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup || f == WellIDField || !t.HasColumn(f) {
			continue
		}
		seen[f] = struct{}{}
		keys = append(keys, f)
	}
	return keys
}

func catalogValue(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, ok := parseNumberString(s); ok {
		return f
	}
	return s
}
