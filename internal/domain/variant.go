package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Variant names a well category by its store table.
type Variant string

const (
	Shallow Variant = "talajviz_table"
	Deep    Variant = "melyviz_table"
)

// WellIDField is the well identifier column shared by measurements and catalogs.
const WellIDField = "Rendszam"

// DefaultDeepCatalogURL is the published deep-well location catalog.
const DefaultDeepCatalogURL = "https://raw.githubusercontent.com/hawkarabdulhaq/watertable/main/input/deep.csv"

// ErrUnknownVariant is returned for a variant name outside [Variants].
var ErrUnknownVariant = errors.New("unknown variant")

// FieldAlias is a required logical field with its column spellings in order of preference.
type FieldAlias struct {
	Field string
	Names []string
}

// MetadataSource configures catalog enrichment for a variant. Fields is the
// whitelist in output order and never includes Key.
type MetadataSource struct {
	URL    string
	Key    string
	Fields []string
}

// Enabled reports whether the variant is enriched at all.
func (m MetadataSource) Enabled() bool {
	return m.URL != "" && len(m.Fields) > 0
}

// VariantSpec is the declarative schema of one measurement table.
type VariantSpec struct {
	Variant            Variant
	ReferenceElevation string
	WaterLevel         FieldAlias
	Timestamp          FieldAlias
	Metadata           MetadataSource
}

// Variants maps each variant to its schema.
type Variants map[Variant]VariantSpec

// Lookup returns the schema for v or ErrUnknownVariant.
func (vs Variants) Lookup(v Variant) (VariantSpec, error) {
	spec, ok := vs[v]
	if !ok {
		return VariantSpec{}, fmt.Errorf("%w: %q", ErrUnknownVariant, v)
	}
	return spec, nil
}

// Names returns the configured variants in a stable order.
func (vs Variants) Names() []Variant {
	out := make([]Variant, 0, len(vs))
	for _, v := range []Variant{Shallow, Deep} {
		if _, ok := vs[v]; ok {
			out = append(out, v)
		}
	}
	return out
}

// DefaultVariants returns the schemas of the two well tables. Only deep wells
// are enriched by default; the shallow catalog has no published source.
func DefaultVariants() Variants {
	waterLevel := FieldAlias{Field: "Talajvízállás", Names: accentAliases("Talajvízállás")}
	timestamp := FieldAlias{Field: "Datum", Names: accentAliases("Dátum")}

	return Variants{
		Shallow: {
			Variant:            Shallow,
			ReferenceElevation: "vFkAllomas_TalajvizkutKutperemmag",
			WaterLevel:         waterLevel,
			Timestamp:          timestamp,
			Metadata:           MetadataSource{Key: WellIDField},
		},
		Deep: {
			Variant:            Deep,
			ReferenceElevation: "vFaAllomas_RetegvizkutKutperemmag",
			WaterLevel:         waterLevel,
			Timestamp:          timestamp,
			Metadata: MetadataSource{
				URL:    DefaultDeepCatalogURL,
				Key:    WellIDField,
				Fields: []string{"VMOEov_EOVx", "VMOEov_EOVy"},
			},
		},
	}
}

// ParseVariant accepts a table name or its short forms ("talajviz", "shallow",
// "melyviz", "deep"), case-insensitively and with or without accents.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(FoldAccents(strings.TrimSpace(s))) {
	case "talajviz_table", "talajviz", "shallow":
		return Shallow, nil
	case "melyviz_table", "melyviz", "deep":
		return Deep, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
}

// FoldAccents strips combining marks, e.g. "Talajvízállás" → "Talajvizallas".
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// accentAliases returns name followed by its ASCII fold when they differ.
func accentAliases(name string) []string {
	folded := FoldAccents(name)
	if folded == name {
		return []string{name}
	}
	return []string{name, folded}
}
