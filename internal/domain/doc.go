// Package domain models monthly groundwater-well summaries.
//
// # Data Source
//
// Measurements come from two store tables, one per well category (variant):
//
//	talajviz_table  shallow wells ("talajvíz", groundwater)
//	melyviz_table   deep wells ("mélyvíz", confined aquifers)
//
// Every row carries the well identifier (Rendszam), a measurement date (Datum)
// and variant-specific numeric columns. Per-well reference metadata such as
// EOV coordinates is published separately as a CSV catalog keyed by Rendszam.
//
// # Column Conventions
//
// Column names were produced by CSV uploads that sometimes kept Hungarian
// accents and sometimes transliterated them:
//
//	"Talajvízállás"  → "Talajvizallas"   water level reading (signed, metres)
//	"Dátum"          → "Datum"           measurement date
//
// The accented spelling wins when both exist. ASCII fallbacks are derived by
// [FoldAccents] rather than written out by hand.
//
// Reference casing elevation has one fixed column per variant:
//
//	talajviz_table: vFkAllomas_TalajvizkutKutperemmag
//	melyviz_table:  vFaAllomas_RetegvizkutKutperemmag
//
// # Derived Quantity
//
//	vizkutfenekmagasag = casing elevation + water level reading
//
// Either operand being null or non-numeric makes the result null. Null results,
// unparseable dates and rows without a well identifier are dropped before
// aggregation, never imputed. See [DropCounts].
//
// # Output Shapes
//
// Long form: one row per (well, year, month) with the selected statistics,
// used for previews and plot series. Wide form: one row per well with one
// column per month and statistic, named "<year>_<MM>_<stat>", e.g. "2021_01_mean".
package domain
