package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingField matches any [MissingFieldError] via errors.Is.
var ErrMissingField = errors.New("required field missing")

// MissingFieldError names the required fields a measurement table lacks.
type MissingFieldError struct {
	Variant Variant
	Fields  []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: required field(s) missing: %s", e.Variant, strings.Join(e.Fields, ", "))
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// ResolvedFields holds the physical column names the derivation reads.
type ResolvedFields struct {
	ReferenceElevation string
	WaterLevel         string
	Timestamp          string
}

// ResolveFields picks the columns of columns that hold the reference elevation,
// the water level and the timestamp for spec. Aliases are tried in order, so an
// accented spelling wins over its ASCII fold. All missing fields are reported
// together.
func ResolveFields(spec VariantSpec, columns []string) (ResolvedFields, error) {
	present := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		present[c] = struct{}{}
	}

	var missing []string
	var out ResolvedFields

	if _, ok := present[spec.ReferenceElevation]; ok {
		out.ReferenceElevation = spec.ReferenceElevation
	} else {
		missing = append(missing, spec.ReferenceElevation)
	}

	if name, ok := firstPresent(present, spec.WaterLevel.Names); ok {
		out.WaterLevel = name
	} else {
		missing = append(missing, spec.WaterLevel.Field)
	}

	if name, ok := firstPresent(present, spec.Timestamp.Names); ok {
		out.Timestamp = name
	} else {
		missing = append(missing, spec.Timestamp.Field)
	}

	if len(missing) > 0 {
		return ResolvedFields{}, &MissingFieldError{Variant: spec.Variant, Fields: missing}
	}
	return out, nil
}

func firstPresent(present map[string]struct{}, names []string) (string, bool) {
	for _, n := range names {
		if _, ok := present[n]; ok {
			return n, true
		}
	}
	return "", false
}
