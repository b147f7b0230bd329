package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	shallowRef = "vFkAllomas_TalajvizkutKutperemmag"
	deepRef    = "vFaAllomas_RetegvizkutKutperemmag"
)

func TestResolveFields(t *testing.T) {
	vs := DefaultVariants()

	tests := []struct {
		name    string
		variant Variant
		columns []string
		want    ResolvedFields
	}{
		{
			name:    "shallow ascii columns",
			variant: Shallow,
			columns: []string{WellIDField, "Datum", shallowRef, "Talajvizallas"},
			want:    ResolvedFields{ReferenceElevation: shallowRef, WaterLevel: "Talajvizallas", Timestamp: "Datum"},
		},
		{
			name:    "accented water level wins over ascii",
			variant: Shallow,
			columns: []string{WellIDField, "Datum", shallowRef, "Talajvizallas", "Talajvízállás"},
			want:    ResolvedFields{ReferenceElevation: shallowRef, WaterLevel: "Talajvízállás", Timestamp: "Datum"},
		},
		{
			name:    "deep accented columns",
			variant: Deep,
			columns: []string{WellIDField, "Dátum", deepRef, "Talajvízállás"},
			want:    ResolvedFields{ReferenceElevation: deepRef, WaterLevel: "Talajvízállás", Timestamp: "Dátum"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := vs.Lookup(tt.variant)
			require.NoError(t, err)

			got, err := ResolveFields(spec, tt.columns)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveFields_AccentedPriorityForEveryVariant(t *testing.T) {
	for _, spec := range DefaultVariants() {
		cols := []string{"Talajvizallas", "Talajvízállás", spec.ReferenceElevation, "Datum"}
		got, err := ResolveFields(spec, cols)
		require.NoError(t, err)
		assert.Equal(t, "Talajvízállás", got.WaterLevel, string(spec.Variant))
	}
}

func TestResolveFields_Missing(t *testing.T) {
	vs := DefaultVariants()
	shallow, _ := vs.Lookup(Shallow)

	t.Run("no water level", func(t *testing.T) {
		_, err := ResolveFields(shallow, []string{WellIDField, "Datum", shallowRef})
		require.ErrorIs(t, err, ErrMissingField)

		var mfe *MissingFieldError
		require.True(t, errors.As(err, &mfe))
		assert.Equal(t, Shallow, mfe.Variant)
		assert.Equal(t, []string{"Talajvízállás"}, mfe.Fields)
		assert.Contains(t, err.Error(), "Talajvízállás")
	})

	t.Run("reference elevation has no fallback", func(t *testing.T) {
		// The deep column name is not accepted for the shallow table.
		_, err := ResolveFields(shallow, []string{WellIDField, "Datum", deepRef, "Talajvizallas"})

		var mfe *MissingFieldError
		require.ErrorAs(t, err, &mfe)
		assert.Equal(t, []string{shallowRef}, mfe.Fields)
	})

	t.Run("everything missing is reported at once", func(t *testing.T) {
		_, err := ResolveFields(shallow, []string{WellIDField})

		var mfe *MissingFieldError
		require.ErrorAs(t, err, &mfe)
		assert.Equal(t, []string{shallowRef, "Talajvízállás", "Datum"}, mfe.Fields)
	})
}
