package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// obs builds a valid derived row.
func obs(well string, year, month, day int, elev float64, meta ...any) DerivedRow {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return DerivedRow{WellID: well, Elevation: &elev, Date: &d, Year: year, Month: month, Metadata: meta}
}

func TestParseStatistics(t *testing.T) {
	t.Run("canonical order and dedupe", func(t *testing.T) {
		got, err := ParseStatistics([]string{"max", "MEAN", " max ", "min"})
		require.NoError(t, err)
		assert.Equal(t, Statistics{StatMean, StatMin, StatMax}, got)
		assert.Equal(t, []string{"mean", "min", "max"}, got.Names())
	})

	t.Run("empty selection rejected", func(t *testing.T) {
		_, err := ParseStatistics(nil)
		require.ErrorIs(t, err, ErrEmptyStatisticSelection)

		_, err = ParseStatistics([]string{"", " "})
		require.ErrorIs(t, err, ErrEmptyStatisticSelection)
	})

	t.Run("unknown statistic rejected", func(t *testing.T) {
		_, err := ParseStatistics([]string{"mean", "median"})
		var use *UnknownStatisticError
		require.ErrorAs(t, err, &use)
		assert.Equal(t, "median", use.Name)
	})
}

func TestAggregate(t *testing.T) {
	rows := []DerivedRow{
		obs("W2", 2021, 1, 3, 5),
		obs("W1", 2021, 1, 15, 8),
		obs("W1", 2021, 1, 20, 7),
		obs("W1", 2021, 2, 1, 6),
		{WellID: "W1", Year: 2021, Month: 1}, // null elevation and date, ignored
	}

	got, err := Aggregate(rows, Statistics{StatMean, StatMin, StatMax})
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "W1", got[0].WellID)
	assert.Equal(t, 1, got[0].Month)
	assert.InDelta(t, 7.5, got[0].Values[StatMean], 1e-9)
	assert.InDelta(t, 7.0, got[0].Values[StatMin], 1e-9)
	assert.InDelta(t, 8.0, got[0].Values[StatMax], 1e-9)

	assert.Equal(t, "W1", got[1].WellID)
	assert.Equal(t, 2, got[1].Month)
	assert.Equal(t, "W2", got[2].WellID)
}

func TestAggregate_OnlySelectedStatistics(t *testing.T) {
	got, err := Aggregate([]DerivedRow{obs("W1", 2021, 1, 1, 3)}, Statistics{StatMax})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, map[Statistic]float64{StatMax: 3}, got[0].Values)
}

func TestAggregate_EmptySelection(t *testing.T) {
	got, err := Aggregate([]DerivedRow{obs("W1", 2021, 1, 1, 3)}, nil)
	require.ErrorIs(t, err, ErrEmptyStatisticSelection)
	assert.Nil(t, got)
}

func TestAggregate_MetadataKeys(t *testing.T) {
	rows := []DerivedRow{
		obs("W1", 2021, 1, 1, 1, 650000.0, 240000.0),
		obs("W1", 2021, 1, 2, 3, 650000.0, 240000.0),
		obs("W2", 2021, 1, 1, 5, nil, nil),
		obs("W2", 2021, 1, 9, 7, nil, nil),
	}

	got, err := Aggregate(rows, Statistics{StatMean})
	require.NoError(t, err)
	require.Len(t, got, 2, "null metadata still forms a group")

	assert.Equal(t, []any{650000.0, 240000.0}, got[0].Metadata)
	assert.InDelta(t, 2.0, got[0].Values[StatMean], 1e-9)
	assert.Equal(t, []any{nil, nil}, got[1].Metadata)
	assert.InDelta(t, 6.0, got[1].Values[StatMean], 1e-9)
}

func TestMetadataKey_DistinguishesTypes(t *testing.T) {
	assert.NotEqual(t, metadataKey([]any{"1"}), metadataKey([]any{1.0}))
	assert.NotEqual(t, metadataKey([]any{nil}), metadataKey([]any{"<nil>"}))
	assert.Equal(t, metadataKey([]any{1.0, "a"}), metadataKey([]any{1.0, "a"}))
}
