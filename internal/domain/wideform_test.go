package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBin_Token(t *testing.T) {
	assert.Equal(t, "2021_01", Bin{Year: 2021, Month: 1}.Token())
	assert.Equal(t, "2021_12_max", WideColumn{Bin: Bin{Year: 2021, Month: 12}, Statistic: StatMax}.Name())
}

func TestBuildWideForm(t *testing.T) {
	rows := []DerivedRow{
		obs("W2", 2021, 2, 1, 4, 651000.0, nil),
		obs("W1", 2021, 1, 15, 8, 650000.0, 240000.0),
		obs("W1", 2021, 1, 20, 7, 650000.0, 240000.0),
		obs("W1", 2020, 11, 3, 9, 650000.0, 240000.0),
	}

	wt, err := BuildWideForm(rows, Statistics{StatMean, StatMax}, []string{"VMOEov_EOVx", "VMOEov_EOVy"})
	require.NoError(t, err)

	wantHeader := []string{
		WellIDField, "VMOEov_EOVx", "VMOEov_EOVy",
		"2020_11_mean", "2020_11_max",
		"2021_01_mean", "2021_01_max",
		"2021_02_mean", "2021_02_max",
	}
	if diff := cmp.Diff(wantHeader, wt.Header()); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}

	f := wt.Frame()
	require.Len(t, f.Rows, 2)
	assert.Equal(t, []any{"W1", 650000.0, 240000.0, 9.0, 9.0, 7.5, 8.0, nil, nil}, f.Rows[0])
	assert.Equal(t, []any{"W2", 651000.0, nil, nil, nil, nil, nil, 4.0, 4.0}, f.Rows[1])
}

func TestBuildWideForm_MissingMonthIsNullNotZero(t *testing.T) {
	rows := []DerivedRow{
		obs("W1", 2021, 1, 1, 0),
		obs("W2", 2021, 2, 1, 3),
	}

	wt, err := BuildWideForm(rows, Statistics{StatMin}, nil)
	require.NoError(t, err)

	require.Len(t, wt.Rows, 2)
	require.NotNil(t, wt.Rows[0].Cells[0], "a real zero stays a value")
	assert.Zero(t, *wt.Rows[0].Cells[0])
	assert.Nil(t, wt.Rows[0].Cells[1])
	assert.Nil(t, wt.Rows[1].Cells[0])
}

func TestBuildWideForm_LexicographicTokens(t *testing.T) {
	rows := []DerivedRow{
		obs("W1", 2021, 10, 1, 1),
		obs("W1", 2021, 9, 1, 1),
		obs("W1", 2019, 12, 1, 1),
	}

	wt, err := BuildWideForm(rows, Statistics{StatMean}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{WellIDField, "2019_12_mean", "2021_09_mean", "2021_10_mean"}, wt.Header())
}

func TestBuildWideForm_WellComplete(t *testing.T) {
	rows := []DerivedRow{
		obs("W3", 2021, 1, 1, 1),
		obs("W1", 2021, 5, 1, 1),
		obs("W2", 2022, 1, 1, 1),
		obs("W1", 2021, 6, 1, 1),
	}

	wt, err := BuildWideForm(rows, Statistics{StatMean}, nil)
	require.NoError(t, err)

	var wells []string
	for _, r := range wt.Rows {
		wells = append(wells, r.WellID)
	}
	assert.Equal(t, []string{"W1", "W2", "W3"}, wells)
}

func TestBuildWideForm_Deterministic(t *testing.T) {
	rows := []DerivedRow{
		obs("B", 2021, 3, 1, 1),
		obs("A", 2021, 1, 1, 2),
		obs("C", 2020, 7, 1, 3),
		obs("A", 2021, 3, 9, 4),
	}
	sel := Statistics{StatMean, StatMin, StatMax}

	first, err := BuildWideForm(rows, sel, nil)
	require.NoError(t, err)
	for range 10 {
		again, err := BuildWideForm(rows, sel, nil)
		require.NoError(t, err)
		assert.Equal(t, first.Header(), again.Header())
		assert.Equal(t, first.Frame().Fingerprint(), again.Frame().Fingerprint())
	}
}

func TestBuildWideForm_EmptyStatistics(t *testing.T) {
	_, err := BuildWideForm([]DerivedRow{obs("W1", 2021, 1, 1, 1)}, Statistics{}, nil)
	require.ErrorIs(t, err, ErrEmptyStatisticSelection)
}
