package sheet

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/groundwater-monthly/internal/domain"
)

func TestWriteCSV(t *testing.T) {
	f := domain.Frame{
		Columns: []string{"Rendszam", "VMOEov_EOVx", "2021_01_mean", "2021_02_mean"},
		Rows: [][]any{
			{"W1", 650000.0, 7.5, nil},
			{"W, 2", nil, nil, 8.25},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, f))

	want := "Rendszam,VMOEov_EOVx,2021_01_mean,2021_02_mean\n" +
		"W1,650000,7.5,\n" +
		"\"W, 2\",,,8.25\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_LongFrameDates(t *testing.T) {
	f := domain.Frame{
		Columns: []string{"Rendszam", "Year", "Month", "date", "mean"},
		Rows:    [][]any{{"W1", 2021, 1, time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC), 7.5}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, f))
	assert.Contains(t, buf.String(), "W1,2021,1,2021-01-01,7.5\n")
}

func TestWriteCSV_ShortRow(t *testing.T) {
	f := domain.Frame{Columns: []string{"a", "b"}, Rows: [][]any{{"x"}}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, f))
	assert.Equal(t, "a,b\nx,\n", buf.String())
}

func TestFileName(t *testing.T) {
	sel := domain.Statistics{domain.StatMean, domain.StatMax}
	assert.Equal(t, "monthly_mean_max_melyviz_table.csv", FileName(domain.Deep, sel))
	assert.Equal(t, "monthly_min_talajviz_table.csv", FileName(domain.Shallow, domain.Statistics{domain.StatMin}))
}
