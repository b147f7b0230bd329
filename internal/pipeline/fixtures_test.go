package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/groundwater-monthly/internal/adapter/catalog"
	"github.com/couchcryptid/groundwater-monthly/internal/domain"
)

const deepCatalogURL = "https://example.test/input/deep.csv"

// readFixture loads a CSV from testdata as a store or catalog table.
func readFixture(t *testing.T, name string) domain.Table {
	t.Helper()

	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	defer f.Close()

	tbl, err := catalog.ParseCSV(f)
	require.NoError(t, err)
	return tbl
}

// --- mocks ---

type mockStore struct {
	mu      sync.Mutex
	tables  map[string]domain.Table
	err     error
	pingErr error
	loads   atomic.Int32
}

func (m *mockStore) LoadTable(_ context.Context, table string) (domain.Table, error) {
	m.loads.Add(1)
	if m.err != nil {
		return domain.Table{}, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tbl, ok := m.tables[table]
	if !ok {
		return domain.Table{}, errors.New("no such table")
	}
	return tbl, nil
}

func (m *mockStore) ListTables(_ context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []string{"melyviz_table", "talajviz_table"}, nil
}

func (m *mockStore) Ping(_ context.Context) error {
	return m.pingErr
}

type mockCatalog struct {
	table domain.Table
	err   error
	calls atomic.Int32
}

func (m *mockCatalog) Fetch(_ context.Context, _ string) (domain.Table, error) {
	m.calls.Add(1)
	if m.err != nil {
		return domain.Table{}, m.err
	}
	return m.table, nil
}

func fixtureStore(t *testing.T) *mockStore {
	t.Helper()
	return &mockStore{tables: map[string]domain.Table{
		"melyviz_table":  readFixture(t, "melyviz_table.csv"),
		"talajviz_table": readFixture(t, "talajviz_table.csv"),
	}}
}

func fixtureCatalog(t *testing.T) *mockCatalog {
	t.Helper()
	return &mockCatalog{table: readFixture(t, "deep.csv")}
}

func testVariants() domain.Variants {
	vs := domain.DefaultVariants()
	deep := vs[domain.Deep]
	deep.Metadata.URL = deepCatalogURL
	vs[domain.Deep] = deep
	return vs
}
