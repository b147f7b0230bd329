// Package store reads measurement tables from a relational database through
// database/sql. MySQL, PostgreSQL, SQLite and SQL Server are supported.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"  // driver "mysql"
	_ "github.com/jackc/pgx/v5/stdlib"  // driver "pgx"
	_ "github.com/microsoft/go-mssqldb" // driver "sqlserver"
	_ "modernc.org/sqlite"              // driver "sqlite"

	"github.com/couchcryptid/groundwater-monthly/internal/domain"
)

// ErrInvalidTableName is returned for table names that are not plain identifiers.
var ErrInvalidTableName = errors.New("invalid table name")

// Store is a read-only view over the measurement database.
type Store struct {
	db      *sql.DB
	dialect dialect
	logger  *slog.Logger
}

// Open connects to the database and verifies the connection with a ping.
// driver is one of mysql, postgres, sqlite or sqlserver.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*Store, error) {
	d, err := lookupDialect(driver)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("store: DSN must not be empty")
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if d.driverName == "sqlite" {
		// An in-memory database exists per connection.
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	return &Store{db: db, dialect: d, logger: logger}, nil
}

// LoadTable reads every row of the named table. Column order follows the
// result set. Byte slices are returned as strings and SQL NULL as nil.
func (s *Store) LoadTable(ctx context.Context, table string) (domain.Table, error) {
	if !validTableName(table) {
		return domain.Table{}, fmt.Errorf("%w: %q", ErrInvalidTableName, table)
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+s.dialect.quote(table))
	if err != nil {
		return domain.Table{}, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return domain.Table{}, fmt.Errorf("columns %s: %w", table, err)
	}

	t := domain.Table{Columns: cols}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return domain.Table{}, fmt.Errorf("scan %s: %w", table, err)
		}
		row := make(domain.Row, len(cols))
		for i, col := range cols {
			row[col] = normalize(values[i])
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return domain.Table{}, fmt.Errorf("read %s: %w", table, err)
	}

	s.logger.Debug("table loaded", "table", table, "rows", len(t.Rows), "duration", time.Since(start))
	return t, nil
}

// ListTables returns the base tables visible to the connection, sorted by name.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.listTables)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func normalize(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	default:
		return v
	}
}
