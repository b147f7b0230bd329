package store

import (
	"fmt"
	"regexp"
	"strings"
)

// dialect captures the per-driver SQL differences the store relies on.
type dialect struct {
	driverName string
	listTables string
	quote      func(string) string
}

var dialects = map[string]dialect{
	"mysql": {
		driverName: "mysql",
		listTables: "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE' ORDER BY table_name",
		quote:      func(s string) string { return "`" + s + "`" },
	},
	"postgres": {
		driverName: "pgx",
		listTables: "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_type = 'BASE TABLE' ORDER BY table_name",
		quote:      func(s string) string { return `"` + s + `"` },
	},
	"sqlite": {
		driverName: "sqlite",
		listTables: "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name",
		quote:      func(s string) string { return `"` + s + `"` },
	},
	"sqlserver": {
		driverName: "sqlserver",
		listTables: "SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME",
		quote:      func(s string) string { return "[" + s + "]" },
	},
}

func lookupDialect(driver string) (dialect, error) {
	d, ok := dialects[strings.ToLower(driver)]
	if !ok {
		return dialect{}, fmt.Errorf("store: unsupported driver %q", driver)
	}
	return d, nil
}

// Table names are interpolated into SQL, so only plain identifiers are accepted.
var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validTableName(name string) bool {
	return len(name) <= 128 && tableNamePattern.MatchString(name)
}
