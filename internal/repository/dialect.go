package repository

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DriverSQLite    = "sqlite"
	DriverSQLiteCgo = "sqlite3"
	DriverPostgres  = "postgres"
)

// dialect holds the few places where the supported engines disagree.
type dialect struct {
	name       string
	schema     string
	numbered   bool // $1, $2 placeholders instead of ?
	singleConn bool
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    is_completed BOOLEAN NOT NULL DEFAULT 0
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS tasks (
    id BIGSERIAL PRIMARY KEY,
    title TEXT NOT NULL,
    is_completed BOOLEAN NOT NULL DEFAULT FALSE
);
`

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite, DriverSQLiteCgo:
		return dialect{name: driver, schema: sqliteSchema, singleConn: true}, nil
	case DriverPostgres:
		return dialect{name: driver, schema: postgresSchema, numbered: true}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// SupportedDrivers lists the driver names accepted by InitDB.
func SupportedDrivers() []string {
	return []string{DriverSQLite, DriverSQLiteCgo, DriverPostgres}
}

// rebind rewrites ? placeholders for engines that number their parameters.
// Queries in this package never carry a literal question mark.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
