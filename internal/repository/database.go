package repository

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func InitDB(driver, dsn string) (*sql.DB, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite keeps one connection: ":memory:" databases live per connection
	// and concurrent writers would otherwise fight over the file lock.
	if d.singleConn {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := createTables(db, d); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createTables(db *sql.DB, d dialect) error {
	if _, err := db.Exec(d.schema); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	return nil
}
