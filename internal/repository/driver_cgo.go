//go:build cgo

package repository

// The cgo SQLite driver registers itself as "sqlite3" next to the pure Go
// "sqlite" driver.
import _ "github.com/mattn/go-sqlite3"
