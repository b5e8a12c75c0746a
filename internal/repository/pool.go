package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Pool hands out request-scoped task stores, each bound to one connection
// checked out of the underlying *sql.DB.
type Pool struct {
	db      *sql.DB
	dialect dialect
}

func NewPool(db *sql.DB, driver string) (*Pool, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &Pool{db: db, dialect: d}, nil
}

// Acquire checks out a connection and returns a store bound to it. The
// release func returns the connection to the pool and must be called once
// the caller is done, on every path.
func (p *Pool) Acquire(ctx context.Context) (TaskStore, func(), error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire connection: %w", err)
	}

	store := &TaskRepository{db: conn, dialect: p.dialect}
	release := func() {
		_ = conn.Close()
	}
	return store, release, nil
}

func (p *Pool) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}
