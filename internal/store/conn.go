// Package store holds the shared database handle. The handle starts empty and
// is filled once the background connect in app.Bootstrap succeeds; callers
// get ErrUnavailable until then.
package store

import (
	"database/sql"
	"errors"
	"sync/atomic"
)

var ErrUnavailable = errors.New("store: connection not established")

type Conn struct {
	db atomic.Pointer[sql.DB]
}

func NewConn() *Conn {
	return &Conn{}
}

// NewConnWithDB returns a handle that is already connected.
func NewConnWithDB(db *sql.DB) *Conn {
	c := &Conn{}
	c.Set(db)
	return c
}

func (c *Conn) Set(db *sql.DB) {
	c.db.Store(db)
}

// DB returns the live handle or ErrUnavailable.
func (c *Conn) DB() (*sql.DB, error) {
	if db := c.db.Load(); db != nil {
		return db, nil
	}
	return nil, ErrUnavailable
}

func (c *Conn) Ready() bool {
	return c.db.Load() != nil
}

func (c *Conn) Close() error {
	if db := c.db.Swap(nil); db != nil {
		return db.Close()
	}
	return nil
}
