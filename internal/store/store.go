// Package store is the durable entity store: one repository per entity type,
// auto-increment identifiers, lookups by id and natural key, and the filtered
// list queries the HTTP layer serves. Single-entity operations are atomic;
// cross-entity flows (sales, deliveries) are sequenced by the inventory
// service inside its own transactions.
package store

import (
	"github.com/jmoiron/sqlx"
)

type Store struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for components that manage their own
// transactions.
func (s *Store) DB() *sqlx.DB {
	return s.db
}
