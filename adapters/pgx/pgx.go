// Package pgx stores documents as JSONB rows in PostgreSQL.
//
// Every document lives in one documents table keyed by (collection, id).
// Bodies are canonical extended JSON, so strings stay plain JSON strings and
// timestamps keep their native type through a round trip.
package pgx

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lborres/docauth/store"
)

type Adapter struct {
	pool   *pgxpool.Pool
	schema store.Schema
}

var (
	_ store.Store   = (*Adapter)(nil)
	_ store.Sweeper = (*Adapter)(nil)
)

// New wraps a connection pool. indexes must match the unique indexes created
// by the migrations.
func New(pool *pgxpool.Pool, indexes ...store.Index) *Adapter {
	return &Adapter{
		pool:   pool,
		schema: store.NewSchema(indexes...),
	}
}
