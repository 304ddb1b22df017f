// Package database defines the generic per-entity persistence port.
//
// A Repository exposes the same operation set for every entity type.
// Predicates are squirrel expressions so the postgres adapter can render
// them to SQL and the memory adapter can evaluate them directly.
package database

import (
	"context"

	sq "github.com/Masterminds/squirrel"
)

// TenantColumn is the foreign key carried by every tenant-owned table.
const TenantColumn = "tenant_id"

// Record is a column-name keyed payload for Create and Update.
type Record map[string]any

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Query describes a read. A nil Where matches every row.
type Query struct {
	Where   sq.Sqlizer
	OrderBy []string
	Limit   uint64
	Offset  uint64
}

// AggregateFunc is a SQL aggregate function name.
type AggregateFunc string

const (
	Sum AggregateFunc = "SUM"
	Avg AggregateFunc = "AVG"
	Min AggregateFunc = "MIN"
	Max AggregateFunc = "MAX"
)

// Aggregation selects a function over a numeric column.
type Aggregation struct {
	Func   AggregateFunc
	Column string
}

// TenantOwned is implemented by every entity type that carries a tenant_id.
type TenantOwned interface {
	OwningTenant() string
}

// Repository is the persistence capability for one entity type.
//
// FindFirst and FindUnique return domain.ErrNotFound when nothing matches.
// Update and Delete return the number of affected rows.
type Repository[T any] interface {
	FindMany(ctx context.Context, q Query) ([]T, error)
	FindFirst(ctx context.Context, q Query) (*T, error)
	FindUnique(ctx context.Context, key sq.Eq) (*T, error)
	Create(ctx context.Context, data Record) (*T, error)
	Update(ctx context.Context, where sq.Sqlizer, data Record) (int64, error)
	Delete(ctx context.Context, where sq.Sqlizer) (int64, error)
	Count(ctx context.Context, where sq.Sqlizer) (int64, error)
	Aggregate(ctx context.Context, where sq.Sqlizer, agg Aggregation) (float64, error)
}

// TxRunner runs fn inside a single transaction. Repository calls made with
// the context passed to fn join that transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
