package postgres

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/PropDesk/internal/domain"
	"github.com/Strob0t/PropDesk/internal/port/database"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Table implements database.Repository[T] for one postgres table. Rows are
// scanned by db tag name, so the select list is always T's columns.
type Table[T any] struct {
	pool    *pgxpool.Pool
	name    string
	cols    []string
	allowed map[string]bool
}

var _ database.Repository[struct{}] = (*Table[struct{}])(nil)

// NewTable creates a repository over table name for entity type T.
func NewTable[T any](pool *pgxpool.Pool, name string) *Table[T] {
	cols := database.ColumnNames[T]()
	allowed := make(map[string]bool, len(cols))
	for _, c := range cols {
		allowed[c] = true
	}
	return &Table[T]{pool: pool, name: name, cols: cols, allowed: allowed}
}

func (t *Table[T]) db(ctx context.Context) querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return t.pool
}

// FindMany returns all rows matching q.
func (t *Table[T]) FindMany(ctx context.Context, q database.Query) ([]T, error) {
	b := psql.Select(t.cols...).From(t.name)
	if q.Where != nil {
		b = b.Where(q.Where)
	}
	order, err := t.orderBy(q.OrderBy)
	if err != nil {
		return nil, err
	}
	if len(order) > 0 {
		b = b.OrderBy(order...)
	}
	if q.Limit > 0 {
		b = b.Limit(q.Limit)
	}
	if q.Offset > 0 {
		b = b.Offset(q.Offset)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build select: %w", t.name, err)
	}
	rows, err := t.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "%s: select", t.name)
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, mapError(err, "%s: scan", t.name)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// FindFirst returns the first row matching q or domain.ErrNotFound.
func (t *Table[T]) FindFirst(ctx context.Context, q database.Query) (*T, error) {
	q.Limit = 1
	items, err := t.FindMany(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s: %w", t.name, domain.ErrNotFound)
	}
	return &items[0], nil
}

// FindUnique looks up a row by a unique key.
func (t *Table[T]) FindUnique(ctx context.Context, key sq.Eq) (*T, error) {
	return t.FindFirst(ctx, database.Query{Where: key})
}

// Create inserts data and returns the stored row, including defaults.
func (t *Table[T]) Create(ctx context.Context, data database.Record) (*T, error) {
	if err := t.checkColumns(data); err != nil {
		return nil, err
	}
	query, args, err := psql.Insert(t.name).
		SetMap(data).
		Suffix("RETURNING " + strings.Join(t.cols, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build insert: %w", t.name, err)
	}
	rows, err := t.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "%s: insert", t.name)
	}
	item, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, mapError(err, "%s: insert", t.name)
	}
	return &item, nil
}

// Update applies data to every row matching where and bumps updated_at.
func (t *Table[T]) Update(ctx context.Context, where sq.Sqlizer, data database.Record) (int64, error) {
	if err := t.checkColumns(data); err != nil {
		return 0, err
	}
	b := psql.Update(t.name).SetMap(data)
	if _, set := data["updated_at"]; t.allowed["updated_at"] && !set {
		b = b.Set("updated_at", sq.Expr("now()"))
	}
	if where != nil {
		b = b.Where(where)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: build update: %w", t.name, err)
	}
	tag, err := t.db(ctx).Exec(ctx, query, args...)
	if err != nil {
		return 0, mapError(err, "%s: update", t.name)
	}
	return tag.RowsAffected(), nil
}

// Delete removes every row matching where.
func (t *Table[T]) Delete(ctx context.Context, where sq.Sqlizer) (int64, error) {
	b := psql.Delete(t.name)
	if where != nil {
		b = b.Where(where)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: build delete: %w", t.name, err)
	}
	tag, err := t.db(ctx).Exec(ctx, query, args...)
	if err != nil {
		return 0, mapError(err, "%s: delete", t.name)
	}
	return tag.RowsAffected(), nil
}

// Count returns the number of rows matching where.
func (t *Table[T]) Count(ctx context.Context, where sq.Sqlizer) (int64, error) {
	b := psql.Select("COUNT(*)").From(t.name)
	if where != nil {
		b = b.Where(where)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: build count: %w", t.name, err)
	}
	var n int64
	if err := t.db(ctx).QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapError(err, "%s: count", t.name)
	}
	return n, nil
}

// Aggregate applies agg over matching rows. An empty match yields 0.
func (t *Table[T]) Aggregate(ctx context.Context, where sq.Sqlizer, agg database.Aggregation) (float64, error) {
	switch agg.Func {
	case database.Sum, database.Avg, database.Min, database.Max:
	default:
		return 0, fmt.Errorf("%s: unsupported aggregate %q", t.name, agg.Func)
	}
	if !t.allowed[agg.Column] {
		return 0, fmt.Errorf("%s: unknown column %q", t.name, agg.Column)
	}
	b := psql.Select(fmt.Sprintf("COALESCE(%s(%s), 0)::float8", agg.Func, agg.Column)).From(t.name)
	if where != nil {
		b = b.Where(where)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: build aggregate: %w", t.name, err)
	}
	var v float64
	if err := t.db(ctx).QueryRow(ctx, query, args...).Scan(&v); err != nil {
		return 0, mapError(err, "%s: aggregate", t.name)
	}
	return v, nil
}

func (t *Table[T]) checkColumns(data database.Record) error {
	for k := range data {
		if !t.allowed[k] {
			return fmt.Errorf("%s: unknown column %q", t.name, k)
		}
	}
	return nil
}

// orderBy validates "column [ASC|DESC]" terms so callers cannot inject SQL.
func (t *Table[T]) orderBy(terms []string) ([]string, error) {
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		fields := strings.Fields(term)
		if len(fields) == 0 || len(fields) > 2 || !t.allowed[fields[0]] {
			return nil, fmt.Errorf("%s: invalid order term %q", t.name, term)
		}
		dir := "ASC"
		if len(fields) == 2 {
			dir = strings.ToUpper(fields[1])
			if dir != "ASC" && dir != "DESC" {
				return nil, fmt.Errorf("%s: invalid order direction %q", t.name, fields[1])
			}
		}
		out = append(out, fields[0]+" "+dir+" NULLS LAST")
	}
	return out, nil
}
