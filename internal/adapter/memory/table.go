// Package memory implements the database.Repository port in process memory.
// It evaluates the same squirrel predicates the postgres adapter renders to
// SQL, which makes it suitable for tests and for the "memory" storage driver.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/Strob0t/PropDesk/internal/domain"
	"github.com/Strob0t/PropDesk/internal/port/database"
)

// Option configures a Table.
type Option func(*tableConfig)

type tableConfig struct {
	unique   [][]string
	defaults database.Record
	now      func() time.Time
}

// WithUnique declares a unique constraint over cols. Rows where any of the
// columns is NULL never conflict, matching postgres semantics.
func WithUnique(cols ...string) Option {
	return func(c *tableConfig) { c.unique = append(c.unique, cols) }
}

// WithDefaults sets column defaults applied on Create when the caller omits them.
func WithDefaults(d database.Record) Option {
	return func(c *tableConfig) { c.defaults = d }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *tableConfig) { c.now = now }
}

// Table is an in-memory repository for entity type T.
type Table[T any] struct {
	name string
	cfg  tableConfig
	cols map[string]bool

	mu   sync.RWMutex
	rows []database.Record
}

var _ database.Repository[struct{}] = (*Table[struct{}])(nil)

// NewTable creates an empty table named name for entity type T.
func NewTable[T any](name string, opts ...Option) *Table[T] {
	cfg := tableConfig{now: func() time.Time { return time.Now().UTC() }}
	for _, o := range opts {
		o(&cfg)
	}
	cols := make(map[string]bool)
	for _, c := range database.Columns[T]() {
		cols[c.Name] = true
	}
	return &Table[T]{name: name, cfg: cfg, cols: cols}
}

// FindMany returns all rows matching q, ordered and paginated.
func (t *Table[T]) FindMany(_ context.Context, q database.Query) ([]T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	matched, err := t.filter(q.Where)
	if err != nil {
		return nil, err
	}
	if err := sortRows(matched, q.OrderBy); err != nil {
		return nil, err
	}
	matched = paginate(matched, q.Limit, q.Offset)

	out := make([]T, 0, len(matched))
	for _, row := range matched {
		v, err := decode[T](row)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.name, err)
		}
		out = append(out, v)
	}
	return out, nil
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

// Create inserts a row and returns it as stored.
func (t *Table[T]) Create(_ context.Context, data database.Record) (*T, error) {
	row := t.cfg.defaults.Clone()
	for k, v := range data {
		if !t.cols[k] {
			return nil, fmt.Errorf("%s: unknown column %q", t.name, k)
		}
		row[k] = v
	}
	now := t.cfg.now()
	if t.cols["id"] && normalize(row["id"]) == nil {
		row["id"] = uuid.NewString()
	}
	for _, ts := range []string{"created_at", "updated_at"} {
		if t.cols[ts] && row[ts] == nil {
			row[ts] = now
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.checkUnique(row, -1); err != nil {
		return nil, err
	}
	t.rows = append(t.rows, row)

	v, err := decode[T](row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.name, err)
	}
	return &v, nil
}

// Update applies data to every row matching where.
func (t *Table[T]) Update(_ context.Context, where sq.Sqlizer, data database.Record) (int64, error) {
	for k := range data {
		if !t.cols[k] {
			return 0, fmt.Errorf("%s: unknown column %q", t.name, k)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var hits []int
	for i, row := range t.rows {
		ok, err := match(where, row)
		if err != nil {
			return 0, err
		}
		if ok {
			hits = append(hits, i)
		}
	}

	now := t.cfg.now()
	updated := make(map[int]database.Record, len(hits))
	for _, i := range hits {
		next := t.rows[i].Clone()
		for k, v := range data {
			next[k] = v
		}
		if t.cols["updated_at"] && data["updated_at"] == nil {
			next["updated_at"] = now
		}
		if err := t.checkUnique(next, i); err != nil {
			return 0, err
		}
		updated[i] = next
	}
	for i, row := range updated {
		t.rows[i] = row
	}
	return int64(len(hits)), nil
}

// Delete removes every row matching where.
func (t *Table[T]) Delete(_ context.Context, where sq.Sqlizer) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	kept := t.rows[:0:0]
	var n int64
	for _, row := range t.rows {
		ok, err := match(where, row)
		if err != nil {
			return 0, err
		}
		if ok {
			n++
			continue
		}
		kept = append(kept, row)
	}
	t.rows = kept
	return n, nil
}

// Count returns the number of rows matching where.
func (t *Table[T]) Count(_ context.Context, where sq.Sqlizer) (int64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	matched, err := t.filter(where)
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

// Aggregate computes agg over the rows matching where. Empty sets yield 0.
func (t *Table[T]) Aggregate(_ context.Context, where sq.Sqlizer, agg database.Aggregation) (float64, error) {
	if !t.cols[agg.Column] {
		return 0, fmt.Errorf("%s: unknown column %q", t.name, agg.Column)
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	matched, err := t.filter(where)
	if err != nil {
		return 0, err
	}

	var vals []float64
	for _, row := range matched {
		if f, ok := normalize(row[agg.Column]).(float64); ok {
			vals = append(vals, f)
		}
	}
	if len(vals) == 0 {
		return 0, nil
	}

	switch agg.Func {
	case database.Sum, database.Avg:
		var sum float64
		for _, v := range vals {
			sum += v
		}
		if agg.Func == database.Avg {
			return sum / float64(len(vals)), nil
		}
		return sum, nil
	case database.Min:
		return slices.Min(vals), nil
	case database.Max:
		return slices.Max(vals), nil
	default:
		return 0, fmt.Errorf("%s: unsupported aggregate %q", t.name, agg.Func)
	}
}

// Len returns the total number of stored rows.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

func (t *Table[T]) filter(where sq.Sqlizer) ([]database.Record, error) {
	var out []database.Record
	for _, row := range t.rows {
		ok, err := match(where, row)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, row)
		}
	}
	return out, nil
}

// checkUnique must be called with t.mu held. skip is the index of the row
// being replaced, or -1 on insert.
func (t *Table[T]) checkUnique(row database.Record, skip int) error {
	for _, cols := range t.cfg.unique {
		for i, other := range t.rows {
			if i == skip {
				continue
			}
			if sameKey(cols, row, other) {
				return fmt.Errorf("%s: duplicate %s: %w", t.name, strings.Join(cols, ","), domain.ErrConflict)
			}
		}
	}
	return nil
}

func sameKey(cols []string, a, b database.Record) bool {
	for _, c := range cols {
		if normalize(a[c]) == nil || normalize(b[c]) == nil || !equal(a[c], b[c]) {
			return false
		}
	}
	return true
}

// sortRows orders rows by "column [ASC|DESC]" terms. NULLs sort last.
func sortRows(rows []database.Record, orderBy []string) error {
	type term struct {
		col  string
		desc bool
	}
	terms := make([]term, 0, len(orderBy))
	for _, o := range orderBy {
		fields := strings.Fields(o)
		if len(fields) == 0 || len(fields) > 2 {
			return fmt.Errorf("memory: invalid order term %q", o)
		}
		desc := len(fields) == 2 && strings.EqualFold(fields[1], "DESC")
		terms = append(terms, term{col: fields[0], desc: desc})
	}
	slices.SortStableFunc(rows, func(a, b database.Record) int {
		for _, tm := range terms {
			av, bv := normalize(a[tm.col]), normalize(b[tm.col])
			switch {
			case av == nil && bv == nil:
				continue
			case av == nil:
				return 1
			case bv == nil:
				return -1
			}
			c, _ := compare(av, bv)
			if c == 0 {
				continue
			}
			if tm.desc {
				return -c
			}
			return c
		}
		return 0
	})
	return nil
}

func paginate(rows []database.Record, limit, offset uint64) []database.Record {
	if offset >= uint64(len(rows)) {
		return nil
	}
	rows = rows[offset:]
	if limit > 0 && limit < uint64(len(rows)) {
		rows = rows[:limit]
	}
	return rows
}

// decode builds a T from a stored row using the db struct tags.
func decode[T any](row database.Record) (T, error) {
	var out T
	rv := reflect.ValueOf(&out).Elem()
	for _, col := range database.Columns[T]() {
		val, ok := row[col.Name]
		if !ok || val == nil {
			continue
		}
		field := rv.FieldByIndex(col.Index)
		if err := assign(field, reflect.ValueOf(val)); err != nil {
			return out, fmt.Errorf("column %s: %w", col.Name, err)
		}
	}
	return out, nil
}

func assign(dst, src reflect.Value) error {
	for src.Kind() == reflect.Pointer || src.Kind() == reflect.Interface {
		if src.IsNil() {
			dst.SetZero()
			return nil
		}
		src = src.Elem()
	}
	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), src); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}
	switch {
	case src.Type().AssignableTo(dst.Type()):
		dst.Set(src)
	case src.Type().ConvertibleTo(dst.Type()) && sameFamily(src.Kind(), dst.Kind()):
		dst.Set(src.Convert(dst.Type()))
	default:
		return fmt.Errorf("cannot assign %s to %s", src.Type(), dst.Type())
	}
	return nil
}

// sameFamily blocks reflect conversions that change meaning, such as int to string.
func sameFamily(a, b reflect.Kind) bool {
	family := func(k reflect.Kind) int {
		switch k {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			return 1
		case reflect.String:
			return 2
		case reflect.Bool:
			return 3
		}
		return int(k) + 100
	}
	return family(a) == family(b)
}
