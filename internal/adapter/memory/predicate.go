package memory

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// match evaluates a squirrel predicate against a stored row.
// A nil predicate matches every row.
func match(where sq.Sqlizer, row map[string]any) (bool, error) {
	switch p := where.(type) {
	case nil:
		return true, nil
	case sq.Eq:
		for col, want := range p {
			if !equalOrIn(row[col], want) {
				return false, nil
			}
		}
		return true, nil
	case sq.NotEq:
		for col, want := range p {
			if equalOrIn(row[col], want) {
				return false, nil
			}
		}
		return true, nil
	case sq.And:
		for _, part := range p {
			ok, err := match(part, row)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case sq.Or:
		for _, part := range p {
			ok, err := match(part, row)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case sq.Like:
		return matchLike(p, row, false)
	case sq.ILike:
		return matchLike(sq.Like(p), row, true)
	case sq.Gt:
		return matchOrdered(p, row, func(c int) bool { return c > 0 })
	case sq.GtOrEq:
		return matchOrdered(p, row, func(c int) bool { return c >= 0 })
	case sq.Lt:
		return matchOrdered(p, row, func(c int) bool { return c < 0 })
	case sq.LtOrEq:
		return matchOrdered(p, row, func(c int) bool { return c <= 0 })
	default:
		return false, fmt.Errorf("memory: unsupported predicate %T", where)
	}
}

// equalOrIn mirrors squirrel's Eq rendering: nil is IS NULL, slices are IN.
func equalOrIn(got, want any) bool {
	if want == nil {
		return normalize(got) == nil
	}
	rv := reflect.ValueOf(want)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := range rv.Len() {
			if equal(got, rv.Index(i).Interface()) {
				return true
			}
		}
		return false
	}
	return equal(got, want)
}

func equal(a, b any) bool {
	na, nb := normalize(a), normalize(b)
	if ta, ok := na.(time.Time); ok {
		tb, ok := nb.(time.Time)
		return ok && ta.Equal(tb)
	}
	return na == nb
}

func matchLike(p sq.Like, row map[string]any, fold bool) (bool, error) {
	for col, pattern := range p {
		s, ok := pattern.(string)
		if !ok {
			return false, fmt.Errorf("memory: like pattern for %s must be a string", col)
		}
		re, err := likeRegexp(s, fold)
		if err != nil {
			return false, err
		}
		v, ok := normalize(row[col]).(string)
		if !ok || !re.MatchString(v) {
			return false, nil
		}
	}
	return true, nil
}

func matchOrdered(p map[string]any, row map[string]any, accept func(int) bool) (bool, error) {
	for col, bound := range p {
		c, ok := compare(row[col], bound)
		if !ok || !accept(c) {
			return false, nil
		}
	}
	return true, nil
}

var likeCache sync.Map // string -> *regexp.Regexp

// likeRegexp translates a SQL LIKE pattern into an anchored regexp.
func likeRegexp(pattern string, fold bool) (*regexp.Regexp, error) {
	key := pattern
	if fold {
		key = "(?i)" + pattern
	}
	if re, ok := likeCache.Load(key); ok {
		return re.(*regexp.Regexp), nil
	}
	var b strings.Builder
	if fold {
		b.WriteString("(?is)")
	} else {
		b.WriteString("(?s)")
	}
	b.WriteByte('^')
	escaped := false
	for _, r := range pattern {
		switch {
		case escaped:
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case r == '\\':
			escaped = true
		case r == '%':
			b.WriteString(".*")
		case r == '_':
			b.WriteByte('.')
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteByte('$')
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("memory: like pattern %q: %w", pattern, err)
	}
	likeCache.Store(key, re)
	return re, nil
}

// normalize collapses named types, pointers and numeric widths so values
// written by services compare equal to values used in predicates.
func normalize(v any) any {
	if v == nil {
		return nil
	}
	if t, ok := v.(time.Time); ok {
		return t
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return rv.Interface()
}

// compare orders two values of the same normalized kind. ok is false when
// they are not comparable (including either being NULL).
func compare(a, b any) (c int, ok bool) {
	na, nb := normalize(a), normalize(b)
	switch x := na.(type) {
	case string:
		y, ok := nb.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case float64:
		y, ok := nb.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case time.Time:
		y, ok := nb.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	case bool:
		y, ok := nb.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}
