// Package query composes gorm queries for the generic controllers.
//
// A Set is an immutable value: every method returns a new Set and nothing
// touches the database until a terminal call (Find, Page, Count, Get, Each,
// Export). Filters only add WHERE conditions and aggregates only add select
// expressions, so the order in which they are chained does not change the
// rows that come back.
package query

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"watersync/pkg/apperr"
)

// Link declares an indirect path to ancestors: the child's FK column points
// at Model, whose own columns (or further Via links) reach the ancestor.
type Link struct {
	FK    string
	Model any
	Via   []Link
}

// Owner says who may see a row: users listed in Table (a membership table
// keyed by Column) for the row's Ancestor. An empty Ancestor means the
// membership table points at the row itself.
type Owner struct {
	Ancestor string
	Table    string
	Column   string
}

// Annotation is a named computed column, usually a correlated sub-select.
type Annotation struct {
	Name string
	Expr string
}

// Column maps an export header to a source column or annotation name.
type Column struct {
	Label string
	Field string
}

type Option func(*options)

type options struct {
	owner *Owner
	links []Link
	order string
}

func WithOwner(o Owner) Option      { return func(c *options) { c.owner = &o } }
func WithLinks(l ...Link) Option    { return func(c *options) { c.links = append(c.links, l...) } }
func WithOrder(order string) Option { return func(c *options) { c.order = order } }

type Set[T any] struct {
	db     *gorm.DB
	sch    *schema.Schema
	opts   options
	scopes []func(*gorm.DB) *gorm.DB
	anns   []Annotation
	err    error
}

// From starts a Set over T's table.
func From[T any](db *gorm.DB, opts ...Option) Set[T] {
	s := Set[T]{db: db}
	for _, o := range opts {
		o(&s.opts)
	}
	sch, err := parse(db, new(T))
	if err != nil {
		s.err = apperr.Wrap(apperr.KindConfiguration, err, "parse model")
		return s
	}
	s.sch = sch
	return s
}

func parse(db *gorm.DB, model any) (*schema.Schema, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, err
	}
	return stmt.Schema, nil
}

// Err reports a configuration problem recorded while chaining.
func (s Set[T]) Err() error { return s.err }

func (s Set[T]) with(scope func(*gorm.DB) *gorm.DB) Set[T] {
	if s.err != nil {
		return s
	}
	s.scopes = append(s.scopes[:len(s.scopes):len(s.scopes)], scope)
	return s
}

func (s Set[T]) fail(err error) Set[T] {
	if s.err == nil {
		s.err = err
	}
	return s
}

func (s Set[T]) where(cond string, args ...any) Set[T] {
	return s.with(func(db *gorm.DB) *gorm.DB { return db.Where(cond, args...) })
}

func (s Set[T]) column(name string) string { return s.sch.Table + "." + name }

// ByParent restricts to rows whose ancestor of the given kind has id. The
// direct <kind>_id column is used when present, then the declared links.
func (s Set[T]) ByParent(kind string, id uint) Set[T] {
	return s.ancestor(kind, "= ?", id)
}

func (s Set[T]) ancestor(kind, cond string, arg any) Set[T] {
	if s.err != nil {
		return s
	}
	col := kind + "_id"
	if hasColumn(s.sch, col) {
		return s.where(s.column(col)+" "+cond, arg)
	}
	for _, l := range s.opts.links {
		sub, err := s.linkSubquery(l, col, cond, arg)
		if err != nil {
			return s.fail(err)
		}
		if sub != nil {
			return s.where(s.column(l.FK)+" IN (?)", sub)
		}
	}
	return s.fail(apperr.Configuration("%s has no relation to %s", s.sch.Table, kind))
}

// linkSubquery returns nil when neither l.Model nor its Via links carry col.
func (s Set[T]) linkSubquery(l Link, col, cond string, arg any) (*gorm.DB, error) {
	ls, err := parse(s.db, l.Model)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConfiguration, err, "parse link model")
	}
	pk := "id"
	if ls.PrioritizedPrimaryField != nil {
		pk = ls.PrioritizedPrimaryField.DBName
	}
	base := s.db.Session(&gorm.Session{NewDB: true}).Table(ls.Table).Select(ls.Table + "." + pk)
	if hasColumn(ls, col) {
		return base.Where(ls.Table+"."+col+" "+cond, arg), nil
	}
	for _, v := range l.Via {
		sub, err := s.linkSubquery(v, col, cond, arg)
		if err != nil {
			return nil, err
		}
		if sub != nil {
			return base.Where(ls.Table+"."+v.FK+" IN (?)", sub), nil
		}
	}
	return nil, nil
}

func hasColumn(sch *schema.Schema, col string) bool {
	f := sch.LookUpField(col)
	return f != nil && f.DBName == col && !f.IgnoreMigration
}

// ByOwner restricts to rows userID may see. Kinds without an Owner are
// shared reference data and are returned unfiltered.
func (s Set[T]) ByOwner(userID uint) Set[T] {
	if s.err != nil || s.opts.owner == nil {
		return s
	}
	o := s.opts.owner
	members := s.db.Session(&gorm.Session{NewDB: true}).
		Table(o.Table).Select(o.Column).Where("user_id = ?", userID)
	if o.Ancestor == "" {
		return s.where(s.column(s.pk())+" IN (?)", members)
	}
	return s.ancestor(o.Ancestor, "IN (?)", members)
}

func (s Set[T]) pk() string {
	if s.sch.PrioritizedPrimaryField != nil {
		return s.sch.PrioritizedPrimaryField.DBName
	}
	return "id"
}

type Op string

const (
	Eq   Op = "="
	Gte  Op = ">="
	Lte  Op = "<="
	Like Op = "LIKE"
)

type Criterion struct {
	Field string
	Op    Op
	Value any
}

func Equal(field string, v any) Criterion   { return Criterion{field, Eq, v} }
func AtLeast(field string, v any) Criterion { return Criterion{field, Gte, v} }
func AtMost(field string, v any) Criterion  { return Criterion{field, Lte, v} }
func Contains(field, v string) Criterion    { return Criterion{field, Like, v} }

// ByFields applies the criteria whose value is set. Empty strings, nil and
// zero times are skipped rather than matched.
func (s Set[T]) ByFields(criteria ...Criterion) Set[T] {
	for _, c := range criteria {
		if s.err != nil {
			return s
		}
		if blank(c.Value) {
			continue
		}
		if !hasColumn(s.sch, c.Field) {
			return s.fail(apperr.Configuration("%s has no column %q", s.sch.Table, c.Field))
		}
		switch c.Op {
		case Eq, Gte, Lte:
			s = s.where(s.column(c.Field)+" "+string(c.Op)+" ?", c.Value)
		case Like:
			s = s.where(s.column(c.Field)+" LIKE ?", "%"+fmt.Sprint(c.Value)+"%")
		default:
			return s.fail(apperr.Configuration("unknown operator %q", c.Op))
		}
	}
	return s
}

func blank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case *string:
		return t == nil || strings.TrimSpace(*t) == ""
	case time.Time:
		return t.IsZero()
	case *time.Time:
		return t == nil || t.IsZero()
	case *uint:
		return t == nil
	case *int:
		return t == nil
	case *float64:
		return t == nil
	case *bool:
		return t == nil
	}
	return false
}

// WithAggregates adds computed columns, scanned into read-only struct
// fields of the same name.
func (s Set[T]) WithAggregates(anns ...Annotation) Set[T] {
	if s.err != nil {
		return s
	}
	s.anns = append(s.anns[:len(s.anns):len(s.anns)], anns...)
	return s
}

// Where adds a raw condition; callers pass trusted SQL only.
func (s Set[T]) Where(cond string, args ...any) Set[T] { return s.where(cond, args...) }

// OrderBy replaces the default ordering.
func (s Set[T]) OrderBy(order string) Set[T] {
	s.opts.order = order
	return s
}

func (s Set[T]) build(ctx context.Context, withAnns bool) *gorm.DB {
	q := s.db.WithContext(ctx).Model(new(T))
	if withAnns && len(s.anns) > 0 {
		sel := []string{s.sch.Table + ".*"}
		for _, a := range s.anns {
			sel = append(sel, "("+a.Expr+") AS "+a.Name)
		}
		q = q.Select(strings.Join(sel, ", "))
	}
	for _, sc := range s.scopes {
		q = sc(q)
	}
	return q
}

func (s Set[T]) ordered(q *gorm.DB) *gorm.DB {
	if s.opts.order != "" {
		return q.Order(s.opts.order)
	}
	return q.Order(s.column(s.pk()))
}

func (s Set[T]) Find(ctx context.Context) ([]T, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []T
	if err := s.ordered(s.build(ctx, true)).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Page returns one page (1-based) plus the total row count.
func (s Set[T]) Page(ctx context.Context, page, size int) ([]T, int64, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	total, err := s.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	if page < 1 {
		page = 1
	}
	var out []T
	q := s.ordered(s.build(ctx, true))
	if size > 0 {
		q = q.Limit(size).Offset((page - 1) * size)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s Set[T]) Count(ctx context.Context) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	var n int64
	if err := s.build(ctx, false).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// Get looks up one row by primary key inside the Set's filters. A row that
// exists but falls outside them is reported as not found.
func (s Set[T]) Get(ctx context.Context, id uint) (*T, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out T
	err := s.build(ctx, true).Where(s.column(s.pk())+" = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("%s %d not found", strings.TrimSuffix(s.sch.Table, "s"), id)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Each streams the rows without loading them all.
func (s Set[T]) Each(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		if s.err != nil {
			yield(zero, s.err)
			return
		}
		q := s.ordered(s.build(ctx, true))
		rows, err := q.Rows()
		if err != nil {
			yield(zero, err)
			return
		}
		defer rows.Close()
		for rows.Next() {
			var item T
			if err := q.ScanRows(rows, &item); err != nil {
				yield(zero, err)
				return
			}
			if !yield(item, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(zero, err)
		}
	}
}

// Export projects the Set onto cols. It returns the header at once and the
// lines as a sequence that queries when ranged over, one line per entity.
// Without cols every stored column is exported under its own name.
func (s Set[T]) Export(ctx context.Context, cols []Column) ([]string, iter.Seq2[[]string, error], error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	if len(cols) == 0 {
		for _, f := range s.sch.Fields {
			if f.DBName != "" && !f.IgnoreMigration {
				cols = append(cols, Column{Label: f.DBName, Field: f.DBName})
			}
		}
	}
	header := make([]string, 0, len(cols))
	selects := make([]string, 0, len(cols))
	for _, c := range cols {
		header = append(header, c.Label)
		if a, ok := s.annotation(c.Field); ok {
			selects = append(selects, "("+a.Expr+") AS "+a.Name)
			continue
		}
		if !hasColumn(s.sch, c.Field) {
			return nil, nil, apperr.Configuration("export column %q is not a field of %s", c.Field, s.sch.Table)
		}
		selects = append(selects, s.column(c.Field))
	}

	lines := func(yield func([]string, error) bool) {
		rows, err := s.ordered(s.build(ctx, false).Select(strings.Join(selects, ", "))).Rows()
		if err != nil {
			yield(nil, err)
			return
		}
		defer rows.Close()
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		for rows.Next() {
			clear(vals)
			if err := rows.Scan(ptrs...); err != nil {
				yield(nil, err)
				return
			}
			line := make([]string, len(vals))
			for i, v := range vals {
				line[i] = cell(v)
			}
			if !yield(line, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}
	return header, lines, nil
}

func (s Set[T]) annotation(name string) (Annotation, bool) {
	for _, a := range s.anns {
		if a.Name == name {
			return a, true
		}
	}
	return Annotation{}, false
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}
