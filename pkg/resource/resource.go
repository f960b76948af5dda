// Package resource describes each entity kind once: how it is listed, shown,
// explained, exported and which detail form its discriminator selects.
package resource

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"watersync/pkg/apperr"
	"watersync/pkg/detailform"
	"watersync/pkg/query"
)

// Column is one labelled cell of a list or detail view.
type Column[T any] struct {
	Label string
	Value func(*T) any
}

func Field[T any](label string, get func(*T) any) Column[T] {
	return Column[T]{Label: label, Value: get}
}

type Descriptor[T any] struct {
	Kind   string // "location": path segment, trigger and template prefix
	Plural string // "locations"
	Title  string // "Locations"

	// Doc is split on the first blank line into the short and the detailed
	// explanation shown above the list.
	Doc string

	// ID extracts the primary key; Label names one item in messages.
	ID    func(*T) uint
	Label func(*T) string

	List   []Column[T]
	Detail []Column[T]
	Export []query.Column

	// Details resolves the secondary form; nil when the kind has no payload.
	Details detailform.Binder

	BulkCreate bool

	Owner      *query.Owner
	Links      []query.Link
	Order      string
	Aggregates []query.Annotation

	// Filters are the query-string keys the list view passes to ByFields.
	Filters []Filter
}

// Filter maps a query-string parameter onto a column comparison.
type Filter struct {
	Param string
	Field string
	Op    query.Op
}

func (d *Descriptor[T]) Name() string { return d.Kind }

// ListFields returns the list columns or a configuration error when none
// were declared.
func (d *Descriptor[T]) ListFields() ([]Column[T], error) {
	if len(d.List) == 0 {
		return nil, apperr.Configuration("%s: no list fields declared", d.Kind)
	}
	return d.List, nil
}

func (d *Descriptor[T]) DetailFields() ([]Column[T], error) {
	if len(d.Detail) == 0 {
		return nil, apperr.Configuration("%s: no detail fields declared", d.Kind)
	}
	return d.Detail, nil
}

// DetailFormFor binds the secondary form that value selects. It returns nil
// when the kind carries no detail payload.
func (d *Descriptor[T]) DetailFormFor(value string, prev detailform.Stored, values url.Values) (detailform.Handle, error) {
	if d.Details == nil {
		return nil, nil
	}
	return d.Details.Bind(value, prev, values)
}

// Explanation splits Doc into its first paragraph, as plain text, and the
// rest, kept as markup with one <p> per paragraph.
func (d *Descriptor[T]) Explanation() (short string, detail template.HTML) {
	doc := strings.TrimSpace(d.Doc)
	if doc == "" {
		return "", ""
	}
	parts := strings.SplitN(doc, "\n\n", 2)
	short = collapse(PlainText(parts[0]))
	if len(parts) == 2 {
		var b strings.Builder
		for _, p := range strings.Split(parts[1], "\n\n") {
			if p = collapse(p); p != "" {
				b.WriteString("<p>" + p + "</p>")
			}
		}
		detail = Markup(b.String())
	}
	return short, detail
}

func collapse(s string) string { return strings.Join(strings.Fields(s), " ") }

// ChangedEvent is the client-side trigger fired after a mutation.
func (d *Descriptor[T]) ChangedEvent() string { return d.Kind + "Changed" }

// Validate is run once at startup.
func (d *Descriptor[T]) Validate() error {
	if d.Kind == "" || d.Plural == "" {
		return apperr.Configuration("descriptor without kind/plural: %+v", d.Title)
	}
	if d.ID == nil {
		return apperr.Configuration("%s: no ID accessor", d.Kind)
	}
	if _, err := d.ListFields(); err != nil {
		return err
	}
	if _, err := d.DetailFields(); err != nil {
		return err
	}
	if d.Details != nil {
		if _, ok := any(new(T)).(detailform.Subject); !ok {
			return apperr.Configuration("%s declares detail forms but *%T is not a detailform.Subject", d.Kind, *new(T))
		}
	}
	for _, c := range append(append([]Column[T]{}, d.List...), d.Detail...) {
		if c.Value == nil {
			return apperr.Configuration("%s: column %q has no accessor", d.Kind, c.Label)
		}
	}
	return nil
}

// QueryOptions turns the descriptor's persistence hints into query options.
func (d *Descriptor[T]) QueryOptions() []query.Option {
	var opts []query.Option
	if d.Owner != nil {
		opts = append(opts, query.WithOwner(*d.Owner))
	}
	if len(d.Links) > 0 {
		opts = append(opts, query.WithLinks(d.Links...))
	}
	if d.Order != "" {
		opts = append(opts, query.WithOrder(d.Order))
	}
	return opts
}

// Row is a rendered list row.
type Row struct {
	ID    uint
	Cells []string
}

// Rows renders items with the list columns.
func (d *Descriptor[T]) Rows(items []T) ([]Row, error) {
	cols, err := d.ListFields()
	if err != nil {
		return nil, err
	}
	rows := make([]Row, 0, len(items))
	for i := range items {
		r := Row{ID: d.ID(&items[i]), Cells: make([]string, len(cols))}
		for j, c := range cols {
			r.Cells[j] = Display(c.Value(&items[i]))
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// Pair is a labelled value on a detail page.
type Pair struct {
	Label string
	Value string
}

func (d *Descriptor[T]) Pairs(item *T) ([]Pair, error) {
	cols, err := d.DetailFields()
	if err != nil {
		return nil, err
	}
	out := make([]Pair, len(cols))
	for i, c := range cols {
		out[i] = Pair{Label: c.Label, Value: Display(c.Value(item))}
	}
	return out, nil
}

// Describe names one item, falling back to "<kind> <id>".
func (d *Descriptor[T]) Describe(item *T) string {
	if d.Label != nil {
		if s := d.Label(item); s != "" {
			return s
		}
	}
	return fmt.Sprintf("%s %d", d.Kind, d.ID(item))
}

func (d *Descriptor[T]) Headers() []string {
	h := make([]string, len(d.List))
	for i, c := range d.List {
		h[i] = c.Label
	}
	return h
}

// Meta is the kind-independent face of a descriptor kept in a Registry.
type Meta interface {
	Name() string
	Validate() error
	PluralName() string
}

func (d *Descriptor[T]) PluralName() string { return d.Plural }

type Registry struct {
	kinds map[string]Meta
	order []string
}

func NewRegistry() *Registry { return &Registry{kinds: map[string]Meta{}} }

// Register validates m and adds it. Duplicate kinds are configuration errors.
func (r *Registry) Register(m Meta) error {
	if err := m.Validate(); err != nil {
		return err
	}
	if _, dup := r.kinds[m.Name()]; dup {
		return apperr.Configuration("kind %q registered twice", m.Name())
	}
	r.kinds[m.Name()] = m
	r.order = append(r.order, m.Name())
	return nil
}

func (r *Registry) Lookup(kind string) (Meta, error) {
	m, ok := r.kinds[kind]
	if !ok {
		return nil, apperr.Configuration("kind %q is not registered", kind)
	}
	return m, nil
}

func (r *Registry) Kinds() []string { return append([]string(nil), r.order...) }

// Segment is one "/<plural>/<id>" step of a nested URL.
type Segment struct {
	Kind string
	ID   uint
}

// Path builds "/projects/1/locations/3" style prefixes.
func (r *Registry) Path(segs ...Segment) (string, error) {
	var b strings.Builder
	for _, s := range segs {
		m, err := r.Lookup(s.Kind)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "/%s/%d", m.PluralName(), s.ID)
	}
	return b.String(), nil
}

// KindOfPlural maps a URL segment back to its kind.
func (r *Registry) KindOfPlural(plural string) (string, bool) {
	for _, k := range r.order {
		if r.kinds[k].PluralName() == plural {
			return k, true
		}
	}
	return "", false
}
