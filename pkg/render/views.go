package render

import (
	"html/template"

	"watersync/pkg/forms"
	"watersync/pkg/resource"
)

// Page wraps a view in a layout.
type Page struct {
	Title string
	View  string
	Data  any
	Path  string
	User  any
}

type List struct {
	Kind        string
	Title       string
	Short       string
	Explanation template.HTML
	Base        string
	Headers     []string
	Rows        []resource.Row
	Page        int
	Pages       int
	Total       int64
	Query       template.URL
	Event       string
	// ReadOnly hides the add, edit and delete actions.
	ReadOnly bool
}

func (l List) PageTitle() string { return l.Title }

type Child struct {
	Title string
	URL   string
}

type Detail struct {
	Kind     string
	Title    string
	Base     string
	ID       uint
	Pairs    []resource.Pair
	Extra    []resource.Pair
	Children []Child
}

func (d Detail) PageTitle() string { return d.Title }

type Form struct {
	Kind        string
	Title       string
	Action      string
	Method      string
	Fields      []forms.Field
	Detail      []forms.Field
	DetailParam string
	Errors      []string
	Bulk        bool
}

func (f Form) PageTitle() string { return f.Title }

type Confirm struct {
	Kind   string
	Title  string
	Name   string
	Action string
}

func (c Confirm) PageTitle() string { return c.Title }

type Message struct {
	Title string
	Text  string
}

func (m Message) PageTitle() string { return m.Title }
