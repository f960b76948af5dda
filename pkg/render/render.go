// Package render executes the embedded html templates, wrapping views in the
// layout the htmx headers ask for.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/labstack/echo/v4"

	"watersync/pkg/forms"
	"watersync/pkg/htmx"
)

//go:embed templates/*.html
var files embed.FS

type Renderer struct {
	tmpl *template.Template
}

func New() (*Renderer, error) {
	r := &Renderer{}
	funcs := template.FuncMap{
		"include":  r.include,
		"humanize": forms.Humanize,
		"add":      func(a, b int) int { return a + b },
		"join":     strings.Join,
	}
	t, err := template.New("watersync").Funcs(funcs).ParseFS(files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	r.tmpl = t
	return r, nil
}

func (r *Renderer) include(name string, data any) (template.HTML, error) {
	var b bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return template.HTML(b.String()), nil
}

// Render implements echo.Renderer. Fragments are written bare; everything
// else is wrapped in layout_<name>.
func (r *Renderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	layout := htmx.Layout(c.Request())
	if layout == htmx.LayoutNone {
		return r.tmpl.ExecuteTemplate(w, name, data)
	}
	page := Page{
		Title: titleOf(data),
		View:  name,
		Data:  data,
		Path:  c.Request().URL.Path,
		User:  c.Get("user"),
	}
	return r.tmpl.ExecuteTemplate(w, "layout_"+layout, page)
}

func titleOf(data any) string {
	if t, ok := data.(interface{ PageTitle() string }); ok {
		return t.PageTitle()
	}
	return "watersync"
}
