package resource

import (
	"html/template"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"watersync/pkg/forms"
)

// Display formats an accessor result for a table cell.
func Display(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02 15:04")
	case *time.Time:
		if t == nil {
			return ""
		}
		return Display(*t)
	case string:
		return t
	}
	return forms.Format(v)
}

// PlainText strips markup from documentation snippets.
func PlainText(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// Markup returns a documentation snippet as HTML for the page, without
// scripts, embedded frames or inline event handlers.
func Markup(s string) template.HTML {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	doc.Find("script, style, iframe, object").Remove()
	doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
		var drop []string
		for _, a := range sel.Nodes[0].Attr {
			if strings.HasPrefix(strings.ToLower(a.Key), "on") {
				drop = append(drop, a.Key)
			}
		}
		for _, k := range drop {
			sel.RemoveAttr(k)
		}
	})
	out, err := doc.Find("body").Html()
	if err != nil {
		return template.HTML(template.HTMLEscapeString(s))
	}
	return template.HTML(strings.TrimSpace(out))
}
