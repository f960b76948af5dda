// Package htmx reads and writes the request/response headers htmx uses to
// swap page fragments.
package htmx

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	HeaderRequest    = "HX-Request"
	HeaderContext    = "HX-Context"
	HeaderDownload   = "HX-Download"
	HeaderCurrentURL = "HX-Current-URL"
	HeaderTrigger    = "HX-Trigger"
	HeaderRedirect   = "HX-Redirect"
)

// Layouts a full page can be wrapped in.
const (
	LayoutNone    = ""
	LayoutBlank   = "blank"
	LayoutProject = "project"
	LayoutBase    = "base"
)

const EventCSVDownloaded = "csvDownloaded"

func IsFragment(r *http.Request) bool { return r.Header.Get(HeaderRequest) == "true" }

// Blank reports whether the client asked for output without navigation
// chrome, typically for a modal.
func Blank(r *http.Request) bool { return r.Header.Get(HeaderContext) == "block" }

// Layout picks the wrapper for a response. Fragments get none unless they
// are loaded into a block container.
func Layout(r *http.Request) string {
	switch {
	case Blank(r):
		return LayoutBlank
	case IsFragment(r):
		return LayoutNone
	case inProject(r.URL.Path):
		return LayoutProject
	}
	return LayoutBase
}

// inProject is true below /projects/<id>/, not for the project list itself.
func inProject(path string) bool {
	rest, ok := strings.CutPrefix(path, "/projects/")
	return ok && strings.Trim(rest, "/") != ""
}

// WantsDownload accepts both the header and a ?download= query value so
// plain links work too. It returns the requested format.
func WantsDownload(r *http.Request) (string, bool) {
	if v := r.Header.Get(HeaderDownload); v != "" && v != "false" {
		if v == "true" {
			v = "csv"
		}
		return strings.ToLower(v), true
	}
	if v := r.URL.Query().Get("download"); v != "" {
		return strings.ToLower(v), true
	}
	return "", false
}

// CurrentURL is the page the client was on when it issued the request.
func CurrentURL(r *http.Request) *url.URL {
	raw := r.Header.Get(HeaderCurrentURL)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	return u
}

// Trigger appends events to HX-Trigger, keeping any already set.
func Trigger(c echo.Context, events ...string) {
	h := c.Response().Header()
	cur := h.Get(HeaderTrigger)
	for _, ev := range events {
		if cur == "" {
			cur = ev
		} else {
			cur += ", " + ev
		}
	}
	h.Set(HeaderTrigger, cur)
}

func Redirect(c echo.Context, to string) { c.Response().Header().Set(HeaderRedirect, to) }
