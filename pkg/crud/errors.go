package crud

import (
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"watersync/pkg/apperr"
	"watersync/pkg/htmx"
	"watersync/pkg/render"
)

// ErrorHandler maps apperr kinds to status codes. Browsers and htmx get the
// message template, everyone else {"error": ...}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var status int
	var msg string
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		msg = fmt.Sprint(he.Message)
	} else {
		status = apperr.Status(err)
		msg = apperr.Message(err)
		switch {
		case apperr.Is(err, apperr.KindConfiguration):
			log.Printf("[crud] CONFIGURATION ERROR %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
		case status >= http.StatusInternalServerError:
			log.Printf("[crud] %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
		}
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	if wantsHTML(c) {
		rerr := c.Render(status, "message", render.Message{Title: http.StatusText(status), Text: msg})
		if rerr == nil {
			return
		}
		log.Printf("[crud] render error page: %v", rerr)
	}
	if err := c.JSON(status, echo.Map{"error": msg}); err != nil {
		log.Printf("[crud] write error response: %v", err)
	}
}

func wantsHTML(c echo.Context) bool {
	r := c.Request()
	return htmx.IsFragment(r) || strings.Contains(r.Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}

func queryURL(v url.Values) template.URL {
	return template.URL(v.Encode())
}
