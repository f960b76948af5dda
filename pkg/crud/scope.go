package crud

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"watersync/pkg/apperr"
	"watersync/pkg/htmx"
	"watersync/pkg/middleware"
	"watersync/pkg/query"
	"watersync/pkg/resource"
)

// Scope is what a request knows about who is asking and under which
// ancestors. Chain runs outermost first: project, then location, ...
type Scope struct {
	UserID uint
	Chain  []resource.Segment
}

// ID returns the ancestor id of kind, if the request is nested under one.
func (s Scope) ID(kind string) (uint, bool) {
	for _, seg := range s.Chain {
		if seg.Kind == kind {
			return seg.ID, true
		}
	}
	return 0, false
}

// ParentCheck verifies the nearest ancestor exists and is visible.
type ParentCheck func(ctx context.Context, s Scope) error

// Within checks the nearest ancestor through P's own descriptor, so the
// ancestor is scoped by owner and by the rest of the chain in turn.
func Within[P any](db *gorm.DB, d *resource.Descriptor[P]) ParentCheck {
	return func(ctx context.Context, s Scope) error {
		n := len(s.Chain)
		if n == 0 {
			return nil
		}
		set := query.From[P](db, d.QueryOptions()...).ByOwner(s.UserID)
		for _, seg := range s.Chain[:n-1] {
			set = set.ByParent(seg.Kind, seg.ID)
		}
		_, err := set.Get(ctx, s.Chain[n-1].ID)
		return err
	}
}

// scope reads ancestors from <kind>_pk path params. A form embedded in an
// unrelated page is posted to a flat URL, so the page the client is showing
// is consulted as a fallback.
func (h *Controller[T]) scope(c echo.Context) (Scope, error) {
	s := Scope{UserID: middleware.UserID(c)}
	var current *url.URL
	for _, kind := range h.parents {
		raw := c.Param(kind + "_pk")
		if raw == "" {
			if current == nil {
				current = htmx.CurrentURL(c.Request())
			}
			raw = h.fromURL(current, kind)
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return s, apperr.NotFound("%s not found", kind)
		}
		s.Chain = append(s.Chain, resource.Segment{Kind: kind, ID: uint(id)})
	}
	return s, nil
}

func (h *Controller[T]) fromURL(u *url.URL, kind string) string {
	if u == nil {
		return ""
	}
	m, err := h.kinds.Lookup(kind)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == m.PluralName() {
			return parts[i+1]
		}
	}
	return ""
}

// Resolve builds the scope and checks the nearest ancestor before anything
// else is looked up.
func (h *Controller[T]) Resolve(c echo.Context) (Scope, error) {
	s, err := h.scope(c)
	if err != nil {
		return s, err
	}
	if h.parent != nil && len(s.Chain) > 0 {
		if err := h.parent(c.Request().Context(), s); err != nil {
			return s, err
		}
	}
	return s, nil
}

// Set is the owner and ancestor scoped query every handler starts from.
func (h *Controller[T]) Set(s Scope) query.Set[T] {
	set := query.From[T](h.db, h.desc.QueryOptions()...).ByOwner(s.UserID)
	for _, seg := range s.Chain {
		set = set.ByParent(seg.Kind, seg.ID)
	}
	return set
}

// base is the list URL of this kind under the scope.
func (h *Controller[T]) base(s Scope) string {
	prefix, err := h.kinds.Path(s.Chain...)
	if err != nil {
		return "/" + h.desc.Plural
	}
	return prefix + "/" + h.desc.Plural
}
