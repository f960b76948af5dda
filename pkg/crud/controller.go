// Package crud is the generic list/detail/create/update/delete controller.
// One Controller[T] serves one entity kind; the kind's Descriptor says what
// to show and its Hooks say what is special about saving it.
package crud

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"watersync/pkg/apperr"
	"watersync/pkg/detailform"
	"watersync/pkg/export"
	"watersync/pkg/forms"
	"watersync/pkg/htmx"
	"watersync/pkg/metrics"
	"watersync/pkg/query"
	"watersync/pkg/render"
	"watersync/pkg/resource"
)

const defaultPageSize = 25

// Hooks are optional per-kind extensions. Every hook that writes receives
// the transaction the whole operation commits in.
type Hooks[T any] struct {
	// Stamp copies ancestors from the scope onto an item before it is
	// validated, so ancestor-scoped uniqueness is checked against them.
	Stamp func(s Scope, item *T)
	// Check adds cross-field or cross-row errors keyed by form name.
	Check  func(ctx context.Context, db *gorm.DB, s Scope, item *T) map[string]string
	Create func(ctx context.Context, tx *gorm.DB, s Scope, item *T, values url.Values) error
	Update func(ctx context.Context, tx *gorm.DB, s Scope, item, prev *T, values url.Values) error
	Delete func(ctx context.Context, tx *gorm.DB, s Scope, item *T) error
	// Bulk creates several items from one submission and returns how many.
	Bulk func(ctx context.Context, tx *gorm.DB, s Scope, values url.Values) (int, error)
	// Loaded fills derived fields after a read.
	Loaded func(ctx context.Context, db *gorm.DB, items []*T) error
	// Filter narrows the list beyond the declared filters.
	Filter   func(set query.Set[T], c echo.Context, s Scope) query.Set[T]
	Children func(base string, item *T) []render.Child
}

type Config[T any] struct {
	DB       *gorm.DB
	Desc     *resource.Descriptor[T]
	Kinds    *resource.Registry
	Parents  []string
	Parent   ParentCheck
	Hooks    Hooks[T]
	PageSize int
}

type Controller[T any] struct {
	db       *gorm.DB
	desc     *resource.Descriptor[T]
	kinds    *resource.Registry
	parents  []string
	parent   ParentCheck
	hooks    Hooks[T]
	pageSize int
}

func New[T any](cfg Config[T]) *Controller[T] {
	size := cfg.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	return &Controller[T]{
		db:       cfg.DB,
		desc:     cfg.Desc,
		kinds:    cfg.Kinds,
		parents:  cfg.Parents,
		parent:   cfg.Parent,
		hooks:    cfg.Hooks,
		pageSize: size,
	}
}

func (h *Controller[T]) Descriptor() *resource.Descriptor[T] { return h.desc }

// Register mounts the handlers on a group whose prefix already names the
// ancestors, e.g. /projects/:project_pk/locations.
func (h *Controller[T]) Register(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/", h.List)
	g.POST("", h.Create)
	g.POST("/", h.Create)
	g.GET("/new", h.New)
	g.GET("/:id", h.Detail)
	g.GET("/:id/overview", h.Overview)
	g.GET("/:id/edit", h.Edit)
	g.POST("/:id/edit", h.Update)
	g.PUT("/:id", h.Update)
	g.GET("/:id/delete", h.ConfirmDelete)
	g.POST("/:id/delete", h.Delete)
	g.DELETE("/:id", h.Delete)
}

func (h *Controller[T]) List(c echo.Context) error {
	ctx := c.Request().Context()
	s, err := h.Resolve(c)
	if err != nil {
		return err
	}
	criteria, kept := h.criteria(c)
	set := h.Set(s).ByFields(criteria...)
	if h.hooks.Filter != nil {
		set = h.hooks.Filter(set, c, s)
	}
	set = set.WithAggregates(h.desc.Aggregates...)

	if format, ok := htmx.WantsDownload(c.Request()); ok {
		header, rows, err := set.Export(ctx, h.desc.Export)
		if err != nil {
			return err
		}
		metrics.Export(h.desc.Kind, format)
		return export.Send(c, format, h.desc.Plural, header, rows)
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	items, total, err := set.Page(ctx, page, h.pageSize)
	if err != nil {
		return err
	}
	if err := h.loaded(ctx, items); err != nil {
		return err
	}
	if WantsJSON(c) {
		return c.JSON(http.StatusOK, echo.Map{"count": total, "results": items})
	}
	rows, err := h.desc.Rows(items)
	if err != nil {
		return err
	}
	short, detail := h.desc.Explanation()
	pages := int((total + int64(h.pageSize) - 1) / int64(h.pageSize))
	return c.Render(http.StatusOK, "list", render.List{
		Kind:        h.desc.Kind,
		Title:       h.desc.Title,
		Short:       short,
		Explanation: detail,
		Base:        h.base(s),
		Headers:     h.desc.Headers(),
		Rows:        rows,
		Page:        page,
		Pages:       pages,
		Total:       total,
		Query:       queryURL(kept),
		Event:       h.desc.ChangedEvent(),
	})
}

// criteria turns the declared filters present in the query string into
// comparisons. Range bounds that are not dates are ignored; date-only upper
// bounds include the whole day.
func (h *Controller[T]) criteria(c echo.Context) ([]query.Criterion, url.Values) {
	var out []query.Criterion
	kept := url.Values{}
	for _, f := range h.desc.Filters {
		v := strings.TrimSpace(c.QueryParam(f.Param))
		if v == "" {
			continue
		}
		var val any = v
		if f.Op == query.Gte || f.Op == query.Lte {
			t, err := forms.ParseTime(v)
			if err != nil {
				continue
			}
			if f.Op == query.Lte && len(v) == len("2006-01-02") {
				t = t.Add(24*time.Hour - time.Nanosecond)
			}
			val = t
		}
		kept.Set(f.Param, v)
		out = append(out, query.Criterion{Field: f.Field, Op: f.Op, Value: val})
	}
	return out, kept
}

func (h *Controller[T]) Load(c echo.Context) (Scope, *T, error) {
	s, err := h.Resolve(c)
	if err != nil {
		return s, nil, err
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return s, nil, apperr.NotFound("%s not found", h.desc.Kind)
	}
	item, err := h.Set(s).WithAggregates(h.desc.Aggregates...).Get(c.Request().Context(), uint(id))
	if err != nil {
		return s, nil, err
	}
	if err := h.loaded(c.Request().Context(), []T{}, item); err != nil {
		return s, nil, err
	}
	return s, item, nil
}

func (h *Controller[T]) loaded(ctx context.Context, items []T, extra ...*T) error {
	if h.hooks.Loaded == nil {
		return nil
	}
	ptrs := make([]*T, 0, len(items)+len(extra))
	for i := range items {
		ptrs = append(ptrs, &items[i])
	}
	ptrs = append(ptrs, extra...)
	if len(ptrs) == 0 {
		return nil
	}
	return h.hooks.Loaded(ctx, h.db.WithContext(ctx), ptrs)
}

func (h *Controller[T]) Detail(c echo.Context) error {
	return h.detail(c, false)
}

// Overview is the detail page plus links to the item's child lists.
func (h *Controller[T]) Overview(c echo.Context) error {
	return h.detail(c, true)
}

func (h *Controller[T]) detail(c echo.Context, overview bool) error {
	s, item, err := h.Load(c)
	if err != nil {
		return err
	}
	if WantsJSON(c) {
		return c.JSON(http.StatusOK, item)
	}
	pairs, err := h.desc.Pairs(item)
	if err != nil {
		return err
	}
	view := render.Detail{
		Kind:  h.desc.Kind,
		Title: h.desc.Describe(item),
		Base:  h.base(s),
		ID:    h.desc.ID(item),
		Pairs: pairs,
	}
	if h.desc.Details != nil {
		subj := any(item).(detailform.Subject)
		form, err := h.desc.Details.Initial(subj.Discriminator(), subj.DetailJSON())
		if err != nil {
			return err
		}
		for _, f := range form.Fields() {
			if f.Value != "" {
				view.Extra = append(view.Extra, resource.Pair{Label: f.Label, Value: f.Value})
			}
		}
	}
	if overview && h.hooks.Children != nil {
		view.Children = h.hooks.Children(view.Base+"/"+strconv.FormatUint(uint64(view.ID), 10), item)
	}
	return c.Render(http.StatusOK, "detail", view)
}

// New renders an empty form. ?<discriminator>=value preselects the detail
// fields, which is how the form swaps them when the type changes.
func (h *Controller[T]) New(c echo.Context) error {
	s, err := h.Resolve(c)
	if err != nil {
		return err
	}
	item := new(T)
	if h.hooks.Stamp != nil {
		h.hooks.Stamp(s, item)
	}
	var detail detailform.Handle
	if h.desc.Details != nil {
		detail, err = h.desc.Details.Initial(c.QueryParam(h.desc.Details.Param()), nil)
		if err != nil {
			return err
		}
	}
	return c.Render(http.StatusOK, "form", h.formView(s, item, nil, nil, detail, nil))
}

func (h *Controller[T]) Create(c echo.Context) error {
	ctx := c.Request().Context()
	s, err := h.Resolve(c)
	if err != nil {
		return err
	}
	values, err := formValues(c)
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "could not read the submitted data")
	}

	if h.desc.BulkCreate && h.hooks.Bulk != nil && (values.Get("bulk") == "true" || c.QueryParam("bulk") == "true") {
		return h.bulk(c, s, values)
	}

	item := new(T)
	if h.hooks.Stamp != nil {
		h.hooks.Stamp(s, item)
	}
	errs, detail, err := h.validate(ctx, s, item, detailform.Stored{}, values)
	if err != nil {
		return err
	}
	if len(errs) > 0 || (detail != nil && len(detail.Errors()) > 0) {
		metrics.Mutation(h.desc.Kind, "create", metrics.ResultInvalid)
		return h.invalid(c, s, item, values, detail, errs)
	}
	if err := h.applyPayload(item, detail); err != nil {
		return err
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if h.hooks.Create != nil {
			return h.hooks.Create(ctx, tx, s, item, values)
		}
		return tx.Omit(clause.Associations).Create(item).Error
	})
	if err != nil {
		return h.saveFailed(c, "create", s, item, values, detail, err)
	}
	metrics.Mutation(h.desc.Kind, "create", metrics.ResultSuccess)
	return h.Respond(c, http.StatusCreated)
}

func (h *Controller[T]) bulk(c echo.Context, s Scope, values url.Values) error {
	ctx := c.Request().Context()
	var n int
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		n, err = h.hooks.Bulk(ctx, tx, s, values)
		return err
	})
	if err != nil {
		item := new(T)
		if h.hooks.Stamp != nil {
			h.hooks.Stamp(s, item)
		}
		return h.saveFailed(c, "bulk", s, item, values, nil, err)
	}
	log.Printf("[crud] bulk created %d %s", n, h.desc.Plural)
	metrics.Mutation(h.desc.Kind, "bulk", metrics.ResultSuccess)
	return h.Respond(c, http.StatusCreated)
}

func (h *Controller[T]) Edit(c echo.Context) error {
	s, item, err := h.Load(c)
	if err != nil {
		return err
	}
	var detail detailform.Handle
	if h.desc.Details != nil {
		subj := any(item).(detailform.Subject)
		detail, err = h.desc.Details.Initial(subj.Discriminator(), subj.DetailJSON())
		if err != nil {
			return err
		}
	}
	return c.Render(http.StatusOK, "form", h.formView(s, item, nil, nil, detail, nil))
}

func (h *Controller[T]) Update(c echo.Context) error {
	ctx := c.Request().Context()
	s, item, err := h.Load(c)
	if err != nil {
		return err
	}
	values, err := formValues(c)
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "could not read the submitted data")
	}
	prev := *item
	stored := h.stored(item)
	if h.hooks.Stamp != nil {
		h.hooks.Stamp(s, item)
	}
	errs, detail, err := h.validate(ctx, s, item, stored, values)
	if err != nil {
		return err
	}
	if len(errs) > 0 || (detail != nil && len(detail.Errors()) > 0) {
		metrics.Mutation(h.desc.Kind, "update", metrics.ResultInvalid)
		return h.invalid(c, s, item, values, detail, errs)
	}
	if err := h.applyPayload(item, detail); err != nil {
		return err
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if h.hooks.Update != nil {
			return h.hooks.Update(ctx, tx, s, item, &prev, values)
		}
		return tx.Omit(clause.Associations).Save(item).Error
	})
	if err != nil {
		return h.saveFailed(c, "update", s, item, values, detail, err)
	}
	metrics.Mutation(h.desc.Kind, "update", metrics.ResultSuccess)
	return h.Respond(c, http.StatusOK)
}

// validate binds values onto item and, when the kind has one, binds and
// validates the detail form too. The detail form follows item's
// discriminator after binding, not the raw submission. Both are always
// checked so every error is reported at once.
func (h *Controller[T]) validate(ctx context.Context, s Scope, item *T, prev detailform.Stored, values url.Values) (map[string]string, detailform.Handle, error) {
	errs := forms.Check(values, item)
	var detail detailform.Handle
	if h.desc.Details != nil {
		var err error
		detail, err = h.desc.DetailFormFor(any(item).(detailform.Subject).Discriminator(), prev, values)
		if err != nil {
			return nil, nil, err
		}
		detail.Validate()
	}
	if len(errs) == 0 && h.hooks.Check != nil {
		for k, v := range h.hooks.Check(ctx, h.db.WithContext(ctx), s, item) {
			errs[k] = v
		}
	}
	return errs, detail, nil
}

// stored snapshots the discriminator and payload item holds before binding.
func (h *Controller[T]) stored(item *T) detailform.Stored {
	subj, ok := any(item).(detailform.Subject)
	if !ok {
		return detailform.Stored{}
	}
	return detailform.Stored{Kind: subj.Discriminator(), Payload: subj.DetailJSON()}
}

// applyPayload replaces the stored detail with the validated form's. A form
// that resolved no detail kind clears it.
func (h *Controller[T]) applyPayload(item *T, detail detailform.Handle) error {
	if detail == nil {
		return nil
	}
	payload, err := detail.Payload()
	if err != nil {
		return err
	}
	any(item).(detailform.Subject).SetDetailJSON(payload)
	return nil
}

func (h *Controller[T]) saveFailed(c echo.Context, op string, s Scope, item *T, values url.Values, detail detailform.Handle, err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		metrics.Mutation(h.desc.Kind, op, metrics.ResultInvalid)
		return h.invalid(c, s, item, values, detail, map[string]string{
			apperr.NonField: "A " + strings.ReplaceAll(h.desc.Kind, "_", " ") + " with these values already exists.",
		})
	case apperr.Is(err, apperr.KindValidation):
		metrics.Mutation(h.desc.Kind, op, metrics.ResultInvalid)
		fields := apperr.FieldsOf(err)
		if len(fields) == 0 {
			fields = map[string]string{apperr.NonField: apperr.Message(err)}
		}
		return h.invalid(c, s, item, values, detail, fields)
	case apperr.Is(err, apperr.KindConflict):
		metrics.Mutation(h.desc.Kind, op, metrics.ResultConflict)
		return err
	}
	metrics.Mutation(h.desc.Kind, op, metrics.ResultError)
	log.Printf("[crud] %s %s: %v", op, h.desc.Kind, err)
	return err
}

func (h *Controller[T]) invalid(c echo.Context, s Scope, item *T, values url.Values, detail detailform.Handle, errs map[string]string) error {
	if isJSONBody(c) {
		out := echo.Map{"error": "validation failed", "fields": errs}
		if detail != nil && len(detail.Errors()) > 0 {
			out["detail"] = detail.Errors()
		}
		return c.JSON(http.StatusBadRequest, out)
	}
	return c.Render(http.StatusBadRequest, "form", h.formView(s, item, values, errs, detail, values))
}

func (h *Controller[T]) formView(s Scope, item *T, submitted url.Values, errs map[string]string, detail detailform.Handle, values url.Values) render.Form {
	base := h.base(s)
	view := render.Form{
		Kind:   h.desc.Kind,
		Title:  "New " + strings.ReplaceAll(h.desc.Kind, "_", " "),
		Action: base + "/",
		Method: "post",
		Fields: forms.Fields(item, submitted, errs),
		Bulk:   values.Get("bulk") == "true",
	}
	if id := h.desc.ID(item); id != 0 {
		view.Title = "Edit " + h.desc.Describe(item)
		view.Action = base + "/" + strconv.FormatUint(uint64(id), 10) + "/edit"
	}
	if msg, ok := errs[apperr.NonField]; ok {
		view.Errors = append(view.Errors, msg)
	}
	if h.desc.Details != nil {
		view.DetailParam = h.desc.Details.Param()
		if detail != nil {
			view.Detail = detail.Fields()
		}
	}
	return view
}

func (h *Controller[T]) ConfirmDelete(c echo.Context) error {
	s, item, err := h.Load(c)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "confirm_delete", render.Confirm{
		Kind:   h.desc.Kind,
		Title:  "Delete " + strings.ReplaceAll(h.desc.Kind, "_", " "),
		Name:   h.desc.Describe(item),
		Action: h.base(s) + "/" + strconv.FormatUint(uint64(h.desc.ID(item)), 10),
	})
}

func (h *Controller[T]) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	s, item, err := h.Load(c)
	if err != nil {
		return err
	}
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if h.hooks.Delete != nil {
			return h.hooks.Delete(ctx, tx, s, item)
		}
		return tx.Select(clause.Associations).Delete(item).Error
	})
	if err != nil {
		result := metrics.ResultError
		if apperr.Is(err, apperr.KindConflict) {
			result = metrics.ResultConflict
		}
		metrics.Mutation(h.desc.Kind, "delete", result)
		return err
	}
	metrics.Mutation(h.desc.Kind, "delete", metrics.ResultSuccess)

	if !htmx.IsFragment(c.Request()) {
		return c.JSON(http.StatusOK, echo.Map{"message": "Success"})
	}
	base := h.base(s)
	if h.onOwnPage(c, base, h.desc.ID(item)) {
		htmx.Redirect(c, base+"/")
	} else {
		htmx.Trigger(c, h.desc.ChangedEvent())
	}
	return c.NoContent(http.StatusNoContent)
}

// onOwnPage reports whether the client was looking at the deleted item's
// detail or overview page, in which case staying there makes no sense.
func (h *Controller[T]) onOwnPage(c echo.Context, base string, id uint) bool {
	cur := htmx.CurrentURL(c.Request())
	if cur == nil {
		return false
	}
	own := base + "/" + strconv.FormatUint(uint64(id), 10)
	p := strings.TrimSuffix(cur.Path, "/")
	return p == own || p == own+"/overview"
}

// Respond acknowledges a successful write: htmx gets 204 and the kind's
// changed event, other clients {"message": "Success"}.
func (h *Controller[T]) Respond(c echo.Context, status int) error {
	if htmx.IsFragment(c.Request()) {
		htmx.Trigger(c, h.desc.ChangedEvent())
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(status, echo.Map{"message": "Success"})
}

func formValues(c echo.Context) (url.Values, error) {
	if isJSONBody(c) {
		return forms.FromJSON(c.Request().Body)
	}
	return c.FormParams()
}

func isJSONBody(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON)
}

// WantsJSON is true for API clients that ask for JSON and are not htmx.
func WantsJSON(c echo.Context) bool {
	r := c.Request()
	return !htmx.IsFragment(r) && strings.Contains(r.Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON)
}
