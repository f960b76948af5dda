package controllerImp

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"watersync/entities"
	"watersync/pkg/apperr"
	"watersync/pkg/crud"
	"watersync/pkg/export"
	"watersync/pkg/geo"
	"watersync/pkg/htmx"
	"watersync/pkg/location"
	"watersync/pkg/location/controller"
	"watersync/pkg/location/service"
	"watersync/pkg/metrics"
	"watersync/pkg/middleware"
	"watersync/pkg/project"
	"watersync/pkg/query"
	"watersync/pkg/render"
	"watersync/pkg/resource"
)

type LocationCtrl struct {
	db        *gorm.DB
	kinds     *resource.Registry
	locations *crud.Controller[entities.Location]
	statuses  *crud.Controller[entities.LocationStatus]
	inProject crud.ParentCheck
	inLoc     crud.ParentCheck
}

var _ controller.LocationController = (*LocationCtrl)(nil)

func New(db *gorm.DB, kinds *resource.Registry, s service.LocationService, pageSize int) *LocationCtrl {
	h := &LocationCtrl{
		db:        db,
		kinds:     kinds,
		inProject: crud.Within(db, project.Projects),
		inLoc:     crud.Within(db, location.Locations),
	}
	h.locations = crud.New(crud.Config[entities.Location]{
		DB:       db,
		Desc:     location.Locations,
		Kinds:    kinds,
		Parents:  []string{"project"},
		Parent:   h.inProject,
		PageSize: pageSize,
		Hooks: crud.Hooks[entities.Location]{
			Stamp: func(sc crud.Scope, l *entities.Location) {
				l.ProjectID, _ = sc.ID("project")
			},
			Create: func(ctx context.Context, tx *gorm.DB, sc crud.Scope, l *entities.Location, _ url.Values) error {
				return s.Create(ctx, tx, l, sc.UserID)
			},
			Update: func(ctx context.Context, tx *gorm.DB, sc crud.Scope, l, prev *entities.Location, values url.Values) error {
				return s.Update(ctx, tx, l, prev, values, sc.UserID)
			},
			Delete: func(ctx context.Context, tx *gorm.DB, _ crud.Scope, l *entities.Location) error {
				return s.Delete(ctx, tx, l)
			},
			Children: func(base string, _ *entities.Location) []render.Child {
				return []render.Child{
					{Title: "Status", URL: base + "/statuses/"},
					{Title: "Samples", URL: base + "/samples/"},
					{Title: "History", URL: base + "/history"},
				}
			},
		},
	})
	h.statuses = crud.New(crud.Config[entities.LocationStatus]{
		DB:       db,
		Desc:     location.Statuses,
		Kinds:    kinds,
		Parents:  []string{"project", "location"},
		Parent:   h.inLoc,
		PageSize: pageSize,
		Hooks: crud.Hooks[entities.LocationStatus]{
			Stamp: func(sc crud.Scope, st *entities.LocationStatus) {
				st.LocationID, _ = sc.ID("location")
			},
			Check: func(ctx context.Context, _ *gorm.DB, _ crud.Scope, st *entities.LocationStatus) map[string]string {
				return s.CheckStatus(ctx, st)
			},
			Create: func(ctx context.Context, tx *gorm.DB, sc crud.Scope, st *entities.LocationStatus, _ url.Values) error {
				return s.CreateStatus(ctx, tx, st, sc.UserID)
			},
		},
	})
	return h
}

func (h *LocationCtrl) Register(g *echo.Group) {
	g.GET("/locations/geojson", h.GeoJSON)
	h.locations.Register(g.Group("/locations"))
	g.GET("/locations/:location_pk/history", h.History)
	g.GET("/locations/:location_pk/history/", h.History)
	h.statuses.Register(g.Group("/locations/:location_pk/statuses"))
}

func pathID(c echo.Context, name, kind string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.NotFound("%s not found", kind)
	}
	return uint(id), nil
}

// History lists the audit trail of one location, newest first.
func (h *LocationCtrl) History(c echo.Context) error {
	ctx := c.Request().Context()
	pid, err := pathID(c, "project_pk", "project")
	if err != nil {
		return err
	}
	lid, err := pathID(c, "location_pk", "location")
	if err != nil {
		return err
	}
	sc := crud.Scope{UserID: middleware.UserID(c), Chain: []resource.Segment{{Kind: "project", ID: pid}, {Kind: "location", ID: lid}}}
	if err := h.inLoc(ctx, sc); err != nil {
		return err
	}
	set := query.From[entities.LocationHistory](h.db, location.History.QueryOptions()...).
		ByOwner(sc.UserID).
		ByParent("location", lid)

	if format, ok := htmx.WantsDownload(c.Request()); ok {
		header, rows, err := set.Export(ctx, location.History.Export)
		if err != nil {
			return err
		}
		metrics.Export(location.History.Kind, format)
		return export.Send(c, format, "location-"+strconv.FormatUint(uint64(lid), 10)+"-history", header, rows)
	}
	items, err := set.Find(ctx)
	if err != nil {
		return err
	}
	if crud.WantsJSON(c) {
		return c.JSON(http.StatusOK, echo.Map{"count": len(items), "results": items})
	}
	rows, err := location.History.Rows(items)
	if err != nil {
		return err
	}
	base, err := h.kinds.Path(sc.Chain...)
	if err != nil {
		return err
	}
	short, detail := location.History.Explanation()
	return c.Render(http.StatusOK, "list", render.List{
		Kind:        location.History.Kind,
		Title:       location.History.Title,
		Short:       short,
		Explanation: detail,
		Base:        base + "/" + location.History.Plural,
		Headers:     location.History.Headers(),
		Rows:        rows,
		Page:        1,
		Pages:       1,
		Total:       int64(len(items)),
		Event:       location.Locations.ChangedEvent(),
		ReadOnly:    true,
	})
}

// GeoJSON is the map layer of a project: every located location with its
// type and current status.
func (h *LocationCtrl) GeoJSON(c echo.Context) error {
	ctx := c.Request().Context()
	pid, err := pathID(c, "project_pk", "project")
	if err != nil {
		return err
	}
	sc := crud.Scope{UserID: middleware.UserID(c), Chain: []resource.Segment{{Kind: "project", ID: pid}}}
	if err := h.inProject(ctx, sc); err != nil {
		return err
	}
	items, err := query.From[entities.Location](h.db, location.Locations.QueryOptions()...).
		ByOwner(sc.UserID).
		ByParent("project", pid).
		WithAggregates(location.Locations.Aggregates...).
		Find(ctx)
	if err != nil {
		return err
	}
	base, err := h.kinds.Path(sc.Chain...)
	if err != nil {
		return err
	}
	features := make([]geo.Feature, 0, len(items))
	for _, l := range items {
		features = append(features, geo.Feature{
			ID:  l.ID,
			Lat: l.Latitude,
			Lon: l.Longitude,
			Properties: map[string]any{
				"name":   l.Name,
				"type":   l.Type,
				"status": l.LatestStatus,
				"url":    base + "/locations/" + strconv.FormatUint(uint64(l.ID), 10) + "/overview",
			},
		})
	}
	b, err := geo.FeatureCollection(features)
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/geo+json", b)
}
