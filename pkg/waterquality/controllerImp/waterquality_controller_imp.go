package controllerImp

import (
	"context"
	"net/url"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"watersync/entities"
	"watersync/pkg/crud"
	"watersync/pkg/location"
	"watersync/pkg/render"
	"watersync/pkg/resource"
	"watersync/pkg/waterquality"
	"watersync/pkg/waterquality/controller"
	"watersync/pkg/waterquality/service"
)

type WaterQualityCtrl struct {
	protocols    *crud.Controller[entities.Protocol]
	groups       *crud.Controller[entities.ParameterGroup]
	parameters   *crud.Controller[entities.Parameter]
	samples      *crud.Controller[entities.Sample]
	measurements *crud.Controller[entities.Measurement]
}

var _ controller.WaterQualityController = (*WaterQualityCtrl)(nil)

func New(db *gorm.DB, kinds *resource.Registry, s service.WaterQualityService, pageSize int) *WaterQualityCtrl {
	h := &WaterQualityCtrl{}
	h.protocols = crud.New(crud.Config[entities.Protocol]{
		DB:       db,
		Desc:     waterquality.Protocols,
		Kinds:    kinds,
		PageSize: pageSize,
		Hooks: crud.Hooks[entities.Protocol]{
			Create: func(ctx context.Context, tx *gorm.DB, sc crud.Scope, p *entities.Protocol, _ url.Values) error {
				return s.CreateProtocol(ctx, tx, p, sc.UserID)
			},
			Delete: func(ctx context.Context, tx *gorm.DB, _ crud.Scope, p *entities.Protocol) error {
				return s.DeleteProtocol(ctx, tx, p)
			},
		},
	})
	h.groups = crud.New(crud.Config[entities.ParameterGroup]{
		DB:       db,
		Desc:     waterquality.ParameterGroups,
		Kinds:    kinds,
		PageSize: pageSize,
		Hooks: crud.Hooks[entities.ParameterGroup]{
			Delete: func(ctx context.Context, tx *gorm.DB, _ crud.Scope, g *entities.ParameterGroup) error {
				return s.DeleteGroup(ctx, tx, g)
			},
			Children: func(base string, _ *entities.ParameterGroup) []render.Child {
				return []render.Child{{Title: "Parameters", URL: base + "/parameters/"}}
			},
		},
	})
	h.parameters = crud.New(crud.Config[entities.Parameter]{
		DB:       db,
		Desc:     waterquality.Parameters,
		Kinds:    kinds,
		Parents:  []string{"parameter_group"},
		Parent:   crud.Within(db, waterquality.ParameterGroups),
		PageSize: pageSize,
		Hooks: crud.Hooks[entities.Parameter]{
			Stamp: func(sc crud.Scope, p *entities.Parameter) {
				if id, ok := sc.ID("parameter_group"); ok {
					p.ParameterGroupID = &id
				}
			},
		},
	})
	h.samples = crud.New(crud.Config[entities.Sample]{
		DB:       db,
		Desc:     waterquality.Samples,
		Kinds:    kinds,
		Parents:  []string{"project", "location"},
		Parent:   crud.Within(db, location.Locations),
		PageSize: pageSize,
		Hooks: crud.Hooks[entities.Sample]{
			Stamp: func(sc crud.Scope, smp *entities.Sample) {
				smp.LocationID, _ = sc.ID("location")
			},
			Check: func(ctx context.Context, _ *gorm.DB, sc crud.Scope, smp *entities.Sample) map[string]string {
				return s.CheckSample(ctx, sc.UserID, smp)
			},
			Delete: func(ctx context.Context, tx *gorm.DB, _ crud.Scope, smp *entities.Sample) error {
				return s.DeleteSample(ctx, tx, smp)
			},
			Children: func(base string, _ *entities.Sample) []render.Child {
				return []render.Child{{Title: "Measurements", URL: base + "/measurements/"}}
			},
		},
	})
	h.measurements = crud.New(crud.Config[entities.Measurement]{
		DB:       db,
		Desc:     waterquality.Measurements,
		Kinds:    kinds,
		Parents:  []string{"project", "location", "sample"},
		Parent:   crud.Within(db, waterquality.Samples),
		PageSize: pageSize,
		Hooks: crud.Hooks[entities.Measurement]{
			Stamp: func(sc crud.Scope, m *entities.Measurement) {
				m.SampleID, _ = sc.ID("sample")
			},
			Bulk: func(ctx context.Context, tx *gorm.DB, sc crud.Scope, values url.Values) (int, error) {
				sid, _ := sc.ID("sample")
				return s.BulkMeasurements(ctx, tx, sid, values)
			},
		},
	})
	return h
}

func (h *WaterQualityCtrl) Register(e *echo.Echo, g *echo.Group, mw ...echo.MiddlewareFunc) {
	h.protocols.Register(e.Group("/protocols", mw...))
	h.groups.Register(e.Group("/parameter-groups", mw...))
	h.parameters.Register(e.Group("/parameter-groups/:parameter_group_pk/parameters", mw...))
	h.samples.Register(g.Group("/locations/:location_pk/samples"))
	h.measurements.Register(g.Group("/locations/:location_pk/samples/:sample_pk/measurements"))
}
