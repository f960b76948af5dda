package controllerImp

import (
	"context"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"watersync/entities"
	"watersync/pkg/crud"
	"watersync/pkg/fieldwork"
	"watersync/pkg/groundwater"
	"watersync/pkg/groundwater/controller"
	"watersync/pkg/groundwater/service"
	"watersync/pkg/resource"
)

type GroundwaterCtrl struct {
	levels *crud.Controller[entities.GWLMeasurement]
}

var _ controller.GroundwaterController = (*GroundwaterCtrl)(nil)

func New(db *gorm.DB, kinds *resource.Registry, s service.GroundwaterService, pageSize int) *GroundwaterCtrl {
	return &GroundwaterCtrl{levels: crud.New(crud.Config[entities.GWLMeasurement]{
		DB:       db,
		Desc:     groundwater.Levels,
		Kinds:    kinds,
		Parents:  []string{"project", "fieldwork"},
		Parent:   crud.Within(db, fieldwork.Fieldworks),
		PageSize: pageSize,
		Hooks: crud.Hooks[entities.GWLMeasurement]{
			Stamp: func(sc crud.Scope, m *entities.GWLMeasurement) {
				m.FieldworkID, _ = sc.ID("fieldwork")
			},
			Check: func(ctx context.Context, _ *gorm.DB, sc crud.Scope, m *entities.GWLMeasurement) map[string]string {
				pid, _ := sc.ID("project")
				return s.Check(ctx, pid, m)
			},
			Loaded: func(ctx context.Context, _ *gorm.DB, items []*entities.GWLMeasurement) error {
				return s.Elevations(ctx, items)
			},
		},
	})}
}

func (h *GroundwaterCtrl) Register(g *echo.Group) {
	h.levels.Register(g.Group("/fieldworks/:fieldwork_pk/gwlmeasurements"))
}
