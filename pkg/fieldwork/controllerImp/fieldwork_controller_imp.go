package controllerImp

import (
	"context"
	"net/url"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"watersync/entities"
	"watersync/pkg/crud"
	"watersync/pkg/fieldwork"
	"watersync/pkg/fieldwork/controller"
	"watersync/pkg/fieldwork/service"
	"watersync/pkg/project"
	"watersync/pkg/render"
	"watersync/pkg/resource"
)

type FieldworkCtrl struct {
	fieldworks *crud.Controller[entities.Fieldwork]
	visits     *crud.Controller[entities.LocationVisit]
}

var _ controller.FieldworkController = (*FieldworkCtrl)(nil)

func New(db *gorm.DB, kinds *resource.Registry, s service.FieldworkService, pageSize int) *FieldworkCtrl {
	inProject := crud.Within(db, project.Projects)
	h := &FieldworkCtrl{}
	h.fieldworks = crud.New(crud.Config[entities.Fieldwork]{
		DB:       db,
		Desc:     fieldwork.Fieldworks,
		Kinds:    kinds,
		Parents:  []string{"project"},
		Parent:   inProject,
		PageSize: pageSize,
		Hooks: crud.Hooks[entities.Fieldwork]{
			Stamp: func(sc crud.Scope, f *entities.Fieldwork) {
				f.ProjectID, _ = sc.ID("project")
			},
			Create: func(ctx context.Context, tx *gorm.DB, sc crud.Scope, f *entities.Fieldwork, _ url.Values) error {
				return s.Create(ctx, tx, f, sc.UserID)
			},
			Delete: func(ctx context.Context, tx *gorm.DB, _ crud.Scope, f *entities.Fieldwork) error {
				return s.Delete(ctx, tx, f)
			},
			Children: func(base string, _ *entities.Fieldwork) []render.Child {
				return []render.Child{
					{Title: "Visits", URL: base + "/visits/"},
					{Title: "Groundwater levels", URL: base + "/gwlmeasurements/"},
				}
			},
		},
	})
	h.visits = crud.New(crud.Config[entities.LocationVisit]{
		DB:       db,
		Desc:     fieldwork.Visits,
		Kinds:    kinds,
		Parents:  []string{"project", "fieldwork"},
		Parent:   crud.Within(db, fieldwork.Fieldworks),
		PageSize: pageSize,
		Hooks: crud.Hooks[entities.LocationVisit]{
			Stamp: func(sc crud.Scope, v *entities.LocationVisit) {
				v.FieldworkID, _ = sc.ID("fieldwork")
			},
			Check: func(ctx context.Context, _ *gorm.DB, sc crud.Scope, v *entities.LocationVisit) map[string]string {
				pid, _ := sc.ID("project")
				return s.CheckVisit(ctx, pid, v)
			},
			Delete: func(ctx context.Context, tx *gorm.DB, _ crud.Scope, v *entities.LocationVisit) error {
				return s.DeleteVisit(ctx, tx, v)
			},
		},
	})
	return h
}

func (h *FieldworkCtrl) Register(g *echo.Group) {
	h.fieldworks.Register(g.Group("/fieldworks"))
	h.visits.Register(g.Group("/fieldworks/:fieldwork_pk/visits"))
}
