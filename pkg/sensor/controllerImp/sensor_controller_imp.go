package controllerImp

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"watersync/entities"
	"watersync/pkg/apperr"
	"watersync/pkg/crud"
	"watersync/pkg/export"
	"watersync/pkg/forms"
	"watersync/pkg/htmx"
	"watersync/pkg/metrics"
	"watersync/pkg/project"
	"watersync/pkg/render"
	"watersync/pkg/resource"
	"watersync/pkg/sensor"
	"watersync/pkg/sensor/controller"
	"watersync/pkg/sensor/service"
)

// maxUpload bounds a record CSV upload.
const maxUpload = 32 << 20

type SensorCtrl struct {
	db          *gorm.DB
	s           service.SensorService
	sensors     *crud.Controller[entities.Sensor]
	deployments *crud.Controller[entities.Deployment]
	records     *crud.Controller[entities.SensorRecord]
}

var _ controller.SensorController = (*SensorCtrl)(nil)

func New(db *gorm.DB, kinds *resource.Registry, s service.SensorService, pageSize int) *SensorCtrl {
	h := &SensorCtrl{db: db, s: s}
	h.sensors = crud.New(crud.Config[entities.Sensor]{
		DB:       db,
		Desc:     sensor.Sensors,
		Kinds:    kinds,
		PageSize: pageSize,
		Hooks: crud.Hooks[entities.Sensor]{
			Create: func(ctx context.Context, tx *gorm.DB, sc crud.Scope, sn *entities.Sensor, _ url.Values) error {
				return s.Create(ctx, tx, sn, sc.UserID)
			},
			Delete: func(ctx context.Context, tx *gorm.DB, _ crud.Scope, sn *entities.Sensor) error {
				return s.Delete(ctx, tx, sn)
			},
		},
	})
	h.deployments = crud.New(crud.Config[entities.Deployment]{
		DB:       db,
		Desc:     sensor.Deployments,
		Kinds:    kinds,
		Parents:  []string{"project"},
		Parent:   crud.Within(db, project.Projects),
		PageSize: pageSize,
		Hooks: crud.Hooks[entities.Deployment]{
			Check: func(ctx context.Context, _ *gorm.DB, sc crud.Scope, d *entities.Deployment) map[string]string {
				pid, _ := sc.ID("project")
				return s.CheckDeployment(ctx, pid, sc.UserID, d)
			},
			Create: func(ctx context.Context, tx *gorm.DB, _ crud.Scope, d *entities.Deployment, _ url.Values) error {
				return s.Deploy(ctx, tx, d)
			},
			Update: func(ctx context.Context, tx *gorm.DB, _ crud.Scope, d, prev *entities.Deployment, _ url.Values) error {
				return s.UpdateDeployment(ctx, tx, d, prev)
			},
			Delete: func(ctx context.Context, tx *gorm.DB, _ crud.Scope, d *entities.Deployment) error {
				return s.DeleteDeployment(ctx, tx, d)
			},
			Children: func(base string, _ *entities.Deployment) []render.Child {
				return []render.Child{{Title: "Records", URL: base + "/records/"}}
			},
		},
	})
	h.records = crud.New(crud.Config[entities.SensorRecord]{
		DB:       db,
		Desc:     sensor.Records,
		Kinds:    kinds,
		Parents:  []string{"project", "deployment"},
		Parent:   crud.Within(db, sensor.Deployments),
		PageSize: pageSize,
		Hooks: crud.Hooks[entities.SensorRecord]{
			Stamp: func(sc crud.Scope, r *entities.SensorRecord) {
				r.DeploymentID, _ = sc.ID("deployment")
			},
		},
	})
	return h
}

func (h *SensorCtrl) Register(e *echo.Echo, g *echo.Group, mw ...echo.MiddlewareFunc) {
	h.sensors.Register(e.Group("/sensors", mw...))
	deployments := g.Group("/deployments")
	deployments.POST("/:id/decommission", h.Decommission)
	h.deployments.Register(deployments)
	records := g.Group("/deployments/:deployment_pk/records")
	records.POST("/upload", h.Upload)
	h.records.Register(records)
}

// Decommission closes an open deployment. decommissioned_at defaults to now.
func (h *SensorCtrl) Decommission(c echo.Context) error {
	ctx := c.Request().Context()
	_, d, err := h.deployments.Load(c)
	if err != nil {
		return err
	}
	var at time.Time
	if raw := strings.TrimSpace(c.FormValue("decommissioned_at")); raw != "" {
		at, err = forms.ParseTime(raw)
		if err != nil {
			return apperr.Invalid(map[string]string{"decommissioned_at": "Enter a valid date and time."})
		}
	}
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return h.s.Decommission(ctx, tx, d, at)
	})
	if err != nil {
		metrics.Mutation(sensor.Deployments.Kind, "decommission", resultOf(err))
		return err
	}
	metrics.Mutation(sensor.Deployments.Kind, "decommission", metrics.ResultSuccess)
	return h.deployments.Respond(c, http.StatusOK)
}

// Upload reads a CSV of readings from the "file" field.
func (h *SensorCtrl) Upload(c echo.Context) error {
	ctx := c.Request().Context()
	sc, err := h.records.Resolve(c)
	if err != nil {
		return err
	}
	did, _ := sc.ID("deployment")

	fh, err := c.FormFile("file")
	if err != nil {
		return apperr.Invalid(map[string]string{"file": "Choose a CSV file to upload."})
	}
	if fh.Size > maxUpload {
		return apperr.Invalid(map[string]string{"file": "The file is too large."})
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()
	rows, err := export.ReadCSV(f)
	if err != nil {
		return err
	}

	var created, skipped int
	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		created, skipped, err = h.s.Upload(ctx, tx, did, rows)
		return err
	})
	if err != nil {
		metrics.Mutation(sensor.Records.Kind, "upload", resultOf(err))
		return err
	}
	metrics.Mutation(sensor.Records.Kind, "upload", metrics.ResultSuccess)
	if htmx.IsFragment(c.Request()) {
		htmx.Trigger(c, sensor.Records.ChangedEvent())
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusCreated, echo.Map{"created": created, "skipped": skipped})
}

func resultOf(err error) string {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return metrics.ResultInvalid
	case apperr.KindConflict:
		return metrics.ResultConflict
	}
	return metrics.ResultError
}
