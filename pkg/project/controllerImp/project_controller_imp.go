package controllerImp

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"watersync/entities"
	"watersync/pkg/crud"
	"watersync/pkg/middleware"
	"watersync/pkg/project"
	"watersync/pkg/project/controller"
	"watersync/pkg/project/service"
	"watersync/pkg/render"
	"watersync/pkg/resource"
)

type ProjectCtrl struct {
	s    service.ProjectService
	crud *crud.Controller[entities.Project]
}

func New(db *gorm.DB, kinds *resource.Registry, s service.ProjectService, pageSize int) *ProjectCtrl {
	h := &ProjectCtrl{s: s}
	h.crud = crud.New(crud.Config[entities.Project]{
		DB:       db,
		Desc:     project.Projects,
		Kinds:    kinds,
		PageSize: pageSize,
		Hooks: crud.Hooks[entities.Project]{
			Create: func(ctx context.Context, tx *gorm.DB, sc crud.Scope, p *entities.Project, _ url.Values) error {
				return s.Create(ctx, tx, p, sc.UserID)
			},
			Delete: func(ctx context.Context, tx *gorm.DB, _ crud.Scope, p *entities.Project) error {
				return s.Delete(ctx, tx, p)
			},
			Children: func(base string, p *entities.Project) []render.Child {
				return []render.Child{
					{Title: "Locations", URL: base + "/locations/"},
					{Title: "Fieldwork", URL: base + "/fieldworks/"},
					{Title: "Deployments", URL: base + "/deployments/"},
					{Title: "Map", URL: base + "/locations/geojson"},
					{Title: "Members", URL: base + "/members"},
				}
			},
		},
	})
	return h
}

var _ controller.ProjectController = (*ProjectCtrl)(nil)

// Register mounts /projects behind mw and the member routes on member, the
// /projects/:project_pk group guarded by membership.
func (h *ProjectCtrl) Register(e *echo.Echo, member *echo.Group, mw ...echo.MiddlewareFunc) {
	h.crud.Register(e.Group("/projects", mw...))
	member.GET("/members", h.Members)
	member.POST("/members", h.AddMember)
	member.DELETE("/members/:user_id", h.RemoveMember)
}

func (h *ProjectCtrl) Members(c echo.Context) error {
	pid, err := parseUint(c.Param("project_pk"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
	}
	users, err := h.s.Members(c.Request().Context(), uint(pid))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (h *ProjectCtrl) AddMember(c echo.Context) error {
	pid, err := parseUint(c.Param("project_pk"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
	}
	uid, err := parseUint(c.FormValue("user_id"))
	if err != nil || uid == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
	}
	if err := h.s.AddMember(c.Request().Context(), uint(pid), uint(uid)); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "Success"})
}

func (h *ProjectCtrl) RemoveMember(c echo.Context) error {
	pid, err := parseUint(c.Param("project_pk"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
	}
	uid, err := parseUint(c.Param("user_id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
	}
	if uint(uid) == middleware.UserID(c) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "you cannot remove yourself"})
	}
	if err := h.s.RemoveMember(c.Request().Context(), uint(pid), uint(uid)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Success"})
}

func parseUint(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
