package controller

import "github.com/labstack/echo/v4"

type ProjectController interface {
	Register(e *echo.Echo, member *echo.Group, mw ...echo.MiddlewareFunc)
	Members(c echo.Context) error
	AddMember(c echo.Context) error
	RemoveMember(c echo.Context) error
}
