package controller

import "github.com/labstack/echo/v4"

type SensorController interface {
	// Register mounts /sensors, guarded by mw, and deployments with their
	// records on project.
	Register(e *echo.Echo, project *echo.Group, mw ...echo.MiddlewareFunc)
	Decommission(c echo.Context) error
	Upload(c echo.Context) error
}
