package controller

import "github.com/labstack/echo/v4"

type WaterQualityController interface {
	// Register mounts the shared reference data at the root, guarded by mw,
	// and samples with their measurements on project.
	Register(e *echo.Echo, project *echo.Group, mw ...echo.MiddlewareFunc)
}
