package controller

import "github.com/labstack/echo/v4"

type LocationController interface {
	Register(project *echo.Group)
	History(c echo.Context) error
	GeoJSON(c echo.Context) error
}
