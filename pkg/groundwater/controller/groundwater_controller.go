package controller

import "github.com/labstack/echo/v4"

type GroundwaterController interface {
	Register(project *echo.Group)
}
