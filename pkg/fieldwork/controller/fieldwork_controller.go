package controller

import "github.com/labstack/echo/v4"

// FieldworkController mounts fieldwork and visits below a project group.
type FieldworkController interface {
	Register(project *echo.Group)
}
