package controller

import "github.com/labstack/echo/v4"

type AuthController interface {
	SignupPage(c echo.Context) error
	Signup(c echo.Context) error
	LoginPage(c echo.Context) error
	Login(c echo.Context) error
	Logout(c echo.Context) error
	WhoAmI(c echo.Context) error
	ApprovalPending(c echo.Context) error
	Pending(c echo.Context) error
	Approve(c echo.Context) error
}
