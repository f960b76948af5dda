package controllerImp

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"watersync/pkg/apperr"
	"watersync/pkg/auth/controller"
	"watersync/pkg/auth/service"
	"watersync/pkg/forms"
	"watersync/pkg/middleware"
	"watersync/pkg/render"
)

type authCtrl struct {
	s   service.AuthService
	ttl time.Duration
}

func NewAuthController(s service.AuthService, ttl time.Duration) controller.AuthController {
	return &authCtrl{s: s, ttl: ttl}
}

func (h *authCtrl) SignupPage(c echo.Context) error {
	return c.Render(http.StatusOK, "signup", formView("Sign up", &service.SignupForm{}, nil, nil))
}

func (h *authCtrl) Signup(c echo.Context) error {
	values, err := c.FormParams()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad form"})
	}
	var in service.SignupForm
	if errs := forms.Check(values, &in); len(errs) > 0 {
		return c.Render(http.StatusBadRequest, "signup", formView("Sign up", &in, values, errs))
	}
	u, err := h.s.Signup(c.Request().Context(), in)
	if apperr.Is(err, apperr.KindValidation) {
		return c.Render(http.StatusBadRequest, "signup", formView("Sign up", &in, values, apperr.FieldsOf(err)))
	}
	if err != nil {
		return err
	}
	tok, err := h.s.Token(u)
	if err != nil {
		return err
	}
	middleware.SetCookie(c, tok, int(h.ttl.Seconds()))
	return c.Redirect(http.StatusSeeOther, middleware.ApprovalPendingPath)
}

func (h *authCtrl) LoginPage(c echo.Context) error {
	return c.Render(http.StatusOK, "login", formView("Log in", &service.LoginForm{}, nil, nil))
}

func (h *authCtrl) Login(c echo.Context) error {
	values, err := c.FormParams()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "bad form"})
	}
	var in service.LoginForm
	if errs := forms.Check(values, &in); len(errs) > 0 {
		return c.Render(http.StatusBadRequest, "login", formView("Log in", &in, values, errs))
	}
	tok, u, err := h.s.Login(c.Request().Context(), in)
	if apperr.Is(err, apperr.KindValidation) {
		return c.Render(http.StatusBadRequest, "login", formView("Log in", &in, values, apperr.FieldsOf(err)))
	}
	if err != nil {
		return err
	}
	middleware.SetCookie(c, tok, int(h.ttl.Seconds()))
	if !u.Approved {
		return c.Redirect(http.StatusSeeOther, middleware.ApprovalPendingPath)
	}
	return c.Redirect(http.StatusSeeOther, safeNext(c.QueryParam("next")))
}

func (h *authCtrl) Logout(c echo.Context) error {
	middleware.ClearCookie(c)
	return c.Redirect(http.StatusSeeOther, "/login")
}

func (h *authCtrl) WhoAmI(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not logged in"})
	}
	return c.JSON(http.StatusOK, u)
}

func (h *authCtrl) ApprovalPending(c echo.Context) error {
	return c.Render(http.StatusOK, "message", render.Message{
		Title: "Approval pending",
		Text:  "Your account has been created and is waiting for approval by a staff member.",
	})
}

// Pending lists accounts awaiting approval. Staff only.
func (h *authCtrl) Pending(c echo.Context) error {
	users, err := h.s.Pending(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (h *authCtrl) Approve(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.s.Approve(c.Request().Context(), uint(id)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Success"})
}

func formView(title string, src any, values url.Values, errs map[string]string) render.Form {
	fields := forms.Fields(src, values, errs)
	for i := range fields {
		if fields[i].Input == "password" {
			fields[i].Value = ""
		}
	}
	v := render.Form{Title: title, Fields: fields}
	if msg, ok := errs[apperr.NonField]; ok {
		v.Errors = []string{msg}
	}
	return v
}

// safeNext only follows local paths.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/projects/"
	}
	return next
}
