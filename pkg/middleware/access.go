package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"watersync/entities"
	"watersync/pkg/apperr"
	"watersync/pkg/htmx"
)

const ApprovalPendingPath = "/approval-pending"

// RequireLogin sends anonymous browsers to /login and answers 401 to
// everything else.
func RequireLogin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c) != nil {
				return next(c)
			}
			r := c.Request()
			if htmx.IsFragment(r) {
				htmx.Redirect(c, "/login")
				return c.NoContent(http.StatusUnauthorized)
			}
			if r.Method == http.MethodGet && acceptsHTML(c) {
				return c.Redirect(http.StatusFound, "/login?next="+r.URL.RequestURI())
			}
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
		}
	}
}

// RequireApproved rejects users staff have not approved yet. Browsers are
// redirected to the approval-pending page.
func RequireApproved() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return RequireLogin()(func(c echo.Context) error {
			if CurrentUser(c).Approved {
				return next(c)
			}
			if htmx.IsFragment(c.Request()) {
				htmx.Redirect(c, ApprovalPendingPath)
				return c.NoContent(http.StatusForbidden)
			}
			if acceptsHTML(c) {
				return c.Redirect(http.StatusFound, ApprovalPendingPath)
			}
			return apperr.Forbidden("your account is awaiting approval")
		})
	}
}

func RequireStaff() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if u := CurrentUser(c); u == nil || !u.Staff {
				return apperr.Forbidden("staff only")
			}
			return next(c)
		}
	}
}

// ProjectMember guards every /projects/:project_pk route: the project must
// exist and the user must be one of its members.
func ProjectMember(db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Param("project_pk")
			if raw == "" {
				return next(c)
			}
			pid, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				return apperr.NotFound("project not found")
			}
			ctx := c.Request().Context()
			var p entities.Project
			err = db.WithContext(ctx).Select("id").First(&p, pid).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("project %d not found", pid)
			}
			if err != nil {
				return err
			}
			var n int64
			err = db.WithContext(ctx).Table("project_members").
				Where("project_id = ? AND user_id = ?", pid, UserID(c)).Count(&n).Error
			if err != nil {
				return err
			}
			if n == 0 {
				return apperr.Forbidden("you are not a member of this project")
			}
			return next(c)
		}
	}
}

func acceptsHTML(c echo.Context) bool {
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), echo.MIMETextHTML)
}
