package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"watersync/entities"
	"watersync/pkg/auth/repository"
	"watersync/pkg/auth/session"
)

const (
	keyUID  = "uid"
	keyUser = "user"
)

// Session identifies the user from the session cookie or, for API clients,
// an "Authorization: Bearer" header. Requests without a valid token pass
// through anonymous; RequireApproved decides what they may reach.
func Session(secret []byte, users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tok := ""
			if ck, err := c.Cookie(session.CookieName); err == nil {
				tok = ck.Value
			}
			if h := c.Request().Header.Get(echo.HeaderAuthorization); tok == "" && strings.HasPrefix(h, "Bearer ") {
				tok = strings.TrimPrefix(h, "Bearer ")
			}
			if tok == "" {
				return next(c)
			}
			claims, err := session.Parse(tok, secret)
			if err != nil {
				ClearCookie(c)
				return next(c)
			}
			id, _ := claims.UserID()
			u, err := users.FindByID(c.Request().Context(), id)
			if err != nil {
				ClearCookie(c)
				return next(c)
			}
			SetUser(c, u)
			return next(c)
		}
	}
}

func SetUser(c echo.Context, u *entities.User) {
	c.Set(keyUID, u.ID)
	c.Set(keyUser, u)
}

// CurrentUser is nil for anonymous requests.
func CurrentUser(c echo.Context) *entities.User {
	u, _ := c.Get(keyUser).(*entities.User)
	return u
}

func UserID(c echo.Context) uint {
	id, _ := c.Get(keyUID).(uint)
	return id
}

func SetCookie(c echo.Context, token string, maxAge int) {
	c.SetCookie(&http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearCookie(c echo.Context) { SetCookie(c, "", -1) }
