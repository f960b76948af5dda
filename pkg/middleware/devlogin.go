package middleware

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"

	"watersync/entities"
	"watersync/pkg/apperr"
	"watersync/pkg/auth/repository"
	"watersync/pkg/auth/session"
)

const devEmail = "dev@localhost"

// DevLogin signs every anonymous request in as an approved staff user. It is
// only installed when DEV_LOGIN=true. ?uid=<email> picks another dev user.
func DevLogin(secret []byte, users repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentUser(c) != nil {
				return next(c)
			}
			email := c.QueryParam("uid")
			if email == "" {
				email = devEmail
			}
			ctx := c.Request().Context()
			u, err := users.FindByEmail(ctx, email)
			if apperr.Is(err, apperr.KindNotFound) {
				u = &entities.User{Email: email, Name: "Developer", Approved: true, Staff: true}
				err = users.Create(ctx, u)
				if err == nil {
					log.Printf("[auth] dev user %s created", email)
				}
			}
			if err != nil {
				return err
			}
			if tok, err := session.Issue(secret, u.ID, u.Email, 24*time.Hour); err == nil {
				SetCookie(c, tok, 24*60*60)
			}
			SetUser(c, u)
			return next(c)
		}
	}
}
