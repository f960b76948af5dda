package service

import (
	"context"

	"watersync/entities"
)

// SignupForm is posted by /signup.
type SignupForm struct {
	Email    string `form:"email" validate:"required,email,max=254"`
	Name     string `form:"name" validate:"max=100"`
	Password string `form:"password" input:"password" validate:"required,min=8,max=72"`
}

type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" input:"password" validate:"required"`
}

type AuthService interface {
	Signup(ctx context.Context, in SignupForm) (*entities.User, error)
	// Login returns a signed session token for valid credentials.
	Login(ctx context.Context, in LoginForm) (string, *entities.User, error)
	Token(u *entities.User) (string, error)
	Pending(ctx context.Context) ([]entities.User, error)
	Approve(ctx context.Context, id uint) error
}
