package repository

import (
	"context"

	"watersync/entities"
)

type UserRepository interface {
	Create(ctx context.Context, u *entities.User) error
	FindByID(ctx context.Context, id uint) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	ListPending(ctx context.Context) ([]entities.User, error)
	Approve(ctx context.Context, id uint) error
}
