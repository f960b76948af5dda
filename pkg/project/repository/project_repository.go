package repository

import (
	"context"

	"gorm.io/gorm"

	"watersync/entities"
)

type ProjectRepository interface {
	WithTx(tx *gorm.DB) ProjectRepository
	Create(ctx context.Context, p *entities.Project) error
	AddMember(ctx context.Context, projectID, userID uint) error
	RemoveMember(ctx context.Context, projectID, userID uint) error
	Members(ctx context.Context, projectID uint) ([]entities.User, error)
	CountLocations(ctx context.Context, projectID uint) (int64, error)
	// DeleteWithFieldwork removes the project, its membership rows and its
	// fieldwork together with everything recorded during that fieldwork.
	DeleteWithFieldwork(ctx context.Context, p *entities.Project) error
}
