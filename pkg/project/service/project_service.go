package service

import (
	"context"

	"gorm.io/gorm"

	"watersync/entities"
)

type ProjectService interface {
	// Create stores p and makes creatorID its first member.
	Create(ctx context.Context, tx *gorm.DB, p *entities.Project, creatorID uint) error
	// Delete refuses while locations remain and otherwise cascades to the
	// project's fieldwork.
	Delete(ctx context.Context, tx *gorm.DB, p *entities.Project) error
	Members(ctx context.Context, projectID uint) ([]entities.User, error)
	AddMember(ctx context.Context, projectID, userID uint) error
	RemoveMember(ctx context.Context, projectID, userID uint) error
}
