package service

import (
	"context"

	"gorm.io/gorm"

	"watersync/entities"
)

type FieldworkService interface {
	Create(ctx context.Context, tx *gorm.DB, f *entities.Fieldwork, userID uint) error
	Delete(ctx context.Context, tx *gorm.DB, f *entities.Fieldwork) error
	DeleteVisit(ctx context.Context, tx *gorm.DB, v *entities.LocationVisit) error
	// CheckVisit returns form errors for a visit to a location outside the
	// fieldwork's project.
	CheckVisit(ctx context.Context, projectID uint, v *entities.LocationVisit) map[string]string
}
