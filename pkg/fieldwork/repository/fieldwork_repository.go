package repository

import (
	"context"

	"gorm.io/gorm"

	"watersync/entities"
)

type FieldworkRepository interface {
	WithTx(tx *gorm.DB) FieldworkRepository
	Create(ctx context.Context, f *entities.Fieldwork) error
	// Delete removes the fieldwork with its visits and groundwater levels.
	Delete(ctx context.Context, f *entities.Fieldwork) error
	// DeleteVisit clears references to the visit before removing it.
	DeleteVisit(ctx context.Context, v *entities.LocationVisit) error
	LocationInProject(ctx context.Context, projectID, locationID uint) (bool, error)
}
