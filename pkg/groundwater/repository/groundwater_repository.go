package repository

import (
	"context"

	"watersync/entities"
)

type GroundwaterRepository interface {
	WellInProject(ctx context.Context, projectID, locationID uint) (bool, error)
	Fieldworks(ctx context.Context, ids []uint) (map[uint]entities.Fieldwork, error)
	Locations(ctx context.Context, ids []uint) (map[uint]entities.Location, error)
}
