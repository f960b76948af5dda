package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"watersync/entities"
)

type LocationRepository interface {
	WithTx(tx *gorm.DB) LocationRepository
	Create(ctx context.Context, l *entities.Location) error
	Save(ctx context.Context, l *entities.Location) error
	AppendHistory(ctx context.Context, rows []entities.LocationHistory) error
	// Blockers counts the rows that keep a location from being deleted.
	Blockers(ctx context.Context, locationID uint) (deployments, levels int64, err error)
	// Delete removes the location with its statuses, history, visits,
	// samples and their measurements.
	Delete(ctx context.Context, l *entities.Location) error
	CreateStatus(ctx context.Context, s *entities.LocationStatus) error
	VisitOfLocation(ctx context.Context, locationID, visitID uint) (bool, error)
	// ValueAt returns the value field had at t according to the history,
	// or ok=false when it has not changed since.
	ValueAt(ctx context.Context, locationID uint, field string, t time.Time) (value string, ok bool, err error)
}
