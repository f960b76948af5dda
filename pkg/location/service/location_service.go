package service

import (
	"context"
	"net/url"
	"time"

	"gorm.io/gorm"

	"watersync/entities"
)

type LocationService interface {
	Create(ctx context.Context, tx *gorm.DB, l *entities.Location, userID uint) error
	// Update saves l and records what changed since prev. The optional
	// history_date and history_reason values date and explain the change.
	Update(ctx context.Context, tx *gorm.DB, l, prev *entities.Location, values url.Values, userID uint) error
	// Delete refuses while deployments or groundwater levels refer to l.
	Delete(ctx context.Context, tx *gorm.DB, l *entities.Location) error
	CreateStatus(ctx context.Context, tx *gorm.DB, s *entities.LocationStatus, userID uint) error
	CheckStatus(ctx context.Context, s *entities.LocationStatus) map[string]string
	// CasingTopAt is the well's casing top as it was at t, nil when unknown.
	CasingTopAt(ctx context.Context, l *entities.Location, t time.Time) (*float64, error)
}
