package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"watersync/entities"
)

type SensorService interface {
	// Create stores a new, available sensor owned by userID.
	Create(ctx context.Context, tx *gorm.DB, s *entities.Sensor, userID uint) error
	// Delete refuses while any deployment refers to s.
	Delete(ctx context.Context, tx *gorm.DB, s *entities.Sensor) error

	CheckDeployment(ctx context.Context, projectID, userID uint, d *entities.Deployment) map[string]string
	// Deploy fails with a Conflict, leaving everything unchanged, when the
	// sensor is not available.
	Deploy(ctx context.Context, tx *gorm.DB, d *entities.Deployment) error
	UpdateDeployment(ctx context.Context, tx *gorm.DB, d, prev *entities.Deployment) error
	// Decommission closes d at the given time and frees its sensor.
	Decommission(ctx context.Context, tx *gorm.DB, d *entities.Deployment, at time.Time) error
	DeleteDeployment(ctx context.Context, tx *gorm.DB, d *entities.Deployment) error

	// Upload stores the parsed CSV rows as readings of deploymentID.
	Upload(ctx context.Context, tx *gorm.DB, deploymentID uint, rows []map[string]string) (created, skipped int, err error)
}
