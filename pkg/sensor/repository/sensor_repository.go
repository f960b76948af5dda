package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"watersync/entities"
)

type SensorRepository interface {
	WithTx(tx *gorm.DB) SensorRepository
	Create(ctx context.Context, s *entities.Sensor) error
	AddUser(ctx context.Context, sensorID, userID uint) error
	CountDeployments(ctx context.Context, sensorID uint) (int64, error)
	Delete(ctx context.Context, s *entities.Sensor) error
	// Claim flips an available sensor to unavailable and reports whether
	// it did; a sensor that is already out is left alone.
	Claim(ctx context.Context, sensorID uint) (bool, error)
	Release(ctx context.Context, sensorID uint) error
	FindSensor(ctx context.Context, sensorID uint) (*entities.Sensor, error)
	SensorOwnedBy(ctx context.Context, sensorID, userID uint) (bool, error)
	LocationInProject(ctx context.Context, projectID, locationID uint) (bool, error)
	CreateDeployment(ctx context.Context, d *entities.Deployment) error
	CloseDeployment(ctx context.Context, d *entities.Deployment, at time.Time) error
	DeleteDeployment(ctx context.Context, d *entities.Deployment) error
	FindDeployment(ctx context.Context, id uint) (*entities.Deployment, error)
	// InsertRecords skips rows that collide with stored readings and
	// returns how many were written.
	InsertRecords(ctx context.Context, rows []entities.SensorRecord) (int64, error)
}
