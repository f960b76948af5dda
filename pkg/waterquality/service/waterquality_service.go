package service

import (
	"context"
	"net/url"

	"gorm.io/gorm"

	"watersync/entities"
)

type WaterQualityService interface {
	CreateProtocol(ctx context.Context, tx *gorm.DB, p *entities.Protocol, userID uint) error
	DeleteProtocol(ctx context.Context, tx *gorm.DB, p *entities.Protocol) error
	DeleteGroup(ctx context.Context, tx *gorm.DB, g *entities.ParameterGroup) error
	CheckSample(ctx context.Context, userID uint, s *entities.Sample) map[string]string
	DeleteSample(ctx context.Context, tx *gorm.DB, s *entities.Sample) error
	// BulkMeasurements creates one measurement per repeated parameter,
	// value and unit triple. Either all rows are valid and stored or none.
	BulkMeasurements(ctx context.Context, tx *gorm.DB, sampleID uint, values url.Values) (int, error)
}
