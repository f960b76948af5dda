package repository

import (
	"context"

	"gorm.io/gorm"

	"watersync/entities"
)

type WaterQualityRepository interface {
	WithTx(tx *gorm.DB) WaterQualityRepository
	CreateProtocol(ctx context.Context, p *entities.Protocol) error
	AddProtocolUser(ctx context.Context, protocolID, userID uint) error
	ProtocolOwnedBy(ctx context.Context, protocolID, userID uint) (bool, error)
	// DeleteProtocol keeps samples that followed p and clears their link.
	DeleteProtocol(ctx context.Context, p *entities.Protocol) error
	DeleteGroup(ctx context.Context, g *entities.ParameterGroup) error
	VisitOfLocation(ctx context.Context, locationID, visitID uint) (bool, error)
	DeleteSample(ctx context.Context, s *entities.Sample) error
	CreateMeasurements(ctx context.Context, ms []entities.Measurement) error
}
