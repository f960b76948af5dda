package service

import (
	"context"

	"watersync/entities"
)

type GroundwaterService interface {
	Check(ctx context.Context, projectID uint, m *entities.GWLMeasurement) map[string]string
	// Elevations fills Elevation on every reading whose well has a known
	// casing top on the fieldwork date.
	Elevations(ctx context.Context, items []*entities.GWLMeasurement) error
}
