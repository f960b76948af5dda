package serviceImp

import (
	"context"
	"log"
	"math"

	"watersync/entities"
	repo "watersync/pkg/groundwater/repository"
	"watersync/pkg/groundwater/service"
	locsvc "watersync/pkg/location/service"
)

type gwlSvc struct {
	r         repo.GroundwaterRepository
	locations locsvc.LocationService
}

func NewGroundwaterService(r repo.GroundwaterRepository, locations locsvc.LocationService) service.GroundwaterService {
	return &gwlSvc{r: r, locations: locations}
}

func (s *gwlSvc) Check(ctx context.Context, projectID uint, m *entities.GWLMeasurement) map[string]string {
	if m.LocationID == 0 {
		return nil
	}
	ok, err := s.r.WellInProject(ctx, projectID, m.LocationID)
	if err != nil {
		log.Printf("[crud] check gwl location %d: %v", m.LocationID, err)
		return map[string]string{"location_id": "Could not check the location."}
	}
	if !ok {
		return map[string]string{"location_id": "Select a well of this project."}
	}
	return nil
}

func (s *gwlSvc) Elevations(ctx context.Context, items []*entities.GWLMeasurement) error {
	if len(items) == 0 {
		return nil
	}
	var fids, lids []uint
	for _, m := range items {
		fids = append(fids, m.FieldworkID)
		lids = append(lids, m.LocationID)
	}
	fieldworks, err := s.r.Fieldworks(ctx, fids)
	if err != nil {
		return err
	}
	locations, err := s.r.Locations(ctx, lids)
	if err != nil {
		return err
	}
	for _, m := range items {
		f, okF := fieldworks[m.FieldworkID]
		l, okL := locations[m.LocationID]
		if !okF || !okL || m.Depth == nil {
			continue
		}
		top, err := s.locations.CasingTopAt(ctx, &l, f.Date)
		if err != nil {
			return err
		}
		if top == nil {
			continue
		}
		e := math.Round((*top-*m.Depth)*1000) / 1000
		m.Elevation = &e
	}
	return nil
}
