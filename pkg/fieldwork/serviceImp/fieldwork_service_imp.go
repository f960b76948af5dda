package serviceImp

import (
	"context"
	"log"

	"gorm.io/gorm"

	"watersync/entities"
	repo "watersync/pkg/fieldwork/repository"
	"watersync/pkg/fieldwork/service"
)

type fieldworkSvc struct{ r repo.FieldworkRepository }

func NewFieldworkService(r repo.FieldworkRepository) service.FieldworkService {
	return &fieldworkSvc{r}
}

func (s *fieldworkSvc) Create(ctx context.Context, tx *gorm.DB, f *entities.Fieldwork, userID uint) error {
	if userID != 0 {
		f.CreatedByID = &userID
	}
	return s.r.WithTx(tx).Create(ctx, f)
}

func (s *fieldworkSvc) Delete(ctx context.Context, tx *gorm.DB, f *entities.Fieldwork) error {
	if err := s.r.WithTx(tx).Delete(ctx, f); err != nil {
		return err
	}
	log.Printf("[crud] fieldwork %d of project %d deleted with its visits", f.ID, f.ProjectID)
	return nil
}

func (s *fieldworkSvc) DeleteVisit(ctx context.Context, tx *gorm.DB, v *entities.LocationVisit) error {
	return s.r.WithTx(tx).DeleteVisit(ctx, v)
}

func (s *fieldworkSvc) CheckVisit(ctx context.Context, projectID uint, v *entities.LocationVisit) map[string]string {
	if v.LocationID == 0 {
		return nil
	}
	ok, err := s.r.LocationInProject(ctx, projectID, v.LocationID)
	if err != nil {
		log.Printf("[crud] check visit location %d: %v", v.LocationID, err)
		return map[string]string{"location_id": "Could not check the location."}
	}
	if !ok {
		return map[string]string{"location_id": "Select a location of this project."}
	}
	return nil
}
