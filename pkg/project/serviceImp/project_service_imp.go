package serviceImp

import (
	"context"
	"log"

	"gorm.io/gorm"

	"watersync/entities"
	"watersync/pkg/apperr"
	repo "watersync/pkg/project/repository"
	"watersync/pkg/project/service"
)

type projectSvc struct{ r repo.ProjectRepository }

func NewProjectService(r repo.ProjectRepository) service.ProjectService { return &projectSvc{r} }

func (s *projectSvc) Create(ctx context.Context, tx *gorm.DB, p *entities.Project, creatorID uint) error {
	r := s.r.WithTx(tx)
	if err := r.Create(ctx, p); err != nil {
		return err
	}
	if creatorID == 0 {
		return nil
	}
	return r.AddMember(ctx, p.ID, creatorID)
}

func (s *projectSvc) Delete(ctx context.Context, tx *gorm.DB, p *entities.Project) error {
	r := s.r.WithTx(tx)
	n, err := r.CountLocations(ctx, p.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflict("project %q still has %d location(s); delete or move them first", p.Name, n)
	}
	if err := r.DeleteWithFieldwork(ctx, p); err != nil {
		return err
	}
	log.Printf("[crud] project %d %q deleted with its fieldwork", p.ID, p.Name)
	return nil
}

func (s *projectSvc) Members(ctx context.Context, projectID uint) ([]entities.User, error) {
	return s.r.Members(ctx, projectID)
}

func (s *projectSvc) AddMember(ctx context.Context, projectID, userID uint) error {
	return s.r.AddMember(ctx, projectID, userID)
}

func (s *projectSvc) RemoveMember(ctx context.Context, projectID, userID uint) error {
	return s.r.RemoveMember(ctx, projectID, userID)
}
