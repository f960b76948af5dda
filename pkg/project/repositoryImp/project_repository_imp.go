package repositoryImp

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"watersync/entities"
	"watersync/pkg/project/repository"
)

type projectRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.ProjectRepository { return &projectRepo{db} }

func (r *projectRepo) WithTx(tx *gorm.DB) repository.ProjectRepository { return &projectRepo{tx} }

func (r *projectRepo) Create(ctx context.Context, p *entities.Project) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *projectRepo) AddMember(ctx context.Context, projectID, userID uint) error {
	return r.db.WithContext(ctx).Table("project_members").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(map[string]any{"project_id": projectID, "user_id": userID}).Error
}

func (r *projectRepo) RemoveMember(ctx context.Context, projectID, userID uint) error {
	return r.db.WithContext(ctx).Exec(
		"DELETE FROM project_members WHERE project_id = ? AND user_id = ?", projectID, userID).Error
}

func (r *projectRepo) Members(ctx context.Context, projectID uint) ([]entities.User, error) {
	var out []entities.User
	err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Session(&gorm.Session{NewDB: true}).Table("project_members").Select("user_id").Where("project_id = ?", projectID)).
		Order("email").Find(&out).Error
	return out, err
}

func (r *projectRepo) CountLocations(ctx context.Context, projectID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.Location{}).Where("project_id = ?", projectID).Count(&n).Error
	return n, err
}

func (r *projectRepo) DeleteWithFieldwork(ctx context.Context, p *entities.Project) error {
	db := r.db.WithContext(ctx)
	fieldworks := r.db.Session(&gorm.Session{NewDB: true}).
		Model(&entities.Fieldwork{}).Select("id").Where("project_id = ?", p.ID)
	if err := db.Where("fieldwork_id IN (?)", fieldworks).Delete(&entities.GWLMeasurement{}).Error; err != nil {
		return err
	}
	if err := db.Where("fieldwork_id IN (?)", fieldworks).Delete(&entities.LocationVisit{}).Error; err != nil {
		return err
	}
	if err := db.Where("project_id = ?", p.ID).Delete(&entities.Fieldwork{}).Error; err != nil {
		return err
	}
	if err := db.Exec("DELETE FROM project_members WHERE project_id = ?", p.ID).Error; err != nil {
		return err
	}
	return db.Delete(p).Error
}
