package repositoryImp

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"watersync/entities"
	"watersync/pkg/fieldwork/repository"
)

type fieldworkRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.FieldworkRepository { return &fieldworkRepo{db} }

func (r *fieldworkRepo) WithTx(tx *gorm.DB) repository.FieldworkRepository { return &fieldworkRepo{tx} }

func (r *fieldworkRepo) Create(ctx context.Context, f *entities.Fieldwork) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(f).Error
}

func (r *fieldworkRepo) Delete(ctx context.Context, f *entities.Fieldwork) error {
	db := r.db.WithContext(ctx)
	visits := r.db.Session(&gorm.Session{NewDB: true}).
		Model(&entities.LocationVisit{}).Select("id").Where("fieldwork_id = ?", f.ID)
	if err := db.Model(&entities.Sample{}).Where("visit_id IN (?)", visits).Update("visit_id", nil).Error; err != nil {
		return err
	}
	if err := db.Model(&entities.LocationStatus{}).Where("visit_id IN (?)", visits).Update("visit_id", nil).Error; err != nil {
		return err
	}
	if err := db.Where("fieldwork_id = ?", f.ID).Delete(&entities.GWLMeasurement{}).Error; err != nil {
		return err
	}
	if err := db.Where("fieldwork_id = ?", f.ID).Delete(&entities.LocationVisit{}).Error; err != nil {
		return err
	}
	return db.Delete(f).Error
}

func (r *fieldworkRepo) DeleteVisit(ctx context.Context, v *entities.LocationVisit) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&entities.Sample{}).Where("visit_id = ?", v.ID).Update("visit_id", nil).Error; err != nil {
		return err
	}
	if err := db.Model(&entities.LocationStatus{}).Where("visit_id = ?", v.ID).Update("visit_id", nil).Error; err != nil {
		return err
	}
	return db.Delete(v).Error
}

func (r *fieldworkRepo) LocationInProject(ctx context.Context, projectID, locationID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.Location{}).
		Where("id = ? AND project_id = ?", locationID, projectID).Count(&n).Error
	return n > 0, err
}
