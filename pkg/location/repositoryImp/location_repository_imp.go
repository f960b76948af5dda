package repositoryImp

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"watersync/entities"
	"watersync/pkg/location/repository"
)

type locationRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.LocationRepository { return &locationRepo{db} }

func (r *locationRepo) WithTx(tx *gorm.DB) repository.LocationRepository { return &locationRepo{tx} }

func (r *locationRepo) Create(ctx context.Context, l *entities.Location) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(l).Error
}

func (r *locationRepo) Save(ctx context.Context, l *entities.Location) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(l).Error
}

func (r *locationRepo) AppendHistory(ctx context.Context, rows []entities.LocationHistory) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *locationRepo) Blockers(ctx context.Context, locationID uint) (int64, int64, error) {
	db := r.db.WithContext(ctx)
	var deployments, levels int64
	if err := db.Model(&entities.Deployment{}).Where("location_id = ?", locationID).Count(&deployments).Error; err != nil {
		return 0, 0, err
	}
	if err := db.Model(&entities.GWLMeasurement{}).Where("location_id = ?", locationID).Count(&levels).Error; err != nil {
		return 0, 0, err
	}
	return deployments, levels, nil
}

func (r *locationRepo) Delete(ctx context.Context, l *entities.Location) error {
	db := r.db.WithContext(ctx)
	samples := r.db.Session(&gorm.Session{NewDB: true}).
		Model(&entities.Sample{}).Select("id").Where("location_id = ?", l.ID)
	steps := []struct {
		model any
		cond  string
		arg   any
	}{
		{&entities.Measurement{}, "sample_id IN (?)", samples},
		{&entities.Sample{}, "location_id = ?", l.ID},
		{&entities.LocationStatus{}, "location_id = ?", l.ID},
		{&entities.LocationHistory{}, "location_id = ?", l.ID},
		{&entities.LocationVisit{}, "location_id = ?", l.ID},
	}
	for _, s := range steps {
		if err := db.Where(s.cond, s.arg).Delete(s.model).Error; err != nil {
			return err
		}
	}
	return db.Delete(l).Error
}

func (r *locationRepo) CreateStatus(ctx context.Context, s *entities.LocationStatus) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *locationRepo) VisitOfLocation(ctx context.Context, locationID, visitID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.LocationVisit{}).
		Where("id = ? AND location_id = ?", visitID, locationID).Count(&n).Error
	return n > 0, err
}

func (r *locationRepo) ValueAt(ctx context.Context, locationID uint, field string, t time.Time) (string, bool, error) {
	var h entities.LocationHistory
	err := r.db.WithContext(ctx).
		Where("location_id = ? AND field = ? AND effective_at > ?", locationID, field, t).
		Order("effective_at ASC, id ASC").
		Take(&h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return h.OldValue, true, nil
}
