package repositoryImp

import (
	"context"

	"gorm.io/gorm"

	"watersync/entities"
	"watersync/pkg/groundwater/repository"
)

type gwlRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.GroundwaterRepository { return &gwlRepo{db} }

func (r *gwlRepo) WellInProject(ctx context.Context, projectID, locationID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.Location{}).
		Where("id = ? AND project_id = ? AND type = ?", locationID, projectID, entities.LocationWell).
		Count(&n).Error
	return n > 0, err
}

func (r *gwlRepo) Fieldworks(ctx context.Context, ids []uint) (map[uint]entities.Fieldwork, error) {
	var rows []entities.Fieldwork
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]entities.Fieldwork, len(rows))
	for _, f := range rows {
		out[f.ID] = f
	}
	return out, nil
}

func (r *gwlRepo) Locations(ctx context.Context, ids []uint) (map[uint]entities.Location, error) {
	var rows []entities.Location
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]entities.Location, len(rows))
	for _, l := range rows {
		out[l.ID] = l
	}
	return out, nil
}
