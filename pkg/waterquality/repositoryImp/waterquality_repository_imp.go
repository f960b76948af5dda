package repositoryImp

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"watersync/entities"
	"watersync/pkg/waterquality/repository"
)

type wqRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.WaterQualityRepository { return &wqRepo{db} }

func (r *wqRepo) WithTx(tx *gorm.DB) repository.WaterQualityRepository { return &wqRepo{tx} }

func (r *wqRepo) CreateProtocol(ctx context.Context, p *entities.Protocol) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (r *wqRepo) AddProtocolUser(ctx context.Context, protocolID, userID uint) error {
	return r.db.WithContext(ctx).Table("protocol_users").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(map[string]any{"protocol_id": protocolID, "user_id": userID}).Error
}

func (r *wqRepo) ProtocolOwnedBy(ctx context.Context, protocolID, userID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Table("protocol_users").
		Where("protocol_id = ? AND user_id = ?", protocolID, userID).Count(&n).Error
	return n > 0, err
}

func (r *wqRepo) DeleteProtocol(ctx context.Context, p *entities.Protocol) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&entities.Sample{}).Where("protocol_id = ?", p.ID).Update("protocol_id", nil).Error; err != nil {
		return err
	}
	if err := db.Exec("DELETE FROM protocol_users WHERE protocol_id = ?", p.ID).Error; err != nil {
		return err
	}
	return db.Delete(p).Error
}

func (r *wqRepo) DeleteGroup(ctx context.Context, g *entities.ParameterGroup) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("parameter_group_id = ?", g.ID).Delete(&entities.Parameter{}).Error; err != nil {
		return err
	}
	return db.Delete(g).Error
}

func (r *wqRepo) VisitOfLocation(ctx context.Context, locationID, visitID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.LocationVisit{}).
		Where("id = ? AND location_id = ?", visitID, locationID).Count(&n).Error
	return n > 0, err
}

func (r *wqRepo) DeleteSample(ctx context.Context, s *entities.Sample) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("sample_id = ?", s.ID).Delete(&entities.Measurement{}).Error; err != nil {
		return err
	}
	return db.Delete(s).Error
}

func (r *wqRepo) CreateMeasurements(ctx context.Context, ms []entities.Measurement) error {
	if len(ms) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&ms).Error
}
