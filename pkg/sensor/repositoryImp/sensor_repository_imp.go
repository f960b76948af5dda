package repositoryImp

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"watersync/entities"
	"watersync/pkg/apperr"
	"watersync/pkg/sensor/repository"
)

const recordBatch = 500

type sensorRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.SensorRepository { return &sensorRepo{db} }

func (r *sensorRepo) WithTx(tx *gorm.DB) repository.SensorRepository { return &sensorRepo{tx} }

func (r *sensorRepo) Create(ctx context.Context, s *entities.Sensor) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(s).Error
}

func (r *sensorRepo) AddUser(ctx context.Context, sensorID, userID uint) error {
	return r.db.WithContext(ctx).Table("sensor_users").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(map[string]any{"sensor_id": sensorID, "user_id": userID}).Error
}

func (r *sensorRepo) CountDeployments(ctx context.Context, sensorID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.Deployment{}).Where("sensor_id = ?", sensorID).Count(&n).Error
	return n, err
}

func (r *sensorRepo) Delete(ctx context.Context, s *entities.Sensor) error {
	db := r.db.WithContext(ctx)
	if err := db.Exec("DELETE FROM sensor_users WHERE sensor_id = ?", s.ID).Error; err != nil {
		return err
	}
	return db.Delete(s).Error
}

func (r *sensorRepo) Claim(ctx context.Context, sensorID uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entities.Sensor{}).
		Where("id = ? AND available = ?", sensorID, true).
		Update("available", false)
	return res.RowsAffected == 1, res.Error
}

func (r *sensorRepo) Release(ctx context.Context, sensorID uint) error {
	return r.db.WithContext(ctx).Model(&entities.Sensor{}).
		Where("id = ?", sensorID).Update("available", true).Error
}

func (r *sensorRepo) FindSensor(ctx context.Context, sensorID uint) (*entities.Sensor, error) {
	var out entities.Sensor
	err := r.db.WithContext(ctx).Take(&out, sensorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("sensor %d not found", sensorID)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *sensorRepo) SensorOwnedBy(ctx context.Context, sensorID, userID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Table("sensor_users").
		Where("sensor_id = ? AND user_id = ?", sensorID, userID).Count(&n).Error
	return n > 0, err
}

func (r *sensorRepo) LocationInProject(ctx context.Context, projectID, locationID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entities.Location{}).
		Where("id = ? AND project_id = ?", locationID, projectID).Count(&n).Error
	return n > 0, err
}

func (r *sensorRepo) CreateDeployment(ctx context.Context, d *entities.Deployment) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *sensorRepo) CloseDeployment(ctx context.Context, d *entities.Deployment, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&entities.Deployment{}).
		Where("id = ? AND decommissioned_at IS NULL", d.ID).
		Update("decommissioned_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("deployment %d is already decommissioned", d.ID)
	}
	d.DecommissionedAt = &at
	return nil
}

func (r *sensorRepo) DeleteDeployment(ctx context.Context, d *entities.Deployment) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("deployment_id = ?", d.ID).Delete(&entities.SensorRecord{}).Error; err != nil {
		return err
	}
	return db.Delete(d).Error
}

func (r *sensorRepo) FindDeployment(ctx context.Context, id uint) (*entities.Deployment, error) {
	var out entities.Deployment
	err := r.db.WithContext(ctx).Take(&out, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("deployment %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *sensorRepo) InsertRecords(ctx context.Context, rows []entities.SensorRecord) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&rows, recordBatch)
	return res.RowsAffected, res.Error
}
