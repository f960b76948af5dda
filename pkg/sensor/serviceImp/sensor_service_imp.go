package serviceImp

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"watersync/entities"
	"watersync/pkg/apperr"
	"watersync/pkg/forms"
	repo "watersync/pkg/sensor/repository"
	"watersync/pkg/sensor/service"
)

type sensorSvc struct {
	r   repo.SensorRepository
	now func() time.Time
}

func NewSensorService(r repo.SensorRepository) service.SensorService {
	return &sensorSvc{r: r, now: time.Now}
}

func (s *sensorSvc) Create(ctx context.Context, tx *gorm.DB, sn *entities.Sensor, userID uint) error {
	r := s.r.WithTx(tx)
	sn.Available = true
	if err := r.Create(ctx, sn); err != nil {
		return err
	}
	if userID == 0 {
		return nil
	}
	return r.AddUser(ctx, sn.ID, userID)
}

func (s *sensorSvc) Delete(ctx context.Context, tx *gorm.DB, sn *entities.Sensor) error {
	r := s.r.WithTx(tx)
	n, err := r.CountDeployments(ctx, sn.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflict("sensor %q has %d deployment(s); delete them first", sn.Identifier, n)
	}
	return r.Delete(ctx, sn)
}

func (s *sensorSvc) CheckDeployment(ctx context.Context, projectID, userID uint, d *entities.Deployment) map[string]string {
	errs := map[string]string{}
	if d.LocationID != 0 {
		ok, err := s.r.LocationInProject(ctx, projectID, d.LocationID)
		switch {
		case err != nil:
			log.Printf("[crud] check deployment location %d: %v", d.LocationID, err)
			errs["location_id"] = "Could not check the location."
		case !ok:
			errs["location_id"] = "Select a location of this project."
		}
	}
	if d.SensorID != 0 {
		ok, err := s.r.SensorOwnedBy(ctx, d.SensorID, userID)
		switch {
		case err != nil:
			log.Printf("[crud] check deployment sensor %d: %v", d.SensorID, err)
			errs["sensor_id"] = "Could not check the sensor."
		case !ok:
			errs["sensor_id"] = "Select one of your sensors."
		}
	}
	return errs
}

func (s *sensorSvc) Deploy(ctx context.Context, tx *gorm.DB, d *entities.Deployment) error {
	r := s.r.WithTx(tx)
	claimed, err := r.Claim(ctx, d.SensorID)
	if err != nil {
		return err
	}
	if !claimed {
		sn, err := r.FindSensor(ctx, d.SensorID)
		if err != nil {
			return err
		}
		return apperr.Conflict("sensor %q is not available; decommission its current deployment first", sn.Identifier)
	}
	if d.DeployedAt.IsZero() {
		d.DeployedAt = s.now()
	}
	if err := r.CreateDeployment(ctx, d); err != nil {
		return err
	}
	log.Printf("[crud] sensor %d deployed at location %d", d.SensorID, d.LocationID)
	return nil
}

func (s *sensorSvc) UpdateDeployment(ctx context.Context, tx *gorm.DB, d, prev *entities.Deployment) error {
	if d.SensorID != prev.SensorID {
		return apperr.Invalid(map[string]string{"sensor_id": "The sensor of a deployment cannot be changed; decommission it and deploy the other sensor."})
	}
	if d.DeployedAt.IsZero() {
		d.DeployedAt = prev.DeployedAt
	}
	return tx.WithContext(ctx).Omit("sensor_id").Save(d).Error
}

func (s *sensorSvc) Decommission(ctx context.Context, tx *gorm.DB, d *entities.Deployment, at time.Time) error {
	if at.IsZero() {
		at = s.now()
	}
	if at.Before(d.DeployedAt) {
		return apperr.Invalid(map[string]string{"decommissioned_at": "Decommissioning cannot be earlier than the deployment."})
	}
	r := s.r.WithTx(tx)
	if err := r.CloseDeployment(ctx, d, at); err != nil {
		return err
	}
	if err := r.Release(ctx, d.SensorID); err != nil {
		return err
	}
	log.Printf("[crud] deployment %d decommissioned, sensor %d available", d.ID, d.SensorID)
	return nil
}

func (s *sensorSvc) DeleteDeployment(ctx context.Context, tx *gorm.DB, d *entities.Deployment) error {
	r := s.r.WithTx(tx)
	if d.Open() {
		if err := r.Release(ctx, d.SensorID); err != nil {
			return err
		}
	}
	return r.DeleteDeployment(ctx, d)
}

func (s *sensorSvc) Upload(ctx context.Context, tx *gorm.DB, deploymentID uint, rows []map[string]string) (int, int, error) {
	r := s.r.WithTx(tx)
	d, err := r.FindDeployment(ctx, deploymentID)
	if err != nil {
		return 0, 0, err
	}
	records := make([]entities.SensorRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := parseRecord(d, row)
		if err != nil {
			// header is line 1
			return 0, 0, apperr.Invalid(map[string]string{"file": fmt.Sprintf("line %d: %v", i+2, err)})
		}
		records = append(records, rec)
	}
	n, err := r.InsertRecords(ctx, records)
	if err != nil {
		return 0, 0, err
	}
	return int(n), len(records) - int(n), nil
}

func parseRecord(d *entities.Deployment, row map[string]string) (entities.SensorRecord, error) {
	rec := entities.SensorRecord{DeploymentID: d.ID, Type: row["type"], Unit: row["unit"]}
	if rec.Type == "" {
		rec.Type = d.Variable
	}
	if rec.Unit == "" {
		rec.Unit = d.Unit
	}
	ts, err := forms.ParseTime(row["timestamp"])
	if err != nil {
		return rec, fmt.Errorf("timestamp %q is not a date and time", row["timestamp"])
	}
	rec.Timestamp = ts
	v, err := strconv.ParseFloat(strings.TrimSpace(row["value"]), 64)
	if err != nil {
		return rec, fmt.Errorf("value %q is not a number", row["value"])
	}
	rec.Value = &v
	errs := forms.Validate(&rec)
	if len(errs) == 0 {
		return rec, nil
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return rec, fmt.Errorf("%s: %s", keys[0], errs[keys[0]])
}
