package entities

import (
	"time"

	"gorm.io/datatypes"
)

const (
	SensorVented   = "vented"
	SensorUnvented = "unvented"
	SensorOther    = "other"
)

// Sensor is a physical logger. Available is false while it has an open
// deployment.
type Sensor struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	Identifier string         `gorm:"uniqueIndex;not null;size:55" json:"identifier" form:"identifier" validate:"required,max=55"`
	Type       string         `gorm:"not null" json:"type" form:"type" validate:"required,oneof=vented unvented other"`
	Available  bool           `json:"available"`
	Detail     datatypes.JSON `json:"detail"`
	Users      []User         `gorm:"many2many:sensor_users" json:"-"`

	DeploymentCount int64 `gorm:"->;-:migration" json:"deployment_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Sensor) Discriminator() string          { return s.Type }
func (s *Sensor) DetailJSON() datatypes.JSON     { return s.Detail }
func (s *Sensor) SetDetailJSON(j datatypes.JSON) { s.Detail = j }

// SensorDetail is the payload of a Sensor, discriminated by Sensor.Type.
// Sensors of type "other" carry none.
type SensorDetail interface {
	SensorType() string
}

type VentedSensorDetail struct {
	Manufacturer string   `json:"manufacturer,omitempty" form:"manufacturer" validate:"required,max=100"`
	Model        string   `json:"model,omitempty" form:"model" validate:"required,max=100"`
	CableLength  *float64 `json:"cable_length,omitempty" form:"cable_length" label:"Cable length (m)" validate:"required,gt=0"`
}

type UnventedSensorDetail struct {
	Manufacturer     string `json:"manufacturer,omitempty" form:"manufacturer" validate:"required,max=100"`
	Model            string `json:"model,omitempty" form:"model" validate:"required,max=100"`
	BarometricSensor string `json:"barometric_sensor,omitempty" form:"barometric_sensor" label:"Barometric compensation sensor"`
}

func (*VentedSensorDetail) SensorType() string   { return SensorVented }
func (*UnventedSensorDetail) SensorType() string { return SensorUnvented }

// Deployment is the interval a sensor spends at a location.
type Deployment struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	LocationID       uint           `gorm:"not null;uniqueIndex:idx_deployment_sensor_location_start" json:"location_id" form:"location_id" label:"Location" validate:"required"`
	SensorID         uint           `gorm:"not null;uniqueIndex:idx_deployment_sensor_location_start;index" json:"sensor_id" form:"sensor_id" label:"Sensor" validate:"required"`
	Variable         string         `gorm:"size:20" json:"variable" form:"variable" validate:"required,max=20"`
	Unit             string         `gorm:"size:10" json:"unit" form:"unit" validate:"required,max=10"`
	DeployedAt       time.Time      `gorm:"not null;uniqueIndex:idx_deployment_sensor_location_start" json:"deployed_at" form:"deployed_at"`
	DecommissionedAt *time.Time     `json:"decommissioned_at"`
	Detail           datatypes.JSON `json:"detail"`

	RecordCount      int64  `gorm:"->;-:migration" json:"record_count"`
	SensorIdentifier string `gorm:"->;-:migration" json:"sensor_identifier,omitempty"`
	LocationName     string `gorm:"->;-:migration" json:"location_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (d *Deployment) Open() bool { return d.DecommissionedAt == nil }

type SensorRecord struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DeploymentID uint      `gorm:"not null;uniqueIndex:idx_record_deployment_time_type" json:"deployment_id" validate:"required"`
	Timestamp    time.Time `gorm:"not null;index;uniqueIndex:idx_record_deployment_time_type" json:"timestamp" form:"timestamp" validate:"required"`
	Type         string    `gorm:"not null;size:30;uniqueIndex:idx_record_deployment_time_type" json:"type" form:"type" validate:"required,max=30"`
	Value        *float64  `gorm:"not null" json:"value" form:"value" validate:"required"`
	Unit         string    `gorm:"size:10" json:"unit" form:"unit" validate:"max=10"`
}
