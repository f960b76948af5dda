package entities

import "time"

// GWLMeasurement is a manual groundwater level reading taken during
// fieldwork, as depth below the casing top.
type GWLMeasurement struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	FieldworkID uint     `gorm:"not null;index" json:"fieldwork_id" validate:"required"`
	LocationID  uint     `gorm:"not null;index" json:"location_id" form:"location_id" label:"Location" validate:"required"`
	Depth       *float64 `gorm:"not null" json:"depth" form:"depth" label:"Depth to water (m)" validate:"required,gte=0"`
	Description string   `json:"description" form:"description" input:"textarea"`

	LocationName string `gorm:"->;-:migration" json:"location_name,omitempty"`

	// Elevation is derived, never stored.
	Elevation *float64 `gorm:"-" json:"groundwater_elevation"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (GWLMeasurement) TableName() string { return "gwl_measurements" }
