package entities

import (
	"time"

	"gorm.io/datatypes"
)

const (
	LocationWell          = "well"
	LocationRiver         = "river"
	LocationLake          = "lake"
	LocationWastewater    = "wastewater"
	LocationPrecipitation = "precipitation"
)

// Location is a monitoring point inside a project. Detail holds the
// type-specific fields as JSON; see LocationDetail for the in-memory shape.
type Location struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	ProjectID   uint           `gorm:"not null;uniqueIndex:idx_location_project_name" json:"project_id" validate:"required"`
	Name        string         `gorm:"not null;size:50;uniqueIndex:idx_location_project_name" json:"name" form:"name" validate:"required,max=50"`
	Type        string         `gorm:"not null;index" json:"type" form:"type" validate:"required,oneof=well river lake wastewater precipitation"`
	Latitude    *float64       `json:"latitude" form:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64       `json:"longitude" form:"longitude" validate:"omitempty,longitude"`
	Altitude    *float64       `json:"altitude" form:"altitude" label:"Altitude (m a.s.l.)"`
	Description string         `json:"description" form:"description" input:"textarea"`
	AddedByID   *uint          `json:"added_by_id"`
	Detail      datatypes.JSON `json:"detail"`

	LatestStatus string `gorm:"->;-:migration" json:"latest_status,omitempty"`
	VisitCount   int64  `gorm:"->;-:migration" json:"visit_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *Location) Discriminator() string          { return l.Type }
func (l *Location) DetailJSON() datatypes.JSON     { return l.Detail }
func (l *Location) SetDetailJSON(j datatypes.JSON) { l.Detail = j }

const (
	StatusOperational      = "operational"
	StatusNeedsMaintenance = "needs_maintenance"
	StatusDecommissioned   = "decommissioned"
	StatusUnknown          = "unknown"
)

// LocationStatus rows are append-only; the newest one is the current status.
type LocationStatus struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	LocationID  uint      `gorm:"not null;index" json:"location_id" validate:"required"`
	VisitID     *uint     `gorm:"index" json:"visit_id" form:"visit_id" label:"Visit"`
	Status      string    `gorm:"not null;default:unknown" json:"status" form:"status" validate:"required,oneof=operational needs_maintenance decommissioned unknown"`
	Comment     string    `json:"comment" form:"comment" input:"textarea"`
	CreatedByID *uint     `json:"created_by_id"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// LocationHistory is the audit trail of a location. Rows written by one save
// share a ChangeID.
type LocationHistory struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	LocationID  uint      `gorm:"not null;index" json:"location_id"`
	ChangeID    string    `gorm:"size:36;index" json:"change_id"`
	Field       string    `gorm:"not null" json:"field"`
	OldValue    string    `json:"old_value"`
	NewValue    string    `json:"new_value"`
	Reason      string    `json:"reason"`
	EffectiveAt time.Time `gorm:"index" json:"effective_at"`
	ChangedByID *uint     `json:"changed_by_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func (LocationHistory) TableName() string { return "location_history" }
