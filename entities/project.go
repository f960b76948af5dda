package entities

import "time"

type Project struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Name        string   `gorm:"uniqueIndex;not null;size:100" json:"name" form:"name" validate:"required,max=100"`
	Description string   `json:"description" form:"description" input:"textarea"`
	Latitude    *float64 `json:"latitude" form:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" form:"longitude" validate:"omitempty,longitude"`
	IsActive    bool     `json:"is_active" form:"is_active" label:"Active"`
	Members     []User   `gorm:"many2many:project_members" json:"-"`

	LocationCount int64 `gorm:"->;-:migration" json:"location_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Fieldwork is one dated campaign in the field. Its visits go with it.
type Fieldwork struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProjectID   uint      `gorm:"not null;index" json:"project_id" validate:"required"`
	Date        time.Time `gorm:"not null;index" json:"date" form:"date" input:"date" validate:"required"`
	Weather     string    `json:"weather" form:"weather" validate:"max=100"`
	Comment     string    `json:"comment" form:"comment" input:"textarea"`
	CreatedByID *uint     `json:"created_by_id"`

	VisitCount int64 `gorm:"->;-:migration" json:"visit_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LocationVisit struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FieldworkID uint      `gorm:"not null;uniqueIndex:idx_visit_fieldwork_location" json:"fieldwork_id" validate:"required"`
	LocationID  uint      `gorm:"not null;uniqueIndex:idx_visit_fieldwork_location;index" json:"location_id" form:"location_id" label:"Location" validate:"required"`
	Comment     string    `json:"comment" form:"comment" input:"textarea"`

	LocationName string `gorm:"->;-:migration" json:"location_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
