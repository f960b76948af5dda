package entities

import (
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Sample is water taken at a location, optionally during a visit.
type Sample struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	LocationID       uint      `gorm:"not null;uniqueIndex:idx_sample_location_time" json:"location_id" validate:"required"`
	VisitID          *uint     `gorm:"index" json:"visit_id" form:"visit_id" label:"Visit"`
	ProtocolID       *uint     `gorm:"index" json:"protocol_id" form:"protocol_id" label:"Protocol"`
	Timestamp        time.Time `gorm:"not null;uniqueIndex:idx_sample_location_time" json:"timestamp" form:"timestamp" validate:"required"`
	TargetParameters string    `gorm:"size:50" json:"target_parameters" form:"target_parameters" validate:"required,max=50"`
	ContainerType    string    `gorm:"size:50" json:"container_type" form:"container_type" validate:"max=50"`
	VolumeCollected  *float64  `json:"volume_collected" form:"volume_collected" label:"Volume collected (ml)" validate:"omitempty,gt=0"`
	ReplicaNumber    int       `json:"replica_number" form:"replica_number" validate:"gte=0"`
	Details          string    `json:"details" form:"details" input:"textarea"`

	MeasurementCount int64 `gorm:"->;-:migration" json:"measurement_count"`

	CreatedAt time.Time `json:"created_at"`
}

type Measurement struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	SampleID   uint       `gorm:"not null;index" json:"sample_id" validate:"required"`
	Parameter  string     `gorm:"size:100;not null" json:"parameter" form:"parameter" validate:"required,max=100"`
	Value      *float64   `gorm:"not null" json:"value" form:"value" validate:"required"`
	Unit       string     `gorm:"size:50" json:"unit" form:"unit" validate:"required,max=50"`
	MeasuredOn *time.Time `json:"measured_on" form:"measured_on" input:"date"`
	Details    string     `json:"details" form:"details" input:"textarea"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Protocol documents how samples are collected and analysed. Slug is derived
// from MethodName when the row is first written and never changes after.
type Protocol struct {
	ID                 uint   `gorm:"primaryKey" json:"id"`
	MethodName         string `gorm:"size:100;not null" json:"method_name" form:"method_name" validate:"required,max=100"`
	Slug               string `gorm:"<-:create;uniqueIndex;size:100;not null" json:"slug"`
	SampleCollection   string `json:"sample_collection" form:"sample_collection" input:"textarea"`
	SamplePreservation string `json:"sample_preservation" form:"sample_preservation" input:"textarea"`
	SampleStorage      string `json:"sample_storage" form:"sample_storage" input:"textarea"`
	AnalyticalMethod   string `json:"analytical_method" form:"analytical_method" input:"textarea"`
	DataPostprocessing string `json:"data_postprocessing" form:"data_postprocessing" input:"textarea"`
	StandardReference  string `gorm:"size:100" json:"standard_reference" form:"standard_reference" validate:"max=100"`
	Details            string `gorm:"size:256" json:"details" form:"details" validate:"max=256"`
	Users              []User `gorm:"many2many:protocol_users" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Protocol) BeforeCreate(tx *gorm.DB) error {
	if p.Slug == "" {
		p.Slug = Slugify(p.MethodName)
	}
	return nil
}

type ParameterGroup struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:100;not null" json:"name" form:"name" validate:"required,max=100"`
	Code        string `gorm:"size:20;uniqueIndex;not null" json:"code" form:"code" validate:"required,max=20"`
	Description string `json:"description" form:"description" input:"textarea"`

	ParameterCount int64 `gorm:"->;-:migration" json:"parameter_count"`
}

type Parameter struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	Name             string `gorm:"size:100;not null" json:"name" form:"name" validate:"required,max=100"`
	Code             string `gorm:"size:20;uniqueIndex;not null" json:"code" form:"code" validate:"required,max=20"`
	ParameterGroupID *uint  `gorm:"index" json:"parameter_group_id"`
	Unit             string `gorm:"size:50" json:"unit" form:"unit" validate:"max=50"`
}

var slugStrip = regexp.MustCompile(`[^a-z0-9\s-]`)
var slugDash = regexp.MustCompile(`[\s-]+`)

// Slugify lowercases s, drops punctuation and joins words with dashes.
func Slugify(s string) string {
	s = slugStrip.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "")
	return strings.Trim(slugDash.ReplaceAllString(s, "-"), "-")
}
