package entities

// LocationDetail is the closed set of type-specific payloads a Location can
// carry. The discriminator is Location.Type.
type LocationDetail interface {
	LocationType() string
}

type WellDetail struct {
	Depth              *float64 `json:"depth,omitempty" form:"depth" label:"Depth (m)" validate:"required,gt=0"`
	CasingTop          *float64 `json:"casing_top,omitempty" form:"casing_top" label:"Casing top (m a.s.l.)" validate:"required"`
	ScreenTop          *float64 `json:"screen_top,omitempty" form:"screen_top" label:"Screen top (m)" validate:"required"`
	ScreenBottom       *float64 `json:"screen_bottom,omitempty" form:"screen_bottom" label:"Screen bottom (m)" validate:"required"`
	Diameter           *float64 `json:"diameter,omitempty" form:"diameter" label:"Diameter (mm)" validate:"required,gt=0"`
	DrillType          string   `json:"drill_type,omitempty" form:"drill_type" validate:"required,oneof=hand_auger direct_push rotary_drilling sonic_rig other"`
	Material           string   `json:"material,omitempty" form:"material" validate:"required,oneof=pvc steel other"`
	ProfileDescription string   `json:"profile_description,omitempty" form:"profile_description" input:"textarea"`
}

type RiverDetail struct {
	Width    *float64 `json:"width,omitempty" form:"width" label:"Width (m)" validate:"omitempty,gte=0"`
	Depth    *float64 `json:"depth,omitempty" form:"depth" label:"Depth (m)" validate:"omitempty,gte=0"`
	FlowRate *float64 `json:"flow_rate,omitempty" form:"flow_rate" label:"Flow rate (m³/s)" validate:"omitempty,gte=0"`
}

type LakeDetail struct {
	Depth        *float64 `json:"depth,omitempty" form:"depth" label:"Depth (m)" validate:"omitempty,gte=0"`
	Area         *float64 `json:"area,omitempty" form:"area" label:"Area (m²)" validate:"omitempty,gte=0"`
	Volume       *float64 `json:"volume,omitempty" form:"volume" label:"Volume (m³)" validate:"omitempty,gte=0"`
	WaterQuality string   `json:"water_quality,omitempty" form:"water_quality" input:"textarea"`
}

type WastewaterDetail struct {
	NumberOfTanks  *int `json:"number_of_tanks,omitempty" form:"number_of_tanks" validate:"omitempty,gte=0"`
	TreatmentLevel *int `json:"treatment_level,omitempty" form:"treatment_level" validate:"omitempty,gte=0,lte=3"`
}

type PrecipitationDetail struct {
	Intensity *float64 `json:"intensity,omitempty" form:"intensity" label:"Intensity (mm/h)" validate:"omitempty,gte=0"`
	Duration  *int     `json:"duration,omitempty" form:"duration" label:"Duration (min)" validate:"omitempty,gte=0"`
}

func (*WellDetail) LocationType() string          { return LocationWell }
func (*RiverDetail) LocationType() string         { return LocationRiver }
func (*LakeDetail) LocationType() string          { return LocationLake }
func (*WastewaterDetail) LocationType() string    { return LocationWastewater }
func (*PrecipitationDetail) LocationType() string { return LocationPrecipitation }
