// Package groundwater holds manual groundwater level readings taken during
// fieldwork.
package groundwater

import (
	"watersync/entities"
	"watersync/pkg/project"
	"watersync/pkg/query"
	"watersync/pkg/resource"
)

var Levels = &resource.Descriptor[entities.GWLMeasurement]{
	Kind:   "gwl_measurement",
	Plural: "gwlmeasurements",
	Title:  "Groundwater levels",
	Doc: `Depth to water measured from the casing top of a well.

The groundwater elevation is the casing top, as it was on the fieldwork
date, minus the measured depth.`,
	ID:    func(m *entities.GWLMeasurement) uint { return m.ID },
	Label: func(m *entities.GWLMeasurement) string { return m.LocationName },
	List: []resource.Column[entities.GWLMeasurement]{
		resource.Field("Well", func(m *entities.GWLMeasurement) any { return m.LocationName }),
		resource.Field("Depth to water (m)", func(m *entities.GWLMeasurement) any { return m.Depth }),
		resource.Field("Elevation (m a.s.l.)", func(m *entities.GWLMeasurement) any { return m.Elevation }),
	},
	Detail: []resource.Column[entities.GWLMeasurement]{
		resource.Field("Well", func(m *entities.GWLMeasurement) any { return m.LocationName }),
		resource.Field("Depth to water (m)", func(m *entities.GWLMeasurement) any { return m.Depth }),
		resource.Field("Elevation (m a.s.l.)", func(m *entities.GWLMeasurement) any { return m.Elevation }),
		resource.Field("Description", func(m *entities.GWLMeasurement) any { return m.Description }),
	},
	Export: []query.Column{
		{Label: "id", Field: "id"},
		{Label: "location_id", Field: "location_id"},
		{Label: "location", Field: "location_name"},
		{Label: "depth", Field: "depth"},
		{Label: "description", Field: "description"},
	},
	Owner: &project.InProject,
	Links: []query.Link{{FK: "fieldwork_id", Model: &entities.Fieldwork{}}},
	Order: "gwl_measurements.created_at",
	Aggregates: []query.Annotation{
		{Name: "location_name", Expr: "SELECT name FROM locations WHERE locations.id = gwl_measurements.location_id"},
	},
	Filters: []resource.Filter{
		{Param: "location_id", Field: "location_id", Op: query.Eq},
	},
}
