// Package fieldwork covers dated field campaigns and the locations visited
// during them.
package fieldwork

import (
	"watersync/entities"
	"watersync/pkg/project"
	"watersync/pkg/query"
	"watersync/pkg/resource"
)

var Fieldworks = &resource.Descriptor[entities.Fieldwork]{
	Kind:   "fieldwork",
	Plural: "fieldworks",
	Title:  "Fieldwork",
	Doc: `Fieldwork is one day in the field for a project.

Record the weather and anything unusual in the comment. Deleting fieldwork
deletes its visits and the groundwater levels measured during it.`,
	ID:    func(f *entities.Fieldwork) uint { return f.ID },
	Label: func(f *entities.Fieldwork) string { return f.Date.Format("2006-01-02") },
	List: []resource.Column[entities.Fieldwork]{
		resource.Field("Date", func(f *entities.Fieldwork) any { return f.Date.Format("2006-01-02") }),
		resource.Field("Weather", func(f *entities.Fieldwork) any { return f.Weather }),
		resource.Field("Visits", func(f *entities.Fieldwork) any { return f.VisitCount }),
	},
	Detail: []resource.Column[entities.Fieldwork]{
		resource.Field("Date", func(f *entities.Fieldwork) any { return f.Date.Format("2006-01-02") }),
		resource.Field("Weather", func(f *entities.Fieldwork) any { return f.Weather }),
		resource.Field("Comment", func(f *entities.Fieldwork) any { return f.Comment }),
		resource.Field("Visits", func(f *entities.Fieldwork) any { return f.VisitCount }),
	},
	Export: []query.Column{
		{Label: "id", Field: "id"},
		{Label: "date", Field: "date"},
		{Label: "weather", Field: "weather"},
		{Label: "comment", Field: "comment"},
		{Label: "visits", Field: "visit_count"},
	},
	Owner: &project.InProject,
	Order: "fieldworks.date DESC",
	Aggregates: []query.Annotation{
		{Name: "visit_count", Expr: "SELECT COUNT(*) FROM location_visits WHERE location_visits.fieldwork_id = fieldworks.id"},
	},
	Filters: []resource.Filter{
		{Param: "date_start", Field: "date", Op: query.Gte},
		{Param: "date_end", Field: "date", Op: query.Lte},
	},
}

var Visits = &resource.Descriptor[entities.LocationVisit]{
	Kind:   "visit",
	Plural: "visits",
	Title:  "Visits",
	Doc: `A visit records that a location was checked during fieldwork.

Each location can be visited once per fieldwork. Samples and statuses may
refer to a visit; deleting it keeps them and only clears the reference.`,
	ID:    func(v *entities.LocationVisit) uint { return v.ID },
	Label: func(v *entities.LocationVisit) string { return v.LocationName },
	List: []resource.Column[entities.LocationVisit]{
		resource.Field("Location", func(v *entities.LocationVisit) any { return v.LocationName }),
		resource.Field("Comment", func(v *entities.LocationVisit) any { return v.Comment }),
		resource.Field("Created", func(v *entities.LocationVisit) any { return v.CreatedAt }),
	},
	Detail: []resource.Column[entities.LocationVisit]{
		resource.Field("Location", func(v *entities.LocationVisit) any { return v.LocationName }),
		resource.Field("Comment", func(v *entities.LocationVisit) any { return v.Comment }),
		resource.Field("Created", func(v *entities.LocationVisit) any { return v.CreatedAt }),
	},
	Export: []query.Column{
		{Label: "id", Field: "id"},
		{Label: "location_id", Field: "location_id"},
		{Label: "location", Field: "location_name"},
		{Label: "comment", Field: "comment"},
	},
	Owner: &project.InProject,
	Links: []query.Link{{FK: "fieldwork_id", Model: &entities.Fieldwork{}}},
	Order: "location_visits.created_at",
	Aggregates: []query.Annotation{
		{Name: "location_name", Expr: "SELECT name FROM locations WHERE locations.id = location_visits.location_id"},
	},
	Filters: []resource.Filter{
		{Param: "location_id", Field: "location_id", Op: query.Eq},
	},
}
