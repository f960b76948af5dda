// Package location holds monitoring locations with their status log and
// audit history, and the project map layer built from them.
package location

import (
	"watersync/entities"
	"watersync/pkg/detailform"
	"watersync/pkg/geo"
	"watersync/pkg/project"
	"watersync/pkg/query"
	"watersync/pkg/resource"
)

// Details resolves the type-specific fields of a location from its "type".
var Details = detailform.NewRegistry[entities.LocationDetail]("type").
	Register(entities.LocationWell, func() entities.LocationDetail { return &entities.WellDetail{} }).
	Register(entities.LocationRiver, func() entities.LocationDetail { return &entities.RiverDetail{} }).
	Register(entities.LocationLake, func() entities.LocationDetail { return &entities.LakeDetail{} }).
	Register(entities.LocationWastewater, func() entities.LocationDetail { return &entities.WastewaterDetail{} }).
	Register(entities.LocationPrecipitation, func() entities.LocationDetail { return &entities.PrecipitationDetail{} })

var latestStatus = query.Annotation{
	Name: "latest_status",
	Expr: "SELECT location_statuses.status FROM location_statuses WHERE location_statuses.location_id = locations.id ORDER BY location_statuses.created_at DESC, location_statuses.id DESC LIMIT 1",
}

var Locations = &resource.Descriptor[entities.Location]{
	Kind:   "location",
	Plural: "locations",
	Title:  "Locations",
	Doc: `Locations are the wells, rivers, lakes, wastewater plants and rain
gauges a project monitors.

The fields below the form depend on the location <b>type</b>. Changing the
type replaces the stored type-specific values. Every change is kept in the
location history; give a date and a reason when the change happened earlier
than today, for example a well that was re-surveyed.

A location with deployments or groundwater levels cannot be deleted.`,
	ID:    func(l *entities.Location) uint { return l.ID },
	Label: func(l *entities.Location) string { return l.Name },
	List: []resource.Column[entities.Location]{
		resource.Field("Name", func(l *entities.Location) any { return l.Name }),
		resource.Field("Type", func(l *entities.Location) any { return l.Type }),
		resource.Field("Status", func(l *entities.Location) any { return l.LatestStatus }),
		resource.Field("Visits", func(l *entities.Location) any { return l.VisitCount }),
	},
	Detail: []resource.Column[entities.Location]{
		resource.Field("Name", func(l *entities.Location) any { return l.Name }),
		resource.Field("Type", func(l *entities.Location) any { return l.Type }),
		resource.Field("Status", func(l *entities.Location) any { return l.LatestStatus }),
		resource.Field("Latitude", func(l *entities.Location) any { return l.Latitude }),
		resource.Field("Longitude", func(l *entities.Location) any { return l.Longitude }),
		resource.Field("Position", func(l *entities.Location) any {
			s, _ := geo.WKT(l.Latitude, l.Longitude)
			return s
		}),
		resource.Field("Altitude (m a.s.l.)", func(l *entities.Location) any { return l.Altitude }),
		resource.Field("Description", func(l *entities.Location) any { return l.Description }),
		resource.Field("Visits", func(l *entities.Location) any { return l.VisitCount }),
	},
	Export: []query.Column{
		{Label: "id", Field: "id"},
		{Label: "name", Field: "name"},
		{Label: "type", Field: "type"},
		{Label: "latitude", Field: "latitude"},
		{Label: "longitude", Field: "longitude"},
		{Label: "altitude", Field: "altitude"},
		{Label: "status", Field: "latest_status"},
		{Label: "detail", Field: "detail"},
	},
	Details:    Details,
	Owner:      &project.InProject,
	Order:      "locations.name",
	Aggregates: []query.Annotation{
		latestStatus,
		{Name: "visit_count", Expr: "SELECT COUNT(*) FROM location_visits WHERE location_visits.location_id = locations.id"},
	},
	Filters: []resource.Filter{
		{Param: "name", Field: "name", Op: query.Like},
		{Param: "type", Field: "type", Op: query.Eq},
	},
}

var Statuses = &resource.Descriptor[entities.LocationStatus]{
	Kind:   "location_status",
	Plural: "statuses",
	Title:  "Status",
	Doc: `The status log of a location. The newest entry is the current status.

Entries are never edited in place in the field; add a new one instead.`,
	ID:    func(s *entities.LocationStatus) uint { return s.ID },
	Label: func(s *entities.LocationStatus) string { return s.Status },
	List: []resource.Column[entities.LocationStatus]{
		resource.Field("Status", func(s *entities.LocationStatus) any { return s.Status }),
		resource.Field("Comment", func(s *entities.LocationStatus) any { return s.Comment }),
		resource.Field("Date", func(s *entities.LocationStatus) any { return s.CreatedAt }),
	},
	Detail: []resource.Column[entities.LocationStatus]{
		resource.Field("Status", func(s *entities.LocationStatus) any { return s.Status }),
		resource.Field("Comment", func(s *entities.LocationStatus) any { return s.Comment }),
		resource.Field("Visit", func(s *entities.LocationStatus) any { return s.VisitID }),
		resource.Field("Date", func(s *entities.LocationStatus) any { return s.CreatedAt }),
	},
	Export: []query.Column{
		{Label: "id", Field: "id"},
		{Label: "status", Field: "status"},
		{Label: "comment", Field: "comment"},
		{Label: "visit_id", Field: "visit_id"},
		{Label: "created_at", Field: "created_at"},
	},
	Owner: &project.InProject,
	Links: []query.Link{{FK: "location_id", Model: &entities.Location{}}},
	Order: "location_statuses.created_at DESC, location_statuses.id DESC",
	Filters: []resource.Filter{
		{Param: "status", Field: "status", Op: query.Eq},
	},
}

// History is read-only; it is listed by its own handler.
var History = &resource.Descriptor[entities.LocationHistory]{
	Kind:   "location_history",
	Plural: "history",
	Title:  "History",
	Doc:    `Every change made to the location, newest first.`,
	ID:     func(h *entities.LocationHistory) uint { return h.ID },
	Label:  func(h *entities.LocationHistory) string { return h.Field },
	List: []resource.Column[entities.LocationHistory]{
		resource.Field("Effective", func(h *entities.LocationHistory) any { return h.EffectiveAt }),
		resource.Field("Field", func(h *entities.LocationHistory) any { return h.Field }),
		resource.Field("Old value", func(h *entities.LocationHistory) any { return h.OldValue }),
		resource.Field("New value", func(h *entities.LocationHistory) any { return h.NewValue }),
		resource.Field("Reason", func(h *entities.LocationHistory) any { return h.Reason }),
	},
	Detail: []resource.Column[entities.LocationHistory]{
		resource.Field("Field", func(h *entities.LocationHistory) any { return h.Field }),
		resource.Field("Old value", func(h *entities.LocationHistory) any { return h.OldValue }),
		resource.Field("New value", func(h *entities.LocationHistory) any { return h.NewValue }),
	},
	Export: []query.Column{
		{Label: "change_id", Field: "change_id"},
		{Label: "effective_at", Field: "effective_at"},
		{Label: "field", Field: "field"},
		{Label: "old_value", Field: "old_value"},
		{Label: "new_value", Field: "new_value"},
		{Label: "reason", Field: "reason"},
	},
	Owner: &project.InProject,
	Links: []query.Link{{FK: "location_id", Model: &entities.Location{}}},
	Order: "location_history.effective_at DESC, location_history.id DESC",
}
