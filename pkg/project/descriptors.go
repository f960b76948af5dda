// Package project holds everything that hangs directly off a project: the
// project itself and its membership.
package project

import (
	"watersync/entities"
	"watersync/pkg/query"
	"watersync/pkg/resource"
)

// Members scopes projects to the users listed in project_members.
var Members = query.Owner{Table: "project_members", Column: "project_id"}

// InProject scopes anything below a project by the project's members.
var InProject = query.Owner{Ancestor: "project", Table: "project_members", Column: "project_id"}

var Projects = &resource.Descriptor[entities.Project]{
	Kind:   "project",
	Plural: "projects",
	Title:  "Projects",
	Doc: `A project groups the locations, fieldwork and deployments of one
monitoring campaign.

Only members of a project can see it. Whoever creates a project becomes its
first member. A project cannot be deleted while it still has locations;
its fieldwork is deleted with it.`,
	ID:    func(p *entities.Project) uint { return p.ID },
	Label: func(p *entities.Project) string { return p.Name },
	List: []resource.Column[entities.Project]{
		resource.Field("Name", func(p *entities.Project) any { return p.Name }),
		resource.Field("Active", func(p *entities.Project) any { return p.IsActive }),
		resource.Field("Locations", func(p *entities.Project) any { return p.LocationCount }),
		resource.Field("Created", func(p *entities.Project) any { return p.CreatedAt }),
	},
	Detail: []resource.Column[entities.Project]{
		resource.Field("Name", func(p *entities.Project) any { return p.Name }),
		resource.Field("Description", func(p *entities.Project) any { return p.Description }),
		resource.Field("Latitude", func(p *entities.Project) any { return p.Latitude }),
		resource.Field("Longitude", func(p *entities.Project) any { return p.Longitude }),
		resource.Field("Active", func(p *entities.Project) any { return p.IsActive }),
		resource.Field("Locations", func(p *entities.Project) any { return p.LocationCount }),
	},
	Export: []query.Column{
		{Label: "id", Field: "id"},
		{Label: "name", Field: "name"},
		{Label: "description", Field: "description"},
		{Label: "latitude", Field: "latitude"},
		{Label: "longitude", Field: "longitude"},
		{Label: "is_active", Field: "is_active"},
		{Label: "locations", Field: "location_count"},
	},
	Owner: &Members,
	Order: "projects.name",
	Aggregates: []query.Annotation{
		{Name: "location_count", Expr: "SELECT COUNT(*) FROM locations WHERE locations.project_id = projects.id"},
	},
	Filters: []resource.Filter{
		{Param: "name", Field: "name", Op: query.Like},
		{Param: "is_active", Field: "is_active", Op: query.Eq},
	},
}
