// Package waterquality covers water samples, their lab measurements and the
// reference data they use: protocols, parameter groups and parameters.
package waterquality

import (
	"watersync/entities"
	"watersync/pkg/project"
	"watersync/pkg/query"
	"watersync/pkg/resource"
)

// ProtocolOwners scopes protocols to the users listed in protocol_users.
var ProtocolOwners = query.Owner{Table: "protocol_users", Column: "protocol_id"}

var Protocols = &resource.Descriptor[entities.Protocol]{
	Kind:   "protocol",
	Plural: "protocols",
	Title:  "Protocols",
	Doc: `A protocol describes how samples are collected, preserved, stored and
analysed.

The slug is derived from the method name when the protocol is created.`,
	ID:    func(p *entities.Protocol) uint { return p.ID },
	Label: func(p *entities.Protocol) string { return p.MethodName },
	List: []resource.Column[entities.Protocol]{
		resource.Field("Method", func(p *entities.Protocol) any { return p.MethodName }),
		resource.Field("Slug", func(p *entities.Protocol) any { return p.Slug }),
		resource.Field("Standard", func(p *entities.Protocol) any { return p.StandardReference }),
	},
	Detail: []resource.Column[entities.Protocol]{
		resource.Field("Method", func(p *entities.Protocol) any { return p.MethodName }),
		resource.Field("Slug", func(p *entities.Protocol) any { return p.Slug }),
		resource.Field("Sample collection", func(p *entities.Protocol) any { return p.SampleCollection }),
		resource.Field("Sample preservation", func(p *entities.Protocol) any { return p.SamplePreservation }),
		resource.Field("Sample storage", func(p *entities.Protocol) any { return p.SampleStorage }),
		resource.Field("Analytical method", func(p *entities.Protocol) any { return p.AnalyticalMethod }),
		resource.Field("Data postprocessing", func(p *entities.Protocol) any { return p.DataPostprocessing }),
		resource.Field("Standard", func(p *entities.Protocol) any { return p.StandardReference }),
		resource.Field("Details", func(p *entities.Protocol) any { return p.Details }),
	},
	Owner: &ProtocolOwners,
	Order: "protocols.method_name",
	Filters: []resource.Filter{
		{Param: "method_name", Field: "method_name", Op: query.Like},
	},
}

var ParameterGroups = &resource.Descriptor[entities.ParameterGroup]{
	Kind:   "parameter_group",
	Plural: "parameter-groups",
	Title:  "Parameter groups",
	Doc: `Groups of related parameters, for example major ions or nutrients.

Deleting a group deletes its parameters.`,
	ID:    func(g *entities.ParameterGroup) uint { return g.ID },
	Label: func(g *entities.ParameterGroup) string { return g.Name },
	List: []resource.Column[entities.ParameterGroup]{
		resource.Field("Code", func(g *entities.ParameterGroup) any { return g.Code }),
		resource.Field("Name", func(g *entities.ParameterGroup) any { return g.Name }),
		resource.Field("Parameters", func(g *entities.ParameterGroup) any { return g.ParameterCount }),
	},
	Detail: []resource.Column[entities.ParameterGroup]{
		resource.Field("Code", func(g *entities.ParameterGroup) any { return g.Code }),
		resource.Field("Name", func(g *entities.ParameterGroup) any { return g.Name }),
		resource.Field("Description", func(g *entities.ParameterGroup) any { return g.Description }),
		resource.Field("Parameters", func(g *entities.ParameterGroup) any { return g.ParameterCount }),
	},
	Export: []query.Column{
		{Label: "code", Field: "code"},
		{Label: "name", Field: "name"},
		{Label: "description", Field: "description"},
		{Label: "parameters", Field: "parameter_count"},
	},
	Order: "parameter_groups.code",
	Aggregates: []query.Annotation{
		{Name: "parameter_count", Expr: "SELECT COUNT(*) FROM parameters WHERE parameters.parameter_group_id = parameter_groups.id"},
	},
}

var Parameters = &resource.Descriptor[entities.Parameter]{
	Kind:   "parameter",
	Plural: "parameters",
	Title:  "Parameters",
	Doc:    `Measurable parameters with their code and default unit.`,
	ID:     func(p *entities.Parameter) uint { return p.ID },
	Label:  func(p *entities.Parameter) string { return p.Code },
	List: []resource.Column[entities.Parameter]{
		resource.Field("Code", func(p *entities.Parameter) any { return p.Code }),
		resource.Field("Name", func(p *entities.Parameter) any { return p.Name }),
		resource.Field("Unit", func(p *entities.Parameter) any { return p.Unit }),
	},
	Detail: []resource.Column[entities.Parameter]{
		resource.Field("Code", func(p *entities.Parameter) any { return p.Code }),
		resource.Field("Name", func(p *entities.Parameter) any { return p.Name }),
		resource.Field("Unit", func(p *entities.Parameter) any { return p.Unit }),
	},
	Export: []query.Column{
		{Label: "code", Field: "code"},
		{Label: "name", Field: "name"},
		{Label: "unit", Field: "unit"},
	},
	Order: "parameters.code",
	Filters: []resource.Filter{
		{Param: "code", Field: "code", Op: query.Eq},
		{Param: "name", Field: "name", Op: query.Like},
	},
}

var Samples = &resource.Descriptor[entities.Sample]{
	Kind:   "sample",
	Plural: "samples",
	Title:  "Samples",
	Doc: `Water samples taken at a location.

Link a sample to the visit it was taken on and the protocol it follows.
Deleting a sample deletes its measurements.`,
	ID:    func(s *entities.Sample) uint { return s.ID },
	Label: func(s *entities.Sample) string { return s.Timestamp.Format("2006-01-02 15:04") + " " + s.TargetParameters },
	List: []resource.Column[entities.Sample]{
		resource.Field("Taken", func(s *entities.Sample) any { return s.Timestamp }),
		resource.Field("Target", func(s *entities.Sample) any { return s.TargetParameters }),
		resource.Field("Replica", func(s *entities.Sample) any { return s.ReplicaNumber }),
		resource.Field("Measurements", func(s *entities.Sample) any { return s.MeasurementCount }),
	},
	Detail: []resource.Column[entities.Sample]{
		resource.Field("Taken", func(s *entities.Sample) any { return s.Timestamp }),
		resource.Field("Target", func(s *entities.Sample) any { return s.TargetParameters }),
		resource.Field("Container", func(s *entities.Sample) any { return s.ContainerType }),
		resource.Field("Volume collected (ml)", func(s *entities.Sample) any { return s.VolumeCollected }),
		resource.Field("Replica", func(s *entities.Sample) any { return s.ReplicaNumber }),
		resource.Field("Details", func(s *entities.Sample) any { return s.Details }),
		resource.Field("Measurements", func(s *entities.Sample) any { return s.MeasurementCount }),
	},
	Export: []query.Column{
		{Label: "id", Field: "id"},
		{Label: "timestamp", Field: "timestamp"},
		{Label: "target_parameters", Field: "target_parameters"},
		{Label: "container_type", Field: "container_type"},
		{Label: "volume_collected", Field: "volume_collected"},
		{Label: "replica_number", Field: "replica_number"},
		{Label: "visit_id", Field: "visit_id"},
		{Label: "protocol_id", Field: "protocol_id"},
	},
	Owner: &project.InProject,
	Links: []query.Link{{FK: "location_id", Model: &entities.Location{}}},
	Order: "samples.timestamp DESC",
	Aggregates: []query.Annotation{
		{Name: "measurement_count", Expr: "SELECT COUNT(*) FROM measurements WHERE measurements.sample_id = samples.id"},
	},
	Filters: []resource.Filter{
		{Param: "target_parameters", Field: "target_parameters", Op: query.Like},
		{Param: "date_start", Field: "timestamp", Op: query.Gte},
		{Param: "date_end", Field: "timestamp", Op: query.Lte},
	},
}

var Measurements = &resource.Descriptor[entities.Measurement]{
	Kind:   "measurement",
	Plural: "measurements",
	Title:  "Measurements",
	Doc: `Lab or field results for a sample.

Several results can be added in one go: repeat the parameter, value and unit
fields once per result.`,
	ID:    func(m *entities.Measurement) uint { return m.ID },
	Label: func(m *entities.Measurement) string { return m.Parameter },
	List: []resource.Column[entities.Measurement]{
		resource.Field("Parameter", func(m *entities.Measurement) any { return m.Parameter }),
		resource.Field("Value", func(m *entities.Measurement) any { return m.Value }),
		resource.Field("Unit", func(m *entities.Measurement) any { return m.Unit }),
		resource.Field("Measured on", func(m *entities.Measurement) any { return m.MeasuredOn }),
	},
	Detail: []resource.Column[entities.Measurement]{
		resource.Field("Parameter", func(m *entities.Measurement) any { return m.Parameter }),
		resource.Field("Value", func(m *entities.Measurement) any { return m.Value }),
		resource.Field("Unit", func(m *entities.Measurement) any { return m.Unit }),
		resource.Field("Measured on", func(m *entities.Measurement) any { return m.MeasuredOn }),
		resource.Field("Details", func(m *entities.Measurement) any { return m.Details }),
	},
	Export: []query.Column{
		{Label: "parameter", Field: "parameter"},
		{Label: "value", Field: "value"},
		{Label: "unit", Field: "unit"},
		{Label: "measured_on", Field: "measured_on"},
		{Label: "details", Field: "details"},
	},
	BulkCreate: true,
	Owner:      &project.InProject,
	Links: []query.Link{{
		FK:    "sample_id",
		Model: &entities.Sample{},
		Via:   []query.Link{{FK: "location_id", Model: &entities.Location{}}},
	}},
	Order: "measurements.parameter",
	Filters: []resource.Filter{
		{Param: "parameter", Field: "parameter", Op: query.Like},
	},
}
