// Package sensor tracks loggers, where they are deployed and the readings
// they record.
package sensor

import (
	"watersync/entities"
	"watersync/pkg/detailform"
	"watersync/pkg/project"
	"watersync/pkg/query"
	"watersync/pkg/resource"
)

// Details resolves the type-specific fields of a sensor. Sensors of type
// "other" have none and store no payload.
var Details = detailform.NewRegistry[entities.SensorDetail]("type").
	Register(entities.SensorVented, func() entities.SensorDetail { return &entities.VentedSensorDetail{} }).
	Register(entities.SensorUnvented, func() entities.SensorDetail { return &entities.UnventedSensorDetail{} })

// Owners scopes sensors to the users listed in sensor_users.
var Owners = query.Owner{Table: "sensor_users", Column: "sensor_id"}

var Sensors = &resource.Descriptor[entities.Sensor]{
	Kind:   "sensor",
	Plural: "sensors",
	Title:  "Sensors",
	Doc: `Sensors are the loggers you own. A sensor is available until it is
deployed and becomes available again when the deployment is decommissioned.

A sensor that has ever been deployed cannot be deleted.`,
	ID:    func(s *entities.Sensor) uint { return s.ID },
	Label: func(s *entities.Sensor) string { return s.Identifier },
	List: []resource.Column[entities.Sensor]{
		resource.Field("Identifier", func(s *entities.Sensor) any { return s.Identifier }),
		resource.Field("Type", func(s *entities.Sensor) any { return s.Type }),
		resource.Field("Available", func(s *entities.Sensor) any { return s.Available }),
		resource.Field("Deployments", func(s *entities.Sensor) any { return s.DeploymentCount }),
	},
	Detail: []resource.Column[entities.Sensor]{
		resource.Field("Identifier", func(s *entities.Sensor) any { return s.Identifier }),
		resource.Field("Type", func(s *entities.Sensor) any { return s.Type }),
		resource.Field("Available", func(s *entities.Sensor) any { return s.Available }),
		resource.Field("Deployments", func(s *entities.Sensor) any { return s.DeploymentCount }),
	},
	Export: []query.Column{
		{Label: "id", Field: "id"},
		{Label: "identifier", Field: "identifier"},
		{Label: "type", Field: "type"},
		{Label: "available", Field: "available"},
		{Label: "detail", Field: "detail"},
	},
	Details: Details,
	Owner:   &Owners,
	Order:   "sensors.identifier",
	Aggregates: []query.Annotation{
		{Name: "deployment_count", Expr: "SELECT COUNT(*) FROM deployments WHERE deployments.sensor_id = sensors.id"},
	},
	Filters: []resource.Filter{
		{Param: "identifier", Field: "identifier", Op: query.Like},
		{Param: "type", Field: "type", Op: query.Eq},
		{Param: "available", Field: "available", Op: query.Eq},
	},
}

var Deployments = &resource.Descriptor[entities.Deployment]{
	Kind:   "deployment",
	Plural: "deployments",
	Title:  "Deployments",
	Doc: `A deployment is the time a sensor spends at one of the project's
locations.

Only available sensors can be deployed. Decommission a deployment to close
it and free the sensor. Deleting a deployment deletes its records.`,
	ID: func(d *entities.Deployment) uint { return d.ID },
	Label: func(d *entities.Deployment) string {
		return d.SensorIdentifier + " at " + d.LocationName
	},
	List: []resource.Column[entities.Deployment]{
		resource.Field("Sensor", func(d *entities.Deployment) any { return d.SensorIdentifier }),
		resource.Field("Location", func(d *entities.Deployment) any { return d.LocationName }),
		resource.Field("Variable", func(d *entities.Deployment) any { return d.Variable }),
		resource.Field("Deployed", func(d *entities.Deployment) any { return d.DeployedAt }),
		resource.Field("Decommissioned", func(d *entities.Deployment) any { return d.DecommissionedAt }),
	},
	Detail: []resource.Column[entities.Deployment]{
		resource.Field("Sensor", func(d *entities.Deployment) any { return d.SensorIdentifier }),
		resource.Field("Location", func(d *entities.Deployment) any { return d.LocationName }),
		resource.Field("Variable", func(d *entities.Deployment) any { return d.Variable }),
		resource.Field("Unit", func(d *entities.Deployment) any { return d.Unit }),
		resource.Field("Deployed", func(d *entities.Deployment) any { return d.DeployedAt }),
		resource.Field("Decommissioned", func(d *entities.Deployment) any { return d.DecommissionedAt }),
		resource.Field("Records", func(d *entities.Deployment) any { return d.RecordCount }),
	},
	Export: []query.Column{
		{Label: "id", Field: "id"},
		{Label: "sensor", Field: "sensor_identifier"},
		{Label: "location", Field: "location_name"},
		{Label: "variable", Field: "variable"},
		{Label: "unit", Field: "unit"},
		{Label: "deployed_at", Field: "deployed_at"},
		{Label: "decommissioned_at", Field: "decommissioned_at"},
	},
	Owner: &project.InProject,
	Links: []query.Link{{FK: "location_id", Model: &entities.Location{}}},
	Order: "deployments.deployed_at DESC",
	Aggregates: []query.Annotation{
		{Name: "sensor_identifier", Expr: "SELECT identifier FROM sensors WHERE sensors.id = deployments.sensor_id"},
		{Name: "location_name", Expr: "SELECT name FROM locations WHERE locations.id = deployments.location_id"},
		{Name: "record_count", Expr: "SELECT COUNT(*) FROM sensor_records WHERE sensor_records.deployment_id = deployments.id"},
	},
	Filters: []resource.Filter{
		{Param: "location_id", Field: "location_id", Op: query.Eq},
		{Param: "sensor_id", Field: "sensor_id", Op: query.Eq},
	},
}

var Records = &resource.Descriptor[entities.SensorRecord]{
	Kind:   "sensor_record",
	Plural: "records",
	Title:  "Records",
	Doc: `Readings logged by the deployed sensor.

Upload a CSV with the columns <code>timestamp</code>, <code>value</code>,
<code>type</code> and <code>unit</code> to add many at once; readings that
are already stored are skipped.`,
	ID:    func(r *entities.SensorRecord) uint { return r.ID },
	Label: func(r *entities.SensorRecord) string { return r.Timestamp.Format("2006-01-02 15:04") },
	List: []resource.Column[entities.SensorRecord]{
		resource.Field("Timestamp", func(r *entities.SensorRecord) any { return r.Timestamp }),
		resource.Field("Value", func(r *entities.SensorRecord) any { return r.Value }),
		resource.Field("Type", func(r *entities.SensorRecord) any { return r.Type }),
		resource.Field("Unit", func(r *entities.SensorRecord) any { return r.Unit }),
	},
	Detail: []resource.Column[entities.SensorRecord]{
		resource.Field("Timestamp", func(r *entities.SensorRecord) any { return r.Timestamp }),
		resource.Field("Value", func(r *entities.SensorRecord) any { return r.Value }),
		resource.Field("Type", func(r *entities.SensorRecord) any { return r.Type }),
		resource.Field("Unit", func(r *entities.SensorRecord) any { return r.Unit }),
	},
	Export: []query.Column{
		{Label: "timestamp", Field: "timestamp"},
		{Label: "value", Field: "value"},
		{Label: "type", Field: "type"},
		{Label: "unit", Field: "unit"},
	},
	Owner: &project.InProject,
	Links: []query.Link{{
		FK:    "deployment_id",
		Model: &entities.Deployment{},
		Via:   []query.Link{{FK: "location_id", Model: &entities.Location{}}},
	}},
	Order: "sensor_records.timestamp",
	Filters: []resource.Filter{
		{Param: "type", Field: "type", Op: query.Eq},
		{Param: "date_start", Field: "timestamp", Op: query.Gte},
		{Param: "date_end", Field: "timestamp", Op: query.Lte},
	},
}
