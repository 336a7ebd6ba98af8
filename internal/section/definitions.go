package section

import (
	"github.com/aethra/misight/internal/models"
	"github.com/aethra/misight/internal/reference"
	"github.com/aethra/misight/internal/schema"
)

var (
	adminOnly      = []models.Role{models.RoleAdmin}
	adminsAndMines = []models.Role{models.RoleAdmin, models.RoleMineAdmin}
	everyone       = []models.Role{models.RoleAdmin, models.RoleMineAdmin, models.RoleUser}
)

func text(name, label string, required bool) schema.Field {
	return schema.Text{Attrs: schema.Attrs{Name: name, Label: label, Required: required}}
}

func date(name, label string, required bool) schema.Field {
	return schema.Date{Attrs: schema.Attrs{Name: name, Label: label, Required: required}}
}

func notes() schema.Field {
	return schema.TextArea{Attrs: schema.Attrs{Name: "notes", Label: "Notes"}, Rows: 3}
}

func enumColumn(cat *reference.Catalog, enum, key, label string) schema.Column {
	return schema.Column{Key: key, Label: label, Render: func(raw any, _ schema.Record) string {
		return cat.Label(enum, schema.Display(raw))
	}}
}

func joinColumn(l Lookups, resource, labelKey, key, label string) schema.Column {
	return schema.Column{Key: key, Label: label, Render: schema.Lookup(schema.Labels(Options(l[resource], labelKey)))}
}

// Definitions returns every portal section in navigation order
func Definitions(cat *reference.Catalog) []Definition {
	return []Definition{
		{
			Key: "provinces", Title: "Provinces", Singular: "province", Resource: "provinces",
			Fields: func(Lookups) []schema.Field {
				return []schema.Field{
					text("name", "Name", true),
					text("code", "Code", true),
					schema.Select{Attrs: schema.Attrs{Name: "region", Label: "Region"}, Options: cat.Options("regions")},
					schema.Number{Attrs: schema.Attrs{Name: "area", Label: "Area (km²)"}, Min: schema.Bound(0)},
				}
			},
			Columns: func(Lookups) []schema.Column {
				return []schema.Column{
					{Key: "name", Label: "Name"},
					{Key: "code", Label: "Code"},
					enumColumn(cat, "regions", "region", "Region"),
					{Key: "area", Label: "Area (km²)"},
				}
			},
			Manage: adminOnly, View: adminsAndMines,
		},
		{
			Key: "minerals", Title: "Minerals", Singular: "mineral", Resource: "minerals",
			Fields: func(Lookups) []schema.Field {
				return []schema.Field{
					text("name", "Name", true),
					schema.Select{Attrs: schema.Attrs{Name: "type", Label: "Type", Required: true}, Options: cat.Options("mineral_types")},
					schema.TextArea{Attrs: schema.Attrs{Name: "description", Label: "Description"}, Rows: 4},
				}
			},
			Columns: func(Lookups) []schema.Column {
				return []schema.Column{
					{Key: "name", Label: "Name"},
					{Key: "type", Label: "Type"},
					{Key: "description", Label: "Description"},
				}
			},
			Manage: adminOnly, View: everyone,
		},
		{
			Key: "mines", Title: "Mines", Singular: "mine", Resource: "mines",
			Lookups: []string{"provinces", "minerals"},
			Fields: func(l Lookups) []schema.Field {
				return []schema.Field{
					text("name", "Name", true),
					schema.Select{Attrs: schema.Attrs{Name: "provinceId", Label: "Province", Required: true}, Options: Options(l["provinces"], "name")},
					schema.MultiSelect{Attrs: schema.Attrs{Name: "mineralIds", Label: "Minerals"}, Options: Options(l["minerals"], "name")},
					schema.Select{Attrs: schema.Attrs{Name: "status", Label: "Status", Required: true}, Options: cat.Options("mine_statuses")},
					date("openedOn", "Opened on", false),
					schema.Number{Attrs: schema.Attrs{Name: "capacity", Label: "Capacity (t/year)"}, Min: schema.Bound(0)},
				}
			},
			Columns: func(l Lookups) []schema.Column {
				return []schema.Column{
					{Key: "name", Label: "Name"},
					joinColumn(l, "provinces", "name", "provinceId", "Province"),
					joinColumn(l, "minerals", "name", "mineralIds", "Minerals"),
					enumColumn(cat, "mine_statuses", "status", "Status"),
					{Key: "openedOn", Label: "Opened on"},
					{Key: "capacity", Label: "Capacity (t/year)"},
				}
			},
			Manage: adminsAndMines, View: everyone,
		},
		{
			Key: "pollutants", Title: "Pollutants", Singular: "pollutant", Resource: "pollutants",
			Fields: func(Lookups) []schema.Field {
				return []schema.Field{
					text("name", "Name", true),
					schema.Select{Attrs: schema.Attrs{Name: "category", Label: "Category", Required: true}, Options: cat.Options("pollutant_categories")},
					text("unit", "Unit", true),
					schema.Number{Attrs: schema.Attrs{Name: "threshold", Label: "Threshold"}, Min: schema.Bound(0), Step: 0.01},
				}
			},
			Columns: func(Lookups) []schema.Column {
				return []schema.Column{
					{Key: "name", Label: "Name"},
					enumColumn(cat, "pollutant_categories", "category", "Category"),
					{Key: "unit", Label: "Unit"},
					{Key: "threshold", Label: "Threshold"},
				}
			},
			Manage: adminOnly, View: adminsAndMines,
		},
		{
			Key: "stations", Title: "Monitoring stations", Singular: "monitoring station", Resource: "monitoringstations",
			Lookups: []string{"mines", "pollutants"},
			Fields: func(l Lookups) []schema.Field {
				return []schema.Field{
					text("name", "Name", true),
					schema.Select{Attrs: schema.Attrs{Name: "mineId", Label: "Mine", Required: true}, Options: Options(l["mines"], "name")},
					schema.MultiSelect{Attrs: schema.Attrs{Name: "pollutantIds", Label: "Monitored pollutants"}, Options: Options(l["pollutants"], "name")},
					schema.Select{Attrs: schema.Attrs{Name: "status", Label: "Status", Required: true}, Options: cat.Options("station_statuses")},
					date("installedOn", "Installed on", false),
				}
			},
			Columns: func(l Lookups) []schema.Column {
				return []schema.Column{
					{Key: "name", Label: "Name"},
					joinColumn(l, "mines", "name", "mineId", "Mine"),
					joinColumn(l, "pollutants", "name", "pollutantIds", "Pollutants"),
					enumColumn(cat, "station_statuses", "status", "Status"),
					{Key: "installedOn", Label: "Installed on"},
				}
			},
			Manage: adminOnly, View: adminsAndMines,
		},
		{
			Key: "users", Title: "Users", Singular: "user", Resource: "users", LabelField: "username",
			Fields: func(Lookups) []schema.Field {
				return []schema.Field{
					text("username", "Username", true),
					text("email", "Email", true),
					schema.Password{Attrs: schema.Attrs{Name: "password", Label: "Password", Required: true}},
					schema.Select{Attrs: schema.Attrs{Name: "role", Label: "Role", Required: true}, Options: cat.Options("roles")},
				}
			},
			Columns: func(Lookups) []schema.Column {
				return []schema.Column{
					{Key: "username", Label: "Username"},
					{Key: "email", Label: "Email"},
					enumColumn(cat, "roles", "role", "Role"),
				}
			},
			Manage: adminOnly, View: adminOnly,
		},
		{
			Key: "safety", Title: "Safety data", Singular: "safety report", Resource: "safety-data",
			Lookups: []string{"mines"}, Exportable: true, DateField: "reportDate", LabelField: "reportDate",
			Fields: func(l Lookups) []schema.Field {
				return []schema.Field{
					schema.Select{Attrs: schema.Attrs{Name: "mineId", Label: "Mine", Required: true}, Options: Options(l["mines"], "name")},
					date("reportDate", "Report date", true),
					schema.Number{Attrs: schema.Attrs{Name: "incidentCount", Label: "Incidents", Required: true}, Min: schema.Bound(0), Step: 1},
					schema.Select{Attrs: schema.Attrs{Name: "severity", Label: "Severity", Required: true}, Options: cat.Options("severities")},
					notes(),
				}
			},
			Columns: func(l Lookups) []schema.Column {
				return []schema.Column{
					joinColumn(l, "mines", "name", "mineId", "Mine"),
					{Key: "reportDate", Label: "Report date"},
					{Key: "incidentCount", Label: "Incidents"},
					enumColumn(cat, "severities", "severity", "Severity"),
					{Key: "notes", Label: "Notes"},
				}
			},
			Manage: adminsAndMines, View: adminsAndMines,
		},
		{
			Key: "environmental", Title: "Environmental data", Singular: "measurement", Resource: "environmental-data",
			Lookups: []string{"monitoringstations", "pollutants"}, Exportable: true, DateField: "measuredOn", LabelField: "measuredOn",
			Fields: func(l Lookups) []schema.Field {
				return []schema.Field{
					schema.Select{Attrs: schema.Attrs{Name: "stationId", Label: "Station", Required: true}, Options: Options(l["monitoringstations"], "name")},
					schema.Select{Attrs: schema.Attrs{Name: "pollutantId", Label: "Pollutant", Required: true}, Options: Options(l["pollutants"], "name")},
					date("measuredOn", "Measured on", true),
					schema.Number{Attrs: schema.Attrs{Name: "value", Label: "Value", Required: true}, Step: 0.001},
					notes(),
				}
			},
			Columns: func(l Lookups) []schema.Column {
				return []schema.Column{
					joinColumn(l, "monitoringstations", "name", "stationId", "Station"),
					joinColumn(l, "pollutants", "name", "pollutantId", "Pollutant"),
					{Key: "measuredOn", Label: "Measured on"},
					{Key: "value", Label: "Value"},
					{Key: "notes", Label: "Notes"},
				}
			},
			Manage: adminsAndMines, View: everyone,
		},
	}
}
