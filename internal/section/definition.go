// Package section drives the entity-management pages: one controller per entity type
package section

import (
	"github.com/aethra/misight/internal/auth"
	"github.com/aethra/misight/internal/models"
	"github.com/aethra/misight/internal/schema"
)

// Lookups holds the related collections of a section keyed by backend resource
type Lookups map[string]schema.Collection

// Definition describes one entity type and who may work with it
type Definition struct {
	Key      string
	Title    string
	Singular string
	// Resource is the backend path segment, e.g. "monitoringstations"
	Resource string
	// Lookups are the resources whose records feed select options and column joins
	Lookups []string
	Fields  func(l Lookups) []schema.Field
	Columns func(l Lookups) []schema.Column
	Manage  []models.Role
	View    []models.Role
	// Exportable sections offer the spreadsheet download
	Exportable bool
	// DateField, when set, enables the date-range view
	DateField string
	// LabelField names the record in confirmations; defaults to "name"
	LabelField string
}

// Label returns the text used to name rec in confirmations
func (d Definition) Label(rec schema.Record) string {
	key := d.LabelField
	if key == "" {
		key = "name"
	}
	if label := schema.Display(rec[key]); label != "" {
		return label
	}
	id, _ := rec.ID()
	return d.Singular + " #" + id
}

// Permission returns what role may do on this section
func (d Definition) Permission(role models.Role) auth.UserPermission {
	var perm auth.UserPermission
	for _, r := range d.View {
		if r == role {
			perm.CanView = true
			perm.CanExport = d.Exportable
		}
	}
	for _, r := range d.Manage {
		if r == role {
			perm.CanView = true
			perm.CanCreate = true
			perm.CanEdit = true
			perm.CanDelete = true
			perm.CanExport = d.Exportable
		}
	}
	return perm
}

// Options turns a lookup collection into select options labelled by labelKey
func Options(c schema.Collection, labelKey string) []schema.Option {
	opts := make([]schema.Option, 0, len(c))
	for _, rec := range c {
		id, ok := rec.ID()
		if !ok {
			continue
		}
		label := schema.Display(rec[labelKey])
		if label == "" {
			label = id
		}
		opts = append(opts, schema.Option{Value: id, Label: label})
	}
	return opts
}
