package ui

import (
	"html/template"

	"github.com/aethra/misight/internal/schema"
)

// Actions builds the per-row controls. A nil Actions renders a read-only table.
type Actions struct {
	// Edit returns the URL that opens rec in the edit modal
	Edit func(rec schema.Record) string
	// Delete returns the URL of the delete confirmation for a record id
	Delete func(id string) string
}

// TableView is the render-ready form of a collection
type TableView struct {
	Headers    []string
	Rows       []RowView
	HasActions bool
	Span       int
}

// RowView is one rendered record
type RowView struct {
	ID        string
	Cells     []string
	EditURL   string
	DeleteURL string
}

// BuildTable lays out one row per record and one cell per column, in collection order.
// Records are only read.
func BuildTable(collection schema.Collection, columns []schema.Column, actions *Actions) TableView {
	view := TableView{
		Headers:    make([]string, 0, len(columns)),
		Rows:       make([]RowView, 0, len(collection)),
		HasActions: actions != nil,
		Span:       len(columns),
	}
	for _, col := range columns {
		view.Headers = append(view.Headers, col.Label)
	}
	if view.HasActions {
		view.Span++
	}

	for _, rec := range collection {
		row := RowView{Cells: make([]string, 0, len(columns))}
		for _, col := range columns {
			row.Cells = append(row.Cells, col.Cell(rec))
		}
		if id, ok := rec.ID(); ok {
			row.ID = id
			if actions != nil {
				if actions.Edit != nil {
					row.EditURL = actions.Edit(rec)
				}
				if actions.Delete != nil {
					row.DeleteURL = actions.Delete(id)
				}
			}
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}

// Table renders collection as an HTML table
func (r *Renderer) Table(collection schema.Collection, columns []schema.Column, actions *Actions) (template.HTML, error) {
	return r.Fragment("table", BuildTable(collection, columns, actions))
}
