package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplay(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "Iron", "Iron"},
		{"json number", json.Number("12.50"), "12.50"},
		{"float", float64(3), "3"},
		{"bool", true, "true"},
		{"slice", []any{"Iron", "Copper"}, "Iron, Copper"},
		{"strings", []string{"a", "b"}, "a, b"},
		{"related object", map[string]any{"id": 1, "name": "Katanga"}, "Katanga"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Display(tt.in))
		})
	}
}

func TestRecordID(t *testing.T) {
	id, ok := Record{"id": json.Number("1")}.ID()
	assert.True(t, ok)
	assert.Equal(t, "1", id)

	_, ok = Record{"name": "transient"}.ID()
	assert.False(t, ok)
}

func TestColumnCell(t *testing.T) {
	rec := Record{"id": 1, "name": "Kamoto", "mineralIds": []any{json.Number("1"), json.Number("2"), json.Number("9")}}

	assert.Equal(t, "Kamoto", Column{Key: "name", Label: "Name"}.Cell(rec))

	minerals := Column{
		Key:    "mineralIds",
		Label:  "Minerals",
		Render: Lookup(map[string]string{"1": "Iron", "2": "Copper"}),
	}
	assert.Equal(t, "Iron, Copper, 9", minerals.Cell(rec))

	assert.Panics(t, func() { Column{Label: "broken"}.Cell(rec) })
}

func TestCollectionFind(t *testing.T) {
	c := Collection{{"id": 1, "name": "a"}, {"id": "x", "name": "b"}}

	r, ok := c.Find("x")
	assert.True(t, ok)
	assert.Equal(t, "b", r["name"])

	_, ok = c.Find("2")
	assert.False(t, ok)
}
