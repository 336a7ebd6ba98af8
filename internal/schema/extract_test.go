package schema

import (
	stderrors "errors"
	"net/url"
	"testing"

	apperrors "github.com/aethra/misight/internal/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mineFields() []Field {
	return []Field{
		Text{Attrs: Attrs{Name: "name", Label: "Name", Required: true}},
		Select{Attrs: Attrs{Name: "provinceId", Label: "Province", Required: true}, Options: []Option{{Value: "1", Label: "Katanga"}}},
		MultiSelect{Attrs: Attrs{Name: "mineralIds", Label: "Minerals"}, Options: []Option{{Value: "1", Label: "Iron"}, {Value: "2", Label: "Copper"}, {Value: "3", Label: "Gold"}}},
		Date{Attrs: Attrs{Name: "openedOn", Label: "Opened on"}},
		Number{Attrs: Attrs{Name: "capacity", Label: "Capacity"}, Min: Bound(0)},
		TextArea{Attrs: Attrs{Name: "notes", Label: "Notes"}, Rows: 3},
	}
}

func TestExtract_TypesEachKind(t *testing.T) {
	form := url.Values{
		"name":       {"Kamoto"},
		"provinceId": {"1"},
		"mineralIds": {"3", "1"},
		"openedOn":   {"2019-04-01"},
		"capacity":   {"1250.5"},
		"notes":      {"deep shaft"},
		"ignored":    {"x"},
	}

	got, err := Extract(mineFields(), form)
	require.NoError(t, err)

	want := Values{
		"name":       "Kamoto",
		"provinceId": "1",
		"mineralIds": []string{"3", "1"},
		"openedOn":   "2019-04-01",
		"capacity":   1250.5,
		"notes":      "deep shaft",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
	}
}

func TestExtract_KeysAreExactlyFieldNames(t *testing.T) {
	got, err := Extract(mineFields(), url.Values{"name": {"a"}, "provinceId": {"1"}})
	require.NoError(t, err)

	keys := make([]string, 0, len(got))
	for k := range got {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, Names(mineFields()), keys)
}

func TestExtract_EmptyNumberIsNil(t *testing.T) {
	got, err := Extract(mineFields(), url.Values{"name": {"a"}, "provinceId": {"1"}, "capacity": {"  "}})
	require.NoError(t, err)

	v, ok := got["capacity"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestExtract_MultiSelectKeepsSelectionOrder(t *testing.T) {
	got, err := Extract(mineFields(), url.Values{
		"name":       {"a"},
		"provinceId": {"1"},
		"mineralIds": {"2", "", "3", "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3", "1"}, got["mineralIds"])
}

func TestExtract_MultiSelectNoneIsEmptySlice(t *testing.T) {
	got, err := Extract(mineFields(), url.Values{"name": {"a"}, "provinceId": {"1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{}, got["mineralIds"])
}

func TestExtract_RequiredMissing(t *testing.T) {
	_, err := Extract(mineFields(), url.Values{"name": {""}})
	require.Error(t, err)

	var ve *apperrors.ValidationError
	require.True(t, stderrors.As(err, &ve))
	assert.Equal(t, "Name is required", ve.FieldMessage("name"))
	assert.Equal(t, "Province is required", ve.FieldMessage("provinceId"))
}

func TestExtract_RequiredMultiSelect(t *testing.T) {
	fields := []Field{MultiSelect{Attrs: Attrs{Name: "pollutantIds", Label: "Pollutants", Required: true}}}

	_, err := Extract(fields, url.Values{"pollutantIds": {""}})
	require.Error(t, err)

	got, err := Extract(fields, url.Values{"pollutantIds": {"4"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"4"}, got["pollutantIds"])
}

func TestExtract_InvalidNumbers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"text", "lots", "Capacity must be a number"},
		{"nan", "NaN", "Capacity must be a number"},
		{"inf", "+Inf", "Capacity must be a number"},
		{"below min", "-1", "Capacity must be at least 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(mineFields(), url.Values{"name": {"a"}, "provinceId": {"1"}, "capacity": {tt.input}})
			var ve *apperrors.ValidationError
			require.True(t, stderrors.As(err, &ve))
			assert.Equal(t, tt.msg, ve.FieldMessage("capacity"))
		})
	}
}

func TestEncode_PrefillsFromRecord(t *testing.T) {
	rec := Record{
		"id":         float64(7),
		"name":       "Kamoto",
		"provinceId": map[string]any{"id": float64(1), "name": "Katanga"},
		"mineralIds": []any{float64(1), float64(2)},
		"openedOn":   "2019-04-01T00:00:00Z",
		"capacity":   float64(1200),
	}

	form := Encode(mineFields(), rec)
	assert.Equal(t, "Kamoto", form.Get("name"))
	assert.Equal(t, "1", form.Get("provinceId"))
	assert.Equal(t, []string{"1", "2"}, form["mineralIds"])
	assert.Equal(t, "2019-04-01", form.Get("openedOn"))
	assert.Equal(t, "1200", form.Get("capacity"))
	assert.Empty(t, form.Get("notes"))
}
