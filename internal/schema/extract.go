package schema

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	apperrors "github.com/aethra/misight/internal/errors"
)

// Values is the typed submission of a form. Its keys are exactly the field names.
type Values map[string]any

// CheckRequired reports every required field left empty in form
func CheckRequired(fields []Field, form url.Values) []apperrors.FieldError {
	var missing []apperrors.FieldError
	for _, f := range fields {
		a := f.Attributes()
		if !a.Required {
			continue
		}
		if isEmpty(f, form[a.Name]) {
			missing = append(missing, apperrors.FieldError{
				Field:   a.Name,
				Message: fmt.Sprintf("%s is required", a.Label),
			})
		}
	}
	return missing
}

func isEmpty(f Field, raw []string) bool {
	if f.Kind() == KindMultiSelect {
		return len(nonEmpty(raw)) == 0
	}
	return len(raw) == 0 || strings.TrimSpace(raw[0]) == ""
}

// Extract types the submitted form per field kind. Required fields are checked first;
// a failure there or an unparsable number yields a ValidationError.
func Extract(fields []Field, form url.Values) (Values, error) {
	if missing := CheckRequired(fields, form); len(missing) > 0 {
		return nil, apperrors.NewValidationError(missing...)
	}

	values := make(Values, len(fields))
	var invalid []apperrors.FieldError
	for _, f := range fields {
		a := f.Attributes()
		raw := form[a.Name]

		switch field := f.(type) {
		case MultiSelect:
			values[a.Name] = nonEmpty(raw)
		case Number:
			n, err := parseNumber(field, first(raw))
			if err != nil {
				invalid = append(invalid, apperrors.FieldError{Field: a.Name, Message: err.Error()})
				continue
			}
			if n == nil {
				values[a.Name] = nil
			} else {
				values[a.Name] = *n
			}
		default:
			values[a.Name] = first(raw)
		}
	}

	if len(invalid) > 0 {
		return nil, apperrors.NewValidationError(invalid...)
	}
	return values, nil
}

func parseNumber(f Number, s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, fmt.Errorf("%s must be a number", f.Label)
	}
	if f.Min != nil && n < *f.Min {
		return nil, fmt.Errorf("%s must be at least %v", f.Label, *f.Min)
	}
	if f.Max != nil && n > *f.Max {
		return nil, fmt.Errorf("%s must be at most %v", f.Label, *f.Max)
	}
	return &n, nil
}

// Encode turns a record into form values, one entry per field, for pre-filling inputs
func Encode(fields []Field, rec Record) url.Values {
	form := make(url.Values, len(fields))
	for _, f := range fields {
		name := f.Attributes().Name
		raw, ok := rec[name]
		if !ok || raw == nil {
			continue
		}
		switch f.Kind() {
		case KindMultiSelect:
			form[name] = Strings(raw)
		case KindDate:
			form.Set(name, dateOnly(Display(raw)))
		default:
			form.Set(name, Scalar(raw))
		}
	}
	return form
}

// dateOnly trims a timestamp such as 2024-03-01T00:00:00Z to the date an input accepts
func dateOnly(s string) string {
	if len(s) > 10 && s[4] == '-' && s[7] == '-' {
		return s[:10]
	}
	return s
}

func first(raw []string) string {
	if len(raw) == 0 {
		return ""
	}
	return raw[0]
}

func nonEmpty(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
