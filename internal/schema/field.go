// Package schema describes the editable attributes of an entity and the columns shown for it
package schema

// Kind identifies a field variant
type Kind string

const (
	KindText        Kind = "text"
	KindNumber      Kind = "number"
	KindPassword    Kind = "password"
	KindDate        Kind = "date"
	KindSelect      Kind = "select"
	KindMultiSelect Kind = "multiselect"
	KindTextArea    Kind = "textarea"
)

// Option is one choice of a select or multiselect field
type Option struct {
	Value string
	Label string
}

// Attrs are the attributes every field carries
type Attrs struct {
	Name     string
	Label    string
	Required bool
}

// Field is one editable attribute. The concrete type decides how it renders and
// how its submitted value is typed.
type Field interface {
	Kind() Kind
	Attributes() Attrs
}

func (a Attrs) Attributes() Attrs { return a }

type Text struct{ Attrs }

func (Text) Kind() Kind { return KindText }

type Password struct{ Attrs }

func (Password) Kind() Kind { return KindPassword }

// Date holds an ISO yyyy-mm-dd string
type Date struct{ Attrs }

func (Date) Kind() Kind { return KindDate }

type TextArea struct {
	Attrs
	Rows int
}

func (TextArea) Kind() Kind { return KindTextArea }

// Number is a numeric input. Nil bounds are open.
type Number struct {
	Attrs
	Min  *float64
	Max  *float64
	Step float64
}

func (Number) Kind() Kind { return KindNumber }

type Select struct {
	Attrs
	Options []Option
}

func (Select) Kind() Kind { return KindSelect }

type MultiSelect struct {
	Attrs
	Options []Option
}

func (MultiSelect) Kind() Kind { return KindMultiSelect }

// OptionsOf returns the options of a select or multiselect field, nil otherwise
func OptionsOf(f Field) []Option {
	switch v := f.(type) {
	case Select:
		return v.Options
	case MultiSelect:
		return v.Options
	}
	return nil
}

// Names returns the field names in declaration order
func Names(fields []Field) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Attributes().Name)
	}
	return names
}

// Bound is a helper for Number.Min and Number.Max
func Bound(v float64) *float64 {
	return &v
}
