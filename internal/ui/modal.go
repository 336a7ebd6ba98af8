package ui

import (
	"context"
	stderrors "errors"
	"html/template"
	"net/url"
	"strconv"

	apperrors "github.com/aethra/misight/internal/errors"
	"github.com/aethra/misight/internal/schema"
)

// ModalState is the lifecycle position of a Modal
type ModalState int

const (
	ModalClosed ModalState = iota
	ModalCreate
	ModalEdit
)

func (s ModalState) String() string {
	switch s {
	case ModalCreate:
		return "open-create"
	case ModalEdit:
		return "open-edit"
	}
	return "closed"
}

// ErrModalClosed is returned when a closed modal is submitted
var ErrModalClosed = stderrors.New("modal is not open")

// Modal is the create/edit form for one record. A failed submit keeps it open with the
// submitted values and the error; a successful one calls OnClose and closes it.
type Modal struct {
	Title    string
	Fields   []schema.Field
	Data     schema.Record
	OnSubmit func(ctx context.Context, values schema.Values) error
	OnClose  func()

	// Action is the URL the form posts to; CancelURL closes the modal
	Action    string
	CancelURL string

	state ModalState
	form  url.Values
	err   error
}

// OpenCreate opens the modal with every input blank
func (m *Modal) OpenCreate() {
	m.state = ModalCreate
	m.Data = nil
	m.form = url.Values{}
	m.err = nil
}

// OpenEdit opens the modal with every input filled from rec
func (m *Modal) OpenEdit(rec schema.Record) {
	m.state = ModalEdit
	m.Data = rec
	m.form = schema.Encode(m.Fields, rec)
	m.err = nil
}

// State returns the lifecycle position
func (m *Modal) State() ModalState {
	return m.state
}

// Err returns the error shown in the modal, if any
func (m *Modal) Err() error {
	return m.err
}

// Submit validates form, types it and hands it to OnSubmit. OnSubmit is never called when
// a required field is empty or a value cannot be typed.
func (m *Modal) Submit(ctx context.Context, form url.Values) error {
	if m.state == ModalClosed {
		return ErrModalClosed
	}
	m.form = form

	values, err := schema.Extract(m.Fields, form)
	if err != nil {
		m.err = err
		return err
	}

	if m.OnSubmit != nil {
		if err := m.OnSubmit(ctx, values); err != nil {
			m.err = err
			return err
		}
	}

	m.state = ModalClosed
	m.form = nil
	m.err = nil
	if m.OnClose != nil {
		m.OnClose()
	}
	return nil
}

// Close returns the modal to closed without submitting
func (m *Modal) Close() {
	m.state = ModalClosed
	m.form = nil
	m.err = nil
	if m.OnClose != nil {
		m.OnClose()
	}
}

// OptionView is one choice of a select input
type OptionView struct {
	Value    string
	Label    string
	Selected bool
}

// InputView is the render-ready form of one field
type InputView struct {
	Name     string
	Label    string
	Kind     schema.Kind
	Required bool
	Value    string
	Options  []OptionView
	Rows     int
	Min      string
	Max      string
	Step     string
	Error    string
}

// Inputs returns one input per field, in field order, carrying the current values
func (m *Modal) Inputs() []InputView {
	var ve *apperrors.ValidationError
	stderrors.As(m.err, &ve)

	inputs := make([]InputView, 0, len(m.Fields))
	for _, f := range m.Fields {
		a := f.Attributes()
		in := InputView{
			Name:     a.Name,
			Label:    a.Label,
			Kind:     f.Kind(),
			Required: a.Required,
			Value:    m.form.Get(a.Name),
		}
		if ve != nil {
			in.Error = ve.FieldMessage(a.Name)
		}

		switch field := f.(type) {
		case schema.TextArea:
			in.Rows = field.Rows
			if in.Rows <= 0 {
				in.Rows = 3
			}
		case schema.Number:
			in.Min = formatBound(field.Min)
			in.Max = formatBound(field.Max)
			if field.Step > 0 {
				in.Step = strconv.FormatFloat(field.Step, 'f', -1, 64)
			}
		}

		if opts := schema.OptionsOf(f); opts != nil {
			chosen := make(map[string]bool)
			for _, v := range m.form[a.Name] {
				chosen[v] = true
			}
			in.Options = make([]OptionView, 0, len(opts))
			for _, o := range opts {
				in.Options = append(in.Options, OptionView{Value: o.Value, Label: o.Label, Selected: chosen[o.Value]})
			}
		}
		inputs = append(inputs, in)
	}
	return inputs
}

func formatBound(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

type modalView struct {
	Title       string
	Error       string
	Action      string
	CancelURL   string
	SubmitLabel string
	Inputs      []InputView
}

// Modal draws the open modal; a closed modal renders nothing
func (r *Renderer) Modal(m *Modal) (template.HTML, error) {
	if m == nil || m.state == ModalClosed {
		return "", nil
	}
	label := "Create"
	if m.state == ModalEdit {
		label = "Save"
	}
	return r.Fragment("modal", modalView{
		Title:       m.Title,
		Error:       apperrors.UserMessage(m.err),
		Action:      m.Action,
		CancelURL:   m.CancelURL,
		SubmitLabel: label,
		Inputs:      m.Inputs(),
	})
}
