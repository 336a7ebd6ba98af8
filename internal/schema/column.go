package schema

// Column is one table column. Render, when set, produces the cell text from the raw
// value and the whole record; otherwise the raw value is shown via Display.
type Column struct {
	Key    string
	Label  string
	Render func(raw any, rec Record) string
}

// Cell returns the text of this column for rec
func (c Column) Cell(rec Record) string {
	if c.Key == "" {
		panic("schema: column without key")
	}
	raw := rec[c.Key]
	if c.Render != nil {
		return c.Render(raw, rec)
	}
	return Display(raw)
}

// Lookup renders an id (or list of ids) through a label index, falling back to the raw value
func Lookup(labels map[string]string) func(raw any, rec Record) string {
	return func(raw any, _ Record) string {
		ids := Strings(raw)
		if len(ids) == 0 {
			return ""
		}
		out := make([]any, 0, len(ids))
		for _, id := range ids {
			if label, ok := labels[id]; ok {
				out = append(out, label)
				continue
			}
			out = append(out, id)
		}
		return Display(out)
	}
}

// Labels builds a value-to-label index from options
func Labels(options []Option) map[string]string {
	m := make(map[string]string, len(options))
	for _, o := range options {
		m[o.Value] = o.Label
	}
	return m
}
