package domain

// Field is one named column value.
type Field struct {
	Name  string
	Value any
}

// Record is an ordered set of column values. Order drives the column order of
// generated INSERT and SELECT statements.
type Record []Field

// Get returns the value of the field called name.
func (r Record) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Names returns the field names in order.
func (r Record) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

// With returns a copy of r with field name set to value.
func (r Record) With(name string, value any) Record {
	out := make(Record, len(r))
	copy(out, r)
	for i := range out {
		if out[i].Name == name {
			out[i].Value = value
			return out
		}
	}
	return append(out, Field{Name: name, Value: value})
}
