package model

import (
	"encoding/json"
	"maps"
)

// Column names recognized in a CSV header, after trimming and lower-casing.
const (
	ColDate        = "data"
	ColType        = "tipo"
	ColTitle       = "titulo"
	ColResponsible = "responsavel"
	ColTime        = "hora"
	ColNotes       = "obs"
	ColBackground  = "corfundo"
	ColForeground  = "cortexto"
)

// Field is an optional column value. Present distinguishes a column that was
// missing from the row from one that was there but empty.
type Field struct {
	Value   string
	Present bool
}

// NonEmpty reports whether the field is present and has a non-empty value.
func (f Field) NonEmpty() bool {
	return f.Present && f.Value != ""
}

// Or returns the value if non-empty, otherwise def.
func (f Field) Or(def string) string {
	if f.NonEmpty() {
		return f.Value
	}
	return def
}

// Event is one parsed CSV data row.
//
// Known columns land in typed fields; any other column is kept in Extra so
// that nothing the sheet carries is lost.
type Event struct {
	Date        Field // DD/MM/YYYY, matched as a plain string
	Type        Field
	Title       Field
	Responsible Field
	Time        Field
	Notes       Field
	Background  Field // CSS color
	Foreground  Field // CSS color

	Extra map[string]string
}

func (e *Event) field(name string) *Field {
	switch name {
	case ColDate:
		return &e.Date
	case ColType:
		return &e.Type
	case ColTitle:
		return &e.Title
	case ColResponsible:
		return &e.Responsible
	case ColTime:
		return &e.Time
	case ColNotes:
		return &e.Notes
	case ColBackground:
		return &e.Background
	case ColForeground:
		return &e.Foreground
	}
	return nil
}

// Set stores value under the column name. A repeated name overwrites the
// earlier value.
func (e *Event) Set(name, value string) {
	if f := e.field(name); f != nil {
		*f = Field{Value: value, Present: true}
		return
	}
	if e.Extra == nil {
		e.Extra = make(map[string]string)
	}
	e.Extra[name] = value
}

// Get returns the value stored under the column name and whether the column
// was present in the row.
func (e Event) Get(name string) (string, bool) {
	if f := e.field(name); f != nil {
		return f.Value, f.Present
	}
	v, ok := e.Extra[name]
	return v, ok
}

// Columns returns every present column as a flat map.
func (e Event) Columns() map[string]string {
	out := make(map[string]string, len(e.Extra)+8)
	maps.Copy(out, e.Extra)
	for _, name := range []string{ColDate, ColType, ColTitle, ColResponsible, ColTime, ColNotes, ColBackground, ColForeground} {
		if v, ok := e.Get(name); ok {
			out[name] = v
		}
	}
	return out
}

// FromColumns builds an Event from a flat column map.
func FromColumns(cols map[string]string) Event {
	var e Event
	for k, v := range cols {
		e.Set(k, v)
	}
	return e
}

// MarshalJSON encodes the event as the flat object of its present columns.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Columns())
}

// UnmarshalJSON accepts the flat object produced by MarshalJSON.
func (e *Event) UnmarshalJSON(data []byte) error {
	var cols map[string]string
	if err := json.Unmarshal(data, &cols); err != nil {
		return err
	}
	*e = FromColumns(cols)
	return nil
}
