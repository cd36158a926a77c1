package calendar

import (
	"time"

	"csvcal/internal/model"
)

// WeekdayHeader is one column heading of the grid.
type WeekdayHeader struct {
	Label   string `json:"label"`
	Weekend bool   `json:"weekend"`
}

// Cell is one slot of the grid. Blank cells pad the first and last week.
type Cell struct {
	Blank  bool    `json:"blank"`
	Day    int     `json:"day,omitempty"`
	Date   string  `json:"date,omitempty"`
	Today  bool    `json:"today,omitempty"`
	Badges []Badge `json:"badges,omitempty"`
}

// Badge is one event inside a day cell.
type Badge struct {
	Label      string      `json:"label"`
	Sublabel   string      `json:"sublabel,omitempty"`
	Background string      `json:"background"`
	Foreground string      `json:"foreground"`
	Detail     Detail      `json:"detail"`
	Event      model.Event `json:"event"`
}

// Detail is what the detail view shows for a badge.
type Detail struct {
	Label      string       `json:"label"`
	Background string       `json:"background"`
	Foreground string       `json:"foreground"`
	Lines      []DetailLine `json:"lines"`
}

// DetailLine is one "Name: value" line of the detail view.
type DetailLine struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Text returns the line as displayed.
func (l DetailLine) Text() string {
	return l.Name + ": " + l.Value
}

// View is the complete month view.
type View struct {
	Title    string          `json:"title"`
	Year     int             `json:"year"`
	Month    int             `json:"month"`
	Filter   string          `json:"filter"`
	Weekdays []WeekdayHeader `json:"weekdays"`
	Cells    []Cell          `json:"cells"`
	Types    []string        `json:"types"`
}

// DayCells returns only the non-blank cells.
func (v View) DayCells() []Cell {
	out := make([]Cell, 0, 31)
	for _, c := range v.Cells {
		if !c.Blank {
			out = append(out, c)
		}
	}
	return out
}

// Render builds the month view for state from the full event list. now
// decides which cell is today.
func Render(state State, events []model.Event, now time.Time) View {
	filtered := FilterEvents(events, state.Filter)

	y, m := state.Year, state.Month
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	firstWeekday := int(first.Weekday())
	totalDays := DaysIn(y, m)
	lastWeekday := int(time.Date(y, m, totalDays, 0, 0, 0, 0, time.UTC).Weekday())

	// Events are bucketed once by their raw date string.
	byDate := make(map[string][]model.Event)
	for _, ev := range filtered {
		if ev.Date.Present {
			byDate[ev.Date.Value] = append(byDate[ev.Date.Value], ev)
		}
	}

	todayKey := DateKey(now.Year(), now.Month(), now.Day())

	cells := make([]Cell, 0, firstWeekday+totalDays+6)
	for i := 0; i < firstWeekday; i++ {
		cells = append(cells, Cell{Blank: true})
	}
	for d := 1; d <= totalDays; d++ {
		key := DateKey(y, m, d)
		cell := Cell{Day: d, Date: key, Today: key == todayKey}
		for _, ev := range byDate[key] {
			cell.Badges = append(cell.Badges, NewBadge(ev))
		}
		cells = append(cells, cell)
	}
	// Pads out the final week row only.
	for i := lastWeekday; i < 6; i++ {
		cells = append(cells, Cell{Blank: true})
	}

	return View{
		Title:    MonthTitle(y, m),
		Year:     y,
		Month:    int(m),
		Filter:   state.Filter,
		Weekdays: Weekdays(),
		Cells:    cells,
		Types:    Types(events),
	}
}

// Weekdays returns the header row, Sunday first.
func Weekdays() []WeekdayHeader {
	out := make([]WeekdayHeader, len(weekdayLabels))
	for i, l := range weekdayLabels {
		out[i] = WeekdayHeader{Label: l, Weekend: i == 0 || i == 6}
	}
	return out
}

// NewBadge builds the badge and detail view for one event.
func NewBadge(ev model.Event) Badge {
	b := Badge{
		Label:      ev.Type.Value,
		Background: ev.Background.Or(DefaultBackground),
		Foreground: ev.Foreground.Or(DefaultForeground),
		Event:      ev,
	}
	if ev.Title.NonEmpty() {
		b.Sublabel = ev.Title.Value
	}

	b.Detail = Detail{
		Label:      ev.Type.Or(UntypedLabel),
		Background: ev.Background.Or(DefaultBackground),
		Foreground: ev.Foreground.Or(DefaultDetailForeground),
		Lines:      make([]DetailLine, 0, 5),
	}
	for _, l := range []struct {
		name  string
		field model.Field
	}{
		{"Evento", ev.Title},
		{"Responsável", ev.Responsible},
		{"Data", ev.Date},
		{"Horário", ev.Time},
		{"Obs", ev.Notes},
	} {
		if l.field.NonEmpty() {
			b.Detail.Lines = append(b.Detail.Lines, DetailLine{Name: l.name, Value: l.field.Value})
		}
	}
	return b
}
