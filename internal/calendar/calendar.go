// Package calendar computes the month view as a plain data structure. It
// knows nothing about HTML or terminals; render targets draw the View.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"csvcal/internal/model"
)

// Badge colors used when a record carries none.
const (
	DefaultBackground       = "var(--highlight)"
	DefaultForeground       = "black"
	DefaultDetailForeground = "var(--text-light)"
	UntypedLabel            = "Sem Tipo"
)

var monthNames = [12]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

var weekdayLabels = [7]string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}

// State is the display state: which month is shown and which type filter
// is active. Methods return new values.
type State struct {
	Year   int
	Month  time.Month
	Filter string // empty shows every type
}

// NewState returns the state for now's month with no filter.
func NewState(now time.Time) State {
	return State{Year: now.Year(), Month: now.Month()}
}

// Prev returns the state for the previous month.
func (s State) Prev() State {
	return s.addMonths(-1)
}

// Next returns the state for the following month.
func (s State) Next() State {
	return s.addMonths(1)
}

// WithFilter returns the state with a different type filter.
func (s State) WithFilter(tipo string) State {
	s.Filter = tipo
	return s
}

func (s State) addMonths(n int) State {
	// Day 1 keeps the arithmetic from spilling into a third month.
	t := time.Date(s.Year, s.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	s.Year, s.Month = t.Year(), t.Month()
	return s
}

// Title is the capitalized month name followed by the year, e.g. "Abril 2024".
func (s State) Title() string {
	return MonthTitle(s.Year, s.Month)
}

// MonthTitle formats a month heading.
func MonthTitle(year int, month time.Month) string {
	name := monthNames[month-1]
	// Month names start with an ASCII letter.
	return strings.ToUpper(name[:1]) + name[1:] + fmt.Sprintf(" %d", year)
}

// DaysIn returns the number of days of month in year, as day 0 of the
// following month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateKey formats a cell date the way the feeds write it: DD/MM/YYYY.
func DateKey(year int, month time.Month, day int) string {
	return fmt.Sprintf("%02d/%02d/%d", day, int(month), year)
}

// FilterEvents keeps events whose tipo equals tipo. An empty tipo keeps
// everything and returns events unchanged.
func FilterEvents(events []model.Event, tipo string) []model.Event {
	if tipo == "" {
		return events
	}
	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if ev.Type.Present && ev.Type.Value == tipo {
			out = append(out, ev)
		}
	}
	return out
}

// Types returns the distinct non-empty tipo values in order of first
// appearance.
func Types(events []model.Event) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, ev := range events {
		t := ev.Type.Value
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
