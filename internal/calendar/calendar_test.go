package calendar

import (
	"testing"
	"time"

	"csvcal/internal/model"
)

func ev(cols map[string]string) model.Event {
	return model.FromColumns(cols)
}

var fixedNow = time.Date(2024, time.April, 10, 15, 0, 0, 0, time.UTC)

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.April, 30},
		{2024, time.February, 29},
		{2023, time.February, 28},
		{2024, time.January, 31},
		{2000, time.February, 29},
		{1900, time.February, 28},
		{2024, time.December, 31},
	}
	for _, tt := range tests {
		if got := DaysIn(tt.year, tt.month); got != tt.want {
			t.Errorf("DaysIn(%d, %s) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
		v := Render(State{Year: tt.year, Month: tt.month}, nil, fixedNow)
		if got := len(v.DayCells()); got != tt.want {
			t.Errorf("%s %d rendered %d day cells, want %d", tt.month, tt.year, got, tt.want)
		}
	}
}

func TestGridPadding(t *testing.T) {
	tests := []struct {
		name             string
		year             int
		month            time.Month
		leading, trailing int
	}{
		// April 2024 starts on Monday and ends on Tuesday.
		{"april 2024", 2024, time.April, 1, 4},
		// September 2024 starts on Sunday and ends on Monday.
		{"september 2024", 2024, time.September, 0, 5},
		// August 2024 ends on Saturday.
		{"august 2024", 2024, time.August, 4, 0},
		// February 2015 fills exactly four rows.
		{"february 2015", 2015, time.February, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Render(State{Year: tt.year, Month: tt.month}, nil, fixedNow)

			leading := 0
			for _, c := range v.Cells {
				if !c.Blank {
					break
				}
				leading++
			}
			trailing := 0
			for i := len(v.Cells) - 1; i >= 0 && v.Cells[i].Blank; i-- {
				trailing++
			}
			if leading != tt.leading || trailing != tt.trailing {
				t.Errorf("leading/trailing = %d/%d, want %d/%d", leading, trailing, tt.leading, tt.trailing)
			}
			if len(v.Cells)%7 != 0 {
				t.Errorf("grid of %d cells does not end on a full week", len(v.Cells))
			}
			if v.Cells[leading].Day != 1 {
				t.Errorf("first day cell is %d", v.Cells[leading].Day)
			}
		})
	}
}

func TestEventPlacedOnlyOnItsDate(t *testing.T) {
	events := []model.Event{ev(map[string]string{"tipo": "Evento", "data": "15/04/2024", "titulo": "Reunião"})}

	v := Render(State{Year: 2024, Month: time.April}, events, fixedNow)

	for _, c := range v.DayCells() {
		switch {
		case c.Day == 15 && len(c.Badges) != 1:
			t.Errorf("day 15 has %d badges, want 1", len(c.Badges))
		case c.Day != 15 && len(c.Badges) != 0:
			t.Errorf("day %d unexpectedly has badges", c.Day)
		}
	}

	other := Render(State{Year: 2024, Month: time.May}, events, fixedNow)
	for _, c := range other.DayCells() {
		if len(c.Badges) != 0 {
			t.Errorf("event leaked into May on day %d", c.Day)
		}
	}
}

func TestMalformedDatesNeverMatch(t *testing.T) {
	events := []model.Event{
		ev(map[string]string{"tipo": "A", "data": "5/4/2024"}),
		ev(map[string]string{"tipo": "B", "data": "2024-04-05"}),
		ev(map[string]string{"tipo": "C", "data": " 05/04/2024"}),
		ev(map[string]string{"tipo": "D"}),
	}
	v := Render(State{Year: 2024, Month: time.April}, events, fixedNow)
	for _, c := range v.DayCells() {
		if len(c.Badges) != 0 {
			t.Errorf("day %d got a badge from a malformed date", c.Day)
		}
	}
}

func TestFilterWithNoMatchesKeepsGrid(t *testing.T) {
	events := []model.Event{
		ev(map[string]string{"tipo": "Feriado", "data": "21/04/2024"}),
		ev(map[string]string{"tipo": "Evento", "data": "22/04/2024"}),
	}
	st := State{Year: 2024, Month: time.April}

	all := Render(st, events, fixedNow)
	none := Render(st.WithFilter("Aniversário"), events, fixedNow)

	if len(all.Cells) != len(none.Cells) {
		t.Fatalf("grid changed: %d vs %d cells", len(all.Cells), len(none.Cells))
	}
	for i, c := range none.Cells {
		if len(c.Badges) != 0 {
			t.Errorf("cell %d has badges under a non-matching filter", i)
		}
		if c.Day != all.Cells[i].Day || c.Blank != all.Cells[i].Blank {
			t.Errorf("cell %d differs", i)
		}
	}
	if len(none.Types) != 2 {
		t.Errorf("filter options come from the unfiltered list, got %v", none.Types)
	}
}

func TestFilterSelectsType(t *testing.T) {
	events := []model.Event{
		ev(map[string]string{"tipo": "Feriado", "data": "21/04/2024"}),
		ev(map[string]string{"tipo": "Evento", "data": "21/04/2024"}),
		ev(map[string]string{"data": "21/04/2024"}),
	}
	v := Render(State{Year: 2024, Month: time.April, Filter: "Evento"}, events, fixedNow)
	c := v.DayCells()[20]
	if len(c.Badges) != 1 || c.Badges[0].Label != "Evento" {
		t.Errorf("badges = %+v", c.Badges)
	}

	all := Render(State{Year: 2024, Month: time.April}, events, fixedNow)
	if got := len(all.DayCells()[20].Badges); got != 3 {
		t.Errorf("no filter should show all 3 events, got %d", got)
	}
}

func TestNewYearHolidayInJanuary(t *testing.T) {
	events := []model.Event{ev(map[string]string{"tipo": "Feriado", "data": "01/01/2024", "titulo": "Ano Novo"})}

	v := Render(State{Year: 2024, Month: time.January}, events, fixedNow)

	days := v.DayCells()
	if len(days[0].Badges) != 1 {
		t.Fatalf("day 1 should have one badge, got %d", len(days[0].Badges))
	}
	b := days[0].Badges[0]
	if b.Label != "Feriado" || b.Sublabel != "Ano Novo" {
		t.Errorf("badge = %q/%q", b.Label, b.Sublabel)
	}
	for _, c := range days[1:] {
		if len(c.Badges) != 0 {
			t.Errorf("day %d should have no badge", c.Day)
		}
	}
	if v.Title != "Janeiro 2024" {
		t.Errorf("title = %q", v.Title)
	}
}

func TestTodayMarked(t *testing.T) {
	v := Render(State{Year: 2024, Month: time.April}, nil, fixedNow)
	count := 0
	for _, c := range v.DayCells() {
		if c.Today {
			count++
			if c.Day != 10 {
				t.Errorf("today marked on day %d", c.Day)
			}
		}
	}
	if count != 1 {
		t.Errorf("expected one today cell, got %d", count)
	}

	if other := Render(State{Year: 2023, Month: time.April}, nil, fixedNow); hasToday(other) {
		t.Error("today must not be marked in another year")
	}
}

func hasToday(v View) bool {
	for _, c := range v.Cells {
		if c.Today {
			return true
		}
	}
	return false
}

func TestBadgeColorsAndDetail(t *testing.T) {
	plain := NewBadge(ev(map[string]string{"data": "01/01/2024", "titulo": ""}))
	if plain.Background != DefaultBackground || plain.Foreground != DefaultForeground {
		t.Errorf("default colors = %q/%q", plain.Background, plain.Foreground)
	}
	if plain.Sublabel != "" || plain.Label != "" {
		t.Errorf("labels = %q/%q", plain.Label, plain.Sublabel)
	}
	if plain.Detail.Label != UntypedLabel || plain.Detail.Foreground != DefaultDetailForeground {
		t.Errorf("detail = %+v", plain.Detail)
	}
	if len(plain.Detail.Lines) != 1 || plain.Detail.Lines[0].Text() != "Data: 01/01/2024" {
		t.Errorf("lines = %+v", plain.Detail.Lines)
	}

	full := NewBadge(ev(map[string]string{
		"tipo": "Evento", "titulo": "Reunião", "responsavel": "Ana", "data": "02/01/2024",
		"hora": "14h", "obs": "Sala 3", "corfundo": "#123456", "cortexto": "white",
	}))
	if full.Background != "#123456" || full.Foreground != "white" || full.Detail.Foreground != "white" {
		t.Errorf("record colors ignored: %+v", full)
	}
	want := []string{"Evento: Reunião", "Responsável: Ana", "Data: 02/01/2024", "Horário: 14h", "Obs: Sala 3"}
	if len(full.Detail.Lines) != len(want) {
		t.Fatalf("lines = %+v", full.Detail.Lines)
	}
	for i, w := range want {
		if got := full.Detail.Lines[i].Text(); got != w {
			t.Errorf("line %d = %q, want %q", i, got, w)
		}
	}
}

func TestWeekdaysWeekend(t *testing.T) {
	for _, h := range Weekdays() {
		wantWeekend := h.Label == "Sáb" || h.Label == "Dom"
		if h.Weekend != wantWeekend {
			t.Errorf("%s weekend = %v", h.Label, h.Weekend)
		}
	}
}

func TestStateNavigation(t *testing.T) {
	st := NewState(time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC))
	next := st.Next()
	if next.Year != 2024 || next.Month != time.February {
		t.Errorf("next of Jan 31 = %d-%s", next.Year, next.Month)
	}
	prev := st.Prev()
	if prev.Year != 2023 || prev.Month != time.December {
		t.Errorf("prev = %d-%s", prev.Year, prev.Month)
	}
	if st.Month != time.January {
		t.Error("navigation must not mutate the receiver")
	}
	dec := State{Year: 2024, Month: time.December, Filter: "Feriado"}.Next()
	if dec.Year != 2025 || dec.Month != time.January || dec.Filter != "Feriado" {
		t.Errorf("next of Dec = %+v", dec)
	}
}

func TestTypesFirstAppearance(t *testing.T) {
	events := []model.Event{
		ev(map[string]string{"tipo": "Evento"}),
		ev(map[string]string{"tipo": ""}),
		ev(map[string]string{"tipo": "Feriado"}),
		ev(map[string]string{}),
		ev(map[string]string{"tipo": "Evento"}),
	}
	got := Types(events)
	if len(got) != 2 || got[0] != "Evento" || got[1] != "Feriado" {
		t.Errorf("Types = %v", got)
	}
}

func TestDateKeyAndTitle(t *testing.T) {
	if got := DateKey(2024, time.March, 5); got != "05/03/2024" {
		t.Errorf("DateKey = %q", got)
	}
	if got := MonthTitle(2024, time.March); got != "Março 2024" {
		t.Errorf("MonthTitle = %q", got)
	}
}
