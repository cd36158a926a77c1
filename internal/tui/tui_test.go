package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"csvcal/internal/calendar"
	"csvcal/internal/source"
)

var testNow = time.Date(2024, time.April, 10, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func newModel() Model {
	events := source.ParseCSV("tipo,data,titulo,corfundo\n" +
		"Feriado,21/04/2024,Tiradentes,#ff0000\n" +
		"Evento,30/04/2024,Reunião,\n" +
		"Feriado,01/05/2024,Trabalho,#ff0000\n")
	return New(events, clock)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestRenderMonth(t *testing.T) {
	events := source.ParseCSV("tipo,data,titulo\nFeriado,21/04/2024,Tiradentes\n")
	v := calendar.Render(calendar.State{Year: 2024, Month: time.April}, events, testNow)
	out := RenderMonth(v, RenderOptions{CellWidth: 20})

	for _, want := range []string{"Abril 2024", "Dom", "Sáb", "30", "Feriado"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "31") {
		t.Error("April has no day 31")
	}
}

func TestRenderMonthOverflowBadges(t *testing.T) {
	events := source.ParseCSV("tipo,data\nA,02/04/2024\nB,02/04/2024\nC,02/04/2024\nD,02/04/2024\n")
	v := calendar.Render(calendar.State{Year: 2024, Month: time.April}, events, testNow)
	out := RenderMonth(v, RenderOptions{MaxBadges: 2})
	if !strings.Contains(out, "+3 mais") {
		t.Errorf("expected overflow marker:\n%s", out)
	}
}

func TestRenderDetail(t *testing.T) {
	events := source.ParseCSV("tipo,data,titulo,hora\nFeriado,21/04/2024,Tiradentes,10h\n")
	v := calendar.Render(calendar.State{Year: 2024, Month: time.April}, events, testNow)
	out := RenderDetail(v.DayCells()[20])
	for _, want := range []string{"Feriado", "Evento: Tiradentes", "Data: 21/04/2024", "Horário: 10h"} {
		if !strings.Contains(out, want) {
			t.Errorf("detail missing %q:\n%s", want, out)
		}
	}
}

func TestTerminalColor(t *testing.T) {
	if got := terminalColor("#abc", defaultBadgeBg); got != "#abc" {
		t.Errorf("short hex = %v", got)
	}
	if got := terminalColor("var(--highlight)", defaultBadgeBg); got != defaultBadgeBg {
		t.Errorf("css variable = %v", got)
	}
	if got := terminalColor("red", defaultBadgeFg); got != defaultBadgeFg {
		t.Errorf("named color = %v", got)
	}
}

func TestModelNavigation(t *testing.T) {
	m := newModel()
	if s := m.State(); s.Year != 2024 || s.Month != time.April || m.Cursor() != 10 {
		t.Fatalf("initial state = %+v cursor %d", s, m.Cursor())
	}

	m = update(t, m, runes("n"))
	if m.State().Month != time.May {
		t.Errorf("after n: %v", m.State().Month)
	}
	m = update(t, m, runes("["), runes("["))
	if s := m.State(); s.Year != 2024 || s.Month != time.March {
		t.Errorf("after [[: %+v", s)
	}
	m = update(t, m, runes("t"))
	if s := m.State(); s.Month != time.April || m.Cursor() != 10 {
		t.Errorf("after t: %+v cursor %d", s, m.Cursor())
	}
}

func TestModelYearRollover(t *testing.T) {
	m := New(nil, func() time.Time { return time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC) })
	m = update(t, m, runes("n"))
	if s := m.State(); s.Year != 2025 || s.Month != time.January {
		t.Errorf("after n from December: %+v", s)
	}
	m = update(t, m, runes("p"), runes("p"))
	if s := m.State(); s.Year != 2024 || s.Month != time.November {
		t.Errorf("after pp: %+v", s)
	}
	// December 31 clamps to the last day of November.
	if m.Cursor() != 30 {
		t.Errorf("cursor = %d", m.Cursor())
	}
}

func TestModelCursorCrossesMonths(t *testing.T) {
	m := newModel()
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown})
	if s := m.State(); s.Month != time.May || m.Cursor() != 1 {
		t.Errorf("after 3x down from 10/04: %v cursor %d", s.Month, m.Cursor())
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	if s := m.State(); s.Month != time.April || m.Cursor() != 30 {
		t.Errorf("after left from 01/05: %v cursor %d", s.Month, m.Cursor())
	}
}

func TestModelFilterCycle(t *testing.T) {
	m := newModel()
	want := []string{"Feriado", "Evento", ""}
	for _, w := range want {
		m = update(t, m, runes("f"))
		if m.State().Filter != w {
			t.Errorf("filter = %q, want %q", m.State().Filter, w)
		}
	}
	m = update(t, m, runes("F"))
	if m.State().Filter != "Evento" {
		t.Errorf("F from all = %q", m.State().Filter)
	}
}

func TestModelDetail(t *testing.T) {
	m := newModel()

	// Day 10 has no events, enter does nothing.
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.DetailOpen() {
		t.Fatal("detail opened on an empty day")
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyRight})
	if m.Cursor() != 25 {
		t.Fatalf("cursor = %d", m.Cursor())
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeyLeft})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.DetailOpen() {
		t.Fatal("detail should open on 21/04")
	}
	if !strings.Contains(m.View(), "Evento: Tiradentes") {
		t.Errorf("view missing detail:\n%s", m.View())
	}

	// Navigation keys are ignored while the detail is open.
	m = update(t, m, runes("n"))
	if m.State().Month != time.April {
		t.Error("navigation should be blocked in detail view")
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.DetailOpen() {
		t.Error("esc should close the detail")
	}
}

func TestModelQuit(t *testing.T) {
	m := newModel()
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModelTypeSearch(t *testing.T) {
	m := newModel()
	m = update(t, m, runes("/"))
	if !m.IsSearching() {
		t.Fatal("/ should open the type search")
	}
	// Letters are typed into the query while searching.
	for _, r := range "vent" {
		m = update(t, m, runes(string(r)))
	}
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.IsSearching() || m.State().Filter != "Evento" {
		t.Errorf("after search: searching=%v filter=%q", m.IsSearching(), m.State().Filter)
	}

	// No match keeps the current filter.
	m = update(t, m, runes("/"), runes("z"), runes("z"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.State().Filter != "Evento" {
		t.Errorf("unmatched search changed filter to %q", m.State().Filter)
	}

	// Empty query clears it.
	m = update(t, m, runes("/"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.State().Filter != "" {
		t.Errorf("empty search should clear the filter, got %q", m.State().Filter)
	}

	// esc cancels without applying.
	m = update(t, m, runes("/"), runes("f"), runes("e"), tea.KeyMsg{Type: tea.KeyEsc})
	if m.IsSearching() || m.State().Filter != "" {
		t.Errorf("esc: searching=%v filter=%q", m.IsSearching(), m.State().Filter)
	}
}
