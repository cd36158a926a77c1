package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"csvcal/internal/calendar"
	"csvcal/internal/model"
)

type keyMap struct {
	Prev   key.Binding
	Next   key.Binding
	Today  key.Binding
	Left   key.Binding
	Right  key.Binding
	Up     key.Binding
	Down   key.Binding
	Filter key.Binding
	Unfilt key.Binding
	Search key.Binding
	Open   key.Binding
	Close  key.Binding
	Quit   key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Prev:   key.NewBinding(key.WithKeys("p", "["), key.WithHelp("p", "mês anterior")),
		Next:   key.NewBinding(key.WithKeys("n", "]"), key.WithHelp("n", "próximo mês")),
		Today:  key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "hoje")),
		Left:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "dia anterior")),
		Right:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "próximo dia")),
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "semana anterior")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "próxima semana")),
		Filter: key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filtrar tipo")),
		Unfilt: key.NewBinding(key.WithKeys("F"), key.WithHelp("F", "tipo anterior")),
		Search: key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "buscar tipo")),
		Open:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "detalhes")),
		Close:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "fechar")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "sair")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Today, k.Filter, k.Search, k.Open, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Prev, k.Next, k.Today},
		{k.Left, k.Right, k.Up, k.Down},
		{k.Filter, k.Unfilt, k.Search, k.Open, k.Close, k.Quit},
	}
}

// Model is the interactive month browser.
type Model struct {
	events []model.Event
	state  calendar.State
	view   calendar.View
	cursor int
	detail bool

	// Type search
	searchActive bool
	searchInput  textinput.Model

	now  func() time.Time
	keys keyMap
	help help.Model

	width int
}

// New returns a browser opened on the current month with the cursor on
// today.
func New(events []model.Event, now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}
	si := textinput.New()
	si.Placeholder = "tipo..."
	si.Prompt = "/"
	si.CharLimit = 60
	si.Width = 30

	t := now()
	m := Model{
		events: events,
		state:  calendar.NewState(t),
		cursor: t.Day(),
		now:    now,
		keys:   defaultKeyMap(),
		help:   help.New(),

		searchInput: si,
	}
	m.refresh()
	return m
}

// State returns the displayed month and filter.
func (m Model) State() calendar.State { return m.state }

// Cursor returns the selected day of the displayed month.
func (m Model) Cursor() int { return m.cursor }

// DetailOpen reports whether the detail view is shown.
func (m Model) DetailOpen() bool { return m.detail }

// IsSearching reports whether the type search input has focus.
func (m Model) IsSearching() bool { return m.searchActive }

func (m *Model) refresh() {
	m.view = calendar.Render(m.state, m.events, m.now())
	if days := calendar.DaysIn(m.state.Year, m.state.Month); m.cursor > days {
		m.cursor = days
	}
	if m.cursor < 1 {
		m.cursor = 1
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if m.searchActive {
			return m.updateSearch(msg)
		}
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if m.detail {
			if key.Matches(msg, m.keys.Close) || key.Matches(msg, m.keys.Open) {
				m.detail = false
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Prev):
			m.state = m.state.Prev()
		case key.Matches(msg, m.keys.Next):
			m.state = m.state.Next()
		case key.Matches(msg, m.keys.Today):
			t := m.now()
			m.state = calendar.NewState(t).WithFilter(m.state.Filter)
			m.cursor = t.Day()
		case key.Matches(msg, m.keys.Left):
			m.moveCursor(-1)
		case key.Matches(msg, m.keys.Right):
			m.moveCursor(1)
		case key.Matches(msg, m.keys.Up):
			m.moveCursor(-7)
		case key.Matches(msg, m.keys.Down):
			m.moveCursor(7)
		case key.Matches(msg, m.keys.Filter):
			m.cycleFilter(1)
		case key.Matches(msg, m.keys.Unfilt):
			m.cycleFilter(-1)
		case key.Matches(msg, m.keys.Search):
			m.searchActive = true
			m.searchInput.SetValue("")
			return m, m.searchInput.Focus()
		case key.Matches(msg, m.keys.Open):
			if len(m.selected().Badges) > 0 {
				m.detail = true
			}
			return m, nil
		default:
			return m, nil
		}
		m.refresh()
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.searchActive = false
		m.searchInput.Blur()
		return m, nil
	case "enter":
		m.searchActive = false
		m.searchInput.Blur()
		if q := strings.TrimSpace(m.searchInput.Value()); q == "" {
			m.state = m.state.WithFilter("")
		} else if t, ok := m.bestType(q); ok {
			m.state = m.state.WithFilter(t)
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// bestType returns the known type that fuzzy-matches query best.
func (m Model) bestType(query string) (string, bool) {
	types := calendar.Types(m.events)
	matches := fuzzy.Find(query, types)
	if len(matches) == 0 {
		return "", false
	}
	return types[matches[0].Index], true
}

// moveCursor shifts the selection by delta days, crossing into the
// adjacent month when needed.
func (m *Model) moveCursor(delta int) {
	day := m.cursor + delta
	if day < 1 {
		m.state = m.state.Prev()
		day += calendar.DaysIn(m.state.Year, m.state.Month)
	} else if days := calendar.DaysIn(m.state.Year, m.state.Month); day > days {
		day -= days
		m.state = m.state.Next()
	}
	m.cursor = day
}

// cycleFilter steps through "all" followed by every known type.
func (m *Model) cycleFilter(step int) {
	options := append([]string{""}, calendar.Types(m.events)...)
	idx := 0
	for i, o := range options {
		if o == m.state.Filter {
			idx = i
			break
		}
	}
	idx = (idx + step + len(options)) % len(options)
	m.state = m.state.WithFilter(options[idx])
}

func (m Model) selected() calendar.Cell {
	cells := m.view.DayCells()
	if m.cursor >= 1 && m.cursor <= len(cells) {
		return cells[m.cursor-1]
	}
	return calendar.Cell{}
}

// cellWidth fits seven columns into the terminal; zero keeps the default.
func (m Model) cellWidth() int {
	if m.width <= 0 {
		return 0
	}
	return min(20, max(8, m.width/7-1))
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(RenderMonth(m.view, RenderOptions{Cursor: m.cursor, CellWidth: m.cellWidth()}))
	sb.WriteString("\n")

	switch {
	case m.detail:
		sb.WriteString(RenderDetail(m.selected()))
		sb.WriteString("\n")
	case m.searchActive:
		sb.WriteString(m.searchInput.View())
		if q := strings.TrimSpace(m.searchInput.Value()); q != "" {
			if t, ok := m.bestType(q); ok {
				sb.WriteString("  " + filterStyle.Render("→ "+t))
			}
		}
		sb.WriteString("\n")
	default:
		filter := "Todos"
		if m.state.Filter != "" {
			filter = m.state.Filter
		}
		sb.WriteString(filterStyle.Render("Tipo: " + filter))
		sb.WriteString("\n")
	}

	sb.WriteString(lipgloss.NewStyle().MarginTop(1).Render(m.help.View(m.keys)))
	return sb.String()
}
