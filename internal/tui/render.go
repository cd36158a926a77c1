package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"csvcal/internal/calendar"
)

var (
	monthTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	dayHeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7")).Align(lipgloss.Center)
	weekendStyle    = dayHeaderStyle.Foreground(lipgloss.Color("1"))
	dayNumberStyle  = lipgloss.NewStyle().Bold(true)
	todayStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")).Underline(true)
	cursorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	cellStyle       = lipgloss.NewStyle().PaddingRight(1)
	moreStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	filterStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	detailBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("4")).
			Padding(0, 1)

	// Badges without a usable hex color fall back to the page's yellow
	// highlight on black text.
	defaultBadgeBg = lipgloss.Color("#ffd54f")
	defaultBadgeFg = lipgloss.Color("#000000")
)

// RenderOptions controls the terminal grid.
type RenderOptions struct {
	// CellWidth is the width of one day column. Zero means 14.
	CellWidth int
	// MaxBadges caps badge lines per cell. Zero means 3.
	MaxBadges int
	// Cursor highlights a day of the month; zero highlights nothing.
	Cursor int
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.CellWidth <= 0 {
		o.CellWidth = 14
	}
	if o.MaxBadges <= 0 {
		o.MaxBadges = 3
	}
	return o
}

// RenderMonth draws a month view for the terminal.
func RenderMonth(v calendar.View, opts RenderOptions) string {
	opts = opts.withDefaults()
	var sb strings.Builder

	sb.WriteString(monthTitleStyle.Render(v.Title))
	if v.Filter != "" {
		sb.WriteString("  ")
		sb.WriteString(filterStyle.Render("[" + v.Filter + "]"))
	}
	sb.WriteString("\n\n")

	headers := make([]string, 0, len(v.Weekdays))
	for _, wd := range v.Weekdays {
		st := dayHeaderStyle
		if wd.Weekend {
			st = weekendStyle
		}
		headers = append(headers, cellStyle.Render(st.Width(opts.CellWidth).Render(wd.Label)))
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, headers...))
	sb.WriteString("\n")

	rows := make([]string, 0, 6)
	for start := 0; start < len(v.Cells); start += 7 {
		end := min(start+7, len(v.Cells))
		cols := make([]string, 0, 7)
		for _, c := range v.Cells[start:end] {
			cols = append(cols, cellStyle.Render(renderCell(c, opts)))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	}
	sb.WriteString(lipgloss.JoinVertical(lipgloss.Left, rows...))
	sb.WriteString("\n")

	return sb.String()
}

func renderCell(c calendar.Cell, opts RenderOptions) string {
	box := lipgloss.NewStyle().Width(opts.CellWidth).Height(opts.MaxBadges + 1)
	if c.Blank {
		return box.Render("")
	}

	num := strconv.Itoa(c.Day)
	switch {
	case c.Day == opts.Cursor:
		num = cursorStyle.Render(" " + num + " ")
	case c.Today:
		num = todayStyle.Render(num)
	default:
		num = dayNumberStyle.Render(num)
	}

	lines := []string{num}
	for i, b := range c.Badges {
		if i == opts.MaxBadges-1 && len(c.Badges) > opts.MaxBadges {
			lines = append(lines, moreStyle.Render("+"+strconv.Itoa(len(c.Badges)-i)+" mais"))
			break
		}
		lines = append(lines, renderBadge(b, opts.CellWidth))
	}
	return box.Render(strings.Join(lines, "\n"))
}

func renderBadge(b calendar.Badge, width int) string {
	text := b.Label
	if b.Sublabel != "" {
		if text != "" {
			text += " · "
		}
		text += b.Sublabel
	}
	if text == "" {
		text = calendar.UntypedLabel
	}
	return badgeStyle(b.Background, b.Foreground).MaxWidth(width).Render(text)
}

func badgeStyle(bg, fg string) lipgloss.Style {
	return lipgloss.NewStyle().
		Background(terminalColor(bg, defaultBadgeBg)).
		Foreground(terminalColor(fg, defaultBadgeFg))
}

// terminalColor accepts hex colors; CSS names and variables use def.
func terminalColor(css string, def lipgloss.Color) lipgloss.Color {
	if strings.HasPrefix(css, "#") && (len(css) == 4 || len(css) == 7) {
		return lipgloss.Color(css)
	}
	return def
}

// RenderDetail draws the detail view for every badge of a day.
func RenderDetail(c calendar.Cell) string {
	blocks := make([]string, 0, len(c.Badges))
	for _, b := range c.Badges {
		d := b.Detail
		lines := []string{badgeStyle(d.Background, d.Foreground).Padding(0, 1).Render(d.Label)}
		for _, l := range d.Lines {
			lines = append(lines, l.Text())
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return detailBoxStyle.Render(strings.Join(blocks, "\n\n"))
}
