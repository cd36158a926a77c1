package source

import (
	"strings"
	"unicode"

	"csvcal/internal/model"
)

// ParseCSV turns a CSV document into event records.
//
// The first line is the header: names are trimmed and lower-cased. Every
// later line is split on commas and mapped positionally onto the header,
// each value trimmed. A row shorter than the header leaves the remaining
// columns absent; extra values past the header are dropped.
//
// Quoting is not supported: a comma always separates values, including
// inside double quotes. Feeds are expected to avoid commas in cells.
func ParseCSV(text string) []model.Event {
	text = strings.TrimFunc(text, isTrimmable)
	lines := strings.Split(text, "\n")

	headerCells := strings.Split(lines[0], ",")
	headers := make([]string, len(headerCells))
	for i, h := range headerCells {
		headers[i] = strings.ToLower(trim(h))
	}

	events := make([]model.Event, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := strings.Split(line, ",")
		var ev model.Event
		for i, h := range headers {
			if i >= len(values) {
				break
			}
			ev.Set(h, trim(values[i]))
		}
		events = append(events, ev)
	}
	return events
}

func trim(s string) string {
	return strings.TrimFunc(s, isTrimmable)
}

// isTrimmable matches whitespace plus the byte order mark, which some
// spreadsheet exports put in front of the header.
func isTrimmable(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}
