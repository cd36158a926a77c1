package ics

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"csvcal/internal/calendar"
	appLog "csvcal/internal/log"
	"csvcal/internal/model"
)

// ProductID identifies exported feeds.
const ProductID = "-//csvcal//Agenda//PT"

// ExportOptions controls feed metadata.
type ExportOptions struct {
	// Name is advertised as X-WR-CALNAME.
	Name string
	// Now is used for DTSTAMP; zero means time.Now().
	Now time.Time
}

// Export serializes events as an iCalendar feed of all-day VEVENTs.
//
// Events whose data column is not a valid DD/MM/YYYY date are skipped, the
// same events the month grid never places. Dates are written as floating
// DATE values without a timezone.
func Export(events []model.Event, opts ExportOptions) string {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	if opts.Name != "" {
		cal.SetName(opts.Name)
		cal.SetXWRCalName(opts.Name)
	}

	seen := make(map[string]int)
	skipped := 0
	for _, ev := range events {
		day, ok := ParseDate(ev.Date.Value)
		if !ev.Date.Present || !ok {
			skipped++
			continue
		}

		base := uidBase(ev)
		seen[base]++
		uid := base + "-" + strconv.Itoa(seen[base]) + "@csvcal"

		ve := cal.AddEvent(uid)
		ve.SetDtStampTime(now.UTC())
		ve.SetAllDayStartAt(day)
		ve.SetAllDayEndAt(day.AddDate(0, 0, 1))
		ve.SetSummary(summary(ev))
		if desc := description(ev); desc != "" {
			ve.SetDescription(desc)
		}
		if ev.Type.NonEmpty() {
			ve.AddProperty(ical.ComponentPropertyCategories, ev.Type.Value)
		}
		if ev.Background.NonEmpty() && strings.HasPrefix(ev.Background.Value, "#") {
			ve.AddProperty(ical.ComponentPropertyColor, ev.Background.Value)
		}
	}

	if skipped > 0 {
		appLog.Debug("ics export skipped events without a usable date", "skipped", skipped)
	}
	return cal.Serialize()
}

// ParseDate parses a strict DD/MM/YYYY date.
func ParseDate(s string) (time.Time, bool) {
	if len(s) != len("02/01/2006") {
		return time.Time{}, false
	}
	t, err := time.Parse("02/01/2006", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func summary(ev model.Event) string {
	switch {
	case ev.Type.NonEmpty() && ev.Title.NonEmpty():
		return ev.Type.Value + ": " + ev.Title.Value
	case ev.Title.NonEmpty():
		return ev.Title.Value
	case ev.Type.NonEmpty():
		return ev.Type.Value
	default:
		return calendar.UntypedLabel
	}
}

func description(ev model.Event) string {
	lines := calendar.NewBadge(ev).Detail.Lines
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		// Title and date already live in SUMMARY and DTSTART.
		if l.Name == "Evento" || l.Name == "Data" {
			continue
		}
		parts = append(parts, l.Text())
	}
	return strings.Join(parts, "\n")
}

// uidBase derives a stable identifier from the fields that identify an
// event in the sheet, so reloading the same sheet yields the same UIDs.
func uidBase(ev model.Event) string {
	sum := sha256.Sum256([]byte(ev.Date.Value + "\x00" + ev.Type.Value + "\x00" + ev.Title.Value))
	return hex.EncodeToString(sum[:8])
}
