// Package ics renders matches as an iCalendar document.
package ics

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/guillem8cbii/basquet/internal/config"
	"github.com/guillem8cbii/basquet/internal/model"
)

// DefaultEventDuration is used when no positive duration is configured.
const DefaultEventDuration = 2 * time.Hour

// Placeholders for empty match fields.
const (
	PlaceholderHome        = "Local"
	PlaceholderAway        = "Visitante"
	PlaceholderVenue       = "Campo por determinar"
	PlaceholderCompetition = "Competición"
)

var (
	dateTimeLayouts = []string{"2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02T15:04:05", "2006-01-02T15:04"}
	dateLayouts     = []string{"2006-01-02", "02/01/2006"}
	clockLayouts    = []string{"15:04", "15:04:05"}
)

// Document is a rendered calendar.
type Document struct {
	Text    string  // CRLF terminated iCalendar text
	Events  int     // VEVENTs written
	Skipped []error // one *SerializationError per dropped match
}

// SerializationError describes a match that could not become an event.
type SerializationError struct {
	Index int
	ID    string
	Err   error
}

func (e *SerializationError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("match %d (id %s): %v", e.Index, e.ID, e.Err)
	}
	return fmt.Sprintf("match %d: %v", e.Index, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// Serializer turns matches into calendar events. Wall-clock dates and times are
// read in Location and written in UTC.
type Serializer struct {
	Calendar config.CalendarConfig
	Location *time.Location
	Duration time.Duration
}

// NewSerializer resolves the calendar timezone and duration.
func NewSerializer(cfg config.CalendarConfig) (*Serializer, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return &Serializer{Calendar: cfg, Location: loc, Duration: cfg.EventDuration}, nil
}

// Render builds the document. Matches whose date cannot be read are skipped and
// reported in Document.Skipped; an error is returned only when every match was
// skipped.
func (s Serializer) Render(matches []model.Match, now time.Time) (Document, error) {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	dur := s.Duration
	if dur <= 0 {
		dur = DefaultEventDuration
	}

	cal := ical.NewCalendar()
	if s.Calendar.ProdID != "" {
		cal.SetProductId(s.Calendar.ProdID)
	}
	cal.SetCalscale("GREGORIAN")
	cal.SetMethod(ical.MethodPublish)
	if s.Calendar.Name != "" {
		cal.SetXWRCalName(s.Calendar.Name)
	}
	if s.Calendar.Timezone != "" {
		cal.SetXWRTimezone(s.Calendar.Timezone)
	}

	var doc Document
	for i, m := range matches {
		start, err := startOf(m, loc)
		if err != nil {
			doc.Skipped = append(doc.Skipped, &SerializationError{Index: i, ID: m.ID, Err: err})
			continue
		}

		home := orDefault(m.Home, PlaceholderHome)
		away := orDefault(m.Away, PlaceholderAway)

		ev := cal.AddEvent(s.uid(m, i, now))
		ev.SetDtStampTime(now)
		ev.SetStartAt(start)
		ev.SetEndAt(start.Add(dur))
		ev.SetSummary(home + " vs " + away)
		ev.SetDescription(fmt.Sprintf("%s\nEquipo Local: %s\nEquipo Visitante: %s",
			orDefault(m.Competition, PlaceholderCompetition), home, away))
		ev.SetLocation(location(m))
		ev.SetStatus(ical.ObjectStatusConfirmed)
		ev.SetTimeTransparency(ical.TransparencyOpaque)
		doc.Events++
	}

	if len(matches) > 0 && doc.Events == 0 {
		return doc, fmt.Errorf("no match could be serialized: %w", errors.Join(doc.Skipped...))
	}
	doc.Text = cal.Serialize()
	return doc, nil
}

// uid changes with every generation, so calendars that import the file again
// get new events rather than updates.
func (s Serializer) uid(m model.Match, index int, now time.Time) string {
	key := strings.TrimSpace(m.ID)
	if key == "" {
		key = strconv.Itoa(index)
	}
	prefix := orDefault(s.Calendar.UIDPrefix, "xirivella")
	domain := orDefault(s.Calendar.UIDDomain, "xirivella-calendar")
	return fmt.Sprintf("%s-%s-%d@%s", prefix, key, now.UnixMilli(), domain)
}

func startOf(m model.Match, loc *time.Location) (time.Time, error) {
	date := strings.TrimSpace(m.Date)
	clock := strings.TrimSpace(m.Time)
	if date == "" {
		return time.Time{}, errors.New("missing date")
	}

	if clock == "" {
		for _, l := range dateTimeLayouts {
			if t, err := time.ParseInLocation(l, date, loc); err == nil {
				return t, nil
			}
		}
	}

	var (
		day time.Time
		err error
	)
	for _, l := range dateLayouts {
		if day, err = time.ParseInLocation(l, date, loc); err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("unsupported date %q", date)
	}
	if clock == "" {
		return day, nil
	}

	for _, l := range clockLayouts {
		c, err := time.Parse(l, clock)
		if err != nil {
			continue
		}
		return time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), c.Second(), 0, loc), nil
	}
	return time.Time{}, fmt.Errorf("unsupported time %q", clock)
}

func location(m model.Match) string {
	var parts []string
	for _, p := range []string{m.Venue, m.Address, strings.TrimSpace(m.PostalCode + " " + m.Town)} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return PlaceholderVenue
	}
	return strings.Join(parts, ", ")
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
