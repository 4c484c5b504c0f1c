package datagen

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/WOTOOOOOO/FAQ-tool/internal/calendar"
	"github.com/WOTOOOOOO/FAQ-tool/internal/fsops"
)

const (
	CalendarCreated = "Calendar events have been created"
	CalendarExists  = "Calendar already exists"
)

var (
	EventTitles    = []string{"Meeting", "Workshop", "Conference", "Lunch", "Project Review", "Lab", "Lecture"}
	EventLocations = []string{"Office", "Zoom", "Conference Hall", "Cafe", "Online"}
)

const minEvents = 5

// CalendarOptions configures GenerateCalendar.
type CalendarOptions struct {
	MaxEvents int
	Now       time.Time // zero means time.Now()
	Seed      uint64
}

// Events builds between 5 and MaxEvents events starting 1 to 30 days after
// Now, offset by 8 to 18 hours, each lasting 1 to 3 hours.
func Events(opts CalendarOptions) []calendar.Event {
	r := newRand(opts.Seed)
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	// RFC 3339 output has second precision
	now = now.Truncate(time.Second)

	n := between(r, minEvents, max(minEvents, opts.MaxEvents))
	out := make([]calendar.Event, 0, n)
	for i := 0; i < n; i++ {
		start := now.AddDate(0, 0, between(r, 1, 30)).Add(time.Duration(between(r, 8, 18)) * time.Hour)
		end := start.Add(time.Duration(between(r, 1, 3)) * time.Hour)
		title := EventTitles[r.IntN(len(EventTitles))]
		location := EventLocations[r.IntN(len(EventLocations))]

		attendees := make([]string, between(r, 1, 5))
		for j := range attendees {
			attendees[j] = fmt.Sprintf("user%d@example.com", between(r, 1, 10))
		}
		out = append(out, calendar.Event{
			Title:       title,
			Location:    location,
			Description: fmt.Sprintf("%s held at %s", title, location),
			StartTime:   calendar.Timestamp{Time: start},
			EndTime:     calendar.Timestamp{Time: end},
			Attendees:   attendees,
		})
	}
	return out
}

// GenerateCalendar writes the calendar JSON to name under root unless it
// already exists.
func GenerateCalendar(root *fsops.Root, name string, opts CalendarOptions) (Outcome, error) {
	events := Events(opts)
	err := root.CreateFile(name, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		return enc.Encode(events)
	})
	if alreadyExists(err) {
		return Outcome{Message: CalendarExists}, nil
	}
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Created: true, Count: len(events), Message: CalendarCreated}, nil
}
