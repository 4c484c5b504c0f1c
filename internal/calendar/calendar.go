// Package calendar loads generated calendar events and answers date-range and
// field queries over them.
package calendar

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/WOTOOOOOO/FAQ-tool/internal/fsops"
)

// Event is one calendar entry.
type Event struct {
	Title       string    `json:"title"`
	Location    string    `json:"location"`
	Description string    `json:"description,omitempty"`
	StartTime   Timestamp `json:"start_time"`
	EndTime     Timestamp `json:"end_time"`
	Attendees   []string  `json:"attendees"`
}

// Timestamp reads RFC 3339 and naive ISO-8601 times (local zone) and
// writes RFC 3339.
type Timestamp struct {
	time.Time
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// Store holds events sorted by start time.
type Store struct {
	events []Event
}

// Open reads name from the data root, read-only.
func Open(root *fsops.Root, name string) (*Store, error) {
	f, err := root.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Load parses a JSON array of events.
func Load(r io.Reader) (*Store, error) {
	var events []Event
	if err := json.NewDecoder(r).Decode(&events); err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}
	for i, e := range events {
		if e.StartTime.IsZero() || e.EndTime.IsZero() {
			return nil, fmt.Errorf("calendar: event %d: missing start or end time", i+1)
		}
		if e.EndTime.Before(e.StartTime.Time) {
			return nil, fmt.Errorf("calendar: event %d: ends before it starts", i+1)
		}
	}
	sort.SliceStable(events, func(a, b int) bool { return events[a].StartTime.Before(events[b].StartTime.Time) })
	return &Store{events: events}, nil
}

func (s *Store) Len() int { return len(s.events) }

// Range returns the first start and the last end over all events.
func (s *Store) Range() (first, last time.Time, ok bool) {
	if len(s.events) == 0 {
		return time.Time{}, time.Time{}, false
	}
	first = s.events[0].StartTime.Time
	for _, e := range s.events {
		if e.EndTime.After(last) {
			last = e.EndTime.Time
		}
	}
	return first, last, true
}

// Filter narrows a query. From and To are inclusive days (YYYY-MM-DD); text
// fields match case-insensitively as substrings.
type Filter struct {
	From     string
	To       string
	Title    string
	Location string
	Attendee string
	Keyword  string
}

const dateLayout = "2006-01-02"

// window resolves From/To into [from, to) in the local zone.
func (f Filter) window() (from, to time.Time, err error) {
	if f.From != "" {
		if from, err = time.ParseInLocation(dateLayout, strings.TrimSpace(f.From), time.Local); err != nil {
			return from, to, fmt.Errorf("invalid from date %q, expected YYYY-MM-DD", f.From)
		}
	}
	if f.To != "" {
		if to, err = time.ParseInLocation(dateLayout, strings.TrimSpace(f.To), time.Local); err != nil {
			return from, to, fmt.Errorf("invalid to date %q, expected YYYY-MM-DD", f.To)
		}
		to = to.AddDate(0, 0, 1)
	}
	if !from.IsZero() && !to.IsZero() && !to.After(from) {
		return from, to, fmt.Errorf("to date %s is before from date %s", f.To, f.From)
	}
	return from, to, nil
}

func (f Filter) match(e Event, from, to time.Time) bool {
	// an event belongs to the window when it overlaps it
	if !from.IsZero() && !e.EndTime.After(from) {
		return false
	}
	if !to.IsZero() && !e.StartTime.Before(to) {
		return false
	}
	if !contains(e.Title, f.Title) || !contains(e.Location, f.Location) {
		return false
	}
	if f.Attendee != "" {
		found := false
		for _, a := range e.Attendees {
			if contains(a, f.Attendee) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Keyword != "" {
		hay := e.Title + " " + e.Location + " " + e.Description
		if !contains(hay, f.Keyword) {
			return false
		}
	}
	return true
}

func contains(field, sub string) bool {
	if sub == "" {
		return true
	}
	return strings.Contains(strings.ToLower(field), strings.ToLower(strings.TrimSpace(sub)))
}

// Result is the answer to a Query.
type Result struct {
	Filter Filter
	Events []Event
	First  time.Time
	Last   time.Time
}

// Query returns matching events in start order. Only malformed dates are
// errors; an empty match is a normal result.
func (s *Store) Query(f Filter) (Result, error) {
	from, to, err := f.window()
	if err != nil {
		return Result{}, err
	}
	res := Result{Filter: f}
	res.First, res.Last, _ = s.Range()
	for _, e := range s.events {
		if f.match(e, from, to) {
			res.Events = append(res.Events, e)
		}
	}
	return res, nil
}

const maxListed = 50

// Text renders the result for the model.
func (r Result) Text() string {
	if len(r.Events) == 0 {
		return r.notFound()
	}
	var b strings.Builder
	noun := "events"
	if len(r.Events) == 1 {
		noun = "event"
	}
	fmt.Fprintf(&b, "%d %s found", len(r.Events), noun)
	if len(r.Events) > maxListed {
		fmt.Fprintf(&b, " (showing first %d)", maxListed)
	}
	b.WriteString(":\n")
	for i, e := range r.Events {
		if i == maxListed {
			break
		}
		fmt.Fprintf(&b, "- %s to %s | %s | %s | attendees: %s",
			e.StartTime.Format("2006-01-02 15:04"), e.EndTime.Format("15:04"),
			e.Title, e.Location, strings.Join(e.Attendees, ", "))
		if e.Description != "" {
			fmt.Fprintf(&b, " | %s", e.Description)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r Result) notFound() string {
	var b strings.Builder
	b.WriteString("No events found")
	switch f := r.Filter; {
	case f.From != "" && f.To != "":
		fmt.Fprintf(&b, " between %s and %s", f.From, f.To)
	case f.From != "":
		fmt.Fprintf(&b, " from %s onwards", f.From)
	case f.To != "":
		fmt.Fprintf(&b, " up to %s", f.To)
	}
	var crit []string
	for _, kv := range [][2]string{{"title", r.Filter.Title}, {"location", r.Filter.Location}, {"attendee", r.Filter.Attendee}, {"keyword", r.Filter.Keyword}} {
		if kv[1] != "" {
			crit = append(crit, fmt.Sprintf("%s %q", kv[0], kv[1]))
		}
	}
	if len(crit) > 0 {
		fmt.Fprintf(&b, " matching %s", strings.Join(crit, ", "))
	}
	b.WriteString(".")
	if r.First.IsZero() {
		b.WriteString(" The calendar is empty.")
	} else {
		fmt.Fprintf(&b, " The calendar covers %s to %s.", r.First.Format(dateLayout), r.Last.Format(dateLayout))
	}
	return b.String()
}
