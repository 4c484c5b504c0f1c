package calendar_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WOTOOOOOO/FAQ-tool/internal/calendar"
)

// Mixed timestamp styles: the generator writes RFC 3339, older files carry
// naive ISO-8601 with microseconds.
const fixture = `[
    {"title": "Lab", "location": "Zoom", "start_time": "2025-05-03T10:00:00", "end_time": "2025-05-03T12:00:00", "attendees": ["user1@example.com"]},
    {"title": "Lecture", "location": "Conference Hall", "description": "Databases 2", "start_time": "2025-05-01T09:00:00.123456", "end_time": "2025-05-01T11:00:00", "attendees": ["user2@example.com", "user3@example.com"]},
    {"title": "Project Review", "location": "Office", "start_time": "2025-05-10T14:00:00", "end_time": "2025-05-10T17:00:00", "attendees": ["user10@example.com"]},
    {"title": "Lunch", "location": "Cafe", "start_time": "2025-05-03T23:30:00", "end_time": "2025-05-04T00:30:00", "attendees": ["user1@example.com", "user4@example.com"]}
]`

func load(t *testing.T) *calendar.Store {
	t.Helper()
	s, err := calendar.Load(strings.NewReader(fixture))
	require.NoError(t, err)
	return s
}

func titles(events []calendar.Event) []string {
	var out []string
	for _, e := range events {
		out = append(out, e.Title)
	}
	return out
}

func TestLoad_SortsByStart(t *testing.T) {
	s := load(t)
	require.Equal(t, 4, s.Len())
	res, err := s.Query(calendar.Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Lecture", "Lab", "Lunch", "Project Review"}, titles(res.Events))
}

func TestParseTimestamp(t *testing.T) {
	rfc, err := calendar.ParseTimestamp("2025-05-03T10:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 8, rfc.UTC().Hour())

	naive, err := calendar.ParseTimestamp("2025-05-03T10:00:00.5")
	require.NoError(t, err)
	assert.Equal(t, time.Local, naive.Location())
	assert.Equal(t, 10, naive.Hour())

	_, err = calendar.ParseTimestamp("next tuesday")
	assert.Error(t, err)
}

func TestLoad_Rejects(t *testing.T) {
	_, err := calendar.Load(strings.NewReader(`{"not": "an array"}`))
	assert.Error(t, err)

	_, err = calendar.Load(strings.NewReader(`[{"title":"x","start_time":"2025-05-03T12:00:00","end_time":"2025-05-03T10:00:00"}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event 1")

	_, err = calendar.Load(strings.NewReader(`[{"title":"x","start_time":"soon","end_time":"later"}]`))
	assert.Error(t, err)
}

func TestRange(t *testing.T) {
	s := load(t)
	first, last, ok := s.Range()
	require.True(t, ok)
	assert.Equal(t, "2025-05-01", first.Format("2006-01-02"))
	assert.Equal(t, "2025-05-10 17:00", last.Format("2006-01-02 15:04"))

	empty, err := calendar.Load(strings.NewReader(`[]`))
	require.NoError(t, err)
	_, _, ok = empty.Range()
	assert.False(t, ok)
}

func TestQuery_Filters(t *testing.T) {
	s := load(t)
	tests := []struct {
		name string
		f    calendar.Filter
		want []string
	}{
		{"single day inclusive", calendar.Filter{From: "2025-05-03", To: "2025-05-03"}, []string{"Lab", "Lunch"}},
		{"overlapping midnight counts for next day", calendar.Filter{From: "2025-05-04", To: "2025-05-04"}, []string{"Lunch"}},
		{"from only", calendar.Filter{From: "2025-05-04"}, []string{"Lunch", "Project Review"}},
		{"to only", calendar.Filter{To: "2025-05-01"}, []string{"Lecture"}},
		{"title", calendar.Filter{Title: "review"}, []string{"Project Review"}},
		{"location", calendar.Filter{Location: "zoom"}, []string{"Lab"}},
		{"attendee", calendar.Filter{Attendee: "user1@"}, []string{"Lab", "Lunch"}},
		{"keyword over description", calendar.Filter{Keyword: "databases"}, []string{"Lecture"}},
		{"keyword over location", calendar.Filter{Keyword: "cafe"}, []string{"Lunch"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Query(tt.f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(res.Events))
		})
	}
}

func TestQuery_OutsideRangeIsNotFound(t *testing.T) {
	s := load(t)
	res, err := s.Query(calendar.Filter{From: "2030-01-01", To: "2030-01-31"})
	require.NoError(t, err)
	assert.Empty(t, res.Events)
	text := res.Text()
	assert.True(t, strings.HasPrefix(text, "No events found between 2030-01-01 and 2030-01-31"), text)
	assert.Contains(t, text, "The calendar covers 2025-05-01 to 2025-05-10.")

	res, err = s.Query(calendar.Filter{Title: "Gala", Attendee: "user9"})
	require.NoError(t, err)
	assert.Contains(t, res.Text(), `matching title "Gala", attendee "user9"`)
}

func TestQuery_BadDates(t *testing.T) {
	s := load(t)
	_, err := s.Query(calendar.Filter{From: "05/01/2025"})
	assert.ErrorContains(t, err, "YYYY-MM-DD")

	_, err = s.Query(calendar.Filter{From: "2025-05-10", To: "2025-05-01"})
	assert.ErrorContains(t, err, "before")
}

func TestResult_TextListsEvents(t *testing.T) {
	s := load(t)
	res, err := s.Query(calendar.Filter{Title: "Lecture"})
	require.NoError(t, err)
	assert.Equal(t,
		"1 event found:\n- 2025-05-01 09:00 to 11:00 | Lecture | Conference Hall | attendees: user2@example.com, user3@example.com | Databases 2",
		res.Text())
}
