package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/WOTOOOOOO/FAQ-tool/internal/calendar"
)

const CalendarToolName = "query_calendar"

type CalendarInput struct {
	From     string `json:"from,omitempty" jsonschema_description:"First day to include, YYYY-MM-DD."`
	To       string `json:"to,omitempty" jsonschema_description:"Last day to include, YYYY-MM-DD."`
	Title    string `json:"title,omitempty" jsonschema_description:"Event title, e.g. Lecture, Lab, Workshop (substring)."`
	Location string `json:"location,omitempty" jsonschema_description:"Event location, e.g. Zoom, Office (substring)."`
	Attendee string `json:"attendee,omitempty" jsonschema_description:"Attendee e-mail (substring)."`
	Keyword  string `json:"keyword,omitempty" jsonschema_description:"Free text matched against title, location and description."`
}

var CalendarInputSchema = GenerateSchema[CalendarInput]()

func calendarTool(store *calendar.Store) ToolDefinition {
	return ToolDefinition{
		Name: CalendarToolName,
		Description: "Look up university calendar events by date range and fields. Dates are inclusive days in " +
			"YYYY-MM-DD; call current_datetime first to resolve relative dates such as 'next week'.",
		InputSchema: CalendarInputSchema,
		Function: func(ctx context.Context, input json.RawMessage) (string, error) {
			in, msg, ok := decode[CalendarInput](CalendarToolName, input)
			if !ok {
				return msg, nil
			}
			if store == nil {
				return unavailable("calendar"), nil
			}
			res, err := store.Query(calendar.Filter{
				From:     in.From,
				To:       in.To,
				Title:    in.Title,
				Location: in.Location,
				Attendee: in.Attendee,
				Keyword:  in.Keyword,
			})
			if err != nil {
				return fmt.Sprintf("Could not search the calendar: %v", err), nil
			}
			return res.Text(), nil
		},
	}
}
