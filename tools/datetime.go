package tools

import (
	"context"
	"encoding/json"
	"time"
)

const DateTimeToolName = "current_datetime"

// DateTimeLayout is YYYY-MM-DD HH:MM:SS.
const DateTimeLayout = "2006-01-02 15:04:05"

type DateTimeInput struct{}

var DateTimeInputSchema = GenerateSchema[DateTimeInput]()

func dateTimeTool(now func() time.Time) ToolDefinition {
	if now == nil {
		now = time.Now
	}
	return ToolDefinition{
		Name:        DateTimeToolName,
		Description: "Return the current local date and time as YYYY-MM-DD HH:MM:SS.",
		InputSchema: DateTimeInputSchema,
		Function: func(ctx context.Context, input json.RawMessage) (string, error) {
			return now().Format(DateTimeLayout), nil
		},
	}
}
