package tools

import (
	"slices"
	"time"

	"github.com/WOTOOOOOO/FAQ-tool/internal/calendar"
	"github.com/WOTOOOOOO/FAQ-tool/internal/students"
)

// DefaultOutputRunes caps a single tool result.
const DefaultOutputRunes = 8000

// Deps are the data sources behind the tools. A nil source makes its tool
// answer that the source is unavailable.
type Deps struct {
	Regulations Answerer
	Students    *students.Store
	Calendar    *calendar.Store
	Now         func() time.Time
	// Confirm names tools that need human approval before they run.
	Confirm []string
	// OutputRunes caps each result; 0 selects DefaultOutputRunes.
	OutputRunes int
}

// Registry returns all tool definitions wired to d.
func Registry(d Deps) []ToolDefinition {
	max := d.OutputRunes
	if max == 0 {
		max = DefaultOutputRunes
	}
	defs := []ToolDefinition{
		regulationsTool(d.Regulations),
		studentsTool(d.Students),
		calendarTool(d.Calendar),
		dateTimeTool(d.Now),
	}
	for i := range defs {
		defs[i].RequiresConfirmation = slices.Contains(d.Confirm, defs[i].Name)
		defs[i].Function = clamped(defs[i].Function, max)
	}
	return defs
}

// Find returns the definition named name.
func Find(defs []ToolDefinition, name string) (ToolDefinition, bool) {
	for _, d := range defs {
		if d.Name == name {
			return d, true
		}
	}
	return ToolDefinition{}, false
}
