package windowing_test

import (
	"encoding/json"

	"github.com/WOTOOOOOO/FAQ-tool/internal/provider"
	"github.com/WOTOOOOOO/FAQ-tool/internal/windowing"
)

// Tool call with empty input
func TC(id string) provider.ToolCall {
	return provider.ToolCall{ID: id, Name: "dummy_tool"}
}

// Tool call with a raw JSON input
func TCInput(id, input string) provider.ToolCall {
	return provider.ToolCall{ID: id, Name: "dummy_tool", Input: json.RawMessage(input)}
}

// Tool result constructor, with optional error flag
func TR(id, content string, isErr bool) provider.ToolResult {
	return provider.ToolResult{CallID: id, Content: content, IsError: isErr}
}

// Assistant message carrying tool calls
func AsstCalls(calls ...provider.ToolCall) provider.Message {
	return provider.Message{Role: provider.RoleAssistant, ToolCalls: calls}
}

// Assistant text message
func Asst(text string) provider.Message {
	return provider.Message{Role: provider.RoleAssistant, Text: text}
}

// User message carrying tool results and optional trailing text
func UserResults(text string, results ...provider.ToolResult) provider.Message {
	return provider.Message{Role: provider.RoleUser, Text: text, ToolResults: results}
}

// User text message
func User(text string) provider.Message {
	return provider.UserText(text)
}

// groupsEqual is a small utility used by grouping tests.
func groupsEqual(got, want []windowing.Group) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i].Kind != want[i].Kind || got[i].Start != want[i].Start || got[i].End != want[i].End {
			return false
		}
	}
	return true
}
