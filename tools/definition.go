package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/WOTOOOOOO/FAQ-tool/internal/provider"
	"github.com/WOTOOOOOO/FAQ-tool/internal/windowing"
)

// ToolDefinition describes a callable tool and its handler.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	// RequiresConfirmation asks the runner for human approval before the
	// handler runs.
	RequiresConfirmation bool
	Function             func(ctx context.Context, input json.RawMessage) (string, error)
}

// Spec is the provider-facing description of the tool.
func (d ToolDefinition) Spec() provider.ToolSpec {
	return provider.ToolSpec{Name: d.Name, Description: d.Description, Schema: d.InputSchema}
}

// Specs converts definitions for a provider request.
func Specs(defs []ToolDefinition) []provider.ToolSpec {
	out := make([]provider.ToolSpec, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Spec())
	}
	return out
}

// GenerateSchema reflects T into an inline object schema that rejects
// unknown properties.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// decode unmarshals tool input. An empty payload decodes as {}.
func decode[T any](tool string, input json.RawMessage) (T, string, bool) {
	var in T
	if len(input) == 0 {
		return in, "", true
	}
	if err := json.Unmarshal(input, &in); err != nil {
		return in, fmt.Sprintf("Invalid input for %s: %v. Please retry with arguments matching the tool schema.", tool, err), false
	}
	return in, "", true
}

// clamped caps handler output at max runes.
func clamped(fn func(context.Context, json.RawMessage) (string, error), max int) func(context.Context, json.RawMessage) (string, error) {
	if max <= 0 {
		return fn
	}
	return func(ctx context.Context, input json.RawMessage) (string, error) {
		out, err := fn(ctx, input)
		if err != nil {
			return out, err
		}
		out, _ = windowing.Clamp(out, max)
		return out, nil
	}
}
