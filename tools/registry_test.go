package tools_test

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/WOTOOOOOO/FAQ-tool/internal/regulations"
	"github.com/WOTOOOOOO/FAQ-tool/tools"
)

func TestRegistry_ToolNames(t *testing.T) {
	defs := tools.Registry(tools.Deps{})
	want := map[string]struct{}{
		tools.RegulationsToolName: {},
		tools.StudentsToolName:    {},
		tools.CalendarToolName:    {},
		tools.DateTimeToolName:    {},
	}
	if len(defs) != len(want) {
		t.Fatalf("unexpected number of tools: got %d want %d", len(defs), len(want))
	}

	// Unexpected names detected
	for _, d := range defs {
		if _, ok := want[d.Name]; !ok {
			t.Fatalf("unexpected tool in registry: %q", d.Name)
		}
		if d.InputSchema == nil || d.Function == nil || d.Description == "" {
			t.Errorf("tool %q is incomplete", d.Name)
		}
	}

	// Missing expected names
	for name := range want {
		if _, ok := tools.Find(defs, name); !ok {
			t.Errorf("missing expected tool: %q", name)
		}
	}
}

func TestRegistry_ConfirmMarksTools(t *testing.T) {
	defs := tools.Registry(tools.Deps{Confirm: []string{tools.StudentsToolName}})
	for _, d := range defs {
		want := d.Name == tools.StudentsToolName
		if d.RequiresConfirmation != want {
			t.Errorf("%s: RequiresConfirmation=%v want %v", d.Name, d.RequiresConfirmation, want)
		}
	}
}

func TestRegistry_NilSourcesAnswerUnavailable(t *testing.T) {
	defs := tools.Registry(tools.Deps{})
	for _, name := range []string{tools.RegulationsToolName, tools.StudentsToolName, tools.CalendarToolName} {
		d, _ := tools.Find(defs, name)
		out, err := d.Function(context.Background(), []byte(`{"question":"how many students are there?"}`))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if !strings.Contains(out, "not available") {
			t.Errorf("%s: got %q", name, out)
		}
	}
}

type longAnswerer struct{}

func (longAnswerer) Answer(ctx context.Context, q string) (regulations.Answer, error) {
	return regulations.Answer{Text: strings.Repeat("x", 500), Confidence: 1}, nil
}

func TestRegistry_ClampsOutput(t *testing.T) {
	defs := tools.Registry(tools.Deps{Regulations: longAnswerer{}, OutputRunes: 100})
	d, _ := tools.Find(defs, tools.RegulationsToolName)
	out, err := d.Function(context.Background(), []byte(`{"question":"fees"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := utf8.RuneCountInString(out); n != 100 {
		t.Fatalf("clamped length: got %d want 100", n)
	}
	if !strings.HasSuffix(out, "[truncated]") {
		t.Errorf("missing truncation marker: %q", out[len(out)-20:])
	}
}

func TestSpecs_MirrorsDefinitions(t *testing.T) {
	defs := tools.Registry(tools.Deps{})
	specs := tools.Specs(defs)
	if len(specs) != len(defs) {
		t.Fatalf("got %d specs for %d defs", len(specs), len(defs))
	}
	for i := range defs {
		if specs[i].Name != defs[i].Name || specs[i].Schema != defs[i].InputSchema {
			t.Errorf("spec %d does not mirror %q", i, defs[i].Name)
		}
	}
}
