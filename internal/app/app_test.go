package app_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WOTOOOOOO/FAQ-tool/internal/app"
	"github.com/WOTOOOOOO/FAQ-tool/internal/config"
	"github.com/WOTOOOOOO/FAQ-tool/internal/datagen"
	"github.com/WOTOOOOOO/FAQ-tool/internal/errorsx"
	"github.com/WOTOOOOOO/FAQ-tool/internal/logging"
	"github.com/WOTOOOOOO/FAQ-tool/internal/provider"
	"github.com/WOTOOOOOO/FAQ-tool/tools"
)

type nopClient struct{}

func (nopClient) Name() string         { return "nop" }
func (nopClient) DefaultModel() string { return "nop-model" }
func (nopClient) Complete(context.Context, provider.Request) (*provider.Response, error) {
	return &provider.Response{Text: "ok"}, nil
}

// setup returns a config whose data dir holds only the regulations document.
func setup(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("FAQ_OBSERVE_JSON", "0")
	t.Setenv("FAQ_GENERATE_STUDENTS", "25")
	t.Setenv("FAQ_GENERATE_SEED", "7")

	doc, err := os.ReadFile(filepath.Join(repoRoot(t), "data", "regulations.txt"))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll("data", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("data", "regulations.txt"), doc, 0o644))

	cfg, err := config.Load(config.LoadOptions{})
	require.NoError(t, err)
	return cfg
}

var origWD, _ = os.Getwd()

func repoRoot(t *testing.T) string {
	t.Helper()
	return filepath.Join(origWD, "..", "..")
}

func TestBootstrap_GeneratesLoadsAndIndexes(t *testing.T) {
	cfg := setup(t)
	ctx := context.Background()

	a, err := app.Bootstrap(ctx, cfg, logging.Discard(), app.Options{WithRunner: true, Client: nopClient{}})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	require.Len(t, a.Generated, 2)
	assert.Empty(t, a.LoadErrors)
	assert.Equal(t, datagen.StudentsCreated, a.Generated[0].Message)
	assert.Equal(t, datagen.CalendarCreated, a.Generated[1].Message)
	assert.Equal(t, 25, a.Students.Len())
	assert.GreaterOrEqual(t, a.Calendar.Len(), 5)
	assert.True(t, a.IndexResult.Built)
	assert.Greater(t, a.IndexResult.Chunks, 1)
	assert.Len(t, a.Tools, 4)
	require.NotNil(t, a.Runner)
	assert.Equal(t, "nop-model", a.Runner.Model())

	ans, err := a.Regulations.Answer(ctx, "How many times may an examination be repeated?")
	require.NoError(t, err)
	assert.NotEmpty(t, ans.Hits)
}

func TestBootstrap_SecondRunReusesData(t *testing.T) {
	cfg := setup(t)
	ctx := context.Background()

	first, err := app.Bootstrap(ctx, cfg, logging.Discard(), app.Options{})
	require.NoError(t, err)
	require.NoError(t, first.Close())
	csv, err := os.ReadFile(cfg.Data.StudentsPath())
	require.NoError(t, err)

	second, err := app.Bootstrap(ctx, cfg, logging.Discard(), app.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { second.Close() })

	assert.Equal(t, datagen.StudentsExist, second.Generated[0].Message)
	assert.Equal(t, datagen.CalendarExists, second.Generated[1].Message)
	assert.False(t, second.IndexResult.Built)
	assert.Equal(t, "Index already exists", second.IndexResult.Message())
	assert.Nil(t, second.Runner)

	again, err := os.ReadFile(cfg.Data.StudentsPath())
	require.NoError(t, err)
	assert.Equal(t, csv, again)
}

func TestBootstrap_MissingRegulationsLeavesToolUnavailable(t *testing.T) {
	cfg := setup(t)
	require.NoError(t, os.Remove(cfg.Data.RegulationsPath()))

	a, err := app.Bootstrap(context.Background(), cfg, logging.Discard(), app.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	require.Contains(t, a.LoadErrors, app.SourceRegulations)
	assert.Equal(t, errorsx.ReasonDataLoad, errorsx.Reason(a.LoadErrors[app.SourceRegulations]))
	assert.Nil(t, a.Regulations)
	assert.NotNil(t, a.Students)

	out := callTool(t, a, tools.RegulationsToolName, `{"question":"How many exam attempts are allowed?"}`)
	assert.Equal(t, "The regulations data source is not available right now.", out)
}

func TestBootstrap_MalformedStudentsLeavesToolUnavailable(t *testing.T) {
	cfg := setup(t)
	csv := "name,surname,nationality,semester,all_courses,discount_rate,tuition_fees\n" +
		"Ada,Lovelace,UK,notanumber,Math,0%,500\n"
	require.NoError(t, os.WriteFile(cfg.Data.StudentsPath(), []byte(csv), 0o644))

	a, err := app.Bootstrap(context.Background(), cfg, logging.Discard(), app.Options{WithRunner: true, Client: nopClient{}})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	require.Contains(t, a.LoadErrors, app.SourceStudents)
	assert.Equal(t, errorsx.ReasonDataLoad, errorsx.Reason(a.LoadErrors[app.SourceStudents]))
	assert.Contains(t, a.LoadErrors[app.SourceStudents].Error(), "row 1")
	assert.Nil(t, a.Students)
	assert.NotNil(t, a.Calendar)
	assert.NotNil(t, a.Regulations)
	require.NotNil(t, a.Runner)

	out := callTool(t, a, tools.StudentsToolName, `{"question":"How many students are there?","aggregate":"count"}`)
	assert.Contains(t, out, "not available")

	got, err := os.ReadFile(cfg.Data.StudentsPath())
	require.NoError(t, err)
	assert.Equal(t, csv, string(got))
}

func callTool(t *testing.T, a *app.App, name, input string) string {
	t.Helper()
	def, ok := tools.Find(a.Tools, name)
	require.True(t, ok, name)
	out, err := def.Function(context.Background(), json.RawMessage(input))
	require.NoError(t, err)
	return out
}

func TestBootstrap_RunnerNeedsAPIKey(t *testing.T) {
	cfg := setup(t)
	cfg.LLM.APIKey = ""

	_, err := app.Bootstrap(context.Background(), cfg, logging.Discard(), app.Options{WithRunner: true})
	require.Error(t, err)
	assert.Equal(t, errorsx.ReasonConfig, errorsx.Reason(err))
	assert.Contains(t, err.Error(), "GROQ_API_KEY")
}

func TestBootstrap_HITLMarksConfiguredTools(t *testing.T) {
	cfg := setup(t)
	cfg.HITL.Enabled = true
	cfg.HITL.Tools = []string{"query_calendar"}

	a, err := app.Bootstrap(context.Background(), cfg, logging.Discard(), app.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	for _, d := range a.Tools {
		assert.Equal(t, d.Name == "query_calendar", d.RequiresConfirmation, d.Name)
	}
}
