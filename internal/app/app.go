// Package app wires configuration, data sources, tools and the runner into
// one value shared by the CLI and the web server.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/WOTOOOOOO/FAQ-tool/internal/calendar"
	"github.com/WOTOOOOOO/FAQ-tool/internal/config"
	"github.com/WOTOOOOOO/FAQ-tool/internal/datagen"
	"github.com/WOTOOOOOO/FAQ-tool/internal/errorsx"
	"github.com/WOTOOOOOO/FAQ-tool/internal/fsops"
	"github.com/WOTOOOOOO/FAQ-tool/internal/provider"
	"github.com/WOTOOOOOO/FAQ-tool/internal/regulations"
	"github.com/WOTOOOOOO/FAQ-tool/internal/runner"
	"github.com/WOTOOOOOO/FAQ-tool/internal/students"
	"github.com/WOTOOOOOO/FAQ-tool/tools"
)

type App struct {
	Config      config.Config
	Log         logrus.FieldLogger
	Root        *fsops.Root
	Index       *regulations.Index
	Regulations *regulations.Service
	Students    *students.Store
	Calendar    *calendar.Store
	Tools       []tools.ToolDefinition
	Runner      *runner.Runner

	// Index build outcome, for the startup banner.
	IndexResult regulations.BuildResult
	Generated   []datagen.Outcome
	// LoadErrors holds, per source, why it could not be loaded.
	LoadErrors map[string]error
}

// Source names used in LoadErrors.
const (
	SourceStudents    = "students"
	SourceCalendar    = "calendar"
	SourceRegulations = "regulations"
)

// Options controls how much of the stack Bootstrap builds.
type Options struct {
	// WithRunner also builds the provider client and runner; this requires
	// an API key.
	WithRunner bool
	// Client replaces the configured provider, mainly for tests.
	Client provider.Client
}

// OpenRoot sandboxes data access to the data directory. The regulations
// document can never be written through it.
func OpenRoot(cfg config.Config) (*fsops.Root, error) {
	root, err := fsops.New(cfg.Data.Dir, "", cfg.Data.Regulations)
	if err != nil {
		return nil, errorsx.Wrapf(err, errorsx.ReasonConfig, "data dir %s", cfg.Data.Dir)
	}
	return root, nil
}

// Generate creates the student CSV and calendar JSON when they are missing.
// Existing files are left untouched.
func Generate(ctx context.Context, cfg config.Config, root *fsops.Root, log logrus.FieldLogger) ([]datagen.Outcome, error) {
	out := make([]datagen.Outcome, 2)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		o, err := datagen.GenerateStudents(root, cfg.Data.Students, datagen.StudentOptions{
			Count:       cfg.Generate.Students,
			CoursePrice: cfg.Generate.CoursePrice,
			Seed:        cfg.Generate.Seed,
		})
		out[0] = o
		return errorsx.Wrapf(err, errorsx.ReasonDataGen, "generate %s", cfg.Data.Students)
	})
	g.Go(func() error {
		o, err := datagen.GenerateCalendar(root, cfg.Data.Calendar, datagen.CalendarOptions{
			MaxEvents: cfg.Generate.Events,
			Now:       time.Now(),
			Seed:      cfg.Generate.Seed,
		})
		out[1] = o
		return errorsx.Wrapf(err, errorsx.ReasonDataGen, "generate %s", cfg.Data.Calendar)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, o := range out {
		log.WithFields(logrus.Fields{"created": o.Created, "count": o.Count}).Info(o.Message)
	}
	return out, nil
}

// OpenIndex opens the SQLite index inside the data directory.
func OpenIndex(cfg config.Config, root *fsops.Root) (*regulations.Index, error) {
	path, err := root.ResolveWrite(cfg.Data.Index)
	if err != nil {
		return nil, errorsx.Wrapf(err, errorsx.ReasonIndexBuild, "index path %s", cfg.Data.Index)
	}
	ix, err := regulations.OpenIndex(path)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonIndexBuild)
	}
	return ix, nil
}

// BuildIndex (re)indexes the regulations document; an unchanged document is
// skipped.
func BuildIndex(ctx context.Context, cfg config.Config, root *fsops.Root, ix *regulations.Index, log logrus.FieldLogger) (regulations.BuildResult, error) {
	doc, err := root.ReadFile(cfg.Data.Regulations)
	if err != nil {
		return regulations.BuildResult{}, errorsx.Wrapf(err, errorsx.ReasonDataLoad, "read %s", cfg.Data.Regulations)
	}
	res, err := ix.Build(ctx, doc, regulations.Options{
		TargetSize: cfg.Retrieval.ChunkTarget,
		MinSize:    cfg.Retrieval.ChunkMin,
		MaxSize:    cfg.Retrieval.ChunkMax,
	})
	if err != nil {
		return res, errorsx.Wrap(err, errorsx.ReasonIndexBuild)
	}
	log.WithFields(logrus.Fields{"chunks": res.Chunks, "built": res.Built}).Info(res.Message())
	return res, nil
}

// Bootstrap generates missing data, then loads the students and calendar
// and builds the index concurrently. A source that fails to load is logged
// and left nil so its tool answers that it is unavailable.
func Bootstrap(ctx context.Context, cfg config.Config, log logrus.FieldLogger, opts Options) (*App, error) {
	a := &App{Config: cfg, Log: log}
	var err error
	if a.Root, err = OpenRoot(cfg); err != nil {
		return nil, err
	}
	if a.Generated, err = Generate(ctx, cfg, a.Root, log); err != nil {
		return nil, err
	}
	if a.Index, err = OpenIndex(cfg, a.Root); err != nil {
		return nil, err
	}

	var studentsErr, calendarErr, indexErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := students.Open(a.Root, cfg.Data.Students)
		if err != nil {
			studentsErr = errorsx.Wrap(err, errorsx.ReasonDataLoad)
			return nil
		}
		a.Students = s
		log.WithField("rows", s.Len()).Info("student records loaded")
		return nil
	})
	g.Go(func() error {
		c, err := calendar.Open(a.Root, cfg.Data.Calendar)
		if err != nil {
			calendarErr = errorsx.Wrap(err, errorsx.ReasonDataLoad)
			return nil
		}
		a.Calendar = c
		log.WithField("events", c.Len()).Info("calendar loaded")
		return nil
	})
	g.Go(func() error {
		a.IndexResult, indexErr = BuildIndex(gctx, cfg, a.Root, a.Index, log)
		if errors.Is(indexErr, context.Canceled) {
			return indexErr
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		a.Close()
		return nil, err
	}

	a.LoadErrors = map[string]error{}
	for source, err := range map[string]error{
		SourceStudents:    studentsErr,
		SourceCalendar:    calendarErr,
		SourceRegulations: indexErr,
	} {
		if err == nil {
			continue
		}
		a.LoadErrors[source] = err
		log.WithFields(logrus.Fields{
			"source": source,
			"reason": errorsx.Reason(err),
		}).WithError(err).Warn("data source unavailable")
	}

	// A nil *Service must not reach the Answerer interface as a non-nil value.
	var answerer tools.Answerer
	if indexErr == nil {
		a.Regulations = regulations.NewService(a.Index, regulations.ServiceOptions{
			TopK:          cfg.Retrieval.TopK,
			MinConfidence: cfg.Retrieval.MinConfidence,
			ContextRunes:  cfg.Retrieval.ContextRunes,
		}, log)
		answerer = a.Regulations
	}

	var confirm []string
	if cfg.HITL.Enabled {
		confirm = cfg.HITL.Tools
	}
	a.Tools = tools.Registry(tools.Deps{
		Regulations: answerer,
		Students:    a.Students,
		Calendar:    a.Calendar,
		Now:         time.Now,
		Confirm:     confirm,
	})

	if opts.WithRunner {
		if err := a.buildRunner(opts.Client); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *App) buildRunner(client provider.Client) error {
	cfg := a.Config
	if client == nil {
		if err := cfg.RequireAPIKey(); err != nil {
			return errorsx.Wrap(err, errorsx.ReasonConfig)
		}
		var err error
		client, err = provider.New(provider.Options{
			Name:    cfg.LLM.Provider,
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Timeout: cfg.LLM.Timeout,
		})
		if err != nil {
			return errorsx.Wrap(err, errorsx.ReasonConfig)
		}
	}
	a.Runner = runner.New(client, a.Tools, runner.Config{
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Budget:      cfg.LLM.ContextBudget,
		Log:         a.Log,
	})
	a.Log.WithFields(logrus.Fields{"provider": client.Name(), "model": a.Runner.Model()}).Info("model client ready")
	return nil
}

// Close releases the index.
func (a *App) Close() error {
	if a == nil || a.Index == nil {
		return nil
	}
	if err := a.Index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	a.Index = nil
	return nil
}

// ErrNoRunner is returned by callers that need a model but were bootstrapped
// without one.
var ErrNoRunner = errors.New("app: runner not configured")
