// Package web serves the single-page query UI and a small JSON API.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/schema"
	"github.com/sirupsen/logrus"

	"github.com/WOTOOOOOO/FAQ-tool/internal/runner"
	"github.com/WOTOOOOOO/FAQ-tool/memory"
)

// Title is the page heading.
const Title = "University Regulations, Calendar & Student Data Query Tool"

//go:embed templates/*.html
var templateFS embed.FS

// Turns is the part of runner.Runner the server drives.
type Turns interface {
	Plan(ctx context.Context, query string) (*runner.Turn, error)
	Execute(ctx context.Context, turn *runner.Turn, approved bool) error
}

type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PendingTTL   time.Duration
	HistorySize  int
}

func DefaultConfig() Config {
	return Config{
		Addr:         ":8501",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		PendingTTL:   10 * time.Minute,
		HistorySize:  memory.DefaultHistorySize,
	}
}

type Server struct {
	cfg      Config
	turns    Turns
	log      logrus.FieldLogger
	sessions *memory.Sessions
	pending  *pendingStore
	tmpl     *template.Template
	decoder  *schema.Decoder
	router   *http.ServeMux
}

func New(turns Turns, cfg Config, log logrus.FieldLogger) (*Server, error) {
	def := DefaultConfig()
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = def.PendingTTL
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = def.HistorySize
	}
	tmpl, err := template.New("index.html").Funcs(template.FuncMap{
		"when": func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
	}).ParseFS(templateFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	s := &Server{
		cfg:      cfg,
		turns:    turns,
		log:      log.WithField("component", "web"),
		sessions: memory.NewSessions(cfg.HistorySize, 0),
		pending:  newPendingStore(cfg.PendingTTL),
		tmpl:     tmpl,
		decoder:  decoder,
		router:   http.NewServeMux(),
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /{$}", s.handleIndex)
	s.router.HandleFunc("POST /ask", s.handleAsk)
	s.router.HandleFunc("POST /confirm", s.handleConfirm)
	s.router.HandleFunc("POST /api/query", s.handleAPIQuery)
	s.router.HandleFunc("GET /healthz", s.handleHealth)
}

// Handler returns the router wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.router)
	h = s.loggingMiddleware(h)
	h = s.recoveryMiddleware(h)
	h = s.requestIDMiddleware(h)
	return h
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Addr).Info("starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
