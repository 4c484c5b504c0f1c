package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/WOTOOOOOO/FAQ-tool/internal/errorsx"
	"github.com/WOTOOOOOO/FAQ-tool/internal/runner"
	"github.com/WOTOOOOOO/FAQ-tool/internal/telemetry"
	"github.com/WOTOOOOOO/FAQ-tool/memory"
)

const sessionCookie = "faq_session"

// SupersededMessage is recorded for a turn that was still awaiting approval
// when the session asked a new question.
const SupersededMessage = "This question was not answered because a new question was asked before it was approved or rejected."

// ExpiredMessage replaces the answer when an approval arrives too late.
const ExpiredMessage = "This approval request has expired or was already answered. Please ask the question again."

type askForm struct {
	Query string `schema:"query"`
}

type confirmForm struct {
	TurnID   string `schema:"turn_id"`
	Decision string `schema:"decision"`
}

type pageData struct {
	Title   string
	History []memory.Entry
	Pending *pendingView
}

type pendingView struct {
	TurnID string
	Query  string
	Calls  []callView
}

type callView struct {
	Name string
	Args string
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sid := s.session(w, r)
	data := pageData{Title: Title, History: s.sessions.Get(sid).Entries()}
	if t := s.pending.peek(sid); t != nil {
		data.Pending = newPendingView(t)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		s.log.WithError(err).Error("render page")
	}
}

func newPendingView(t *runner.Turn) *pendingView {
	v := &pendingView{TurnID: t.ID, Query: t.Query}
	for _, c := range t.Calls {
		v.Calls = append(v.Calls, callView{Name: c.Name, Args: prettyArgs(c.Input)})
	}
	return v
}

func prettyArgs(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(b)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	sid := s.session(w, r)
	var form askForm
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	if err := s.decoder.Decode(&form, r.PostForm); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	query := strings.TrimSpace(form.Query)
	if query == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	ctx := telemetry.WithSessionID(r.Context(), sid)
	history := s.sessions.Get(sid)
	turn, err := s.turns.Plan(ctx, query)
	switch {
	case err != nil:
		s.logFailure(r, err)
		history.Add(memory.Entry{Query: query, Error: errorsx.UserMessage(err)})
	case turn.Action == runner.ActionTools && turn.NeedsConfirmation:
		if old := s.pending.put(sid, turn); old != nil {
			e := entryFromTurn(old)
			e.Error = SupersededMessage
			history.Add(e)
		}
	default:
		history.Add(s.finish(ctx, r, turn, true))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	sid := s.session(w, r)
	var form confirmForm
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	if err := s.decoder.Decode(&form, r.PostForm); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	history := s.sessions.Get(sid)
	turn, ok := s.pending.take(sid, form.TurnID)
	if !ok {
		history.Add(memory.Entry{TurnID: form.TurnID, Error: ExpiredMessage})
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	ctx := telemetry.WithSessionID(r.Context(), sid)
	history.Add(s.finish(ctx, r, turn, form.Decision == "approve"))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// finish executes a planned turn and converts it to a history entry.
func (s *Server) finish(ctx context.Context, r *http.Request, turn *runner.Turn, approved bool) memory.Entry {
	if err := s.turns.Execute(ctx, turn, approved); err != nil {
		s.logFailure(r, err)
		e := entryFromTurn(turn)
		e.Error = errorsx.UserMessage(err)
		return e
	}
	return entryFromTurn(turn)
}

func entryFromTurn(t *runner.Turn) memory.Entry {
	return memory.Entry{
		TurnID:      t.ID,
		Time:        t.Created,
		Query:       t.Query,
		Answer:      t.Answer,
		Tools:       t.ToolNames(),
		Decision:    string(t.Decision),
		NeedsReview: t.NeedsReview,
	}
}

func (s *Server) logFailure(r *http.Request, err error) {
	s.log.WithFields(logrus.Fields{
		"reason":     errorsx.Reason(err),
		"request_id": getRequestID(r.Context()),
	}).WithError(err).Warn("query failed")
}

// QueryRequest is the body of POST /api/query. Approve decides calls that
// need confirmation; omitted means declined.
type QueryRequest struct {
	Query   string `json:"query"`
	Approve *bool  `json:"approve,omitempty"`
}

type QueryResponse struct {
	TurnID      string   `json:"turn_id"`
	Answer      string   `json:"answer"`
	Action      string   `json:"action"`
	Tools       []string `json:"tools"`
	Decision    string   `json:"decision,omitempty"`
	NeedsReview bool     `json:"needs_review"`
}

func (s *Server) handleAPIQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeJSONError(w, http.StatusBadRequest, "query must not be empty")
		return
	}

	turn, err := s.turns.Plan(r.Context(), query)
	if err == nil && turn.Action == runner.ActionTools {
		err = s.turns.Execute(r.Context(), turn, req.Approve != nil && *req.Approve)
	}
	if err != nil {
		s.logFailure(r, err)
		writeJSONError(w, http.StatusBadGateway, errorsx.UserMessage(err))
		return
	}

	writeJSON(w, http.StatusOK, QueryResponse{
		TurnID:      turn.ID,
		Answer:      turn.Answer,
		Action:      string(turn.Action),
		Tools:       turn.ToolNames(),
		Decision:    string(turn.Decision),
		NeedsReview: turn.NeedsReview,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
