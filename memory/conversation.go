package memory

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"
)

// Entry is one answered (or failed) query.
type Entry struct {
	TurnID      string    `json:"turn_id,omitempty"`
	Time        time.Time `json:"time"`
	Query       string    `json:"query"`
	Answer      string    `json:"answer,omitempty"`
	Tools       []string  `json:"tools,omitempty"`
	Decision    string    `json:"decision,omitempty"`
	NeedsReview bool      `json:"needs_review,omitempty"`
	Error       string    `json:"error,omitempty"`
}

const DefaultHistorySize = 50

// History is a bounded, newest-first list of entries. Safe for concurrent use.
type History struct {
	mu      sync.Mutex
	max     int
	entries []Entry
}

func NewHistory(max int) *History {
	if max <= 0 {
		max = DefaultHistorySize
	}
	return &History{max: max}
}

// Add puts e at the front, dropping the oldest entry past the cap.
func (h *History) Add(e Entry) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append([]Entry{e}, h.entries...)
	if len(h.entries) > h.max {
		h.entries = h.entries[:h.max]
	}
}

// Entries returns a copy, newest first.
func (h *History) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Entry(nil), h.entries...)
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// LoadTranscript reads entries saved by SaveTranscript. A missing file
// yields nil.
func LoadTranscript(path string) ([]Entry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func SaveTranscript(path string, entries []Entry) error {
	b, err := json.MarshalIndent(entries, "", " ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
