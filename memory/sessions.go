package memory

import "sync"

const DefaultMaxSessions = 1000

// Sessions maps session ids to their History. The least recently used
// session is evicted once more than maxSessions exist.
type Sessions struct {
	mu          sync.Mutex
	historySize int
	maxSessions int
	byID        map[string]*session
	clock       uint64
}

type session struct {
	history  *History
	lastUsed uint64
}

func NewSessions(historySize, maxSessions int) *Sessions {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Sessions{
		historySize: historySize,
		maxSessions: maxSessions,
		byID:        map[string]*session{},
	}
}

// Get returns the history for id, creating it on first use.
func (s *Sessions) Get(id string) *History {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.byID[id]; ok {
		s.clock++
		sess.lastUsed = s.clock
		return sess.history
	}
	if len(s.byID) >= s.maxSessions {
		s.evictOldest()
	}
	s.clock++
	sess := &session{history: NewHistory(s.historySize), lastUsed: s.clock}
	s.byID[id] = sess
	return sess.history
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *Sessions) evictOldest() {
	var oldestID string
	var oldest uint64
	for id, sess := range s.byID {
		if oldestID == "" || sess.lastUsed < oldest {
			oldestID, oldest = id, sess.lastUsed
		}
	}
	delete(s.byID, oldestID)
}
