package web

import (
	"sync"
	"time"

	"github.com/WOTOOOOOO/FAQ-tool/internal/runner"
)

// pendingStore holds at most one turn awaiting approval per session.
type pendingStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	turns map[string]pendingTurn
}

type pendingTurn struct {
	turn    *runner.Turn
	expires time.Time
}

func newPendingStore(ttl time.Duration) *pendingStore {
	return &pendingStore{ttl: ttl, now: time.Now, turns: map[string]pendingTurn{}}
}

// put replaces any earlier pending turn of the session and returns the
// replaced turn if it was still live.
func (p *pendingStore) put(session string, t *runner.Turn) *runner.Turn {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sweep()
	var old *runner.Turn
	if pt, ok := p.turns[session]; ok {
		old = pt.turn
	}
	p.turns[session] = pendingTurn{turn: t, expires: p.now().Add(p.ttl)}
	return old
}

// peek returns the session's live pending turn without removing it.
func (p *pendingStore) peek(session string) *runner.Turn {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sweep()
	if pt, ok := p.turns[session]; ok {
		return pt.turn
	}
	return nil
}

// take removes and returns the pending turn with id, if it is still live.
func (p *pendingStore) take(session, id string) (*runner.Turn, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sweep()
	pt, ok := p.turns[session]
	if !ok || pt.turn.ID != id {
		return nil, false
	}
	delete(p.turns, session)
	return pt.turn, true
}

func (p *pendingStore) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.turns)
}

func (p *pendingStore) sweep() {
	now := p.now()
	for k, pt := range p.turns {
		if now.After(pt.expires) {
			delete(p.turns, k)
		}
	}
}
