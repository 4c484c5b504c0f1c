package tools

import (
	"context"
	"sync"
)

// Review collects reasons a turn's answer should be checked by a human.
type Review struct {
	mu      sync.Mutex
	reasons []string
}

type reviewKey struct{}

// WithReview attaches a fresh Review to ctx.
func WithReview(ctx context.Context) (context.Context, *Review) {
	r := &Review{}
	return context.WithValue(ctx, reviewKey{}, r), r
}

// MarkForReview records reason on the Review in ctx, if any.
func MarkForReview(ctx context.Context, reason string) {
	if r, ok := ctx.Value(reviewKey{}).(*Review); ok && r != nil {
		r.mu.Lock()
		r.reasons = append(r.reasons, reason)
		r.mu.Unlock()
	}
}

// Needed reports whether any reason was recorded.
func (r *Review) Needed() bool {
	if r == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reasons) > 0
}

// Reasons returns a copy of the recorded reasons.
func (r *Review) Reasons() []string {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.reasons...)
}
