package runner

import (
	"context"

	"github.com/WOTOOOOOO/FAQ-tool/internal/provider"
)

// Approver decides whether pending tool calls may run.
type Approver interface {
	Approve(ctx context.Context, calls []provider.ToolCall) (bool, error)
}

// ApproverFunc adapts a function to Approver.
type ApproverFunc func(ctx context.Context, calls []provider.ToolCall) (bool, error)

func (f ApproverFunc) Approve(ctx context.Context, calls []provider.ToolCall) (bool, error) {
	return f(ctx, calls)
}

type AutoApprove struct{}

func (AutoApprove) Approve(context.Context, []provider.ToolCall) (bool, error) { return true, nil }

type DenyAll struct{}

func (DenyAll) Approve(context.Context, []provider.ToolCall) (bool, error) { return false, nil }
