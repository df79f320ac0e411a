// Package ai is the single-step-only generation layer the Generation
// Workflow calls into. It has no tool-calling loop and no multi-step agent
// machinery -- every phase in internal/workflow makes exactly one LM call
// per invocation of GenerateText/GenerateObject.
package ai

import (
	"context"
	"time"
)

// TimeoutConfig composes layered timeouts: a total budget for the task and
// a per-call budget for an individual LM request.
type TimeoutConfig struct {
	Total   *time.Duration
	PerCall *time.Duration
}

// CreateTimeoutContext derives ctx bounded by whichever of Total/PerCall is
// tighter for the remaining budget. Total is tracked by the caller passing
// an already-deadlined ctx in; PerCall is applied here unconditionally.
func (tc *TimeoutConfig) CreateTimeoutContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if tc == nil || tc.PerCall == nil {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, *tc.PerCall)
}
