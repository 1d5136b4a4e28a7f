// Package testutil provides deterministic Provider fakes for tests.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/classpilot/classpilot"
)

// ErrScriptExhausted is returned when a ScriptedProvider receives more
// Decide calls than it has scripted decisions.
var ErrScriptExhausted = errors.New("testutil: script exhausted")

// ScriptedProvider replays a fixed sequence of decisions and records every
// request it receives, so tests can assert both how the loop reacted and
// exactly what it sent to the model.
type ScriptedProvider struct {
	mu        sync.Mutex
	decisions []classpilot.Decision
	requests  []classpilot.DecideRequest
}

func NewScriptedProvider(decisions ...classpilot.Decision) *ScriptedProvider {
	return &ScriptedProvider{decisions: decisions}
}

func (p *ScriptedProvider) Decide(_ context.Context, req classpilot.DecideRequest) (classpilot.Decision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if len(p.requests) > len(p.decisions) {
		return nil, ErrScriptExhausted
	}
	return p.decisions[len(p.requests)-1], nil
}

// Calls reports how many Decide calls have been made.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// Request returns the i-th recorded request.
func (p *ScriptedProvider) Request(i int) classpilot.DecideRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[i]
}

// ProviderFunc adapts a function to the Provider interface, for tests that
// need per-call logic such as an endless stream of tool calls.
type ProviderFunc func(ctx context.Context, req classpilot.DecideRequest) (classpilot.Decision, error)

func (f ProviderFunc) Decide(ctx context.Context, req classpilot.DecideRequest) (classpilot.Decision, error) {
	return f(ctx, req)
}
