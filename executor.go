package classpilot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Invocation carries everything a tool handler needs for one call.
type Invocation struct {
	// Role is the caller's normalized role; UserID identifies the caller
	// in the LMS (zero when acting as the service account).
	Role   string
	UserID int64

	Args json.RawMessage

	// State is the run's accumulated execution state. Handlers may read
	// it to resolve ids created earlier in the same run.
	State *ExecutionState
}

// Handler executes one tool call and returns the success payload as JSON.
// Errors are converted to error envelopes by the executor; they never
// propagate to the agent loop.
type Handler func(ctx context.Context, inv Invocation) (json.RawMessage, error)

// Envelope is the uniform tool result shape fed back into the
// conversation: success with a payload, or failure with a message.
type Envelope struct {
	OK    bool            `json:"success"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// JSON serializes the envelope for a tool turn. Serialization of this
// shape cannot fail.
func (e Envelope) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

func errorEnvelope(format string, args ...any) Envelope {
	return Envelope{OK: false, Error: fmt.Sprintf(format, args...)}
}

type registeredTool struct {
	handler Handler
	// roles is the set of roles allowed to execute the tool; nil means
	// unrestricted. This is the authoritative check: the pre-model gate
	// is only a filter.
	roles map[string]struct{}
}

// Executor dispatches tool calls to registered handlers. A failed or
// unknown call is an error envelope, never a Go error, because one failed
// step must not abort an in-progress multi-step plan.
type Executor struct {
	mu    sync.RWMutex
	tools map[string]registeredTool
}

func NewExecutor() *Executor {
	return &Executor{tools: make(map[string]registeredTool)}
}

// Register installs a handler callable by any role.
func (e *Executor) Register(name string, h Handler) {
	e.register(name, h, nil)
}

// RegisterRestricted installs a handler only the listed roles may execute.
// Role synonyms are normalized at registration and at call time.
func (e *Executor) RegisterRestricted(name string, h Handler, roles ...string) {
	set := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		set[NormalizeRole(r)] = struct{}{}
	}
	e.register(name, h, set)
}

func (e *Executor) register(name string, h Handler, roles map[string]struct{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tools[name] = registeredTool{handler: h, roles: roles}
}

// Execute runs the named tool. Side effects are real and at-most-once per
// call; idempotence across model retries is the plan's responsibility,
// mitigated by exposing ExecutionState to the model.
func (e *Executor) Execute(ctx context.Context, name string, inv Invocation) Envelope {
	if name == "" {
		return errorEnvelope("unknown function: (empty name)")
	}

	e.mu.RLock()
	tool, ok := e.tools[name]
	e.mu.RUnlock()
	if !ok || tool.handler == nil {
		return errorEnvelope("unknown function: %s", name)
	}

	if tool.roles != nil {
		if _, allowed := tool.roles[NormalizeRole(inv.Role)]; !allowed {
			return errorEnvelope("permission denied: role %q may not call %s", inv.Role, name)
		}
	}

	return e.run(ctx, name, tool.handler, inv)
}

func (e *Executor) run(ctx context.Context, name string, h Handler, inv Invocation) (env Envelope) {
	// A panicking handler must not take down the loop.
	defer func() {
		if r := recover(); r != nil {
			env = errorEnvelope("%s failed: %v", name, r)
		}
	}()

	data, err := h(ctx, inv)
	if err != nil {
		return Envelope{OK: false, Error: err.Error()}
	}
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}
	return Envelope{OK: true, Data: data}
}
