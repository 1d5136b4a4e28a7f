package classpilot

import (
	"context"
	"time"
)

// loopState tracks where one Run is inside its iteration cycle. States are
// internal; callers only observe the terminal RunStatus.
type loopState string

const (
	stateRunning       loopState = "running"
	stateAwaitingModel loopState = "awaiting_model"
	stateExecutingTool loopState = "executing_tool"
	stateCompleted     loopState = "completed"
	statePaused        loopState = "paused"
)

const (
	// DefaultMaxSteps bounds the total model calls per run; the loop must
	// terminate even if the model never produces a plain answer.
	DefaultMaxSteps = 20
	// DefaultIdleLimit bounds consecutive decisions carrying neither a
	// tool call nor final text.
	DefaultIdleLimit = 3
	// DefaultPendingTTL expires suspended clarification state so a stale
	// schema can never be resumed much later.
	DefaultPendingTTL = 10 * time.Minute
)

// pausedMessage is returned to the user when a budget runs out. Running
// out of budget is not a failure: the caller may re-invoke to continue.
const pausedMessage = "Partial progress made. Would you like to continue?"

// LoopConfig bounds a run.
type LoopConfig struct {
	MaxSteps   int
	IdleLimit  int
	PendingTTL time.Duration
}

func (c *LoopConfig) applyDefaults() {
	if c.MaxSteps <= 0 {
		c.MaxSteps = DefaultMaxSteps
	}
	if c.IdleLimit <= 0 {
		c.IdleLimit = DefaultIdleLimit
	}
	if c.PendingTTL <= 0 {
		c.PendingTTL = DefaultPendingTTL
	}
}

// RunRequest is the input to Loop.Run.
type RunRequest struct {
	SystemPrompt string
	History      []Turn
	Message      string

	// Role and UserID describe the caller; the role selects the visible
	// tool subset and is re-checked by the executor on every call.
	Role   string
	UserID int64

	// State carries execution state forward from an earlier run of the
	// same session. Nil starts fresh.
	State *ExecutionState
}

// Loop is the orchestration state machine: it drives a bounded multi-step
// conversation with a Provider, executes requested tool calls, threads the
// results back, and decides when to stop.
type Loop struct {
	provider Provider
	executor *Executor
	catalog  *Catalog
	cfg      LoopConfig
}

func NewLoop(provider Provider, executor *Executor, catalog *Catalog, cfg LoopConfig) (*Loop, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}
	cfg.applyDefaults()
	return &Loop{provider: provider, executor: executor, catalog: catalog, cfg: cfg}, nil
}

// Run processes one user message to a terminal status. All model and tool
// failures are converted to conversation content or a structured status;
// the only error returns are context cancellation and misconfiguration.
func (l *Loop) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	conv := make([]Turn, 0, len(req.History)+2)
	conv = append(conv, Turn{Role: RoleSystem, Content: req.SystemPrompt})
	conv = append(conv, req.History...)
	conv = append(conv, Turn{Role: RoleUser, Content: req.Message})

	state := req.State
	if state == nil {
		state = NewExecutionState()
	}

	run := &runContext{
		req:   req,
		tools: l.catalog.DefinitionsFor(req.Role),
		conv:  conv,
		state: state,
	}
	return l.iterate(ctx, run)
}

// runContext is the mutable state of one Run/Resume invocation.
type runContext struct {
	req       RunRequest
	tools     []ToolDefinition
	conv      []Turn
	state     *ExecutionState
	usage     Usage
	toolsUsed []string
	steps     int
}

func (l *Loop) iterate(ctx context.Context, run *runContext) (*RunResult, error) {
	current := stateRunning
	idle := 0

	for ; run.steps < l.cfg.MaxSteps; run.steps++ {
		// Cancellation is honored at the iteration boundary, before the
		// next model call.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		current = stateAwaitingModel
		decision, err := l.provider.Decide(ctx, DecideRequest{
			SystemPrompt: run.req.SystemPrompt,
			Turns:        run.conv[1:],
			Tools:        run.tools,
		})
		if err != nil {
			return nil, err
		}
		run.usage.Add(decision.DecisionUsage())

		switch d := decision.(type) {
		case PlainAnswer:
			if d.Text == "" {
				idle++
				if idle >= l.cfg.IdleLimit {
					current = statePaused
					return l.finish(run, statePaused, pausedMessage), nil
				}
				continue
			}
			current = stateCompleted
			return l.finish(run, current, d.Text), nil

		case ToolCallRequested:
			idle = 0
			current = stateExecutingTool
			l.executeCall(ctx, run, d)
			current = stateRunning

		case ToolCallIncomplete:
			// The loop never auto-retries an incomplete call: control
			// returns to the caller carrying the suspended state so the
			// next user message can complete it.
			return l.suspend(run, d), nil

		default:
			idle++
			if idle >= l.cfg.IdleLimit {
				return l.finish(run, statePaused, pausedMessage), nil
			}
		}
	}

	return l.finish(run, statePaused, pausedMessage), nil
}

// executeCall runs one tool call and appends the assistant/tool turn pair.
// Failures come back as error envelopes inside the tool turn, letting the
// model retry with corrected arguments or explain the failure.
func (l *Loop) executeCall(ctx context.Context, run *runContext, call ToolCallRequested) {
	run.conv = append(run.conv, Turn{
		Role:       RoleAssistant,
		Name:       call.Name,
		ToolCallID: call.CallID,
		Args:       call.Args,
	})

	env := l.executor.Execute(ctx, call.Name, Invocation{
		Role:   run.req.Role,
		UserID: run.req.UserID,
		Args:   call.Args,
		State:  run.state,
	})
	if env.OK {
		run.state.Merge(env.Data)
	}
	run.toolsUsed = append(run.toolsUsed, call.Name)

	run.conv = append(run.conv, Turn{
		Role:       RoleTool,
		Name:       call.Name,
		ToolCallID: call.CallID,
		Content:    env.JSON(),
	})
}

func (l *Loop) finish(run *runContext, final loopState, content string) *RunResult {
	status := StatusCompleted
	if final == statePaused {
		status = StatusPaused
	}
	turns := append(run.conv, Turn{Role: RoleAssistant, Content: content})
	return &RunResult{
		Content:   content,
		Status:    status,
		Usage:     run.usage,
		State:     run.state,
		Turns:     turns,
		ToolsUsed: run.toolsUsed,
	}
}

func (l *Loop) suspend(run *runContext, d ToolCallIncomplete) *RunResult {
	def, _ := findDefinition(run.tools, d.Name)
	pending := &PendingToolCall{
		Name:        d.Name,
		Definition:  def,
		PartialArgs: d.PartialArgs,
		Missing:     d.Missing,
		CreatedAt:   time.Now().UnixMilli(),
	}
	turns := append(run.conv, Turn{Role: RoleAssistant, Content: d.Question})
	return &RunResult{
		Content:   d.Question,
		Status:    StatusClarification,
		Usage:     run.usage,
		State:     run.state,
		Pending:   pending,
		Turns:     turns,
		ToolsUsed: run.toolsUsed,
	}
}
