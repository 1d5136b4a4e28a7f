package classpilot_test

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/classpilot/classpilot"
	"github.com/classpilot/classpilot/internal/testutil"
)

func loopCatalog(t *testing.T) *classpilot.Catalog {
	t.Helper()
	defs := []classpilot.ToolDefinition{
		{Name: "list_user_courses", Description: "List the caller's courses"},
		{Name: "create_course", Description: "Create a course", Parameters: map[string]classpilot.Property{
			"name":        {Type: "string", Description: "Course name"},
			"course_code": {Type: "string", Description: "Course code"},
		}, Required: []string{"name", "course_code"}},
	}
	roles := map[string][]string{
		classpilot.UserRoleStudent: {"list_user_courses"},
		classpilot.UserRoleTeacher: {"list_user_courses", "create_course"},
		classpilot.UserRoleAdmin:   {"list_user_courses", "create_course"},
	}
	c, err := classpilot.NewCatalog(defs, roles)
	require.NoError(t, err)
	return c
}

func newLoop(t *testing.T, p classpilot.Provider, e *classpilot.Executor, cfg classpilot.LoopConfig) *classpilot.Loop {
	t.Helper()
	l, err := classpilot.NewLoop(p, e, loopCatalog(t), cfg)
	require.NoError(t, err)
	return l
}

func TestLoopPlainAnswerCompletes(t *testing.T) {
	p := testutil.NewScriptedProvider(
		classpilot.PlainAnswer{Text: "You have 2 courses.", Usage: classpilot.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
	)
	l := newLoop(t, p, classpilot.NewExecutor(), classpilot.LoopConfig{})

	res, err := l.Run(context.Background(), classpilot.RunRequest{
		SystemPrompt: "You are a helpful assistant.",
		Message:      "what courses do I have?",
		Role:         classpilot.UserRoleStudent,
	})
	require.NoError(t, err)
	assert.Equal(t, classpilot.StatusCompleted, res.Status)
	assert.Equal(t, "You have 2 courses.", res.Content)
	assert.Equal(t, int64(15), res.Usage.TotalTokens)
	assert.Equal(t, 1, p.Calls())

	// The model sees the role-filtered tool subset and clean turns.
	req := p.Request(0)
	assert.Equal(t, "You are a helpful assistant.", req.SystemPrompt)
	require.Len(t, req.Tools, 1)
	assert.Equal(t, "list_user_courses", req.Tools[0].Name)
	last := req.Turns[len(req.Turns)-1]
	assert.Equal(t, classpilot.RoleUser, last.Role)
	assert.Equal(t, "what courses do I have?", last.Content)
}

func TestLoopExecutesToolThenAnswers(t *testing.T) {
	p := testutil.NewScriptedProvider(
		classpilot.ToolCallRequested{
			CallID: "call_1",
			Name:   "create_course",
			Args:   json.RawMessage(`{"name":"Biology 101","course_code":"BIO101"}`),
			Usage:  classpilot.Usage{TotalTokens: 20},
		},
		classpilot.PlainAnswer{Text: "Created Biology 101.", Usage: classpilot.Usage{TotalTokens: 8}},
	)
	e := classpilot.NewExecutor()
	e.Register("create_course", func(ctx context.Context, inv classpilot.Invocation) (json.RawMessage, error) {
		return json.RawMessage(`{"id": 7, "name": "Biology 101", "course_code": "BIO101", "workflow_state": "unpublished"}`), nil
	})
	l := newLoop(t, p, e, classpilot.LoopConfig{})

	res, err := l.Run(context.Background(), classpilot.RunRequest{
		Message: "create a course Biology 101 with code BIO101",
		Role:    classpilot.UserRoleTeacher,
	})
	require.NoError(t, err)
	assert.Equal(t, classpilot.StatusCompleted, res.Status)
	assert.Equal(t, []string{"create_course"}, res.ToolsUsed)
	assert.Equal(t, int64(28), res.Usage.TotalTokens)
	assert.Equal(t, int64(7), res.State.CourseID, "state mined from the tool result")

	// Second model call sees the tool exchange threaded into the turns.
	second := p.Request(1)
	n := len(second.Turns)
	require.GreaterOrEqual(t, n, 3)
	toolTurn := second.Turns[n-1]
	assert.Equal(t, classpilot.RoleTool, toolTurn.Role)
	assert.Equal(t, "call_1", toolTurn.ToolCallID)
	assert.Contains(t, toolTurn.Content, `"success":true`)
	callTurn := second.Turns[n-2]
	assert.Equal(t, classpilot.RoleAssistant, callTurn.Role)
	assert.Equal(t, "create_course", callTurn.Name)
	assert.JSONEq(t, `{"name":"Biology 101","course_code":"BIO101"}`, string(callTurn.Args),
		"the replayed call keeps the arguments the model sent")
}

func TestLoopToolFailureFedBackNotFatal(t *testing.T) {
	p := testutil.NewScriptedProvider(
		classpilot.ToolCallRequested{CallID: "call_1", Name: "list_user_courses", Args: json.RawMessage(`{}`)},
		classpilot.PlainAnswer{Text: "I couldn't reach the LMS just now."},
	)
	e := classpilot.NewExecutor()
	e.Register("list_user_courses", func(ctx context.Context, inv classpilot.Invocation) (json.RawMessage, error) {
		return nil, context.DeadlineExceeded
	})
	l := newLoop(t, p, e, classpilot.LoopConfig{})

	res, err := l.Run(context.Background(), classpilot.RunRequest{Message: "my courses", Role: classpilot.UserRoleStudent})
	require.NoError(t, err)
	assert.Equal(t, classpilot.StatusCompleted, res.Status)

	toolTurn := p.Request(1).Turns[len(p.Request(1).Turns)-1]
	assert.Contains(t, toolTurn.Content, `"success":false`)
}

func TestLoopUnknownToolBoundedByStepBudget(t *testing.T) {
	var calls atomic.Int64
	p := testutil.ProviderFunc(func(ctx context.Context, req classpilot.DecideRequest) (classpilot.Decision, error) {
		calls.Add(1)
		return classpilot.ToolCallRequested{CallID: "call_x", Name: "phantom_tool", Args: json.RawMessage(`{}`)}, nil
	})
	l := newLoop(t, p, classpilot.NewExecutor(), classpilot.LoopConfig{MaxSteps: 5})

	res, err := l.Run(context.Background(), classpilot.RunRequest{Message: "loop forever", Role: classpilot.UserRoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, classpilot.StatusPaused, res.Status)
	assert.Equal(t, "Partial progress made. Would you like to continue?", res.Content)
	assert.Equal(t, int64(5), calls.Load(), "exactly one model call per step")
}

func TestLoopIdleBudgetPauses(t *testing.T) {
	p := testutil.NewScriptedProvider(
		classpilot.PlainAnswer{},
		classpilot.PlainAnswer{},
		classpilot.PlainAnswer{},
	)
	l := newLoop(t, p, classpilot.NewExecutor(), classpilot.LoopConfig{})

	res, err := l.Run(context.Background(), classpilot.RunRequest{Message: "hm", Role: classpilot.UserRoleStudent})
	require.NoError(t, err)
	assert.Equal(t, classpilot.StatusPaused, res.Status)
	assert.Equal(t, 3, p.Calls())
}

func TestLoopIncompleteCallSuspends(t *testing.T) {
	p := testutil.NewScriptedProvider(
		classpilot.ToolCallIncomplete{
			Name:        "create_course",
			PartialArgs: json.RawMessage(`{"name":"Biology 101"}`),
			Missing:     []string{"course_code"},
			Question:    "To create course I still need: course_code (Course code). Could you provide that?",
		},
	)
	l := newLoop(t, p, classpilot.NewExecutor(), classpilot.LoopConfig{})

	res, err := l.Run(context.Background(), classpilot.RunRequest{Message: "create a course Biology 101", Role: classpilot.UserRoleTeacher})
	require.NoError(t, err)
	assert.Equal(t, classpilot.StatusClarification, res.Status)
	require.NotNil(t, res.Pending)
	assert.Equal(t, "create_course", res.Pending.Name)
	assert.Equal(t, []string{"course_code"}, res.Pending.Missing)
	assert.Equal(t, "create_course", res.Pending.Definition.Name, "definition captured for resume")
	assert.Contains(t, res.Content, "course_code")
	assert.Equal(t, 1, p.Calls(), "no retry after an incomplete call")
}

func TestLoopContextCancellation(t *testing.T) {
	p := testutil.NewScriptedProvider(classpilot.PlainAnswer{Text: "never reached"})
	l := newLoop(t, p, classpilot.NewExecutor(), classpilot.LoopConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Run(ctx, classpilot.RunRequest{Message: "hi", Role: classpilot.UserRoleStudent})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, p.Calls())
}

func TestLoopReplayDoesNotReExecuteTools(t *testing.T) {
	var executed atomic.Int64
	e := classpilot.NewExecutor()
	e.Register("list_user_courses", func(ctx context.Context, inv classpilot.Invocation) (json.RawMessage, error) {
		executed.Add(1)
		return json.RawMessage(`{"total_courses":1}`), nil
	})
	p := testutil.NewScriptedProvider(classpilot.PlainAnswer{Text: "As I said, you have 1 course."})
	l := newLoop(t, p, e, classpilot.LoopConfig{})

	history := []classpilot.Turn{
		{Role: classpilot.RoleUser, Content: "my courses"},
		{Role: classpilot.RoleAssistant, Name: "list_user_courses", ToolCallID: "call_1"},
		{Role: classpilot.RoleTool, Name: "list_user_courses", ToolCallID: "call_1", Content: `{"success":true,"data":{"total_courses":1}}`},
		{Role: classpilot.RoleAssistant, Content: "You have 1 course."},
	}
	res, err := l.Run(context.Background(), classpilot.RunRequest{
		History: history,
		Message: "what did you say?",
		Role:    classpilot.UserRoleStudent,
	})
	require.NoError(t, err)
	assert.Equal(t, classpilot.StatusCompleted, res.Status)
	assert.Zero(t, executed.Load(), "prior tool turns are replayed as text, never re-executed")
}

func TestNewLoopRequiresProvider(t *testing.T) {
	_, err := classpilot.NewLoop(nil, classpilot.NewExecutor(), loopCatalog(t), classpilot.LoopConfig{})
	require.ErrorIs(t, err, classpilot.ErrNoProvider)
}
