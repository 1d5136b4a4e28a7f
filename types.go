package classpilot

import "encoding/json"

// Role is the speaker role of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// User roles recognized by the catalog and the permission checks. The
// surrounding identity system also produces "faculty" and "instructor",
// which are synonyms of UserRoleTeacher; NormalizeRole folds them together.
const (
	UserRoleStudent = "student"
	UserRoleTeacher = "teacher"
	UserRoleAdmin   = "admin"
)

// NormalizeRole maps role synonyms onto the canonical role names.
// Unrecognized roles are returned unchanged; the catalog treats them as
// the minimal read-only role.
func NormalizeRole(role string) string {
	switch role {
	case "faculty", "instructor":
		return UserRoleTeacher
	default:
		return role
	}
}

// Turn is one entry of a conversation. Tool turns reference the assistant
// tool call that produced them via ToolCallID.
type Turn struct {
	Role       Role   `json:"role"`
	Content    string `json:"content"`
	Name       string `json:"name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`

	// Args carries the argument payload of an assistant tool-call turn,
	// so replays show the model its own prior calls verbatim.
	Args json.RawMessage `json:"args,omitempty"`
}

// ToolCallRequest is a structured tool invocation as emitted by a model.
// Args is the raw argument payload; it is not guaranteed to satisfy the
// tool's required set.
type ToolCallRequest struct {
	CallID string          `json:"call_id"`
	Name   string          `json:"name"`
	Args   json.RawMessage `json:"args,omitempty"`
}

// Usage reports token accounting for a single model call.
type Usage struct {
	Model        string `json:"model,omitempty"`
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
	TotalTokens  int64  `json:"total_tokens"`
}

// Add accumulates another usage record into u.
func (u *Usage) Add(other Usage) {
	if other.Model != "" {
		u.Model = other.Model
	}
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}

// RunStatus describes how an agent run ended.
type RunStatus string

const (
	StatusCompleted     RunStatus = "completed"
	StatusPaused        RunStatus = "paused"
	StatusClarification RunStatus = "clarification"
)

// RunResult is the caller-facing outcome of one agent run.
type RunResult struct {
	Content string          `json:"content"`
	Status  RunStatus       `json:"status"`
	Usage   Usage           `json:"usage"`
	State   *ExecutionState `json:"state,omitempty"`

	// Pending is set when Status is StatusClarification: the suspended
	// tool call the next user message is expected to complete.
	Pending *PendingToolCall `json:"pending,omitempty"`

	// Turns is the full conversation after the run, including the seeded
	// system prompt and every tool exchange. Callers persist or replay it.
	Turns []Turn `json:"turns,omitempty"`

	// ToolsUsed lists the tool names executed during the run, in order.
	ToolsUsed []string `json:"tools_used,omitempty"`
}

// PendingToolCall is a tool call suspended because required arguments were
// missing. It is owned by one conversation session and consumed by
// Loop.Resume on the next user message.
type PendingToolCall struct {
	Name        string          `json:"name"`
	Definition  ToolDefinition  `json:"definition"`
	PartialArgs json.RawMessage `json:"partial_args,omitempty"`
	Missing     []string        `json:"missing"`
	CreatedAt   int64           `json:"created_at"` // unix milliseconds
}
