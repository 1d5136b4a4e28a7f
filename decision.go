package classpilot

import "encoding/json"

// Decision is the normalized outcome of one model call. Exactly one of the
// concrete types below is returned by a Provider:
//
//   - PlainAnswer: the model produced user-facing text (or the backend
//     failed and the adapter substituted an apology).
//   - ToolCallRequested: the model requested a tool call whose arguments
//     satisfy the tool's required set.
//   - ToolCallIncomplete: the model requested a tool call but required
//     arguments are missing; Question asks the user for exactly those.
type Decision interface {
	decisionKind() string
	// DecisionUsage returns the token accounting for the call that
	// produced this decision. Always non-nil semantics: adapters
	// zero-fill when a backend omits usage.
	DecisionUsage() Usage
}

// PlainAnswer is a final natural-language response.
type PlainAnswer struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}

func (PlainAnswer) decisionKind() string  { return "plain_answer" }
func (d PlainAnswer) DecisionUsage() Usage { return d.Usage }

// ToolCallRequested is a proceedable tool invocation.
type ToolCallRequested struct {
	CallID string          `json:"call_id"`
	Name   string          `json:"name"`
	Args   json.RawMessage `json:"args"`
	Usage  Usage           `json:"usage"`
}

func (ToolCallRequested) decisionKind() string  { return "tool_call" }
func (d ToolCallRequested) DecisionUsage() Usage { return d.Usage }

// ToolCallIncomplete is a tool invocation missing required arguments.
type ToolCallIncomplete struct {
	Name        string          `json:"name"`
	PartialArgs json.RawMessage `json:"partial_args,omitempty"`
	Missing     []string        `json:"missing"`
	Question    string          `json:"question"`
	Usage       Usage           `json:"usage"`
}

func (ToolCallIncomplete) decisionKind() string  { return "tool_call_incomplete" }
func (d ToolCallIncomplete) DecisionUsage() Usage { return d.Usage }
