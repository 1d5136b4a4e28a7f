package classpilot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// DecideRequest is the provider-agnostic input for one model decision.
type DecideRequest struct {
	SystemPrompt string
	Turns        []Turn
	Tools        []ToolDefinition

	// ForceTool, when set, asks the backend to invoke exactly this tool.
	// Backends without native forced selection degrade to a strong
	// preference hint in the system prompt; callers must not assume
	// forcing is guaranteed.
	ForceTool string
}

// EffectiveSystemPrompt returns the system prompt with the force-tool hint
// appended for backends that cannot coerce tool selection natively.
func (r DecideRequest) EffectiveSystemPrompt(nativeForce bool) string {
	if r.ForceTool == "" || nativeForce {
		return r.SystemPrompt
	}
	hint := fmt.Sprintf("You must respond by calling the %s function. Do not answer in plain text.", r.ForceTool)
	if r.SystemPrompt == "" {
		return hint
	}
	return r.SystemPrompt + "\n\n" + hint
}

// Provider is the uniform interface over interchangeable model backends.
// Backend transport and auth failures do not surface as errors: adapters
// convert them into an apologetic PlainAnswer with zeroed usage and never
// retry. The error return is reserved for caller mistakes and context
// cancellation.
type Provider interface {
	Decide(ctx context.Context, req DecideRequest) (Decision, error)
}

// UnavailableAnswer is the PlainAnswer adapters return when the backend
// call fails. The text is deliberately generic; the cause is logged by the
// adapter, not shown to the user.
func UnavailableAnswer(model string) PlainAnswer {
	return PlainAnswer{
		Text:  "I'm having trouble reaching the language model right now. Please try again in a moment.",
		Usage: Usage{Model: model},
	}
}

// NormalizeToolCall converts a backend's structured tool invocation into a
// Decision, applying the checks every adapter must share:
//
//   - the tool must exist in the offered subset (fail closed otherwise);
//   - the argument payload must parse as a JSON object (a parse failure is
//     a PlainAnswer explaining the failure, never a crash);
//   - every required parameter must be present, else ToolCallIncomplete
//     listing exactly the missing fields.
//
// When a backend returns several tool calls in one turn, adapters pass only
// the first one here; the loop processes calls one at a time.
func NormalizeToolCall(tools []ToolDefinition, name, callID string, rawArgs json.RawMessage, usage Usage) Decision {
	def, ok := findDefinition(tools, name)
	if !ok {
		return PlainAnswer{
			Text:  fmt.Sprintf("The model requested an unknown function %q, so I could not proceed. Please rephrase your request.", name),
			Usage: usage,
		}
	}

	args := map[string]json.RawMessage{}
	if len(rawArgs) > 0 {
		if err := json.Unmarshal(rawArgs, &args); err != nil {
			return PlainAnswer{
				Text:  fmt.Sprintf("I could not parse the arguments for %s (%v). Please rephrase your request.", name, err),
				Usage: usage,
			}
		}
	}

	missing := MissingRequired(def, args)
	if len(missing) > 0 {
		partial := rawArgs
		if len(args) == 0 {
			partial = nil
		}
		return ToolCallIncomplete{
			Name:        name,
			PartialArgs: partial,
			Missing:     missing,
			Question:    ClarificationQuestion(def, missing),
			Usage:       usage,
		}
	}

	if len(rawArgs) == 0 {
		rawArgs = json.RawMessage(`{}`)
	}
	return ToolCallRequested{CallID: callID, Name: name, Args: rawArgs, Usage: usage}
}

// MissingRequired returns the required parameters of def that are absent or
// JSON null in args, in the definition's declared order.
func MissingRequired(def ToolDefinition, args map[string]json.RawMessage) []string {
	var missing []string
	for _, name := range def.Required {
		raw, ok := args[name]
		if !ok || isJSONNull(raw) {
			missing = append(missing, name)
		}
	}
	return missing
}

// ClarificationQuestion builds the one-line follow-up asking for exactly
// the missing fields. Values are never guessed.
func ClarificationQuestion(def ToolDefinition, missing []string) string {
	parts := make([]string, 0, len(missing))
	for _, name := range missing {
		if p, ok := def.Parameters[name]; ok && p.Description != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", name, p.Description))
			continue
		}
		parts = append(parts, name)
	}
	action := strings.ReplaceAll(def.Name, "_", " ")
	return fmt.Sprintf("To %s I still need: %s. Could you provide that?", action, strings.Join(parts, ", "))
}

func isJSONNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
