package classpilot

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// newCallID labels tool calls the orchestrator itself originates, such as
// a resumed call executed without a fresh model tool-call decision.
func newCallID() string {
	return "call_" + uuid.NewString()
}

// clarifySystemPrompt steers the forced extraction call: the model's only
// job is to pull argument values out of the follow-up message.
const clarifySystemPrompt = "Extract the arguments for the requested function from the conversation. " +
	"Use the user's latest message to fill in any values that were missing earlier. " +
	"Do not invent values the user has not provided."

// Resume continues a run that ended with StatusClarification. The follow-up
// message is sent through a forced extraction call against the single
// pending tool; arguments captured before the suspension win over the fresh
// extraction so the user is never asked for the same value twice.
//
// An expired pending call returns ErrPendingExpired; the caller should
// discard it and treat the message as a fresh request.
func (l *Loop) Resume(ctx context.Context, pending *PendingToolCall, req RunRequest) (*RunResult, error) {
	if pending == nil || pending.Name == "" {
		return nil, ErrNoPendingCall
	}
	age := time.Since(time.UnixMilli(pending.CreatedAt))
	if age > l.cfg.PendingTTL {
		return nil, ErrPendingExpired
	}

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

	decision, err := l.provider.Decide(ctx, DecideRequest{
		SystemPrompt: clarifySystemPrompt,
		Turns:        run.conv[1:],
		Tools:        []ToolDefinition{pending.Definition},
		ForceTool:    pending.Name,
	})
	if err != nil {
		return nil, err
	}
	run.usage.Add(decision.DecisionUsage())
	run.steps++

	extracted := extractedArgs(decision)
	merged, err := mergeArgs(extracted, pending.PartialArgs)
	if err != nil {
		merged = pending.PartialArgs
	}

	missing := missingFromRaw(pending.Definition, merged)
	if len(missing) > 0 {
		// Still short: ask again, carrying forward what we have bound.
		return l.suspend(run, ToolCallIncomplete{
			Name:        pending.Name,
			PartialArgs: merged,
			Missing:     missing,
			Question:    ClarificationQuestion(pending.Definition, missing),
		}), nil
	}

	l.executeCall(ctx, run, ToolCallRequested{
		CallID: newCallID(),
		Name:   pending.Name,
		Args:   merged,
	})
	return l.iterate(ctx, run)
}

// extractedArgs pulls raw arguments from whatever decision the extraction
// call returned. A plain answer yields nothing; the prior bindings then
// decide whether the call can proceed.
func extractedArgs(d Decision) []byte {
	switch v := d.(type) {
	case ToolCallRequested:
		return v.Args
	case ToolCallIncomplete:
		return v.PartialArgs
	default:
		return []byte(`{}`)
	}
}

// mergeArgs overlays prior bindings on top of base. Prior values win.
func mergeArgs(base, prior []byte) ([]byte, error) {
	if len(base) == 0 || !gjson.ValidBytes(base) {
		base = []byte(`{}`)
	}
	if len(prior) == 0 || !gjson.ValidBytes(prior) {
		return base, nil
	}
	out := base
	var err error
	gjson.ParseBytes(prior).ForEach(func(key, value gjson.Result) bool {
		out, err = sjson.SetRawBytes(out, key.String(), []byte(value.Raw))
		return err == nil
	})
	return out, err
}

// missingFromRaw reports required parameters absent from raw JSON args,
// in declaration order.
func missingFromRaw(def ToolDefinition, raw []byte) []string {
	parsed := gjson.ParseBytes(raw)
	var missing []string
	for _, name := range def.Required {
		v := parsed.Get(name)
		if !v.Exists() || v.Type == gjson.Null {
			missing = append(missing, name)
		}
	}
	return missing
}
