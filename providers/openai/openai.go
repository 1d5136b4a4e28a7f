// Package openai adapts the OpenAI Chat Completions API to the
// classpilot Provider interface.
package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/classpilot/classpilot"
	"github.com/classpilot/classpilot/providers/base"
)

// Config configures the OpenAI Chat Completions provider.
type Config struct {
	base.Config
}

// Option is a functional option for this provider.
type Option func(*Config)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithTemperature sets the temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) { c.Temperature = &t }
}

// WithMaxOutputTokens sets the max output tokens.
func WithMaxOutputTokens(n int) Option {
	return func(c *Config) { c.MaxOutputTokens = &n }
}

// WithDebug enables JSONL exchange tracing to the specified file path.
func WithDebug(path string) Option {
	return func(c *Config) { c.TracePath = path }
}

// WithExtraHeader adds a custom header to requests.
func WithExtraHeader(key, value string) Option {
	return func(c *Config) {
		if c.ExtraHeaders == nil {
			c.ExtraHeaders = make(map[string]string)
		}
		c.ExtraHeaders[key] = value
	}
}

// WithExtraBody adds a custom field to the request body.
func WithExtraBody(key string, value any) Option {
	return func(c *Config) {
		if c.ExtraBody == nil {
			c.ExtraBody = make(map[string]any)
		}
		c.ExtraBody[key] = value
	}
}

// New creates a Provider backed by the OpenAI Chat Completions API.
// It reads OPENAI_API_KEY and OPENAI_BASE_URL from environment if not explicitly set.
func New(model string, opts ...Option) classpilot.Provider {
	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.FillFromEnv("OPENAI_API_KEY", "OPENAI_BASE_URL")

	var clientOpts []option.RequestOption
	if cfg.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	for k, v := range cfg.ExtraHeaders {
		clientOpts = append(clientOpts, option.WithHeader(k, v))
	}
	for k, v := range cfg.ExtraBody {
		clientOpts = append(clientOpts, option.WithJSONSet(k, v))
	}
	client := openai.NewClient(clientOpts...)
	return &provider{model: model, cfg: cfg, client: client}
}

type provider struct {
	model  string
	cfg    Config
	client openai.Client
}

// Decide performs one non-streaming completion call. Transport failures
// become an apologetic plain answer, never an error: one unreachable
// backend must not abort a conversation.
func (p *provider) Decide(ctx context.Context, req classpilot.DecideRequest) (classpilot.Decision, error) {
	params := buildParams(req, p.model)
	if p.cfg.Temperature != nil {
		params.Temperature = openai.Float(*p.cfg.Temperature)
	}
	if p.cfg.MaxOutputTokens != nil {
		params.MaxTokens = openai.Int(int64(*p.cfg.MaxOutputTokens))
	}

	trace, err := base.OpenTraceLog(p.cfg.TracePath)
	if err != nil {
		return nil, err
	}
	defer trace.Close()
	ex := base.NewExchange("openai", p.model)
	ex.ForceTool = req.ForceTool
	for _, def := range req.Tools {
		ex.Tools = append(ex.Tools, def.Name)
	}
	ex.Request = params
	defer trace.Record(ex)

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		ex.Error = err.Error()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return classpilot.UnavailableAnswer(p.model), nil
	}
	ex.Response = completion

	d := decide(completion, req.Tools, p.model)
	ex.Decision = fmt.Sprintf("%T", d)
	return d, nil
}

// buildParams converts a DecideRequest into Chat Completions params.
func buildParams(req classpilot.DecideRequest, model string) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{Model: model}

	system := req.EffectiveSystemPrompt(true)
	if system != "" {
		params.Messages = append(params.Messages, openai.SystemMessage(system))
	}

	for _, turn := range req.Turns {
		switch turn.Role {
		case classpilot.RoleUser:
			params.Messages = append(params.Messages, openai.UserMessage(turn.Content))
		case classpilot.RoleAssistant:
			params.Messages = append(params.Messages, convertAssistantTurn(turn))
		case classpilot.RoleTool:
			params.Messages = append(params.Messages, openai.ToolMessage(turn.Content, turn.ToolCallID))
		}
	}

	for _, def := range req.Tools {
		params.Tools = append(params.Tools, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        def.Name,
			Description: openai.String(def.Description),
			Parameters:  shared.FunctionParameters(def.ParameterSchema()),
		}))
	}

	if len(params.Tools) > 0 {
		if req.ForceTool != "" {
			params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
				OfFunctionToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
					Function: openai.ChatCompletionNamedToolChoiceFunctionParam{Name: req.ForceTool},
				},
			}
		} else {
			params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
				OfAuto: openai.String("auto"),
			}
		}
	}

	return params
}

// convertAssistantTurn rebuilds an assistant message, including the tool
// call marker when the turn recorded one.
func convertAssistantTurn(turn classpilot.Turn) openai.ChatCompletionMessageParamUnion {
	msg := openai.ChatCompletionAssistantMessageParam{}
	if turn.Content != "" {
		msg.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openai.String(turn.Content),
		}
	}
	if turn.ToolCallID != "" {
		args := string(turn.Args)
		if args == "" {
			args = "{}"
		}
		msg.ToolCalls = []openai.ChatCompletionMessageToolCallUnionParam{{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: turn.ToolCallID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      turn.Name,
					Arguments: args,
				},
			},
		}}
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &msg}
}

// decide maps a completion to a Decision. Only the first tool call of a
// turn is honored; extra calls are dropped.
func decide(completion *openai.ChatCompletion, tools []classpilot.ToolDefinition, model string) classpilot.Decision {
	usage := classpilot.Usage{
		Model:        model,
		InputTokens:  completion.Usage.PromptTokens,
		OutputTokens: completion.Usage.CompletionTokens,
		TotalTokens:  completion.Usage.TotalTokens,
	}
	if len(completion.Choices) == 0 {
		return classpilot.PlainAnswer{Usage: usage}
	}

	msg := completion.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		tc := msg.ToolCalls[0]
		return classpilot.NormalizeToolCall(tools, tc.Function.Name, tc.ID,
			json.RawMessage(tc.Function.Arguments), usage)
	}
	return classpilot.PlainAnswer{Text: msg.Content, Usage: usage}
}
