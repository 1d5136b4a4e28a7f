// Package anthropic adapts the Anthropic Messages API to the classpilot
// Provider interface.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/classpilot/classpilot"
	"github.com/classpilot/classpilot/providers/base"
)

const defaultMaxOutputTokens = 4096

// Config configures the Anthropic Messages provider.
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

// New creates a Provider using the Anthropic Messages API.
// The SDK reads ANTHROPIC_API_KEY from environment if not explicitly set.
func New(model string, opts ...Option) classpilot.Provider {
	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var clientOpts []option.RequestOption
	if cfg.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(clientOpts...)
	return &provider{model: model, cfg: cfg, client: client}
}

type provider struct {
	model  string
	cfg    Config
	client anthropic.Client
}

func (p *provider) Decide(ctx context.Context, req classpilot.DecideRequest) (classpilot.Decision, error) {
	params := buildParams(req, p.model)
	if p.cfg.Temperature != nil {
		params.Temperature = anthropic.Float(*p.cfg.Temperature)
	}
	if p.cfg.MaxOutputTokens != nil {
		params.MaxTokens = int64(*p.cfg.MaxOutputTokens)
	}

	trace, err := base.OpenTraceLog(p.cfg.TracePath)
	if err != nil {
		return nil, err
	}
	defer trace.Close()
	ex := base.NewExchange("anthropic", p.model)
	ex.ForceTool = req.ForceTool
	for _, def := range req.Tools {
		ex.Tools = append(ex.Tools, def.Name)
	}
	ex.Request = params
	defer trace.Record(ex)

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		ex.Error = err.Error()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return classpilot.UnavailableAnswer(p.model), nil
	}
	ex.Response = message

	d := decide(message, req.Tools, p.model)
	ex.Decision = fmt.Sprintf("%T", d)
	return d, nil
}

func buildParams(req classpilot.DecideRequest, model string) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: defaultMaxOutputTokens,
	}

	system := req.EffectiveSystemPrompt(true)
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	for _, turn := range req.Turns {
		switch turn.Role {
		case classpilot.RoleUser:
			params.Messages = append(params.Messages,
				anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		case classpilot.RoleAssistant:
			params.Messages = append(params.Messages, convertAssistantTurn(turn))
		case classpilot.RoleTool:
			// Tool results travel as user-role tool_result blocks.
			params.Messages = append(params.Messages,
				anthropic.NewUserMessage(anthropic.NewToolResultBlock(turn.ToolCallID, turn.Content, false)))
		}
	}

	for _, def := range req.Tools {
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        def.Name,
				Description: anthropic.String(def.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: def.ParameterSchema()["properties"],
					Required:   def.Required,
				},
			},
		})
	}

	if req.ForceTool != "" {
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: req.ForceTool},
		}
	}

	return params
}

func convertAssistantTurn(turn classpilot.Turn) anthropic.MessageParam {
	var blocks []anthropic.ContentBlockParamUnion
	if turn.Content != "" {
		blocks = append(blocks, anthropic.NewTextBlock(turn.Content))
	}
	if turn.ToolCallID != "" {
		input := turn.Args
		if len(input) == 0 {
			input = json.RawMessage(`{}`)
		}
		blocks = append(blocks, anthropic.NewToolUseBlock(turn.ToolCallID, input, turn.Name))
	}
	if len(blocks) == 0 {
		blocks = append(blocks, anthropic.NewTextBlock(""))
	}
	return anthropic.NewAssistantMessage(blocks...)
}

// decide maps a message to a Decision. Only the first tool_use block of a
// turn is honored.
func decide(message *anthropic.Message, tools []classpilot.ToolDefinition, model string) classpilot.Decision {
	usage := classpilot.Usage{
		Model:        model,
		InputTokens:  message.Usage.InputTokens,
		OutputTokens: message.Usage.OutputTokens,
		TotalTokens:  message.Usage.InputTokens + message.Usage.OutputTokens,
	}

	var text string
	for _, block := range message.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text += b.Text
		case anthropic.ToolUseBlock:
			return classpilot.NormalizeToolCall(tools, b.Name, b.ID,
				json.RawMessage(b.Input), usage)
		}
	}
	return classpilot.PlainAnswer{Text: text, Usage: usage}
}

