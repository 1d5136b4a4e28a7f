// Package deepseek provides a Provider for the DeepSeek API, which speaks
// the OpenAI Chat Completions dialect.
package deepseek

import (
	"os"

	"github.com/classpilot/classpilot"
	oai "github.com/classpilot/classpilot/providers/openai"
)

const defaultBaseURL = "https://api.deepseek.com"

// DefaultModel is the general chat model; deepseek-reasoner does not
// support tool calls.
const DefaultModel = "deepseek-chat"

// Option is a functional option for this provider.
type Option = oai.Option

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option { return oai.WithAPIKey(key) }

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) Option { return oai.WithBaseURL(url) }

// WithTemperature sets the temperature.
func WithTemperature(t float64) Option { return oai.WithTemperature(t) }

// WithMaxOutputTokens sets the max output tokens.
func WithMaxOutputTokens(n int) Option { return oai.WithMaxOutputTokens(n) }

// WithDebug enables JSONL debug logging to the specified file path.
func WithDebug(path string) Option { return oai.WithDebug(path) }

// New creates a Provider using the DeepSeek API.
// It reads DEEPSEEK_API_KEY and DEEPSEEK_BASE_URL from environment if not
// explicitly set.
func New(model string, opts ...Option) classpilot.Provider {
	if model == "" {
		model = DefaultModel
	}
	baseURL := os.Getenv("DEEPSEEK_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	all := []Option{oai.WithBaseURL(baseURL)}
	if key := os.Getenv("DEEPSEEK_API_KEY"); key != "" {
		all = append(all, oai.WithAPIKey(key))
	}
	all = append(all, opts...)
	return oai.New(model, all...)
}
