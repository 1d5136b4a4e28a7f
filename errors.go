package classpilot

import "errors"

var (
	ErrNoProvider        = errors.New("classpilot: provider is required")
	ErrToolNameEmpty     = errors.New("classpilot: tool name is empty")
	ErrInvalidDefinition = errors.New("classpilot: invalid tool definition")
	ErrUnknownTool       = errors.New("classpilot: unknown tool")
	ErrNoPendingCall     = errors.New("classpilot: no pending tool call")
	ErrPendingExpired    = errors.New("classpilot: pending tool call expired")
)
