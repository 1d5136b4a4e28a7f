package base

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// Exchange is one decision round trip against a model backend: what was
// asked, which tools were on offer, and how the model answered. Written
// as JSONL so a failed tool-calling run can be inspected offline.
type Exchange struct {
	Time      string   `json:"time"`
	Provider  string   `json:"provider"`
	Model     string   `json:"model,omitempty"`
	ForceTool string   `json:"force_tool,omitempty"`
	Tools     []string `json:"tools,omitempty"`
	Request   any      `json:"request,omitempty"`
	Response  any      `json:"response,omitempty"`
	Decision  string   `json:"decision,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// NewExchange starts an exchange record stamped with the current time.
func NewExchange(provider, model string) *Exchange {
	return &Exchange{
		Time:     time.Now().UTC().Format(time.RFC3339Nano),
		Provider: provider,
		Model:    model,
	}
}

// TraceLog appends exchanges to a file, one JSON object per line. A nil
// TraceLog discards everything. Safe for concurrent use.
type TraceLog struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// OpenTraceLog opens the trace file for appending, creating it if
// needed. An empty path disables tracing and returns nil.
func OpenTraceLog(path string) (*TraceLog, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &TraceLog{f: f, enc: json.NewEncoder(f)}, nil
}

func (l *TraceLog) Close() error {
	if l == nil || l.f == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

// Record appends one exchange. Write failures are swallowed: tracing
// must never fail a live request.
func (l *TraceLog) Record(ex *Exchange) {
	if l == nil || l.enc == nil || ex == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.enc.Encode(ex)
}
