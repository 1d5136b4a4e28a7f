package base

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceLogAppendsExchanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.jsonl")
	l, err := OpenTraceLog(path)
	require.NoError(t, err)

	ex := NewExchange("openai", "gpt-4o")
	ex.ForceTool = "create_course"
	ex.Tools = []string{"create_course"}
	ex.Decision = "classpilot.ToolCallRequested"
	l.Record(ex)

	ex2 := NewExchange("openai", "gpt-4o")
	ex2.Error = "connection refused"
	l.Record(ex2)
	require.NoError(t, l.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []Exchange
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var got Exchange
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &got))
		lines = append(lines, got)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "create_course", lines[0].ForceTool)
	assert.Equal(t, []string{"create_course"}, lines[0].Tools)
	assert.Equal(t, "classpilot.ToolCallRequested", lines[0].Decision)
	assert.NotEmpty(t, lines[0].Time)
	assert.Equal(t, "connection refused", lines[1].Error)
}

func TestTraceLogDisabledIsSafe(t *testing.T) {
	l, err := OpenTraceLog("")
	require.NoError(t, err)
	require.Nil(t, l)

	// A nil log discards without panicking.
	l.Record(NewExchange("openai", "gpt-4o"))
	assert.NoError(t, l.Close())
}
