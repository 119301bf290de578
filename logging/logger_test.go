package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLevel("verbose"))
	assert.Equal(t, "WARN", LogLevelWarn.String())
}

func TestSlogLogger_WithAttachesContext(t *testing.T) {
	var buf bytes.Buffer
	l := WithForum(NewSlogLogger(LogLevelInfo, "json", &buf), "f-1")
	l = WithComponent(l, "router")

	l.Debug("hidden")
	l.Info("turn appended", "speaker", "genetics")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "turn appended", entry["msg"])
	assert.Equal(t, "f-1", entry["forum_id"])
	assert.Equal(t, "router", entry["component"])
	assert.Equal(t, "genetics", entry["speaker"])
}

func TestLogLLMCall(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewZapAdapter(zap.New(core))

	LogLLMCall(l, "mock", "m-1", 12, time.Millisecond, nil)
	LogLLMCall(l, "mock", "m-1", 0, time.Millisecond, errors.New("quota"))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "LLM call completed", entries[0].Message)
	assert.Equal(t, "LLM call failed", entries[1].Message)
	assert.Equal(t, "quota", entries[1].ContextMap()["error"])
}

func TestLogAction(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewZapAdapter(zap.New(core))

	LogAction(l, "address", 2, time.Millisecond, nil)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, int64(2), logs.All()[0].ContextMap()["appended_turns"])
}

func TestWith_NilBase(t *testing.T) {
	l := With(nil, "k", "v")
	l.Info("no panic")
	NoOpLogger{}.Error("discarded")
}

func TestZapLogger_RotatingFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "lyceum.log")

	l := NewZapLogger(ZapConfig{Level: LogLevelInfo, File: path, Output: &console})
	l.Debug("filtered")
	l.Info("forum created", "forum_id", "f-9")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"forum_id":"f-9"`)
	assert.NotContains(t, string(data), "filtered")
	assert.Contains(t, console.String(), "forum created")
}
