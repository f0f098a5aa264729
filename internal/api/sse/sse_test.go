package sse

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholaris/scholaris-backend/internal/engine"
)

func TestEncodeContentFrame(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	require.NoError(t, enc.Encode(Chunk{Content: "Hello, "}))

	assert.Equal(t, "data: {\"content\":\"Hello, \",\"is_final\":false,\"tool_calls\":null}\n\n", buf.String())
}

func TestEncodeFinalFrameWithToolCalls(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	require.NoError(t, enc.Encode(Chunk{
		IsFinal:   true,
		ToolCalls: []engine.ToolCall{{ID: "a", Name: "arxiv", Arguments: `{"q":"x"}`}},
		MessageID: "m1",
	}))

	assert.Equal(t,
		"data: {\"content\":\"\",\"is_final\":true,\"tool_calls\":[{\"id\":\"a\",\"name\":\"arxiv\",\"arguments\":\"{\\\"q\\\":\\\"x\\\"}\"}],\"message_id\":\"m1\"}\n\n",
		buf.String())
}

func TestEncodeErrorFrame(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	require.NoError(t, enc.Encode(Chunk{IsFinal: true, Error: "engine invocation failed"}))

	assert.Contains(t, buf.String(), "\"error\":\"engine invocation failed\"")
	assert.Contains(t, buf.String(), "\"is_final\":true")
}

func TestDoneSentinel(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	require.NoError(t, enc.Done())
	assert.Equal(t, "data: [DONE]\n\n", buf.String())
}

func TestFrameSequence(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	require.NoError(t, enc.Encode(Chunk{Content: "a"}))
	require.NoError(t, enc.Encode(Chunk{Content: "b"}))
	require.NoError(t, enc.Encode(Chunk{IsFinal: true}))
	require.NoError(t, enc.Done())

	frames := bytes.Split(bytes.TrimSuffix(buf.Bytes(), []byte("\n\n")), []byte("\n\n"))
	require.Len(t, frames, 4)
	assert.Equal(t, "data: [DONE]", string(frames[3]))
}
