package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineWriter_OneRecordPerLine(t *testing.T) {
	a := newTestAgent(t, newFakeBackend())
	events := Collect(a.Stream(context.Background(), "analyze <src>", ""))

	var buf bytes.Buffer
	w := NewLineWriter(&buf)
	for _, e := range events {
		require.NoError(t, w.WriteEvent(e))
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, len(events))
	for i, line := range lines {
		parsed, err := ParseEvent([]byte(line))
		require.NoError(t, err, line)
		assert.Equal(t, events[i].Type(), parsed.Type())
		assert.Equal(t, events[i].Meta().EventID, parsed.Meta().EventID)
	}
}

func TestLineWriter_NoHTMLEscaping(t *testing.T) {
	var buf bytes.Buffer
	w := NewLineWriter(&buf)
	require.NoError(t, w.WriteEvent(&ErrorEvent{EventMeta: EventMeta{Kind: EventError}, Message: "<a&b>"}))
	assert.Contains(t, buf.String(), "<a&b>")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestLineWriter_Drain(t *testing.T) {
	var buf bytes.Buffer
	w := NewLineWriter(&buf)

	err := w.Drain(seqOf(
		&SystemEvent{EventMeta: EventMeta{Kind: EventSystem}},
		&ErrorEvent{EventMeta: EventMeta{Kind: EventError, EventID: "evt_x"}, Message: "backend draft: boom"},
	))
	var se *StreamError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "evt_x", se.EventID)
	assert.Equal(t, 2, strings.Count(buf.String(), "\n"))

	err = NewLineWriter(failingWriter{}).Drain(seqOf(&SystemEvent{EventMeta: EventMeta{Kind: EventSystem}}))
	assert.EqualError(t, err, "closed pipe")
}

func TestWriteResult_Text(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code, err := WriteResult(&stdout, &stderr, &Result{Format: FormatText, Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "hello\n", stdout.String())
	assert.Empty(t, stderr.String())
}

func TestWriteResult_TextError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := errorResult(FormatText, &PreconditionError{Err: ErrMissingPrompt})
	code, err := WriteResult(&stdout, &stderr, r)
	require.NoError(t, err)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())
	assert.Equal(t, "error: missing prompt\n", stderr.String())
}

func TestWriteResult_JSON(t *testing.T) {
	a := newTestAgent(t, newFakeBackend())
	res := a.Invoke(context.Background(), Request{Prompt: "p", Print: true, OutputFormat: FormatJSON})

	var stdout, stderr bytes.Buffer
	code, err := WriteResult(&stdout, &stderr, res)
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Empty(t, stderr.String())

	var m map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &m))
	assert.Equal(t, true, m["success"])
	assert.Equal(t, "0.004", m["total_cost_usd"])
	assert.Contains(t, stdout.String(), "\n  ", "structured results are indented")
}

func TestWriteResult_JSONError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := errorResult(FormatJSON, &BackendError{Op: "complete", Cause: errBoom})
	r.ProcessedFile = "src/a.js"

	code, err := WriteResult(&stdout, &stderr, r)
	require.NoError(t, err)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())
	assert.JSONEq(t, `{"error":"backend complete: boom","exit_code":1,"processed_file":"src/a.js"}`, stderr.String())
}

func TestWriteResult_StreamJSONPlaceholder(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code, err := WriteResult(&stdout, &stderr, &Result{Format: FormatStreamJSON})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "\n", stdout.String())
}

func TestWriteResults(t *testing.T) {
	ok := &Result{Format: FormatJSON, Response: &Response{Success: true}, ProcessedFile: "a.js"}
	bad := errorResult(FormatJSON, errBoom)
	bad.ProcessedFile = "b.js"

	var stdout, stderr bytes.Buffer
	code, err := WriteResults(&stdout, &stderr, []*Result{ok, bad})
	require.NoError(t, err)
	assert.Equal(t, 1, code)

	var arr []map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &arr))
	require.Len(t, arr, 2)
	assert.Equal(t, "a.js", arr[0]["processed_file"])
	assert.Equal(t, "boom", arr[1]["error"])
}

func TestWriteResults_EmptySelectionGoesToStderr(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code, err := WriteResults(&stdout, &stderr, []*Result{
		errorResult(FormatJSON, &EmptySelectionError{Pattern: "*.py"}),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), `no files match \"*.py\"`)
}
