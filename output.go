package agent

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"sync"
)

// LineWriter writes events as newline-delimited JSON, one record per line,
// flushed after every record.
type LineWriter struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// NewLineWriter creates a LineWriter on w.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: bufio.NewWriter(w)}
}

// WriteEvent serializes e onto a single line and flushes it.
func (l *LineWriter) WriteEvent(e Event) error {
	data, err := marshalCompact(e)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", e.Type(), err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.w.Write(data); err != nil {
		return err
	}
	if err := l.w.WriteByte('\n'); err != nil {
		return err
	}
	return l.w.Flush()
}

// Drain writes every event of seq. It stops at the first write error and
// returns the first error event seen, if any.
func (l *LineWriter) Drain(seq iter.Seq[Event]) error {
	var streamErr error
	for e := range seq {
		if err := l.WriteEvent(e); err != nil {
			return err
		}
		if ev, ok := e.(*ErrorEvent); ok && streamErr == nil {
			streamErr = &StreamError{EventID: ev.EventID, Message: ev.Message}
		}
	}
	return streamErr
}

// WriteResult routes r to stdout on success or to stderr when error-shaped,
// and returns the process exit code. Text is printed as-is; structured
// results are indented JSON, errors compact JSON.
func WriteResult(stdout, stderr io.Writer, r *Result) (int, error) {
	if r.Format == FormatText || (r.Format == FormatStreamJSON && !r.IsError()) {
		w := stdout
		if r.IsError() {
			w = stderr
		}
		_, err := fmt.Fprintln(w, r.Text)
		return r.ExitCode, err
	}

	if r.IsError() {
		data, err := marshalCompact(r)
		if err != nil {
			return 1, err
		}
		_, err = fmt.Fprintln(stderr, string(data))
		return r.ExitCode, err
	}

	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return r.ExitCode, enc.Encode(r)
}

// WriteResults prints collected batch results as one indented JSON array.
// The exit code is 1 if any result is error-shaped.
func WriteResults(stdout, stderr io.Writer, results []*Result) (int, error) {
	code := 0
	for _, r := range results {
		if r.IsError() {
			code = 1
		}
	}
	w := stdout
	if len(results) == 1 && results[0].IsError() {
		w = stderr
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return code, enc.Encode(results)
}

func marshalCompact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
