package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/armatrix/cursor-agent-sdk-go/backend"
)

// EventType identifies the kind of event in the stream-json protocol.
type EventType string

const (
	EventSystem         EventType = "system"
	EventAssistant      EventType = "assistant"
	EventToolCall       EventType = "tool_call"
	EventResult         EventType = "result"
	EventError          EventType = "error"
	EventFileProcessing EventType = "file_processing"
	EventFileProcessed  EventType = "file_processed"
)

// Event subtypes.
const (
	SubtypeInit      = "init"
	SubtypeStarted   = "started"
	SubtypeCompleted = "completed"
	SubtypeFailed    = "failed"
	SubtypeSuccess   = "success"
	SubtypeError     = "error"
)

// Event is the interface implemented by every protocol record.
type Event interface {
	Type() EventType
	Meta() *EventMeta
}

// EventMeta holds the fields common to all events.
type EventMeta struct {
	Kind      EventType `json:"type"`
	Subtype   string    `json:"subtype,omitempty"`
	EventID   string    `json:"event_id"`
	Timestamp string    `json:"timestamp"`
}

func (m *EventMeta) Type() EventType  { return m.Kind }
func (m *EventMeta) Meta() *EventMeta { return m }

// SystemEvent opens a streaming session and announces the model.
type SystemEvent struct {
	EventMeta
	Model        string `json:"model"`
	CWD          string `json:"cwd,omitempty"`
	APIKeySource string `json:"apiKeySource,omitempty"`
}

// ContentBlock is one block of assistant content.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// AssistantMessage is the message body of an AssistantEvent.
type AssistantMessage struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// AssistantEvent carries the whole assistant text accumulated so far.
// The latest event is authoritative; consumers must not concatenate.
type AssistantEvent struct {
	EventMeta
	Message AssistantMessage `json:"message"`
}

// Text returns the accumulated text.
func (e *AssistantEvent) Text() string {
	var b strings.Builder
	for _, c := range e.Message.Content {
		b.WriteString(c.Text)
	}
	return b.String()
}

// ToolCallEvent reports one step of a tool call lifecycle.
type ToolCallEvent struct {
	EventMeta
	CallID   string          `json:"call_id"`
	ToolCall ToolCallPayload `json:"tool_call"`
}

// ToolCallPayload is serialized keyed by tool, e.g.
// {"readToolCall":{"args":{"path":"src/"},"id":"tool_..."}}.
type ToolCallPayload struct {
	Name   string
	ID     string
	Args   map[string]any
	Result any
	Error  string
}

const toolCallKeySuffix = "ToolCall"

type toolCallBody struct {
	Args   map[string]any `json:"args,omitempty"`
	ID     string         `json:"id"`
	Result any            `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func (p ToolCallPayload) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]toolCallBody{
		p.Name + toolCallKeySuffix: {Args: p.Args, ID: p.ID, Result: p.Result, Error: p.Error},
	})
}

func (p *ToolCallPayload) UnmarshalJSON(data []byte) error {
	var m map[string]toolCallBody
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != 1 {
		return fmt.Errorf("tool_call must have exactly one entry, got %d", len(m))
	}
	for key, body := range m {
		*p = ToolCallPayload{
			Name:   strings.TrimSuffix(key, toolCallKeySuffix),
			ID:     body.ID,
			Args:   body.Args,
			Result: body.Result,
			Error:  body.Error,
		}
	}
	return nil
}

// ResultEvent terminates a streaming session.
type ResultEvent struct {
	EventMeta
	DurationMs   int64           `json:"duration_ms"`
	TotalCostUSD decimal.Decimal `json:"total_cost_usd" jsonschema:"type=string"`
}

// ErrorEvent reports a terminal failure. No lifecycle events for the same
// task follow it.
type ErrorEvent struct {
	EventMeta
	Message string `json:"message"`
}

// FileEvent reports batch progress for one file. Progress is "<index>/<total>",
// 1-indexed.
type FileEvent struct {
	EventMeta
	File     string              `json:"file"`
	Progress string              `json:"progress"`
	Result   *backend.FileResult `json:"result,omitempty"`
	Message  string              `json:"message,omitempty"`
}

// ParseEvent decodes one serialized event record.
func ParseEvent(line []byte) (Event, error) {
	var meta EventMeta
	if err := json.Unmarshal(line, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse event type: %w", err)
	}

	var ev Event
	switch meta.Kind {
	case EventSystem:
		ev = &SystemEvent{}
	case EventAssistant:
		ev = &AssistantEvent{}
	case EventToolCall:
		ev = &ToolCallEvent{}
	case EventResult:
		ev = &ResultEvent{}
	case EventError:
		ev = &ErrorEvent{}
	case EventFileProcessing, EventFileProcessed:
		ev = &FileEvent{}
	default:
		return nil, fmt.Errorf("unknown event type: %q", meta.Kind)
	}

	if err := json.Unmarshal(line, ev); err != nil {
		return nil, fmt.Errorf("failed to parse %s event: %w", meta.Kind, err)
	}
	return ev, nil
}
