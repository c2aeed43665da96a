package agent

import (
	"github.com/invopop/jsonschema"

	"github.com/armatrix/cursor-agent-sdk-go/internal/schema"
)

// JSONSchema describes the keyed wire form of a tool call payload.
func (ToolCallPayload) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "object",
		Description: `single entry keyed "<tool>ToolCall" holding args, id, result and error`,
	}
}

// ProtocolSchema returns a JSON Schema document describing every event
// record and result shape.
func ProtocolSchema() ([]byte, error) {
	return schema.Document("cursor-agent stream-json protocol", map[string]schema.Object{
		"SystemEvent":    schema.Generate[SystemEvent](),
		"AssistantEvent": schema.Generate[AssistantEvent](),
		"ToolCallEvent":  schema.Generate[ToolCallEvent](),
		"ResultEvent":    schema.Generate[ResultEvent](),
		"ErrorEvent":     schema.Generate[ErrorEvent](),
		"FileEvent":      schema.Generate[FileEvent](),
		"Response":       schema.Generate[Response](),
		"ErrorResult":    schema.Generate[errorShape](),
	})
}
