package agent

// Defaults for invocations and streaming sessions.
const (
	// EnvAPIKey is the environment variable consulted when no explicit key is given.
	EnvAPIKey = "CURSOR_API_KEY"

	// DefaultOutputFile is the report path written by a streaming analysis.
	DefaultOutputFile = "analysis.txt"

	// DefaultReadPath is the path inspected by the read tool call.
	DefaultReadPath = "src/"

	// FilePlaceholder is substituted with each matched path in batch prompt templates.
	FilePlaceholder = "{file}"

	// ToolRead and ToolWrite name the tool calls of a streaming session.
	ToolRead  = "read"
	ToolWrite = "write"
)
