package agent

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/armatrix/cursor-agent-sdk-go/backend"
)

// OutputFormat selects the shape of an invocation result.
type OutputFormat string

const (
	FormatText       OutputFormat = "text"
	FormatJSON       OutputFormat = "json"
	FormatStreamJSON OutputFormat = "stream-json"
)

// OutputFormats lists the accepted formats in CLI order.
var OutputFormats = []OutputFormat{FormatText, FormatJSON, FormatStreamJSON}

// ParseOutputFormat validates s. The empty string means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	if s == "" {
		return FormatText, nil
	}
	for _, f := range OutputFormats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidOutputFormat, s)
}

// Request is one invocation of the agent.
type Request struct {
	Prompt string
	// Print enables non-interactive execution. Requests without it are rejected.
	Print        bool
	Force        bool
	OutputFormat OutputFormat
	// StreamPartialOutput asks the caller to route stream-json requests to
	// the streaming session.
	StreamPartialOutput bool
	// APIKey overrides the configured and environment credentials.
	APIKey string
}

// Streaming reports whether the request belongs on the streaming entry point.
func (r Request) Streaming() bool {
	return r.OutputFormat == FormatStreamJSON && r.StreamPartialOutput
}

// Response is the structured success payload of a json invocation.
type Response struct {
	Result          string               `json:"result"`
	Recommendations []string             `json:"recommendations"`
	FileChanges     []backend.FileChange `json:"file_changes"`
	Success         bool                 `json:"success"`
	Prompt          string               `json:"prompt"`
	PrintMode       bool                 `json:"print_mode"`
	Force           bool                 `json:"force"`
	OutputFormat    OutputFormat         `json:"output_format"`
	APIKeySet       bool                 `json:"api_key_set"`
	TotalCostUSD    decimal.Decimal      `json:"total_cost_usd" jsonschema:"type=string"`
	ExitCode        int                  `json:"exit_code"`
}

// Result is the outcome of one invocation. Exactly one shape applies:
// text (Text), structured (Response) or error (Err). In text format an error
// is still rendered as a string.
type Result struct {
	Format        OutputFormat
	Text          string
	Response      *Response
	ProcessedFile string
	ExitCode      int
	Err           error
}

// IsError reports whether the result is error-shaped.
func (r *Result) IsError() bool { return r.Err != nil }

// ErrorMessage returns the error text, or "" on success.
func (r *Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

type errorShape struct {
	Error         string `json:"error"`
	ExitCode      int    `json:"exit_code"`
	ProcessedFile string `json:"processed_file,omitempty"`
}

type responseShape struct {
	*Response
	ProcessedFile string `json:"processed_file,omitempty"`
}

// MarshalJSON renders text results as a JSON string, structured results as
// an object and errors as {"error", "exit_code"}.
func (r *Result) MarshalJSON() ([]byte, error) {
	switch {
	case r.Format == FormatText:
		return json.Marshal(r.Text)
	case r.Err != nil:
		return json.Marshal(errorShape{Error: r.Err.Error(), ExitCode: r.ExitCode, ProcessedFile: r.ProcessedFile})
	case r.Response != nil:
		return json.Marshal(responseShape{Response: r.Response, ProcessedFile: r.ProcessedFile})
	default:
		return json.Marshal(r.Text)
	}
}

func errorResult(format OutputFormat, err error) *Result {
	r := &Result{Format: format, ExitCode: ExitCode(err), Err: err}
	if format == FormatText {
		r.Text = "error: " + err.Error()
	}
	return r
}
