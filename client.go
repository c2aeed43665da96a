package agent

import (
	"context"
	"fmt"
	"iter"

	"github.com/armatrix/cursor-agent-sdk-go/internal/config"
)

// Client holds a resolved API key and forwards to an Agent configured with it.
// All request validation stays in the Agent.
type Client struct {
	agent  *Agent
	apiKey string
}

// NewClient resolves apiKey (falling back to the CURSOR_API_KEY environment
// variable) once and creates a Client. It fails with ErrMissingCredential
// when neither is set.
func NewClient(apiKey string, opts ...AgentOption) (*Client, error) {
	resolved := resolveOptions(opts)
	key, _ := config.ResolveAPIKey(apiKey, resolved.env, EnvAPIKey)
	if key == "" {
		return nil, &PreconditionError{Err: ErrMissingCredential, Hint: "pass an API key or set " + EnvAPIKey}
	}
	return &Client{
		agent:  NewAgent(append(append([]AgentOption(nil), opts...), WithAPIKey(key))...),
		apiKey: key,
	}, nil
}

// Agent returns the underlying agent.
func (c *Client) Agent() *Agent {
	return c.agent
}

// Analyze asks a free-form question and returns a text result.
func (c *Client) Analyze(ctx context.Context, prompt string, force bool) *Result {
	return c.agent.Invoke(ctx, Request{
		Prompt:       prompt,
		Print:        true,
		Force:        force,
		OutputFormat: FormatText,
		APIKey:       c.apiKey,
	})
}

// ReviewPrompt builds the code review prompt for target.
func ReviewPrompt(target string) string {
	if target == "" {
		target = "recent changes"
	}
	return fmt.Sprintf("Review %s and provide feedback on:\n"+
		"  - code quality and readability\n"+
		"  - potential bugs or issues\n"+
		"  - security considerations\n"+
		"  - best-practice compliance\n\n"+
		"Provide concrete suggestions for improvement.", target)
}

// Review runs a code review of target and returns a json result.
func (c *Client) Review(ctx context.Context, target string) *Result {
	return c.agent.Invoke(ctx, Request{
		Prompt:       ReviewPrompt(target),
		Print:        true,
		Force:        true,
		OutputFormat: FormatJSON,
		APIKey:       c.apiKey,
	})
}

// StreamAnalysis streams an analysis of the project structure that writes
// its summary to outputFile.
func (c *Client) StreamAnalysis(ctx context.Context, outputFile string) iter.Seq[Event] {
	if outputFile == "" {
		outputFile = DefaultOutputFile
	}
	prompt := fmt.Sprintf("Analyze this project structure and write a summary report to %s", outputFile)
	return c.agent.Run(ctx, Request{
		Prompt:              prompt,
		Print:               true,
		OutputFormat:        FormatStreamJSON,
		StreamPartialOutput: true,
		APIKey:              c.apiKey,
	}, outputFile)
}

// ProcessFiles runs template against every file matching pattern and
// collects the results.
func (c *Client) ProcessFiles(ctx context.Context, pattern, template string) []*Result {
	return c.agent.RunCollected(ctx, pattern, template)
}

// StreamBatch streams progress while applying instruction to every file
// matching pattern.
func (c *Client) StreamBatch(ctx context.Context, pattern, instruction string) iter.Seq[Event] {
	return c.agent.RunStreaming(ctx, pattern, FilePlaceholder+": "+instruction)
}
