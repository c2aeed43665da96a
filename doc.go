// Package agent provides a Go client for driving a prompt-based coding agent
// backend in one-shot, streaming and batch modes.
//
// It provides two main entry points:
//
//   - [Agent] validates requests, calls the backend and produces results and
//     stream-json protocol events.
//   - [Client] holds a resolved API key and forwards to an Agent.
//
// # Quick Start
//
//	a := agent.NewAgent()
//	res := a.Invoke(ctx, agent.Request{Prompt: "What does this repo do?", Print: true})
//	fmt.Println(res.Text)
//
//	w := agent.NewLineWriter(os.Stdout)
//	err := w.Drain(a.Stream(ctx, "Analyze this project", "analysis.txt"))
//
// Streaming sessions and streaming batches are [iter.Seq] values: ranging
// over one starts a new run, and breaking out early stops it.
//
// # Sub-packages
//
//   - [backend] defines the backend contract; backend/sim simulates it.
//   - [ledger] records batch item status in memory, JSON files or SQLite.
//   - [hook] provides hook types for intercepting tool calls and batch files.
package agent
