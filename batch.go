package agent

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/armatrix/cursor-agent-sdk-go/backend"
)

// ItemStatus is the lifecycle state of one batch item.
type ItemStatus string

// Item states. ItemCancelled marks an item the batch stopped before finishing.
const (
	ItemPending   ItemStatus = "pending"
	ItemRunning   ItemStatus = "running"
	ItemDone      ItemStatus = "done"
	ItemError     ItemStatus = "error"
	ItemCancelled ItemStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s ItemStatus) Terminal() bool {
	return s == ItemDone || s == ItemError || s == ItemCancelled
}

// BatchItem is one file of a batch call.
type BatchItem struct {
	BatchID  string
	Index    int // 1-based
	Total    int
	FilePath string
	Prompt   string
	Status   ItemStatus
	Error    string
}

// ItemRecorder receives every batch item status transition.
type ItemRecorder interface {
	Record(ctx context.Context, item BatchItem) error
}

// RenderPrompt substitutes file for every {file} placeholder in template.
func RenderPrompt(template, file string) string {
	return strings.ReplaceAll(template, FilePlaceholder, file)
}

// Expand returns the files matching pattern, in match order. "**" matches
// any number of directories. When ctx carries a work dir the pattern is
// resolved against it and the returned paths are joined to it.
func Expand(ctx context.Context, pattern string) ([]string, error) {
	dir := ContextWorkDir(ctx)
	if dir == "" || filepath.IsAbs(pattern) {
		return doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
	}

	matches, err := doublestar.Glob(os.DirFS(dir), path.Clean(filepath.ToSlash(pattern)), doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	for i, m := range matches {
		matches[i] = filepath.Join(dir, filepath.FromSlash(m))
	}
	return matches, nil
}

// batch owns the items of one batch call.
type batch struct {
	agent *Agent
	id    string
	items []BatchItem
}

func (a *Agent) newBatch(ctx context.Context, files []string, template string) *batch {
	b := &batch{agent: a, id: generateID(PrefixBatch, a.opts.now())}
	b.items = make([]BatchItem, len(files))
	for i, f := range files {
		b.items[i] = BatchItem{
			BatchID:  b.id,
			Index:    i + 1,
			Total:    len(files),
			FilePath: f,
			Prompt:   RenderPrompt(template, f),
			Status:   ItemPending,
		}
		b.record(ctx, b.items[i])
	}
	a.log.Info("batch expanded", "batch_id", b.id, "files", len(files))
	return b
}

// transition moves item i to status. Terminal items are never changed.
func (b *batch) transition(ctx context.Context, i int, status ItemStatus, err error) {
	item := &b.items[i]
	if item.Status.Terminal() {
		return
	}
	item.Status = status
	if err != nil {
		item.Error = err.Error()
	}
	b.agent.log.Debug("batch item", "batch_id", b.id, "file", item.FilePath, "status", status)
	b.record(ctx, *item)
}

func (b *batch) record(ctx context.Context, item BatchItem) {
	r := b.agent.opts.recorder
	if r == nil {
		return
	}
	if err := r.Record(context.WithoutCancel(ctx), item); err != nil {
		b.agent.log.Warn("failed to record batch item", "batch_id", b.id, "file", item.FilePath, "error", err)
	}
}

// cancelRemaining moves every non-terminal item to ItemCancelled so an
// interrupted batch leaves no pending or running rows behind.
func (b *batch) cancelRemaining(ctx context.Context, cause error) {
	for i := range b.items {
		b.transition(ctx, i, ItemCancelled, cause)
	}
}

func (b *batch) progress(i int) string {
	return fmt.Sprintf("%d/%d", b.items[i].Index, b.items[i].Total)
}

// RunCollected invokes the agent once per file matching pattern, with the
// file substituted into template, and returns one json result per file in
// match order. Each result carries ProcessedFile.
//
// When nothing matches, the returned slice holds a single error result with
// exit code 1. A failing file yields an error result for that file only.
// Once ctx is cancelled no further file is started: one error result is
// appended and the remaining items are recorded as cancelled.
func (a *Agent) RunCollected(ctx context.Context, pattern, template string) []*Result {
	files, err := a.expand(ctx, pattern)
	if err != nil {
		return []*Result{errorResult(FormatJSON, err)}
	}

	b := a.newBatch(ctx, files, template)
	results := make([]*Result, 0, len(files))
	for i := range b.items {
		if err := b.interrupted(ctx, i); err != nil {
			return append(results, errorResult(FormatJSON, err))
		}
		item := b.items[i]
		b.transition(ctx, i, ItemRunning, nil)

		res := a.Invoke(ctx, Request{
			Prompt:       item.Prompt,
			Print:        true,
			Force:        true,
			OutputFormat: FormatJSON,
		})
		res.ProcessedFile = item.FilePath

		if res.IsError() {
			b.transition(ctx, i, ItemError, res.Err)
		} else {
			b.transition(ctx, i, ItemDone, nil)
		}
		results = append(results, res)
	}
	return results
}

// RunStreaming processes the files matching pattern one at a time and yields
// a file_processing/started and a file_processed event per file, sharing one
// event id per file. Progress is "<index>/<total>" with total fixed at
// expansion. When nothing matches a single error event is yielded.
//
// A file blocked by a PreFile hook yields file_processed/error and the batch
// moves on. Any other failure, including cancellation of ctx, yields one
// error event with a fresh id and ends the batch. Items left unfinished,
// also when the consumer stops early, are recorded as cancelled.
func (a *Agent) RunStreaming(ctx context.Context, pattern, template string) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		files, err := a.expand(ctx, pattern)
		if err != nil {
			yield(a.errorEvent(err))
			return
		}

		b := a.newBatch(ctx, files, template)
		defer b.cancelRemaining(ctx, nil)

		for i := range b.items {
			if err := b.interrupted(ctx, i); err != nil {
				yield(a.errorEvent(err))
				return
			}

			item := b.items[i]
			eventID := a.ids.NewEventID()
			meta := func(kind EventType, subtype string) EventMeta {
				return EventMeta{Kind: kind, Subtype: subtype, EventID: eventID, Timestamp: a.ids.Timestamp()}
			}

			b.transition(ctx, i, ItemRunning, nil)
			if !yield(&FileEvent{
				EventMeta: meta(EventFileProcessing, SubtypeStarted),
				File:      item.FilePath,
				Progress:  b.progress(i),
			}) {
				return
			}

			res, err := a.processFile(ctx, eventID, item.FilePath, item.Prompt, b.progress(i))
			switch {
			case errors.Is(err, ErrBlocked):
				a.log.Info("batch item skipped", "batch_id", b.id, "file", item.FilePath, "reason", err)
				b.transition(ctx, i, ItemError, err)
				if !yield(&FileEvent{
					EventMeta: meta(EventFileProcessed, SubtypeError),
					File:      item.FilePath,
					Progress:  b.progress(i),
					Message:   err.Error(),
				}) {
					return
				}
				continue
			case err != nil:
				a.log.Error("batch item failed", "batch_id", b.id, "file", item.FilePath, "error", err)
				b.transition(ctx, i, ItemError, err)
				b.cancelRemaining(ctx, fmt.Errorf("batch stopped after %s failed", item.FilePath))
				yield(a.errorEvent(err))
				return
			}

			b.transition(ctx, i, ItemDone, nil)
			if !yield(&FileEvent{
				EventMeta: meta(EventFileProcessed, SubtypeCompleted),
				File:      item.FilePath,
				Progress:  b.progress(i),
				Result:    res,
			}) {
				return
			}
		}
	}
}

// interrupted returns a non-nil error once ctx is done, after marking item i
// and every later item as cancelled.
func (b *batch) interrupted(ctx context.Context, i int) error {
	if ctx.Err() == nil {
		return nil
	}
	err := fmt.Errorf("batch cancelled before %s: %w", b.progress(i), context.Cause(ctx))
	b.agent.log.Warn("batch interrupted", "batch_id", b.id, "error", err)
	b.cancelRemaining(ctx, err)
	return err
}

// processFile runs one batch file through the PreFile hooks and the backend.
func (a *Agent) processFile(ctx context.Context, eventID, file, prompt, progress string) (*backend.FileResult, error) {
	verdict, err := a.hooks.RunPreFile(ctx, eventID, file, progress)
	switch {
	case err != nil:
		return nil, fmt.Errorf("pre-file hook for %s: %w", file, err)
	case verdict != nil && verdict.Block:
		return nil, fmt.Errorf("%s: %w: %s", file, ErrBlocked, verdict.Reason)
	}

	res, err := a.backend.ProcessFile(ctx, file, prompt)
	if err != nil {
		err = &BackendError{Op: "process " + file, Cause: err}
	}
	if herr := a.hooks.RunPostFile(context.WithoutCancel(ctx), eventID, file, progress, err); herr != nil {
		a.log.Warn("post-file hook failed", "file", file, "error", herr)
	}
	return res, err
}

// expand wraps Expand, turning an empty match into an EmptySelectionError.
func (a *Agent) expand(ctx context.Context, pattern string) ([]string, error) {
	files, err := Expand(ctx, pattern)
	if err != nil {
		a.log.Warn("invalid batch pattern", "pattern", pattern, "error", err)
		return nil, fmt.Errorf("expand %q: %w", pattern, err)
	}
	if len(files) == 0 {
		a.log.Warn("batch matched no files", "pattern", pattern)
		return nil, &EmptySelectionError{Pattern: pattern}
	}
	return files, nil
}
