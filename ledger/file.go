package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	agent "github.com/armatrix/cursor-agent-sdk-go"
)

// FileStore persists batches as individual JSON files in a directory.
// Each batch is stored as {batch_id}.json and rewritten on every transition.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore that saves batches to the given directory.
// The directory is created if it does not exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// batchJSON is the on-disk representation of a batch.
type batchJSON struct {
	ID        string     `json:"id"`
	Items     []itemJSON `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type itemJSON struct {
	Index    int    `json:"index"`
	Total    int    `json:"total"`
	FilePath string `json:"file_path"`
	Prompt   string `json:"prompt"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

// Record merges item into its batch file.
func (f *FileStore) Record(_ context.Context, item agent.BatchItem) error {
	if item.BatchID == "" {
		return fmt.Errorf("batch id is empty")
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now().UTC()
	data, err := f.load(item.BatchID)
	if os.IsNotExist(err) {
		data = &batchJSON{ID: item.BatchID, CreatedAt: now}
	} else if err != nil {
		return err
	}
	data.UpdatedAt = now

	entry := itemJSON{
		Index:    item.Index,
		Total:    item.Total,
		FilePath: item.FilePath,
		Prompt:   item.Prompt,
		Status:   string(item.Status),
		Error:    item.Error,
	}
	replaced := false
	for i := range data.Items {
		if data.Items[i].Index == item.Index {
			data.Items[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		data.Items = append(data.Items, entry)
		sort.Slice(data.Items, func(i, j int) bool { return data.Items[i].Index < data.Items[j].Index })
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}
	if err := os.WriteFile(f.path(item.BatchID), b, 0o644); err != nil {
		return fmt.Errorf("write batch file: %w", err)
	}
	return nil
}

// Items returns the items of a batch ordered by index.
// Returns an error if the batch is not found.
func (f *FileStore) Items(_ context.Context, batchID string) ([]agent.BatchItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load(batchID)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("batch not found: %s", batchID)
		}
		return nil, err
	}

	items := make([]agent.BatchItem, len(data.Items))
	for i, it := range data.Items {
		items[i] = agent.BatchItem{
			BatchID:  data.ID,
			Index:    it.Index,
			Total:    it.Total,
			FilePath: it.FilePath,
			Prompt:   it.Prompt,
			Status:   agent.ItemStatus(it.Status),
			Error:    it.Error,
		}
	}
	return items, nil
}

// Batches returns batch ids ordered by creation time.
func (f *FileStore) Batches(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("read ledger dir: %w", err)
	}

	var batches []*batchJSON
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := f.load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue // skip corrupt files
		}
		batches = append(batches, data)
	}
	sort.SliceStable(batches, func(i, j int) bool { return batches[i].CreatedAt.Before(batches[j].CreatedAt) })

	ids := make([]string, len(batches))
	for i, b := range batches {
		ids[i] = b.ID
	}
	return ids, nil
}

func (f *FileStore) load(batchID string) (*batchJSON, error) {
	b, err := os.ReadFile(f.path(batchID))
	if err != nil {
		return nil, err
	}
	var data batchJSON
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, fmt.Errorf("unmarshal batch %s: %w", batchID, err)
	}
	return &data, nil
}

func (f *FileStore) path(batchID string) string {
	return filepath.Join(f.dir, batchID+".json")
}
