package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileSource serves items from a local JSON array, e.g. a provider export.
// It has a single page; any page beyond the first is empty.
type FileSource struct {
	path string
}

// NewFileSource reads items from path on every Fetch.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name identifies the source in logs.
func (f *FileSource) Name() string {
	return "file:" + f.path
}

// Fetch loads the file.
func (f *FileSource) Fetch(ctx context.Context, page int) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if page > 1 {
		return []Item{}, nil
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read songs file: %w", err)
	}

	var clips []json.RawMessage
	if err := json.Unmarshal(data, &clips); err != nil {
		return nil, fmt.Errorf("decode songs file: %w", err)
	}
	return decodeItems(clips), nil
}
