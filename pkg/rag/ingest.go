// Copyright 2026 The Goalith Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rag

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Ingestor parses files into section trees, chunks them, and indexes the
// chunks.
type Ingestor struct {
	chunker *Chunker
	store   *VectorStore
}

// NewIngestor creates an ingestor.
func NewIngestor(chunker *Chunker, store *VectorStore) *Ingestor {
	return &Ingestor{chunker: chunker, store: store}
}

// IngestFile parses, chunks, and indexes a single file. Returns the number
// of chunks produced.
func (i *Ingestor) IngestFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	tree := ParseMarkdown(title, path, string(data))
	chunks := i.chunker.Chunk(tree)

	if err := i.store.IndexChunks(ctx, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

// IngestPath ingests a file, or every regular file under a directory.
func (i *Ingestor) IngestPath(ctx context.Context, path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return i.IngestFile(ctx, path)
	}

	total := 0
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		n, ingestErr := i.IngestFile(ctx, p)
		if ingestErr != nil {
			slog.Warn("Skipping file", "path", p, "error", ingestErr)
			return nil
		}
		total += n
		return nil
	})
	return total, err
}

// Watch re-ingests files as they change on disk, until the context is
// cancelled. Directories are watched non-recursively.
func (i *Ingestor) Watch(ctx context.Context, paths []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	for _, path := range paths {
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if n, err := i.IngestFile(ctx, event.Name); err != nil {
				slog.Warn("Re-ingest failed", "path", event.Name, "error", err)
			} else {
				slog.Info("Re-ingested changed file", "path", event.Name, "chunks", n)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", "error", err)
		}
	}
}
