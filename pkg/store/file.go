package store

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/cutgraph/pkg/config"
	"github.com/matzehuels/cutgraph/pkg/document"
	errs "github.com/matzehuels/cutgraph/pkg/errors"
	"github.com/matzehuels/cutgraph/pkg/observability"
)

const fileBackend = "file"

// FileStore keeps each document as an indented JSON file named <id>.json.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based document store.
// If baseDir is empty, defaults to config.DataDir().
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		dir, err := config.DataDir()
		if err != nil {
			return nil, errs.Wrap(errs.ErrCodeStore, err, "locate data dir")
		}
		baseDir = dir
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, errs.Wrap(errs.ErrCodeStore, err, "create document dir")
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) documentPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *FileStore) Get(ctx context.Context, id string) (doc document.Document, err error) {
	start := time.Now()
	defer func() { observeLoad(ctx, fileBackend, id, start, err) }()

	if err := errs.ValidateDocumentID(id); err != nil {
		return document.Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err = document.ReadFile(s.documentPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return document.Document{}, notFound(id)
	}
	if err != nil {
		return document.Document{}, err
	}
	doc.ID = id
	return doc, nil
}

func (s *FileStore) Put(ctx context.Context, doc *document.Document) (err error) {
	start := time.Now()
	size := 0
	defer func() { observeSave(ctx, fileBackend, doc.ID, size, start, err) }()

	if err := prepare(doc); err != nil {
		return err
	}
	data, err := document.Marshal(*doc)
	if err != nil {
		return err
	}
	size = len(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write to a sibling temp file and rename so readers never see a
	// partial document.
	path := s.documentPath(doc.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errs.Wrap(errs.ErrCodeStore, err, "write document %s", doc.ID)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errs.Wrap(errs.ErrCodeStore, err, "write document %s", doc.ID)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, id string) (err error) {
	defer func() { observability.Store().OnDelete(ctx, fileBackend, id, err) }()

	if err := errs.ValidateDocumentID(id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.documentPath(id)); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.ErrCodeStore, err, "remove document %s", id)
	}
	return nil
}

// List skips files that do not parse as documents.
func (s *FileStore) List(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStore, err, "read document dir")
	}

	var out []Entry
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		doc, err := document.ReadFile(filepath.Join(s.baseDir, name))
		if err != nil {
			continue
		}
		doc.ID = strings.TrimSuffix(name, ".json")
		var modified time.Time
		if info, err := e.Info(); err == nil {
			modified = info.ModTime()
		}
		out = append(out, entryOf(doc, modified))
	}
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (s *FileStore) Close() error { return nil }

// Path returns the directory holding the document files.
func (s *FileStore) Path() string {
	return s.baseDir
}

var _ Store = (*FileStore)(nil)
