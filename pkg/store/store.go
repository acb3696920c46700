// Package store persists diagram documents.
//
// Two backends are provided:
//   - file: one JSON file per document, for the CLI and single-user servers
//   - redis: one key per document, for servers sharing state across instances
//
// Both validate document ids with errors.ValidateDocumentID, report
// every call to the registered [observability.StoreHooks], and return
// DOCUMENT_NOT_FOUND coded errors for missing ids.
//
// # Usage
//
//	st, err := store.Open(ctx, cfg.Store)
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	doc := document.New(t, "modus ponens")
//	if err := st.Put(ctx, &doc); err != nil {
//	    return err
//	}
package store

import (
	"context"
	"time"

	"github.com/matzehuels/cutgraph/pkg/config"
	"github.com/matzehuels/cutgraph/pkg/document"
	errs "github.com/matzehuels/cutgraph/pkg/errors"
	"github.com/matzehuels/cutgraph/pkg/observability"
)

// Store is the interface for document storage backends.
type Store interface {
	// Get loads the document with the given id.
	Get(ctx context.Context, id string) (document.Document, error)

	// Put saves doc, assigning a fresh id when doc.ID is empty.
	Put(ctx context.Context, doc *document.Document) error

	// Delete removes a document. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	// List returns a summary of every stored document, ordered by id.
	List(ctx context.Context) ([]Entry, error)

	// Close releases backend resources.
	Close() error
}

// Entry summarizes a stored document.
type Entry struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Nodes    int       `json:"nodes"`
	Modified time.Time `json:"modified"`
}

// Open returns the backend selected by cfg.
func Open(ctx context.Context, cfg config.Store) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.Dir)
	case config.BackendRedis:
		return NewRedisStore(ctx, RedisConfig{
			Addr:      cfg.RedisAddr,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
		})
	default:
		return nil, errs.New(errs.ErrCodeInvalidConfig, "unknown store backend %q", cfg.Backend)
	}
}

func notFound(id string) error {
	return errs.New(errs.ErrCodeDocumentNotFound, "document %q not found", id)
}

// prepare validates or assigns the document id before a write.
func prepare(doc *document.Document) error {
	if doc.ID == "" {
		doc.ID = document.NewID()
	}
	return errs.ValidateDocumentID(doc.ID)
}

func entryOf(d document.Document, modified time.Time) Entry {
	return Entry{ID: d.ID, Name: d.Name, Nodes: len(d.Nodes), Modified: modified}
}

func observeLoad(ctx context.Context, backend, id string, start time.Time, err error) {
	observability.Store().OnLoad(ctx, backend, id, time.Since(start), err)
}

func observeSave(ctx context.Context, backend, id string, size int, start time.Time, err error) {
	observability.Store().OnSave(ctx, backend, id, size, time.Since(start), err)
}
