package server

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/cutgraph/pkg/canvas"
	"github.com/matzehuels/cutgraph/pkg/document"
	"github.com/matzehuels/cutgraph/pkg/errors"
)

// session is one open canvas. mu serialises every use of cv.
type session struct {
	mu      sync.Mutex
	id      string
	docID   string // store id, empty until first save
	name    string
	cv      *canvas.Canvas
	created time.Time
	touched time.Time
}

// document exports the canvas under the session's store identity.
// Callers hold mu.
func (s *session) document() document.Document {
	d := document.Export(s.cv.Tree())
	d.ID, d.Name = s.docID, s.name
	return d
}

type sessions struct {
	mu sync.RWMutex
	m  map[string]*session
}

func newSessions() *sessions {
	return &sessions{m: make(map[string]*session)}
}

func (ss *sessions) add(docID, name string, cv *canvas.Canvas) *session {
	now := time.Now()
	s := &session{
		id:      uuid.NewString(),
		docID:   docID,
		name:    name,
		cv:      cv,
		created: now,
		touched: now,
	}
	ss.mu.Lock()
	ss.m[s.id] = s
	ss.mu.Unlock()
	return s
}

func (ss *sessions) get(id string) (*session, error) {
	ss.mu.RLock()
	s, ok := ss.m[id]
	ss.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no canvas session %q", id)
	}
	return s, nil
}

func (ss *sessions) remove(id string) bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if _, ok := ss.m[id]; !ok {
		return false
	}
	delete(ss.m, id)
	return true
}

// list returns the sessions ordered by creation time.
func (ss *sessions) list() []*session {
	ss.mu.RLock()
	out := make([]*session, 0, len(ss.m))
	for _, s := range ss.m {
		out = append(out, s)
	}
	ss.mu.RUnlock()
	slices.SortFunc(out, func(a, b *session) int {
		if c := a.created.Compare(b.created); c != 0 {
			return c
		}
		return strings.Compare(a.id, b.id)
	})
	return out
}
