package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/cutgraph/pkg/canvas"
	"github.com/matzehuels/cutgraph/pkg/document"
	errs "github.com/matzehuels/cutgraph/pkg/errors"
	"github.com/matzehuels/cutgraph/pkg/geom"
	"github.com/matzehuels/cutgraph/pkg/observability"
	"github.com/matzehuels/cutgraph/pkg/render"
	"github.com/matzehuels/cutgraph/pkg/store"
	"github.com/matzehuels/cutgraph/pkg/tree"
)

// =============================================================================
// Wire types
// =============================================================================

// CreateRequest opens a canvas. With DocumentID the stored document is
// loaded; with Document the inline document is; otherwise the canvas
// starts empty.
type CreateRequest struct {
	Name       string             `json:"name,omitempty"`
	DocumentID string             `json:"document_id,omitempty"`
	Document   *document.Document `json:"document,omitempty"`
}

// State describes a session.
type State struct {
	ID          string            `json:"id"`
	DocumentID  string            `json:"document_id,omitempty"`
	Name        string            `json:"name,omitempty"`
	Nodes       int               `json:"nodes"`
	Highlighted tree.NodeID       `json:"highlighted"`
	Selection   []tree.NodeID     `json:"selection"`
	Pointer     geom.Point        `json:"pointer"`
	CanUndo     bool              `json:"can_undo"`
	CanRedo     bool              `json:"can_redo"`
	Bounds      bool              `json:"bounds"`
	Document    document.Document `json:"document"`
}

// CommandsRequest is either a single command or a list of them.
type CommandsRequest struct {
	canvas.Command
	Commands []canvas.Command `json:"commands,omitempty"`
}

// CommandsResponse reports the commands that ran. When one fails, Results
// holds the ones before it and Error describes the failure.
type CommandsResponse struct {
	Results []canvas.Result `json:"results"`
	State   State           `json:"state"`
	Error   *APIError       `json:"error,omitempty"`
}

// SaveRequest optionally renames the document before saving.
type SaveRequest struct {
	Name string `json:"name,omitempty"`
}

// SaveResponse names the stored document.
type SaveResponse struct {
	DocumentID string `json:"document_id"`
	Name       string `json:"name,omitempty"`
	Nodes      int    `json:"nodes"`
}

// APIError is the body of every failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error APIError `json:"error"`
}

// state captures the session. Callers hold s.mu.
func (s *session) state() State {
	t := s.cv.Tree()
	return State{
		ID:          s.id,
		DocumentID:  s.docID,
		Name:        s.name,
		Nodes:       t.Len() - 1,
		Highlighted: s.cv.Highlighted(),
		Selection:   nonNil(s.cv.Selection()),
		Pointer:     s.cv.Pointer(),
		CanUndo:     s.cv.CanUndo(),
		CanRedo:     s.cv.CanRedo(),
		Bounds:      s.cv.ShowBounds(),
		Document:    s.document(),
	}
}

func nonNil(ids []tree.NodeID) []tree.NodeID {
	if ids == nil {
		return []tree.NodeID{}
	}
	return ids
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := decodeJSON(r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}

	var (
		t     *tree.Tree
		docID string
		name  = req.Name
	)
	switch {
	case req.DocumentID != "":
		d, err := s.store.Get(r.Context(), req.DocumentID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if t, err = document.Import(d); err != nil {
			s.writeError(w, r, err)
			return
		}
		docID = d.ID
		if name == "" {
			name = d.Name
		}
	case req.Document != nil:
		var err error
		if t, err = document.Import(*req.Document); err != nil {
			s.writeError(w, r, err)
			return
		}
		if name == "" {
			name = req.Document.Name
		}
	default:
		t = tree.New(s.grid)
	}

	cv := canvas.New(t.Grid(), canvas.WithTree(t), canvas.WithHistory(s.history), canvas.WithLogger(s.logger))
	sess := s.sessions.add(docID, name, cv)
	s.logger.Info("canvas opened", "session", sess.id, "document", docID, "nodes", t.Len()-1)

	sess.mu.Lock()
	st := sess.state()
	sess.mu.Unlock()
	w.Header().Set("Location", "/v1/canvases/"+sess.id)
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	type summary struct {
		ID         string    `json:"id"`
		DocumentID string    `json:"document_id,omitempty"`
		Name       string    `json:"name,omitempty"`
		Nodes      int       `json:"nodes"`
		Touched    time.Time `json:"touched"`
	}
	out := []summary{}
	for _, sess := range s.sessions.list() {
		sess.mu.Lock()
		out = append(out, summary{
			ID:         sess.id,
			DocumentID: sess.docID,
			Name:       sess.name,
			Nodes:      sess.cv.Tree().Len() - 1,
			Touched:    sess.touched,
		})
		sess.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess.mu.Lock()
	st := sess.state()
	sess.mu.Unlock()
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.sessions.remove(id) {
		s.writeError(w, r, errs.New(errs.ErrCodeNotFound, "no canvas session %q", id))
		return
	}
	s.logger.Info("canvas closed", "session", id)
	w.WriteHeader(http.StatusNoContent)
}

// handleCommands runs commands in order and stops at the first failure.
// A text/plain body is read as a script, one command per line.
func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	cmds, err := readCommands(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.touched = time.Now()

	resp := CommandsResponse{Results: []canvas.Result{}}
	status := http.StatusOK
	for _, cmd := range cmds {
		res, err := sess.cv.Execute(cmd)
		if err != nil {
			err = canvas.Classify(err)
			status = errs.HTTPStatus(err)
			resp.Error = apiError(err)
			s.hookError(r, err)
			break
		}
		resp.Results = append(resp.Results, res)
	}
	resp.State = sess.state()
	writeJSON(w, status, resp)
}

func readCommands(r *http.Request) ([]canvas.Command, error) {
	if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct == "text/plain" {
		cmds, err := canvas.ParseScript(r.Body)
		if err != nil {
			return nil, err
		}
		if len(cmds) == 0 {
			return nil, errs.New(errs.ErrCodeInvalidInput, "script holds no commands")
		}
		return cmds, nil
	}

	var req CommandsRequest
	if err := decodeJSON(r, &req, false); err != nil {
		return nil, err
	}
	switch {
	case len(req.Commands) > 0:
		return req.Commands, nil
	case req.Op != "":
		return []canvas.Command{req.Command}, nil
	}
	return nil, errs.New(errs.ErrCodeInvalidInput, "request holds no commands")
}

// handleSVG draws the canvas. Query parameters: style=simple|mono,
// flags=false to hide selection state, margin=N.
func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	var opts []render.SVGOption
	switch q.Get("style") {
	case "", "simple":
	case "mono":
		opts = append(opts, render.WithStyle(render.Mono{}))
	default:
		s.writeError(w, r, errs.New(errs.ErrCodeInvalidInput, "unknown style %q", q.Get("style")))
		return
	}
	if q.Get("flags") == "false" {
		opts = append(opts, render.WithoutFlags())
	}
	if m := q.Get("margin"); m != "" {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil || v < 0 {
			s.writeError(w, r, errs.New(errs.ErrCodeInvalidInput, "invalid margin %q", m))
			return
		}
		opts = append(opts, render.WithMargin(v))
	}

	sess.mu.Lock()
	opts = append(opts, render.WithProbes(sess.cv.Probes()))
	svg, err := render.Render(r.Context(), sess.cv.Tree(), render.FormatSVG, opts...)
	sess.mu.Unlock()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// handleSave writes the canvas to the store. The first save assigns the
// document id; later saves overwrite it.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req SaveRequest
	if err := decodeJSON(r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if req.Name != "" {
		sess.name = req.Name
	}
	d := sess.document()
	if err := s.store.Put(r.Context(), &d); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess.docID = d.ID
	sess.touched = time.Now()
	s.logger.Info("canvas saved", "session", sess.id, "document", d.ID)
	writeJSON(w, http.StatusOK, SaveResponse{DocumentID: d.ID, Name: d.Name, Nodes: len(d.Nodes) - 1})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// =============================================================================
// Encoding
// =============================================================================

// decodeJSON reads one JSON value from the body. With optional an empty
// body leaves v untouched.
func decodeJSON(r *http.Request, v any, optional bool) error {
	if r.Body == nil {
		if optional {
			return nil
		}
		return errs.New(errs.ErrCodeInvalidInput, "request body is empty")
	}
	err := json.NewDecoder(r.Body).Decode(v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		if optional {
			return nil
		}
		return errs.New(errs.ErrCodeInvalidInput, "request body is empty")
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "request body larger than %d bytes", mbe.Limit)
	}
	return errs.Wrap(errs.ErrCodeInvalidInput, err, "decode request")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	err = canvas.Classify(err)
	status := errs.HTTPStatus(err)
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		status = http.StatusRequestEntityTooLarge
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	s.hookError(r, err)
	writeJSON(w, status, errorBody{Error: *apiError(err)})
}

func (s *Server) hookError(r *http.Request, err error) {
	route := r.URL.Path
	if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
		route = rc.RoutePattern()
	}
	observability.HTTP().OnError(r.Context(), r.Method, route, err)
}

func apiError(err error) *APIError {
	return &APIError{Code: string(errs.GetCode(err)), Message: errs.UserMessage(err)}
}
