package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/matzehuels/cutgraph/pkg/config"
	"github.com/matzehuels/cutgraph/pkg/errors"
	"github.com/matzehuels/cutgraph/pkg/geom"
	"github.com/matzehuels/cutgraph/pkg/tree"
)

// FormatVersion is the document version written by this package.
const FormatVersion = 1

// Document is the serialized form of a layout tree.
type Document struct {
	Version int         `json:"version"`
	ID      string      `json:"id,omitempty"`
	Name    string      `json:"name,omitempty"`
	Grid    config.Grid `json:"grid"`
	NextID  int         `json:"next_id"`
	Nodes   []Node      `json:"nodes"`
}

// Node is one serialized tree node. X and Y are the grid-aligned offset in
// the parent's frame; Box is the draw box in the node's own frame.
type Node struct {
	ID     int     `json:"id"`
	Parent int     `json:"parent"`
	Kind   string  `json:"kind"`
	Label  string  `json:"label,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Box    Box     `json:"box"`
}

// Box is a serialized rectangle.
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

func boxOf(r geom.Rect) Box { return Box{r.Left, r.Top, r.Right, r.Bottom} }

// Rect converts the box back to a geometry rectangle.
func (b Box) Rect() geom.Rect { return geom.Rect{Left: b.Left, Top: b.Top, Right: b.Right, Bottom: b.Bottom} }

// NewID returns a fresh random document id.
func NewID() string { return uuid.NewString() }

// New exports t under a fresh id.
func New(t *tree.Tree, name string) Document {
	d := Export(t)
	d.ID = NewID()
	d.Name = name
	return d
}

// Export converts a tree to its document form. The ID and Name fields are
// left empty.
func Export(t *tree.Tree) Document {
	recs := t.Records()
	d := Document{
		Version: FormatVersion,
		Grid:    t.Grid(),
		NextID:  int(t.NextID()),
		Nodes:   make([]Node, len(recs)),
	}
	for i, r := range recs {
		n := Node{
			ID:     int(r.ID),
			Parent: int(r.Parent),
			Kind:   r.Kind.String(),
			X:      r.Position.X,
			Y:      r.Position.Y,
			Box:    boxOf(r.DrawBox),
		}
		if r.Kind == tree.Statement {
			n.Label = string(r.Label)
		}
		d.Nodes[i] = n
	}
	return d
}

// Import rebuilds the tree described by d. Structural or geometric
// problems are reported with code INVALID_DOCUMENT.
func Import(d Document) (*tree.Tree, error) {
	if d.Version != FormatVersion {
		return nil, errors.New(errors.ErrCodeInvalidDocument, "unsupported document version %d", d.Version)
	}
	if err := d.Grid.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "document grid")
	}
	recs := make([]tree.Record, len(d.Nodes))
	for i, n := range d.Nodes {
		kind, err := tree.ParseKind(n.Kind)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "node %d", n.ID)
		}
		r := tree.Record{
			ID:       tree.NodeID(n.ID),
			Parent:   tree.NodeID(n.Parent),
			Kind:     kind,
			Position: geom.Pt(n.X, n.Y),
			DrawBox:  n.Box.Rect(),
		}
		if kind == tree.Statement {
			label, err := errors.ValidateLabel(n.Label)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "node %d", n.ID)
			}
			r.Label = label
		}
		recs[i] = r
	}
	t, err := tree.FromRecords(d.Grid, recs, tree.NodeID(d.NextID))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "rebuild tree")
	}
	return t, nil
}

// =============================================================================
// JSON encoding
// =============================================================================

// Marshal encodes d as indented JSON.
func Marshal(d Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a document. The layout itself is only checked by Import.
func Unmarshal(data []byte) (Document, error) {
	return Read(bytes.NewReader(data))
}

// Write encodes d as indented JSON to w.
func Write(w io.Writer, d Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Read decodes a document from r.
func Read(r io.Reader) (Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode document")
	}
	return d, nil
}

// WriteFile writes d to path with 0644 permissions.
func WriteFile(path string, d Document) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, d); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads the document stored at path.
func ReadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Load reads path and imports the tree it describes.
func Load(path string) (Document, *tree.Tree, error) {
	d, err := ReadFile(path)
	if err != nil {
		return Document{}, nil, err
	}
	t, err := Import(d)
	if err != nil {
		return Document{}, nil, err
	}
	return d, t, nil
}
