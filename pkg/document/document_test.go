package document

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/cutgraph/pkg/config"
	"github.com/matzehuels/cutgraph/pkg/errors"
	"github.com/matzehuels/cutgraph/pkg/geom"
	"github.com/matzehuels/cutgraph/pkg/tree"
)

func sampleTree(t *testing.T) *tree.Tree {
	t.Helper()
	tr := tree.New(config.DefaultGrid())
	c, err := tr.AddCut(tree.RootID, geom.Pt(0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tr.AddStatement(c, geom.Pt(16, 16), 'P'); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.AddPlaceholder(tree.RootID, geom.Pt(200, 0)); err != nil {
		t.Fatal(err)
	}
	s, err := tr.AddStatement(tree.RootID, geom.Pt(300, 0), 'Q')
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tr.Delete(s); err != nil {
		t.Fatal(err)
	}
	return tr
}

func TestRoundTrip(t *testing.T) {
	tr := sampleTree(t)
	d := New(tr, "modus ponens")
	if d.ID == "" || d.Version != FormatVersion {
		t.Fatalf("New() = id %q version %d", d.ID, d.Version)
	}

	data, err := Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	back, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(back, d) {
		t.Errorf("document changed in round trip:\n got %+v\nwant %+v", back, d)
	}

	got, err := Import(back)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !reflect.DeepEqual(got.Records(), tr.Records()) {
		t.Error("imported records differ from the original tree")
	}
	if got.NextID() != tr.NextID() {
		t.Errorf("NextID = %d, want %d (deleted ids must not be reused)", got.NextID(), tr.NextID())
	}
}

func TestExportShape(t *testing.T) {
	d := Export(sampleTree(t))
	if d.ID != "" {
		t.Errorf("Export set ID %q", d.ID)
	}
	if len(d.Nodes) != 4 {
		t.Fatalf("len(Nodes) = %d, want 4", len(d.Nodes))
	}
	root := d.Nodes[0]
	if root.Kind != "root" || root.Parent != -1 {
		t.Errorf("root node = %+v", root)
	}
	st := d.Nodes[2]
	if st.Kind != "statement" || st.Label != "P" || st.Parent != 1 {
		t.Errorf("statement node = %+v", st)
	}
	if d.Nodes[3].Label != "" {
		t.Errorf("placeholder carries label %q", d.Nodes[3].Label)
	}
}

func TestImportRejects(t *testing.T) {
	valid := Export(sampleTree(t))

	tests := []struct {
		name   string
		mutate func(*Document)
	}{
		{"version", func(d *Document) { d.Version = 99 }},
		{"grid", func(d *Document) { d.Grid.Spacing = 0 }},
		{"kind", func(d *Document) { d.Nodes[1].Kind = "circle" }},
		{"label", func(d *Document) { d.Nodes[2].Label = "PQ" }},
		{"off grid", func(d *Document) { d.Nodes[3].X = 203 }},
		{"wrong box", func(d *Document) { d.Nodes[1].Box.Right += 16 }},
		{"overlap", func(d *Document) { d.Nodes[3].X = 16 }},
		{"no root", func(d *Document) { d.Nodes = d.Nodes[1:] }},
		{"huge next id", func(d *Document) { d.NextID = 1 << 40 }},
		{"huge node id", func(d *Document) { d.Nodes[3].ID = 1 << 40 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			d.Nodes = append([]Node(nil), valid.Nodes...)
			tt.mutate(&d)
			_, err := Import(d)
			if !errors.Is(err, errors.ErrCodeInvalidDocument) {
				t.Errorf("Import() error = %v, want INVALID_DOCUMENT", err)
			}
		})
	}
}

func TestUnmarshalMalformed(t *testing.T) {
	_, err := Unmarshal([]byte(`{"nodes": [`))
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Unmarshal() error = %v, want INVALID_FORMAT", err)
	}
}

func TestFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diagram.json")
	tr := sampleTree(t)
	if err := WriteFile(path, New(tr, "")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"kind": "cut"`) {
		t.Errorf("file is not indented JSON:\n%s", raw)
	}

	_, got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Len() != tr.Len() {
		t.Errorf("Len = %d, want %d", got.Len(), tr.Len())
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("ReadFile(missing) succeeded")
	}
}
