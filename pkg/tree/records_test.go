package tree

import (
	"errors"
	"reflect"
	"testing"

	"github.com/matzehuels/cutgraph/pkg/config"
	"github.com/matzehuels/cutgraph/pkg/geom"
)

func buildSample(t *testing.T) *Tree {
	t.Helper()
	tr := newTestTree()
	c := mustCut(t, tr, RootID, 0, 0)
	mustStatement(t, tr, c, 16, 16, 'P')
	tmp := mustStatement(t, tr, RootID, 300, 0, 'X')
	if _, err := tr.Delete(tmp); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.AddPlaceholder(RootID, geom.Pt(300, 300)); err != nil {
		t.Fatal(err)
	}
	return tr
}

func TestRecordsRoundTrip(t *testing.T) {
	tr := buildSample(t)
	recs := tr.Records()

	got, err := FromRecords(tr.Grid(), recs, tr.NextID())
	if err != nil {
		t.Fatalf("FromRecords error: %v", err)
	}
	if !reflect.DeepEqual(got.Records(), recs) {
		t.Errorf("records differ after round trip")
	}
	if got.NextID() != tr.NextID() || got.Len() != tr.Len() {
		t.Errorf("NextID %d/%d Len %d/%d", got.NextID(), tr.NextID(), got.Len(), tr.Len())
	}
	if got.Exists(3) {
		t.Error("deleted id should stay a tombstone")
	}
}

func TestFromRecordsRejects(t *testing.T) {
	good := buildSample(t).Records()
	grid := config.DefaultGrid()

	tests := []struct {
		name   string
		mutate func([]Record) []Record
	}{
		{"no root", func(r []Record) []Record { return r[1:] }},
		{"off grid", func(r []Record) []Record { r[1].Position.X += 3; return r }},
		{"wrong cut box", func(r []Record) []Record { r[1].DrawBox.Right += 16; return r }},
		{"wrong leaf size", func(r []Record) []Record { r[2].DrawBox.Right = 40; return r }},
		{"child before parent", func(r []Record) []Record { r[1], r[2] = r[2], r[1]; return r }},
		{"child of leaf", func(r []Record) []Record { r[3].Parent = r[2].ID; return r }},
		{"duplicate id", func(r []Record) []Record { r[3].ID = r[2].ID; return r }},
		{"overlap", func(r []Record) []Record { r[3].Position = geom.Pt(16, 16); return r }},
		{"huge id", func(r []Record) []Record { r[len(r)-1].ID = 1 << 40; return r }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := tt.mutate(append([]Record(nil), good...))
			_, err := FromRecords(grid, recs, 10)
			if err == nil {
				t.Fatal("FromRecords accepted a broken layout")
			}
		})
	}
}

func TestFromRecordsBoundsNextID(t *testing.T) {
	recs := buildSample(t).Records()
	grid := config.DefaultGrid()

	if _, err := FromRecords(grid, recs, 1<<40); !errors.Is(err, ErrInvariant) {
		t.Errorf("next 1<<40: err = %v, want ErrInvariant", err)
	}
	limit := NodeID(len(recs)) + MaxIDGap
	got, err := FromRecords(grid, recs, limit)
	if err != nil {
		t.Fatalf("next at the limit: %v", err)
	}
	if got.NextID() != limit {
		t.Errorf("NextID = %d, want %d", got.NextID(), limit)
	}
}

func TestFromRecordsInvalidLabel(t *testing.T) {
	recs := buildSample(t).Records()
	recs[2].Label = 0
	if _, err := FromRecords(config.DefaultGrid(), recs, 10); !errors.Is(err, ErrInvalidLabel) {
		t.Errorf("FromRecords = %v, want ErrInvalidLabel", err)
	}
}
