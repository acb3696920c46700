package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/cutgraph/pkg/errors"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return NewMetrics(prometheus.NewRegistry())
}

func TestMetricsEdit(t *testing.T) {
	m := newTestMetrics(t)

	m.OnEdit("move", 3, time.Microsecond, nil)
	m.OnEdit("move", 0, time.Microsecond, errors.New(errors.ErrCodeCollision, "blocked"))
	m.OnEdit("move", 0, time.Microsecond, fmt.Errorf("plain"))

	tests := []struct {
		result string
		want   float64
	}{
		{"ok", 1},
		{"collision", 1},
		{"error", 1},
	}
	for _, tt := range tests {
		t.Run(tt.result, func(t *testing.T) {
			got := testutil.ToFloat64(m.EditsTotal.WithLabelValues("move", tt.result))
			if got != tt.want {
				t.Errorf("edits{result=%s} = %v, want %v", tt.result, got, tt.want)
			}
		})
	}
	if got := testutil.ToFloat64(m.ChangedNodesTotal.WithLabelValues("move")); got != 3 {
		t.Errorf("changed nodes = %v, want 3", got)
	}

	m.OnSelection(4)
	if got := testutil.ToFloat64(m.SelectionSize); got != 4 {
		t.Errorf("selection size = %v, want 4", got)
	}
}

func TestMetricsHTTP(t *testing.T) {
	m := newTestMetrics(t)
	ctx := context.Background()

	m.OnRequest(ctx, "POST", "/v1/canvases")
	if got := testutil.ToFloat64(m.HTTPInFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}
	m.OnError(ctx, "POST", "/v1/canvases", errors.New(errors.ErrCodeInvalidInput, "bad"))
	m.OnResponse(ctx, "POST", "/v1/canvases", 400, time.Millisecond)

	if got := testutil.ToFloat64(m.HTTPInFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/v1/canvases", "400")); got != 1 {
		t.Errorf("requests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.HTTPErrorsTotal.WithLabelValues("/v1/canvases", "invalid_input")); got != 1 {
		t.Errorf("errors = %v, want 1", got)
	}
}

func TestMetricsStoreAndCache(t *testing.T) {
	m := newTestMetrics(t)
	ctx := context.Background()

	m.OnSave(ctx, "file", "a", 100, time.Millisecond, nil)
	m.OnLoad(ctx, "file", "a", time.Millisecond, errors.New(errors.ErrCodeDocumentNotFound, "a"))
	m.OnDelete(ctx, "file", "a", nil)
	m.OnCacheMiss(ctx, "svg")
	m.OnCacheSet(ctx, "svg", 10)
	m.OnCacheHit(ctx, "svg")
	m.OnRenderComplete(ctx, "svg", 512, time.Millisecond, nil)

	checks := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"save", m.StoreOpsTotal.WithLabelValues("file", "save", "ok"), 1},
		{"load", m.StoreOpsTotal.WithLabelValues("file", "load", "document_not_found"), 1},
		{"delete", m.StoreOpsTotal.WithLabelValues("file", "delete", "ok"), 1},
		{"hit", m.CacheEventsTotal.WithLabelValues("svg", "hit"), 1},
		{"miss", m.CacheEventsTotal.WithLabelValues("svg", "miss"), 1},
		{"render", m.RendersTotal.WithLabelValues("svg", "ok"), 1},
	}
	for _, tt := range checks {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestRegisterMetrics(t *testing.T) {
	Reset()
	defer Reset()

	m := newTestMetrics(t)
	Register(m)
	if Edit() != EditHooks(m) || HTTP() != HTTPHooks(m) || Store() != StoreHooks(m) {
		t.Error("Register(metrics) should install every hook category")
	}
}
