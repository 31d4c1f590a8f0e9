package zekta

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSeriesPrometheusCollectors(t *testing.T) {
	ctx := context.Background()
	s := openTestSeries(t, t.TempDir(), 1)
	defer s.Close()

	reg := prometheus.NewRegistry()
	for _, c := range s.PrometheusCollectors() {
		if err := reg.Register(c); err != nil {
			t.Fatalf("Register failed: %v", err)
		}
	}

	if err := s.Push(ctx, 1, []byte{1}); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if err := s.Flush(ctx, FlushOptions{Unload: true}); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if got := testutil.ToFloat64(s.metrics.loads); got != 1 {
		t.Errorf("loads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.metrics.flushes); got != 1 {
		t.Errorf("flushes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(s.metrics.unloads); got != 1 {
		t.Errorf("unloads = %v, want 1", got)
	}
}
