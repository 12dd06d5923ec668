package shimbuild

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := newTestResolver(t, WithMetrics(reg))

	if _, err := r.Resolve(context.Background(), Request{Targets: map[string]string{"chrome": "60"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Resolve(context.Background(), Request{Exclude: []string{"nope"}}); err == nil {
		t.Fatal("expected unknown module error")
	}
	if _, err := r.Resolve(context.Background(), Request{Targets: map[string]string{"opera": "1"}}); err != nil {
		t.Fatal(err)
	}

	if got := testutil.ToFloat64(r.metrics.resolutions); got != 3 {
		t.Errorf("resolutions = %v, want 3", got)
	}
	if got := testutil.ToFloat64(r.metrics.failures.WithLabelValues("unknown_module")); got != 1 {
		t.Errorf("unknown_module failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.metrics.diagnostics.WithLabelValues(UnknownEnvironment.String())); got != 1 {
		t.Errorf("unknown-environment diagnostics = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(r.metrics.modules); got != 1 {
		t.Errorf("resolved modules histogram series = %d, want 1", got)
	}
}

func TestMetrics_SharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := newTestResolver(t, WithMetrics(reg))
	second := newTestResolver(t, WithMetrics(reg))

	if _, err := first.Resolve(context.Background(), Request{}); err != nil {
		t.Fatal(err)
	}
	if _, err := second.Resolve(context.Background(), Request{}); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(first.metrics.resolutions); got != 2 {
		t.Errorf("shared resolutions counter = %v, want 2", got)
	}
}

func TestMetrics_Disabled(t *testing.T) {
	r := newTestResolver(t)
	if r.metrics != nil {
		t.Fatal("metrics should be nil without WithMetrics")
	}
	if _, err := r.Resolve(context.Background(), Request{}); err != nil {
		t.Fatal(err)
	}
}
