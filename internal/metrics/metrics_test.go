package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/v1/status":       "/v1/status",
		"/v1/runs/42":      "/v1/runs/{id}",
		"/v1/runs/42/logs": "/v1/runs/{id}/logs",
	}
	for in, want := range cases {
		if got := NormalizePath(in); got != want {
			t.Errorf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIncDispatch(t *testing.T) {
	before := testutil.ToFloat64(DispatchTotal.WithLabelValues("delivered"))
	IncDispatch("delivered")
	IncDispatch("delivered")
	if got := testutil.ToFloat64(DispatchTotal.WithLabelValues("delivered")) - before; got != 2 {
		t.Errorf("delivered delta = %v, want 2", got)
	}
}

func TestSetScanRunning(t *testing.T) {
	SetScanRunning(true)
	if got := testutil.ToFloat64(ScanRunning); got != 1 {
		t.Errorf("running gauge = %v, want 1", got)
	}
	SetScanRunning(false)
	if got := testutil.ToFloat64(ScanRunning); got != 0 {
		t.Errorf("running gauge = %v, want 0", got)
	}
}
