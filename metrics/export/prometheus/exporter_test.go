package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authcore "github.com/MrEthical07/authcore"
)

type fakeSource struct {
	snapshot authcore.MetricsSnapshot
	dropped  uint64
}

func (s *fakeSource) MetricsSnapshot() authcore.MetricsSnapshot { return s.snapshot }
func (s *fakeSource) AuditDropped() uint64                      { return s.dropped }

func populatedSource() *fakeSource {
	return &fakeSource{
		snapshot: authcore.MetricsSnapshot{
			Counters: map[authcore.MetricID]uint64{
				authcore.MetricLoginSuccess:        3,
				authcore.MetricRefreshSuccess:      7,
				authcore.MetricRefreshIdempotentHit: 2,
			},
			Histograms: map[authcore.MetricID][]uint64{
				authcore.MetricRefreshLatency: {5, 1, 0, 0, 0, 0, 0, 2},
			},
		},
		dropped: 4,
	}
}

func TestRenderCounters(t *testing.T) {
	exporter := NewPrometheusExporterFromSource(populatedSource())
	out := exporter.Render()

	for _, want := range []string{
		"# TYPE authcore_login_success_total counter",
		"authcore_login_success_total 3",
		"authcore_refresh_success_total 7",
		"authcore_refresh_idempotent_hit_total 2",
		"authcore_audit_dropped_total 4",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}

	// Unset counters still render, at zero.
	if !strings.Contains(out, "authcore_login_failure_total 0") {
		t.Fatalf("zero counter missing:\n%s", out)
	}
}

func TestRenderHistogramIsCumulative(t *testing.T) {
	exporter := NewPrometheusExporterFromSource(populatedSource())
	out := exporter.Render()

	for _, want := range []string{
		"# TYPE authcore_refresh_latency_seconds histogram",
		`authcore_refresh_latency_seconds_bucket{le="0.005"} 5`,
		`authcore_refresh_latency_seconds_bucket{le="0.01"} 6`,
		`authcore_refresh_latency_seconds_bucket{le="+Inf"} 8`,
		"authcore_refresh_latency_seconds_count 8",
		"authcore_refresh_latency_seconds_sum 0",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderEmptySource(t *testing.T) {
	exporter := NewPrometheusExporterFromSource(&fakeSource{
		snapshot: authcore.MetricsSnapshot{
			Counters:   map[authcore.MetricID]uint64{},
			Histograms: map[authcore.MetricID][]uint64{},
		},
	})
	if out := exporter.Render(); out != "" {
		t.Fatalf("expected empty output, got:\n%s", out)
	}

	var nilExporter *PrometheusExporter
	if out := nilExporter.Render(); out != "" {
		t.Fatalf("nil exporter produced output:\n%s", out)
	}
}

func TestHandlerServesExposition(t *testing.T) {
	exporter := NewPrometheusExporterFromSource(populatedSource())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exporter.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "authcore_login_success_total 3") {
		t.Fatalf("body missing counter:\n%s", body)
	}
}
