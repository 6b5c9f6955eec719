package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrEthical07/roomrent"
)

type fakeSource struct {
	snapshot     roomrent.MetricsSnapshot
	auditDropped uint64
	mailDropped  uint64
}

func (f fakeSource) MetricsSnapshot() roomrent.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                      { return f.auditDropped }
func (f fakeSource) NotificationsDropped() uint64              { return f.mailDropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := New(fakeSource{
		snapshot: roomrent.MetricsSnapshot{
			Counters:   map[roomrent.MetricID]uint64{},
			Histograms: map[roomrent.MetricID][]uint64{},
		},
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCountersHistogramAndDrops(t *testing.T) {
	exp := New(fakeSource{
		snapshot: roomrent.MetricsSnapshot{
			Counters: map[roomrent.MetricID]uint64{
				roomrent.MetricLoginSuccess:    7,
				roomrent.MetricOTPVerifyFailure: 3,
			},
			Histograms: map[roomrent.MetricID][]uint64{
				roomrent.MetricAuthenticateLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		auditDropped: 2,
		mailDropped:  4,
	})

	out := exp.Render()
	for _, want := range []string{
		"roomrent_login_success_total 7",
		"roomrent_otp_verify_failure_total 3",
		"roomrent_register_success_total 0",
		"roomrent_authenticate_latency_seconds_bucket{le=\"0.005\"} 1",
		"roomrent_authenticate_latency_seconds_bucket{le=\"+Inf\"} 36",
		"roomrent_authenticate_latency_seconds_count 36",
		"roomrent_audit_dropped_total 2",
		"roomrent_notifications_dropped_total 4",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := New(fakeSource{
		snapshot: roomrent.MetricsSnapshot{
			Counters:   map[roomrent.MetricID]uint64{roomrent.MetricLoginSuccess: 1},
			Histograms: map[roomrent.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
