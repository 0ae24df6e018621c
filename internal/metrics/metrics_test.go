package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin()
	c.RecordLogin()
	c.RecordLoginFailure()
	c.RecordSubmission()
	c.RecordSubmissionFailure()

	if got := testutil.ToFloat64(c.logins); got != 2 {
		t.Errorf("selfcheck_logins_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.loginFails); got != 1 {
		t.Errorf("selfcheck_login_fail_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.submissions); got != 1 {
		t.Errorf("selfcheck_submissions_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.submitFails); got != 1 {
		t.Errorf("selfcheck_submission_fail_total = %v, want 1", got)
	}
}

func TestCollector_HTTPStatusByCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(404)

	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("200")); got != 2 {
		t.Errorf("status 200 count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("404")); got != 1 {
		t.Errorf("status 404 count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.httpStatus.WithLabelValues("500")); got != 0 {
		t.Errorf("status 500 count = %v, want 0", got)
	}
}

func TestHandler_ExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin()
	c.RecordSubmitLatency(150 * time.Millisecond)

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := w.Body.String()
	for _, name := range []string{
		"selfcheck_logins_total 1",
		"selfcheck_submit_latency_seconds_count 1",
		"selfcheck_submissions_total 0",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output should contain %q", name)
		}
	}
}

func TestNewCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	defer func() {
		if recover() == nil {
			t.Error("registering the same metrics twice should panic")
		}
	}()
	NewCollector(reg)
}
