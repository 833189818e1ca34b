package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewCanBeCalledRepeatedly(t *testing.T) {
	first := New()
	second := New()
	if first.registry == second.registry {
		t.Fatal("expected independent registries")
	}
}

func TestRecordAnalysis(t *testing.T) {
	m := New()
	m.RecordAnalysis("image", OutcomeAI)
	m.RecordAnalysis("image", OutcomeAI)
	m.RecordAnalysis("video", OutcomeDetectorError)

	if got := testutil.ToFloat64(m.Analyses.WithLabelValues("image", OutcomeAI)); got != 2 {
		t.Fatalf("expected 2 image/ai analyses, got %v", got)
	}
	if got := testutil.ToFloat64(m.Analyses.WithLabelValues("video", OutcomeDetectorError)); got != 1 {
		t.Fatalf("expected 1 video/detector_error analysis, got %v", got)
	}
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := New()
	m.ObserveDetectorCall("200", 120*time.Millisecond)

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/api/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/health", http.MethodGet, "200")); got != 1 {
		t.Fatalf("expected one health request, got %v", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("unmatched", http.MethodGet, "404")); got != 1 {
		t.Fatalf("expected one unmatched request, got %v", got)
	}

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(resp.Body)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	for _, name := range []string{"aicheck_http_requests_total", "aicheck_detector_duration_seconds"} {
		if !strings.Contains(string(body), name) {
			t.Fatalf("expected exposition to contain %s", name)
		}
	}
}
