package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/metrics"
)

func TestRegister_ServesMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := configs.MetricsConfig{
		Enabled:        true,
		Path:           "/metrics",
		RuntimeMetrics: true,
		Labels:         map[string]string{"service": "filevault"},
	}

	engine := gin.New()
	metrics.Register(engine, cfg)

	metrics.UploadsTotal.WithLabelValues(metrics.ResultCreated).Inc()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	body, _ := io.ReadAll(w.Body)
	for _, want := range []string{
		`filevault_uploads_total{result="created",service="filevault"}`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestRegister_Disabled(t *testing.T) {
	engine := gin.New()
	metrics.Register(engine, configs.MetricsConfig{Enabled: false, Path: "/metrics"})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
