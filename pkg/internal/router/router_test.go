package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/router"
)

// stubRoutes 每个处理器返回不同的状态码，便于确认绑定关系.
type stubRoutes struct{}

func status(code int) gin.HandlerFunc { return func(c *gin.Context) { c.Status(code) } }

func (stubRoutes) Upload() gin.HandlerFunc     { return status(201) }
func (stubRoutes) List() gin.HandlerFunc       { return status(200) }
func (stubRoutes) Get() gin.HandlerFunc        { return status(203) }
func (stubRoutes) Delete() gin.HandlerFunc     { return status(204) }
func (stubRoutes) URL() gin.HandlerFunc        { return status(205) }
func (stubRoutes) Download() gin.HandlerFunc   { return status(302) }
func (stubRoutes) Types() gin.HandlerFunc      { return status(206) }
func (stubRoutes) Stats() gin.HandlerFunc      { return status(207) }
func (stubRoutes) Duplicates() gin.HandlerFunc { return status(208) }
func (stubRoutes) Cleanup() gin.HandlerFunc    { return status(202) }

func TestSetup_Bindings(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	router.Setup(r, &configs.AppConfig{}, stubRoutes{})

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodPost, "/api/v1/files", 201},
		{http.MethodGet, "/api/v1/files", 200},
		{http.MethodGet, "/api/v1/files/types", 206},
		{http.MethodGet, "/api/v1/files/stats", 207},
		{http.MethodGet, "/api/v1/files/duplicates", 208},
		{http.MethodPost, "/api/v1/files/cleanup", 202},
		{http.MethodGet, "/api/v1/files/abc", 203},
		{http.MethodDelete, "/api/v1/files/abc", 204},
		{http.MethodGet, "/api/v1/files/abc/url", 205},
		{http.MethodGet, "/api/v1/files/abc/download", 302},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))

		if w.Code != tc.want {
			t.Errorf("%s %s = %d, want %d", tc.method, tc.path, w.Code, tc.want)
		}
	}
}

func TestSetup_OptionalRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	router.Setup(r, &configs.AppConfig{}, stubRoutes{})

	has := map[string]bool{}
	for _, ri := range r.Routes() {
		has[ri.Method+" "+ri.Path] = true
	}

	for _, want := range []string{
		"GET /api/v1/health/db",
		"GET /api/v1/health/kv",
		"GET /api/v1/scheduler/jobs",
		"POST /api/v1/scheduler/jobs/:name/run",
	} {
		if !has[want] {
			t.Errorf("missing route %s", want)
		}
	}

	// 未开启 debug 与 metrics
	for _, absent := range []string{"GET /swagger/*any", "GET /metrics"} {
		if has[absent] {
			t.Errorf("unexpected route %s", absent)
		}
	}
}

func TestScheduler_NotRunning(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	router.Setup(r, &configs.AppConfig{}, stubRoutes{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/scheduler/jobs", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d, want 503", w.Code)
	}
}

func TestSetup_NoRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	router.Setup(r, &configs.AppConfig{}, stubRoutes{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/files", nil))

	if w.Code != http.StatusNotFound || w.Body.String() != `{"error":"route not found"}` {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}
