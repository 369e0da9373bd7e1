package handle_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/filter"
	"github.com/yeisme/filevault/pkg/internal/handle"
	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/internal/types"
	"github.com/yeisme/filevault/pkg/rule"
)

func TestMain(m *testing.M) {
	// 与 app 启动顺序一致：先装好 rule 引擎再注册路由
	rule.Engine()
	gin.SetMode(gin.TestMode)

	os.Exit(m.Run())
}

// fakeService 记录调用参数并返回预设结果.
type fakeService struct {
	uploadName string
	uploadType string
	uploadBody string
	uploadErr  error

	listQuery filter.Query
	listPage  int
	listSize  int

	deleted   string
	deleteErr error
}

func (f *fakeService) Upload(_ context.Context, name, contentType string, size int64, r io.Reader) (*types.UploadResponse, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}

	b, _ := io.ReadAll(r)
	f.uploadName, f.uploadType, f.uploadBody = name, contentType, string(b)

	return &types.UploadResponse{
		FileView:      types.FileView{ID: "f-1", OriginalFilename: name, Size: size},
		UploadDetails: types.UploadDetails{WasDeduplicated: true, ContentHash: "2cf24dba...", StorageSaved: size},
	}, nil
}

func (f *fakeService) List(_ context.Context, q filter.Query, page, pageSize int) (*types.ListFilesResponse, error) {
	f.listQuery, f.listPage, f.listSize = q, page, pageSize

	return &types.ListFilesResponse{Count: 1, Page: page, PageSize: pageSize, Results: []types.FileView{{ID: "f-1"}}}, nil
}

func (f *fakeService) Get(_ context.Context, id string) (*types.FileView, error) {
	if id != "f-1" {
		return nil, fmt.Errorf("%w: %s", service.ErrNotFound, id)
	}

	return &types.FileView{ID: id}, nil
}

func (f *fakeService) Delete(_ context.Context, id string) error {
	f.deleted = id
	return f.deleteErr
}

func (f *fakeService) DownloadURL(_ context.Context, id string) (*types.FileURLResponse, error) {
	return &types.FileURLResponse{ID: id, URL: "http://blobs.local/" + id, ExpiresIn: 60}, nil
}

func (f *fakeService) FileTypes(context.Context) ([]string, error) {
	return []string{"image/png", "text/plain"}, nil
}

func (f *fakeService) Stats(context.Context) (*types.StatsResponse, error) {
	return &types.StatsResponse{Summary: types.StatsSummary{TotalFiles: 3, DeduplicationRatio: "33.3%"}}, nil
}

func (f *fakeService) Duplicates(context.Context) (*types.DuplicatesResponse, error) {
	return &types.DuplicatesResponse{Duplicates: []types.DuplicateGroup{}}, nil
}

func (f *fakeService) CleanupOrphans(context.Context) (int, error) {
	return 2, nil
}

func newEngine(svc *fakeService) *gin.Engine {
	gin.SetMode(gin.TestMode)

	h := handle.NewFileHandlers(func(context.Context) handle.FileService { return svc }, configs.UploadConfig{
		MaxSize:   1024,
		FormField: "file",
	})

	r := gin.New()
	g := r.Group("/api/v1/files")
	g.POST("", h.Upload())
	g.GET("", h.List())
	g.GET("/types", h.Types())
	g.GET("/stats", h.Stats())
	g.GET("/duplicates", h.Duplicates())
	g.POST("/cleanup", h.Cleanup())
	g.GET("/:id", h.Get())
	g.DELETE("/:id", h.Delete())
	g.GET("/:id/url", h.URL())
	g.GET("/:id/download", h.Download())

	return r
}

func multipartBody(t *testing.T, field, filename, contentType, content string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	hdr.Set("Content-Type", contentType)

	part, err := w.CreatePart(hdr)
	if err != nil {
		t.Fatal(err)
	}

	_, _ = part.Write([]byte(content))
	_ = w.Close()

	return &buf, w.FormDataContentType()
}

func TestUpload(t *testing.T) {
	svc := &fakeService{}
	r := newEngine(svc)

	body, ct := multipartBody(t, "file", "hello.txt", "text/plain", "hello")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/files", body)
	req.Header.Set("Content-Type", ct)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp types.UploadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	if !resp.UploadDetails.WasDeduplicated || resp.OriginalFilename != "hello.txt" {
		t.Errorf("resp = %+v", resp)
	}

	if svc.uploadName != "hello.txt" || svc.uploadType != "text/plain" || svc.uploadBody != "hello" {
		t.Errorf("service got %q %q %q", svc.uploadName, svc.uploadType, svc.uploadBody)
	}
}

func TestUpload_Errors(t *testing.T) {
	cases := []struct {
		name  string
		field string
		err   error
		want  int
	}{
		{"missing file", "other", nil, http.StatusBadRequest},
		{"too large", "file", fmt.Errorf("%w: 2048 bytes", service.ErrFileTooLarge), http.StatusRequestEntityTooLarge},
		{"empty", "file", service.ErrEmptyFile, http.StatusBadRequest},
		{"internal", "file", fmt.Errorf("store blob: connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newEngine(&fakeService{uploadErr: tc.err})

			body, ct := multipartBody(t, tc.field, "a.bin", "application/octet-stream", "x")
			req := httptest.NewRequest(http.MethodPost, "/api/v1/files", body)
			req.Header.Set("Content-Type", ct)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d, body = %s", w.Code, tc.want, w.Body.String())
			}

			var resp types.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Error == "" {
				t.Errorf("error body = %s", w.Body.String())
			}
		})
	}
}

func TestList(t *testing.T) {
	svc := &fakeService{}
	r := newEngine(svc)

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/files?search=report&file_type=all&min_size=10&max_size=1e3&start_date=2025-01-01&ordering=bogus&page=2&page_size=10", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	q := svc.listQuery
	if q.Search == nil || *q.Search != "report" {
		t.Errorf("search = %v", q.Search)
	}

	if q.FileType != nil {
		t.Errorf("file_type=all must not filter, got %q", *q.FileType)
	}

	if q.MinSize == nil || *q.MinSize != 10 || q.MaxSize != nil {
		t.Errorf("sizes = %v / %v", q.MinSize, q.MaxSize)
	}

	if q.StartDate == nil || *q.StartDate != "2025-01-01" || q.EndDate != nil {
		t.Errorf("dates = %v / %v", q.StartDate, q.EndDate)
	}

	if q.OrderingOrDefault() != filter.DefaultOrdering {
		t.Errorf("ordering = %v", q.OrderingOrDefault())
	}

	if svc.listPage != 2 || svc.listSize != 10 {
		t.Errorf("page = %d/%d", svc.listPage, svc.listSize)
	}
}

func TestList_InvalidPage(t *testing.T) {
	cases := []struct {
		query string
		field string
	}{
		{"page=-1", "page"},
		{"page_size=500", "page_size"},
		{"page=abc", ""},
	}

	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			svc := &fakeService{}
			r := newEngine(svc)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/files?"+tc.query, nil))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
			}

			if tc.field == "" {
				return
			}

			var resp types.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}

			if _, ok := resp.Fields[tc.field]; !ok {
				t.Errorf("fields = %v, want key %q", resp.Fields, tc.field)
			}
		})
	}
}

func TestFileRoutes(t *testing.T) {
	cases := []struct {
		method, path string
		want         int
		contains     string
	}{
		{http.MethodGet, "/api/v1/files/f-1", http.StatusOK, `"id":"f-1"`},
		{http.MethodGet, "/api/v1/files/missing", http.StatusNotFound, "file not found"},
		{http.MethodGet, "/api/v1/files/f-1/url", http.StatusOK, "http://blobs.local/f-1"},
		{http.MethodGet, "/api/v1/files/types", http.StatusOK, `"file_types":["image/png","text/plain"]`},
		{http.MethodGet, "/api/v1/files/stats", http.StatusOK, `"deduplication_ratio":"33.3%"`},
		{http.MethodGet, "/api/v1/files/duplicates", http.StatusOK, `"duplicates":[]`},
		{http.MethodPost, "/api/v1/files/cleanup", http.StatusOK, `"removed":2`},
	}

	r := newEngine(&fakeService{})

	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))

			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d, body = %s", w.Code, tc.want, w.Body.String())
			}

			if !bytes.Contains(w.Body.Bytes(), []byte(tc.contains)) {
				t.Errorf("body = %s, want substring %s", w.Body.String(), tc.contains)
			}
		})
	}
}

func TestDownloadRedirect(t *testing.T) {
	r := newEngine(&fakeService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/files/f-1/download", nil))

	if w.Code != http.StatusFound || w.Header().Get("Location") != "http://blobs.local/f-1" {
		t.Fatalf("status = %d, location = %q", w.Code, w.Header().Get("Location"))
	}
}

func TestDelete(t *testing.T) {
	svc := &fakeService{}
	r := newEngine(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/files/f-1", nil))

	if w.Code != http.StatusNoContent || svc.deleted != "f-1" {
		t.Fatalf("status = %d, deleted = %q", w.Code, svc.deleted)
	}

	svc.deleteErr = service.ErrNotFound

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/files/f-2", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestHealth_NoClients(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/health/db", handle.HealthDB)
	r.GET("/health/kv", handle.HealthKV)

	for _, path := range []string{"/health/db", "/health/kv"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d", path, w.Code)
		}
	}
}
