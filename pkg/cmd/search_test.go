package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yeisme/filevault/pkg/client"
	"github.com/yeisme/filevault/pkg/filter"
)

// fakeAPI 记录列表请求的查询串.
type fakeAPI struct {
	queries []string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/files/types":
		_, _ = io.WriteString(w, `{"file_types":["application/pdf","image/png"]}`)
	case "/api/v1/files":
		f.queries = append(f.queries, r.URL.RawQuery)
		_, _ = io.WriteString(w, `{"count":1,"page":1,"page_size":50,"results":[
			{"id":"f-1","original_filename":"report.pdf","file_type":"application/pdf","formatted_size":"1.00 KB","uploaded_at":"2025-01-02T03:04:05Z","is_duplicate":true}]}`)
	default:
		http.NotFound(w, r)
	}
}

func newFakeClient(t *testing.T) (*fakeAPI, *client.Client) {
	t.Helper()

	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	return api, client.New(srv.URL)
}

func TestRunSearch_AppliesFlags(t *testing.T) {
	api, cli := newFakeClient(t)

	var out bytes.Buffer

	err := runSearch(context.Background(), &out, cli, searchOptions{
		search:   "report",
		fileType: "application/pdf",
		minSize:  "10abc",
		maxSize:  "  ",
		ordering: "-size",
	})
	if err != nil {
		t.Fatalf("runSearch: %v", err)
	}

	want := "file_type=application%2Fpdf&min_size=10&ordering=-size&search=report"
	if len(api.queries) != 1 || api.queries[0] != want {
		t.Fatalf("queries = %v, want [%s]", api.queries, want)
	}

	text := out.String()
	for _, s := range []string{"1 file(s)", "report.pdf", "1.00 KB", "yes"} {
		if !strings.Contains(text, s) {
			t.Errorf("output missing %q:\n%s", s, text)
		}
	}
}

func TestRunSearch_Clear(t *testing.T) {
	api, cli := newFakeClient(t)

	err := runSearch(context.Background(), io.Discard, cli, searchOptions{
		search: "ignored",
		clear:  true,
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(api.queries) != 1 || api.queries[0] != "" {
		t.Fatalf("queries = %q, want one empty query", api.queries)
	}
}

func TestRunSearch_InvalidOrdering(t *testing.T) {
	api, cli := newFakeClient(t)

	err := runSearch(context.Background(), io.Discard, cli, searchOptions{ordering: "name"})
	if !errors.Is(err, filter.ErrInvalidOrdering) {
		t.Fatalf("err = %v, want ErrInvalidOrdering", err)
	}

	if len(api.queries) != 0 {
		t.Fatalf("list called with invalid ordering: %v", api.queries)
	}
}

func TestRunSearch_UnknownTypeNote(t *testing.T) {
	_, cli := newFakeClient(t)

	var out bytes.Buffer
	if err := runSearch(context.Background(), &out, cli, searchOptions{fileType: "video/mp4"}); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out.String(), `no stored files of type "video/mp4"`) {
		t.Errorf("missing note:\n%s", out.String())
	}
}
