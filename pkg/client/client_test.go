package client_test

import (
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

func newServer(t *testing.T, h http.HandlerFunc) *client.Client {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return client.New(srv.URL + "/")
}

func TestList_EncodesQuery(t *testing.T) {
	var gotPath, gotQuery string

	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"count":1,"page":2,"page_size":10,"results":[{"id":"f-1","original_filename":"a.pdf"}]}`)
	})

	var got filter.Query

	form := filter.NewForm(nil, func(q filter.Query) { got = q })
	form.SetSearch("report")
	form.SetMinSize("100")
	form.ApplyFilters()

	resp, err := c.List(context.Background(), got, 2, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if gotPath != "/api/v1/files" {
		t.Errorf("path = %s", gotPath)
	}

	want := "min_size=100&ordering=-uploaded_at&page=2&page_size=10&search=report"
	if gotQuery != want {
		t.Errorf("query = %s, want %s", gotQuery, want)
	}

	if resp.Count != 1 || resp.Results[0].OriginalFilename != "a.pdf" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestList_EmptyQuery(t *testing.T) {
	var gotQuery string

	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = io.WriteString(w, `{"count":0,"results":[]}`)
	})

	if _, err := c.List(context.Background(), filter.Query{}, 0, 0); err != nil {
		t.Fatal(err)
	}

	if gotQuery != "" {
		t.Errorf("query = %q, want empty", gotQuery)
	}
}

func TestGet_NotFound(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"file not found"}`)
	})

	_, err := c.Get(context.Background(), "missing")
	if !errors.Is(err, client.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "file not found" {
		t.Fatalf("err = %#v", err)
	}
}

func TestUpload_Multipart(t *testing.T) {
	var name, body string

	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}

		f, fh, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			w.WriteHeader(http.StatusBadRequest)

			return
		}
		defer f.Close()

		b, _ := io.ReadAll(f)
		name, body = fh.Filename, string(b)

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"f-9","original_filename":"hello.txt","upload_details":{"was_deduplicated":false,"content_hash":"2cf24dba..."}}`)
	})

	resp, err := c.Upload(context.Background(), "hello.txt", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if name != "hello.txt" || body != "hello" {
		t.Errorf("server got %q / %q", name, body)
	}

	if resp.ID != "f-9" || resp.UploadDetails.ContentHash != "2cf24dba..." {
		t.Errorf("resp = %+v", resp)
	}
}

func TestDeleteAndCleanup(t *testing.T) {
	var calls []string

	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)

		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		_, _ = io.WriteString(w, `{"removed":3}`)
	})

	ctx := context.Background()

	if err := c.Delete(ctx, "f-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	n, err := c.Cleanup(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Cleanup = %d, %v", n, err)
	}

	if len(calls) != 2 || calls[0] != "DELETE /api/v1/files/f-1" || calls[1] != "POST /api/v1/files/cleanup" {
		t.Errorf("calls = %v", calls)
	}
}

func TestStats_ServerError(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Stats(context.Background())

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("err = %v", err)
	}

	if errors.Is(err, client.ErrNotFound) {
		t.Fatal("500 must not match ErrNotFound")
	}
}
