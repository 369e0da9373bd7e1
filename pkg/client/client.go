// Package client 是 filevault HTTP API 的客户端，CLI 通过它访问服务.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yeisme/filevault/pkg/filter"
	"github.com/yeisme/filevault/pkg/internal/types"
)

// DefaultTimeout 单次请求的超时.
const DefaultTimeout = 30 * time.Second

const apiPrefix = "/api/v1"

// ErrNotFound 服务端返回 404.
var ErrNotFound = errors.New("not found")

// APIError 服务端返回的非 2xx 响应.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("filevault: HTTP %d", e.StatusCode)
	}

	return fmt.Sprintf("filevault: HTTP %d: %s", e.StatusCode, e.Message)
}

// Unwrap 让 errors.Is(err, ErrNotFound) 对 404 成立.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	return nil
}

// Client HTTP 客户端.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option 配置 Client.
type Option func(*Client)

// WithHTTPClient 替换底层 http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New 创建客户端，baseURL 形如 http://127.0.0.1:8080.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			// 传播 traceparent，服务端日志与 span 可以关联到调用方
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := c.baseURL + apiPrefix + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	return u
}

// do 发送请求并把 JSON 响应解码到 out，out 为 nil 时丢弃响应体.
func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}

		var er types.ErrorResponse
		if sonic.Unmarshal(body, &er) == nil {
			apiErr.Message, apiErr.Fields = er.Error, er.Fields
		}

		return apiErr
	}

	if out == nil || len(body) == 0 {
		return nil
	}

	if err := sonic.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, q), http.NoBody)
	if err != nil {
		return err
	}

	return c.do(req, out)
}

// List 按筛选条件分页查询文件. page 与 pageSize 为 0 时使用服务端默认值.
func (c *Client) List(ctx context.Context, q filter.Query, page, pageSize int) (*types.ListFilesResponse, error) {
	v := q.Values()

	if page > 0 {
		v.Set("page", strconv.Itoa(page))
	}

	if pageSize > 0 {
		v.Set("page_size", strconv.Itoa(pageSize))
	}

	var resp types.ListFilesResponse
	if err := c.get(ctx, "/files", v, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Get 查询单个文件.
func (c *Client) Get(ctx context.Context, id string) (*types.FileView, error) {
	var resp types.FileView
	if err := c.get(ctx, "/files/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// FileTypes 已存在的文件类型.
func (c *Client) FileTypes(ctx context.Context) ([]string, error) {
	var resp types.FileTypesResponse
	if err := c.get(ctx, "/files/types", nil, &resp); err != nil {
		return nil, err
	}

	return resp.FileTypes, nil
}

// Stats 存储统计.
func (c *Client) Stats(ctx context.Context) (*types.StatsResponse, error) {
	var resp types.StatsResponse
	if err := c.get(ctx, "/files/stats", nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Duplicates 重复文件分组.
func (c *Client) Duplicates(ctx context.Context) (*types.DuplicatesResponse, error) {
	var resp types.DuplicatesResponse
	if err := c.get(ctx, "/files/duplicates", nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// DownloadURL 预签名下载链接.
func (c *Client) DownloadURL(ctx context.Context, id string) (*types.FileURLResponse, error) {
	var resp types.FileURLResponse
	if err := c.get(ctx, "/files/"+url.PathEscape(id)+"/url", nil, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Delete 删除文件.
func (c *Client) Delete(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.endpoint("/files/"+url.PathEscape(id), nil), http.NoBody)
	if err != nil {
		return err
	}

	return c.do(req, nil)
}

// Cleanup 触发孤儿内容清理，返回删除的内容数.
func (c *Client) Cleanup(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/files/cleanup", nil), http.NoBody)
	if err != nil {
		return 0, err
	}

	var resp types.CleanupResponse
	if err := c.do(req, &resp); err != nil {
		return 0, err
	}

	return resp.Removed, nil
}

// Upload 以 multipart 流式上传 r，请求体不在内存中缓存.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*types.UploadResponse, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err == nil {
			_, err = io.Copy(part, r)
		}

		if err == nil {
			err = mw.Close()
		}

		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/files", nil), pr)
	if err != nil {
		_ = pr.Close()
		return nil, err
	}

	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp types.UploadResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}
