// Package types 定义 HTTP API 的请求与响应结构，客户端与服务端共用.
package types

import "time"

// FileView 文件的对外视图.
type FileView struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	FileType         string    `json:"file_type"`
	Size             int64     `json:"size"`
	FormattedSize    string    `json:"formatted_size"`
	UploadedAt       time.Time `json:"uploaded_at"`
	FileURL          string    `json:"file_url"`
	IsDuplicate      bool      `json:"is_duplicate"`  // 内容被多个文件引用
	StorageSaved     int64     `json:"storage_saved"` // 重复时为文件大小，否则为 0
}

// UploadDetails 上传的去重信息.
type UploadDetails struct {
	WasDeduplicated bool   `json:"was_deduplicated"`
	ContentHash     string `json:"content_hash"` // 前 8 位加 "..."
	StorageSaved    int64  `json:"storage_saved"`
}

// UploadResponse 上传结果.
type UploadResponse struct {
	FileView

	UploadDetails UploadDetails `json:"upload_details"`
}

// ListFilesRequest 列表分页参数，筛选参数由 filter.ParseValues 解析.
type ListFilesRequest struct {
	Page     int `form:"page"      rule:"omitempty,min=1"`
	PageSize int `form:"page_size" rule:"omitempty,min=1,max=200"`
}

// ListFilesResponse 分页列表.
type ListFilesResponse struct {
	Count    int64      `json:"count"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Results  []FileView `json:"results"`
}

// FileURLResponse 预签名下载链接.
type FileURLResponse struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"` // 秒
}

// FileTypesResponse 已存在的文件类型，供筛选表单的下拉框使用.
type FileTypesResponse struct {
	FileTypes []string `json:"file_types"`
}

// CleanupResponse 孤儿内容清理结果.
type CleanupResponse struct {
	Removed int `json:"removed"`
}

// ErrorResponse 错误响应.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}
