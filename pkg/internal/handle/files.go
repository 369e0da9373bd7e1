package handle

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/filter"
	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/internal/types"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/rule"
)

// multipartOverhead 上传请求体中 multipart 边界与表单头的余量.
const multipartOverhead = 1 << 20

// FileService 文件处理器依赖的业务接口，由 service.FileService 实现.
type FileService interface {
	Upload(ctx context.Context, name, contentType string, size int64, r io.Reader) (*types.UploadResponse, error)
	List(ctx context.Context, q filter.Query, page, pageSize int) (*types.ListFilesResponse, error)
	Get(ctx context.Context, id string) (*types.FileView, error)
	Delete(ctx context.Context, id string) error
	DownloadURL(ctx context.Context, id string) (*types.FileURLResponse, error)
	FileTypes(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (*types.StatsResponse, error)
	Duplicates(ctx context.Context) (*types.DuplicatesResponse, error)
	CleanupOrphans(ctx context.Context) (int, error)
}

// FileHandlers 文件相关请求处理器.
type FileHandlers struct {
	newService func(ctx context.Context) FileService
	upload     configs.UploadConfig
}

// NewFileHandlers 创建文件处理器. factory 为 nil 时从请求 context 中的存储管理器创建服务.
func NewFileHandlers(factory func(ctx context.Context) FileService, upload configs.UploadConfig) *FileHandlers {
	// 绑定校验走 rule 引擎
	rule.Engine()

	if factory == nil {
		factory = func(ctx context.Context) FileService { return service.NewFileService(ctx) }
	}

	if upload.FormField == "" {
		upload.FormField = configs.DefaultUploadFormField
	}

	if upload.MaxSize <= 0 {
		upload.MaxSize = configs.DefaultUploadMaxSize
	}

	return &FileHandlers{newService: factory, upload: upload}
}

// Upload 上传文件.
//
//	@Summary		上传文件
//	@Description	multipart 上传单个文件，内容相同的文件只保存一份
//	@Tags			文件
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file					true	"文件"
//	@Success		201		{object}	types.UploadResponse	"上传结果与去重信息"
//	@Failure		400		{object}	types.ErrorResponse		"缺少文件"
//	@Failure		413		{object}	types.ErrorResponse		"文件过大"
//	@Failure		500		{object}	types.ErrorResponse		"服务器内部错误"
//	@Router			/files [post]
func (h *FileHandlers) Upload() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.upload.MaxSize+multipartOverhead)

		fh, err := c.FormFile(h.upload.FormField)
		if err != nil {
			var maxBytes *http.MaxBytesError
			if errors.As(err, &maxBytes) {
				writeError(c, err, "upload")
				return
			}

			log.Ctx(c.Request.Context()).Warn().Err(err).Msg("no file in upload request")
			c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "no file provided"})

			return
		}

		f, err := fh.Open()
		if err != nil {
			writeError(c, err, "open uploaded file")
			return
		}
		defer f.Close()

		ctx := c.Request.Context()

		resp, err := h.newService(ctx).Upload(ctx, fh.Filename, fh.Header.Get("Content-Type"), fh.Size, f)
		if err != nil {
			writeError(c, err, "upload failed")
			return
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// List 按筛选条件分页列出文件.
//
//	@Summary		文件列表
//	@Description	文件名包含、类型、大小区间、上传日期区间筛选，支持排序与分页
//	@Tags			文件
//	@Produce		json
//	@Param			search		query		string	false	"文件名包含（不区分大小写）"
//	@Param			file_type	query		string	false	"MIME 类型，all 表示全部"
//	@Param			min_size	query		int		false	"最小字节数"
//	@Param			max_size	query		int		false	"最大字节数"
//	@Param			start_date	query		string	false	"起始日期 YYYY-MM-DD"
//	@Param			end_date	query		string	false	"结束日期 YYYY-MM-DD"
//	@Param			ordering	query		string	false	"排序"	Enums(-uploaded_at, uploaded_at, -size, size, original_filename, -original_filename)
//	@Param			page		query		int		false	"页码"
//	@Param			page_size	query		int		false	"每页数量"
//	@Success		200			{object}	types.ListFilesResponse
//	@Failure		400			{object}	types.ErrorResponse
//	@Failure		500			{object}	types.ErrorResponse
//	@Router			/files [get]
func (h *FileHandlers) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req types.ListFilesRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			if rule.Errors(err) != nil {
				writeError(c, err, "invalid list request")
				return
			}

			c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
			return
		}

		ctx := c.Request.Context()
		q := filter.ParseValues(c.Request.URL.Query())

		resp, err := h.newService(ctx).List(ctx, q, req.Page, req.PageSize)
		if err != nil {
			writeError(c, err, "list files failed")
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// Get 文件详情.
//
//	@Summary	文件详情
//	@Tags		文件
//	@Produce	json
//	@Param		id	path		string	true	"文件 ID"
//	@Success	200	{object}	types.FileView
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/files/{id} [get]
func (h *FileHandlers) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		view, err := h.newService(ctx).Get(ctx, c.Param("id"))
		if err != nil {
			writeError(c, err, "get file failed")
			return
		}

		c.JSON(http.StatusOK, view)
	}
}

// Delete 删除文件.
//
//	@Summary		删除文件
//	@Description	删除文件记录，内容不再被引用时一并删除
//	@Tags			文件
//	@Param			id	path	string	true	"文件 ID"
//	@Success		204
//	@Failure		404	{object}	types.ErrorResponse
//	@Router			/files/{id} [delete]
func (h *FileHandlers) Delete() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if err := h.newService(ctx).Delete(ctx, c.Param("id")); err != nil {
			writeError(c, err, "delete file failed")
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// URL 预签名下载链接.
//
//	@Summary	获取下载链接
//	@Tags		文件
//	@Produce	json
//	@Param		id	path		string	true	"文件 ID"
//	@Success	200	{object}	types.FileURLResponse
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/files/{id}/url [get]
func (h *FileHandlers) URL() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		resp, err := h.newService(ctx).DownloadURL(ctx, c.Param("id"))
		if err != nil {
			writeError(c, err, "presign download url failed")
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// Download 重定向到预签名下载链接.
//
//	@Summary	下载文件
//	@Tags		文件
//	@Param		id	path	string	true	"文件 ID"
//	@Success	302
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/files/{id}/download [get]
func (h *FileHandlers) Download() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		resp, err := h.newService(ctx).DownloadURL(ctx, c.Param("id"))
		if err != nil {
			writeError(c, err, "presign download url failed")
			return
		}

		c.Redirect(http.StatusFound, resp.URL)
	}
}

// Types 已存在的文件类型.
//
//	@Summary	文件类型列表
//	@Tags		文件
//	@Produce	json
//	@Success	200	{object}	types.FileTypesResponse
//	@Router		/files/types [get]
func (h *FileHandlers) Types() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		fileTypes, err := h.newService(ctx).FileTypes(ctx)
		if err != nil {
			writeError(c, err, "list file types failed")
			return
		}

		c.JSON(http.StatusOK, types.FileTypesResponse{FileTypes: fileTypes})
	}
}

// Stats 存储与去重统计.
//
//	@Summary	存储统计
//	@Tags		统计
//	@Produce	json
//	@Success	200	{object}	types.StatsResponse
//	@Failure	500	{object}	types.ErrorResponse
//	@Router		/files/stats [get]
func (h *FileHandlers) Stats() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		resp, err := h.newService(ctx).Stats(ctx)
		if err != nil {
			writeError(c, err, "stats failed")
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// Duplicates 重复文件分组.
//
//	@Summary	重复文件
//	@Tags		统计
//	@Produce	json
//	@Success	200	{object}	types.DuplicatesResponse
//	@Failure	500	{object}	types.ErrorResponse
//	@Router		/files/duplicates [get]
func (h *FileHandlers) Duplicates() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		resp, err := h.newService(ctx).Duplicates(ctx)
		if err != nil {
			writeError(c, err, "duplicates failed")
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// Cleanup 立即清理引用归零的内容.
//
//	@Summary	清理孤儿内容
//	@Tags		维护
//	@Produce	json
//	@Success	200	{object}	types.CleanupResponse
//	@Failure	500	{object}	types.ErrorResponse
//	@Router		/files/cleanup [post]
func (h *FileHandlers) Cleanup() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		removed, err := h.newService(ctx).CleanupOrphans(ctx)
		if err != nil {
			writeError(c, err, "cleanup failed")
			return
		}

		c.JSON(http.StatusOK, types.CleanupResponse{Removed: removed})
	}
}
