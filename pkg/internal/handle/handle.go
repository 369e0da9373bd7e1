// Package handle 提供 HTTP 请求处理器.
package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/internal/types"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/rule"
)

// NoRoute 未匹配的路由与方法，统一返回 JSON 错误体.
func NoRoute(c *gin.Context) {
	c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "route not found"})
}

// writeError 把业务错误映射为 HTTP 状态码.
func writeError(c *gin.Context, err error, msg string) {
	l := log.Ctx(c.Request.Context())

	var maxBytes *http.MaxBytesError

	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "file not found"})
	case errors.Is(err, service.ErrFileTooLarge), errors.As(err, &maxBytes):
		c.JSON(http.StatusRequestEntityTooLarge, types.ErrorResponse{Error: "file too large"})
	case errors.Is(err, service.ErrEmptyFile):
		c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: err.Error()})
	default:
		if fields := rule.Errors(err); fields != nil {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{Error: "invalid request", Fields: fields})
			return
		}

		l.Error().Err(err).Msg(msg)
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{Error: err.Error()})
	}
}
