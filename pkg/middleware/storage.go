package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/internal/storage"
)

// StorageMiddleware 把存储管理器注入请求 context，服务层从中取得 DB、S3、KV 与 MQ.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(context.WithStorageManager(c.Request.Context(), manager))
		c.Next()
	}
}
