package middleware

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// GzipMiddleware 压缩 JSON 响应. 指标端点由 promhttp 自行协商压缩，跳过.
func GzipMiddleware(excluded ...string) gin.HandlerFunc {
	paths := make([]string, 0, len(excluded))

	for _, p := range excluded {
		if p != "" {
			paths = append(paths, p)
		}
	}

	return gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths(paths))
}
