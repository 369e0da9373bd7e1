// Package router 管理 HTTP 路由，把 handle 包提供的处理器绑定到 gin 引擎.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/handle"
	"github.com/yeisme/filevault/pkg/metrics"
)

// APIPrefix 所有业务路由的前缀.
const APIPrefix = "/api/v1"

// FileRoutes 由应用层注入的文件处理器. router 只负责绑定路径，实现由 handle 包提供.
type FileRoutes interface {
	Upload() gin.HandlerFunc
	List() gin.HandlerFunc
	Get() gin.HandlerFunc
	Delete() gin.HandlerFunc
	URL() gin.HandlerFunc
	Download() gin.HandlerFunc
	Types() gin.HandlerFunc
	Stats() gin.HandlerFunc
	Duplicates() gin.HandlerFunc
	Cleanup() gin.HandlerFunc
}

// Setup 在 engine 上注册全部路由. files 为 nil 时使用从请求 context 取存储的默认处理器.
func Setup(engine *gin.Engine, cfg *configs.AppConfig, files FileRoutes) FileRoutes {
	if files == nil {
		files = handle.NewFileHandlers(nil, cfg.Upload)
	}

	RegisterSwaggerRoute(engine, cfg.Server)
	metrics.Register(engine, cfg.Metrics)

	engine.NoRoute(handle.NoRoute)

	v1 := engine.Group(APIPrefix)

	RegisterFilesRoutes(v1, files)
	RegisterHealthCheckRoute(v1)
	RegisterSchedulerRoutes(v1)

	return files
}
