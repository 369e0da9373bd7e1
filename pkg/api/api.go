// Package api 把 HTTP 路由组装到 gin 引擎上.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/handle"
	"github.com/yeisme/filevault/pkg/internal/router"
)

// RegisterGroup 注册全部路由，文件处理器的服务从请求 context 中的存储管理器构造.
func RegisterGroup(e *gin.Engine, cfg *configs.AppConfig) *gin.Engine {
	router.Setup(e, cfg, handle.NewFileHandlers(nil, cfg.Upload))

	return e
}
