package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterFilesRoutes 注册文件相关路由.
//
//	POST   /files                -> Upload
//	GET    /files                -> List
//	GET    /files/types          -> Types
//	GET    /files/stats          -> Stats
//	GET    /files/duplicates     -> Duplicates
//	POST   /files/cleanup        -> Cleanup
//	GET    /files/:id            -> Get
//	DELETE /files/:id            -> Delete
//	GET    /files/:id/url        -> URL
//	GET    /files/:id/download   -> Download
func RegisterFilesRoutes(g *gin.RouterGroup, h FileRoutes) {
	filesRoutes := g.Group("/files")
	{
		filesRoutes.POST("", h.Upload())
		filesRoutes.GET("", h.List())

		// 静态段优先于 :id
		filesRoutes.GET("/types", h.Types())
		filesRoutes.GET("/stats", h.Stats())
		filesRoutes.GET("/duplicates", h.Duplicates())
		filesRoutes.POST("/cleanup", h.Cleanup())

		singleGroup := filesRoutes.Group("/:id")
		{
			singleGroup.GET("", h.Get())
			singleGroup.DELETE("", h.Delete())
			singleGroup.GET("/url", h.URL())
			singleGroup.GET("/download", h.Download())
		}
	}
}
