package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/handle"
)

// RegisterSchedulerRoutes 注册后台任务管理路由.
func RegisterSchedulerRoutes(g *gin.RouterGroup) {
	schedRoutes := g.Group("/scheduler")
	{
		schedRoutes.GET("/jobs", handle.SchedulerJobs)
		schedRoutes.POST("/jobs/:name/run", handle.SchedulerRunJob)
		schedRoutes.DELETE("/jobs/:name", handle.SchedulerRemoveJob)
		schedRoutes.GET("/queue/waiting", handle.SchedulerQueueWaiting)
	}
}
