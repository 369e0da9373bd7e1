package handle

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/filevault/pkg/context"
)

const healthTimeout = 2 * time.Second

// HealthResponse 健康检查结果.
type HealthResponse struct {
	Component string `json:"component"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

func writeHealth(c *gin.Context, component string, check func(ctx context.Context) error) {
	if check == nil {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Component: component,
			Status:    "unhealthy",
			Error:     component + " client not initialized",
		})

		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := check(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, HealthResponse{Component: component, Status: "unhealthy", Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{Component: component, Status: "ok"})
}

// HealthDB 数据库健康检查.
//
//	@Summary	数据库健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Failure	503	{object}	HealthResponse
//	@Router		/health/db [get]
func HealthDB(c *gin.Context) {
	var check func(context.Context) error
	if dbc := ctxPkg.GetDBClient(c.Request.Context()); dbc != nil && dbc.DB != nil {
		check = dbc.HealthCheck
	}

	writeHealth(c, "db", check)
}

// HealthS3 对象存储健康检查.
//
//	@Summary	对象存储健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Failure	503	{object}	HealthResponse
//	@Router		/health/s3 [get]
func HealthS3(c *gin.Context) {
	var check func(context.Context) error
	if s3c := ctxPkg.GetS3Client(c.Request.Context()); s3c != nil && s3c.Client != nil {
		check = s3c.HealthCheck
	}

	writeHealth(c, "s3", check)
}

// HealthKV 查询缓存 KV 健康检查，缓存关闭时返回 503.
//
//	@Summary	KV 健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Failure	503	{object}	HealthResponse
//	@Router		/health/kv [get]
func HealthKV(c *gin.Context) {
	var check func(context.Context) error
	if kvc := ctxPkg.GetKVClient(c.Request.Context()); kvc != nil {
		check = func(ctx context.Context) error {
			_, err := kvc.Exists(ctx, "health")
			return err
		}
	}

	writeHealth(c, "kv", check)
}

// HealthMQ 消息队列健康检查.
//
//	@Summary	消息队列健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Failure	503	{object}	HealthResponse
//	@Router		/health/mq [get]
func HealthMQ(c *gin.Context) {
	var check func(context.Context) error
	// publisher 与 subscriber 在 New 中创建，判空即可
	if mqc := ctxPkg.GetMQClient(c.Request.Context()); mqc != nil && mqc.Publisher() != nil {
		check = func(context.Context) error { return nil }
	}

	writeHealth(c, "mq", check)
}
