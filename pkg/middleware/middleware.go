// Package middleware 提供 gin 中间件：请求日志、指标、追踪、限流、熔断、CORS、压缩与依赖注入.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/configs"
	"github.com/yeisme/filevault/pkg/internal/storage"
	"github.com/yeisme/filevault/pkg/scheduler"
)

// Chain 按配置组装全局中间件，顺序即执行顺序.
// 追踪最先执行，后续中间件与处理器的日志都能带上 trace_id.
func Chain(cfg *configs.AppConfig, mgr *storage.Manager, sched *scheduler.Scheduler) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{
		TracingMiddleware(),
		GinLoggerMiddleware(),
		gin.Recovery(),
	}

	if cfg.Metrics.Enabled {
		chain = append(chain, PrometheusMiddleware())
	}

	chain = append(chain, CORSMiddleware(cfg.Server))

	if cfg.Server.Gzip {
		chain = append(chain, GzipMiddleware(cfg.Metrics.Path))
	}

	chain = append(chain,
		RateLimitMiddleware(cfg.RateLimit),
		CircuitBreakerMiddleware(cfg.CircuitBreaker),
		StorageMiddleware(mgr),
	)

	if sched != nil {
		chain = append(chain, SchedulerMiddleware(sched))
	}

	return chain
}
