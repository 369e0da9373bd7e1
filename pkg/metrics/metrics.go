// Package metrics 提供 Prometheus 指标.
//
// 业务指标注册在独立的 registry 中；GORM 插件使用 prometheus 默认注册表，
// 因此暴露指标时同时汇总两者.
//
// Example:
//
//	metrics.Init(cfg.Metrics)
//	metrics.Register(engine, cfg.Metrics)
//
//	metrics.UploadsTotal.WithLabelValues(metrics.ResultCreated).Inc()
package metrics

import (
	"net/http"
	"net/http/pprof"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/filevault/pkg/configs"
)

const namespace = configs.AppName

// 上传结果标签.
const (
	ResultCreated   = "created"
	ResultDuplicate = "duplicate"
	ResultRejected  = "rejected"
	ResultFailed    = "failed"
)

var (
	// RequestCounter HTTP 请求计数.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration HTTP 请求耗时.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ActiveRequests 正在处理的请求数.
	ActiveRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_active_requests",
			Help:      "Number of in-flight HTTP requests",
		},
	)

	// UploadsTotal 上传次数，按结果区分.
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "File uploads by result",
		},
		[]string{"result"},
	)

	// UploadBytes 实际写入对象存储的字节数（去重命中不计）.
	UploadBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stored_bytes_total",
			Help:      "Bytes written to blob storage",
		},
	)

	// DeletesTotal 删除的文件记录数.
	DeletesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "file_deletes_total",
			Help:      "Deleted file records",
		},
	)

	// OrphansCleaned 清理掉的孤儿内容数.
	OrphansCleaned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orphan_contents_cleaned_total",
			Help:      "Content blobs removed because no file referenced them",
		},
	)

	// CacheRequests 查询缓存访问，按命中与否区分.
	CacheRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_cache_requests_total",
			Help:      "Query cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	registry = prometheus.NewRegistry()
	regOnce  sync.Once
)

func register() {
	registry.MustRegister(
		RequestCounter, RequestDuration, ActiveRequests,
		UploadsTotal, UploadBytes, DeletesTotal, OrphansCleaned, CacheRequests,
	)
}

// Init 注册业务指标. 关闭运行时指标时从默认注册表移除 Go 与进程收集器.
func Init(cfg configs.MetricsConfig) {
	regOnce.Do(func() {
		register()

		if !cfg.RuntimeMetrics {
			prometheus.Unregister(collectors.NewGoCollector())
			prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		}
	})
}

// GetRegistry 获取业务指标注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}

// Gatherer 汇总业务注册表与默认注册表.
func Gatherer() prometheus.Gatherer {
	return prometheus.Gatherers{registry, prometheus.DefaultGatherer}
}

// Handler 返回指标 HTTP 处理器，labels 作为常量标签附加到全部指标上.
func Handler(cfg configs.MetricsConfig) http.Handler {
	var g prometheus.Gatherer = Gatherer()
	if len(cfg.Labels) > 0 {
		g = labeledGatherer{inner: g, labels: cfg.Labels}
	}

	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Register 在 engine 上挂载指标与可选的 pprof 路由.
func Register(engine gin.IRoutes, cfg configs.MetricsConfig) {
	if !cfg.Enabled {
		return
	}

	Init(cfg)

	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}

	engine.GET(path, gin.WrapH(Handler(cfg)))

	if cfg.Pprof {
		engine.GET("/debug/pprof/", gin.WrapF(pprof.Index))
		engine.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
		engine.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
		engine.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
		engine.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
		engine.GET("/debug/pprof/:name", func(c *gin.Context) {
			pprof.Handler(c.Param("name")).ServeHTTP(c.Writer, c.Request)
		})
	}
}
