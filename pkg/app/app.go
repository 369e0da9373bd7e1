// Package app 组装并运行 HTTP 服务：配置、日志、追踪、指标、存储、后台任务与路由.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/yeisme/filevault/pkg/api"
	"github.com/yeisme/filevault/pkg/configs"
	ctxPkg "github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/internal/jobs"
	"github.com/yeisme/filevault/pkg/internal/model"
	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/internal/storage"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/metrics"
	"github.com/yeisme/filevault/pkg/middleware"
	"github.com/yeisme/filevault/pkg/rule"
	"github.com/yeisme/filevault/pkg/scheduler"
	"github.com/yeisme/filevault/pkg/tracing"
)

// App 持有服务运行期间的全部资源.
type App struct {
	Engine *gin.Engine

	config   *configs.AppConfig
	manager  *storage.Manager
	sched    *scheduler.Scheduler
	consumer *jobs.OrphanConsumer
	shutdown tracing.ShutdownFunc
}

// NewApp 加载配置并初始化全部依赖. 配置已由上层加载时 configPath 可为空.
func NewApp(ctx context.Context, configPath string) (*App, error) {
	if configs.GetViper() == nil {
		if err := configs.InitConfig(configPath); err != nil {
			return nil, fmt.Errorf("init config: %w", err)
		}
	}

	cfg := configs.GetConfig()

	log.Init()

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	rule.Engine()

	shutdown, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if cfg.Metrics.Enabled {
		metrics.Init(cfg.Metrics)
	}

	a := &App{config: cfg, shutdown: shutdown}

	a.manager, err = storage.New(ctx, cfg)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("init storage: %w", err)
	}

	if err := model.AutoMigrate(a.manager.DB.DB); err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if err := a.initJobs(ctx); err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	engine := gin.New()
	engine.MaxMultipartMemory = cfg.Upload.MaxMemory
	engine.Use(middleware.Chain(cfg, a.manager, a.sched)...)

	api.RegisterGroup(engine, cfg)

	a.Engine = engine

	return a, nil
}

// initJobs 注册定时清理，并按配置创建孤儿事件消费者.
func (a *App) initJobs(ctx context.Context) error {
	if !a.config.Jobs.Enabled {
		return nil
	}

	sched, err := scheduler.NewScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	a.sched = sched

	if err := jobs.RegisterCronJobs(sched, a.manager, a.config.Jobs); err != nil {
		return fmt.Errorf("register jobs: %w", err)
	}

	if !a.config.Jobs.OrphanConsumer || a.manager.MQ == nil {
		return nil
	}

	remover := service.NewFileService(ctxPkg.WithStorageManager(ctx, a.manager))

	a.consumer, err = jobs.NewOrphanConsumer(a.manager.MQ.Subscriber(), remover)
	if err != nil {
		return fmt.Errorf("init orphan consumer: %w", err)
	}

	return nil
}

// Run 启动 HTTP 服务与后台任务，ctx 取消后优雅退出.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.config.Server.Addr(),
		Handler:           a.Engine,
		ReadHeaderTimeout: a.config.Server.GetTimeoutDuration(),
	}

	if a.sched != nil {
		a.sched.Start()
	}

	g, gctx := errgroup.WithContext(ctx)

	if a.consumer != nil {
		g.Go(func() error {
			return a.consumer.Run(gctx)
		})
	}

	g.Go(func() error {
		log.Logger().Info().Str("addr", srv.Addr).Msg("HTTP server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		sctx, cancel := context.WithTimeout(context.Background(), a.config.Server.GetShutdownTimeout())
		defer cancel()

		log.Logger().Info().Msg("shutting down")

		return srv.Shutdown(sctx)
	})

	err := g.Wait()

	cctx, cancel := context.WithTimeout(context.Background(), a.config.Server.GetShutdownTimeout())
	defer cancel()

	return errors.Join(err, a.Close(cctx))
}

// Close 按依赖的逆序释放资源.
func (a *App) Close(ctx context.Context) error {
	var errs []error

	if a.consumer != nil {
		errs = append(errs, a.consumer.Close())
	}

	if a.sched != nil {
		errs = append(errs, a.sched.Stop())
	}

	if a.manager != nil {
		errs = append(errs, a.manager.Close())
	}

	if a.shutdown != nil {
		errs = append(errs, a.shutdown(ctx))
	}

	return errors.Join(errs...)
}
