// Package jobs 注册后台任务：定时清理引用归零的内容，以及消费 content.orphaned 事件重试删除对象.
package jobs

import (
	"context"
	"errors"

	"github.com/yeisme/filevault/pkg/configs"
	ctxPkg "github.com/yeisme/filevault/pkg/context"
	"github.com/yeisme/filevault/pkg/internal/service"
	"github.com/yeisme/filevault/pkg/internal/storage"
	"github.com/yeisme/filevault/pkg/log"
	"github.com/yeisme/filevault/pkg/scheduler"
)

// OrphanCleaner 清理引用归零的内容，由 service.FileService 实现.
type OrphanCleaner interface {
	CleanupOrphans(ctx context.Context) (int, error)
}

// RegisterCronJobs 按配置注册定时任务.
func RegisterCronJobs(sched *scheduler.Scheduler, mgr *storage.Manager, cfg configs.JobsConfig) error {
	if sched == nil {
		return errors.New("scheduler is nil")
	}

	if mgr == nil {
		return errors.New("storage manager is nil")
	}

	return RegisterOrphanCleanup(sched, cfg.OrphanCleanupCron, func(ctx context.Context) OrphanCleaner {
		// 服务依赖从 context 中的存储管理器取得
		return service.NewFileService(ctxPkg.WithStorageManager(ctx, mgr))
	})
}

// RegisterOrphanCleanup 注册孤儿内容清理任务.
func RegisterOrphanCleanup(sched *scheduler.Scheduler, cronExpr string, newCleaner func(ctx context.Context) OrphanCleaner) error {
	return sched.AddCron(JobOrphanCleanup, cronExpr, func(ctx context.Context) error {
		l := log.Logger().With().Str("job", JobOrphanCleanup).Logger()

		n, err := newCleaner(ctx).CleanupOrphans(ctx)
		if n > 0 {
			l.Info().Int("removed", n).Msg("orphan contents cleaned")
		}

		return err
	})
}
