package jobs

// 任务名称.
const (
	JobOrphanCleanup = "content.orphan_cleanup"
)

// HandlerOrphanRetry content.orphaned 事件的消费者名称.
const HandlerOrphanRetry = "content.orphan_retry"
