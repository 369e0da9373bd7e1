package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/types"
	"github.com/yeisme/filevault/pkg/middleware"
	"github.com/yeisme/filevault/pkg/scheduler"
)

// JobsResponse 后台任务列表.
type JobsResponse struct {
	Jobs []scheduler.JobInfo `json:"jobs"`
}

// QueueWaitingResponse 排队等待的任务数.
type QueueWaitingResponse struct {
	Waiting int `json:"waiting"`
}

func schedulerOrAbort(c *gin.Context) *scheduler.Scheduler {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{Error: "scheduler not running"})
	}

	return sched
}

func writeJobError(c *gin.Context, err error) {
	if errors.Is(err, scheduler.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, types.ErrorResponse{Error: "job not found"})
		return
	}

	writeError(c, err, "scheduler")
}

// SchedulerJobs 返回所有后台任务的状态.
//
//	@Summary	后台任务列表
//	@Tags		调度
//	@Produce	json
//	@Success	200	{object}	handle.JobsResponse
//	@Failure	503	{object}	types.ErrorResponse
//	@Router		/scheduler/jobs [get]
func SchedulerJobs(c *gin.Context) {
	sched := schedulerOrAbort(c)
	if sched == nil {
		return
	}

	c.JSON(http.StatusOK, JobsResponse{Jobs: sched.GetJobInfos()})
}

// SchedulerRunJob 立即执行一次任务.
//
//	@Summary	立即执行任务
//	@Tags		调度
//	@Param		name	path	string	true	"任务名"
//	@Success	202
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/scheduler/jobs/{name}/run [post]
func SchedulerRunJob(c *gin.Context) {
	sched := schedulerOrAbort(c)
	if sched == nil {
		return
	}

	if err := sched.RunNow(c.Param("name")); err != nil {
		writeJobError(c, err)
		return
	}

	c.Status(http.StatusAccepted)
}

// SchedulerRemoveJob 根据任务名删除任务.
//
//	@Summary	删除任务
//	@Tags		调度
//	@Param		name	path	string	true	"任务名"
//	@Success	204
//	@Failure	404	{object}	types.ErrorResponse
//	@Router		/scheduler/jobs/{name} [delete]
func SchedulerRemoveJob(c *gin.Context) {
	sched := schedulerOrAbort(c)
	if sched == nil {
		return
	}

	if err := sched.RemoveJob(c.Param("name")); err != nil {
		writeJobError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SchedulerQueueWaiting 返回队列中等待的任务数.
//
//	@Summary	等待中的任务数
//	@Tags		调度
//	@Produce	json
//	@Success	200	{object}	handle.QueueWaitingResponse
//	@Router		/scheduler/queue/waiting [get]
func SchedulerQueueWaiting(c *gin.Context) {
	sched := schedulerOrAbort(c)
	if sched == nil {
		return
	}

	c.JSON(http.StatusOK, QueueWaitingResponse{Waiting: sched.JobsWaitingInQueue()})
}
