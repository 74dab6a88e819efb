package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filevault/pkg/internal/errs"
	"github.com/yeisme/filevault/pkg/middleware"
	"github.com/yeisme/filevault/pkg/scheduler"
)

// SchedulerJobs 返回所有调度器任务信息.
//
//	@Summary		定时任务列表
//	@Tags			调度器
//	@Produce		json
//	@Success		200	{object}	map[string][]scheduler.JobInfo
//	@Router			/api/v1/scheduler/jobs [get]
func SchedulerJobs(c *gin.Context) {
	sched, ok := schedulerFrom(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": sched.GetJobInfos()})
}

// SchedulerRunJob 立即触发一次任务.
//
//	@Summary		立即执行任务
//	@Tags			调度器
//	@Produce		json
//	@Param			name	path		string	true	"任务名"
//	@Success		202		{object}	map[string]string
//	@Failure		404		{object}	errs.Body
//	@Router			/api/v1/scheduler/jobs/{name}/run [post]
func SchedulerRunJob(c *gin.Context) {
	sched, ok := schedulerFrom(c)
	if !ok {
		return
	}

	name := c.Param("name")
	if err := sched.RunNow(name); err != nil {
		schedulerError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"message": "job triggered", "job": name})
}

// SchedulerRemoveJob 根据名称删除任务.
//
//	@Summary		删除任务
//	@Tags			调度器
//	@Produce		json
//	@Param			name	path		string	true	"任务名"
//	@Success		200		{object}	map[string]string
//	@Failure		404		{object}	errs.Body
//	@Router			/api/v1/scheduler/jobs/{name} [delete]
func SchedulerRemoveJob(c *gin.Context) {
	sched, ok := schedulerFrom(c)
	if !ok {
		return
	}

	if err := sched.RemoveJobByName(c.Param("name")); err != nil {
		schedulerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "job removed"})
}

// SchedulerQueueWaiting 返回队列中等待的任务数.
//
//	@Summary		等待中的任务数
//	@Tags			调度器
//	@Produce		json
//	@Success		200	{object}	map[string]int
//	@Router			/api/v1/scheduler/queue/waiting [get]
func SchedulerQueueWaiting(c *gin.Context) {
	sched, ok := schedulerFrom(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"waiting": sched.JobsWaitingInQueue()})
}

func schedulerFrom(c *gin.Context) (*scheduler.Scheduler, bool) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		c.JSON(http.StatusServiceUnavailable, errs.Body{Error: errs.Detail{
			Code:    middleware.CodeServiceUnavailable,
			Message: "scheduler not running",
		}})

		return nil, false
	}

	return sched, true
}

func schedulerError(c *gin.Context, err error) {
	if errors.Is(err, scheduler.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, errs.ToBody(errs.NotFound("%v", err)))
		return
	}

	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, errs.ToBody(err))
}
