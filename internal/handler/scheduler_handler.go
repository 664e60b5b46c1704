package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RecalculateSchedule 触发一次站点排期：为所有已审核通过、
// 尚无发布时间的草稿分配时间槽。重复调用是幂等的。
func (a *API) RecalculateSchedule(c *gin.Context) {
	result, err := a.site.Recalculate(time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// RunSocialSchedule 执行一轮社交分发：分配缺失的槽位并推送到点条目。
func (a *API) RunSocialSchedule(c *gin.Context) {
	result, err := a.social.Run(c.Request.Context(), time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetPendingCounts 返回后台角标各桶计数。
// 计数条件与对应排期器的选取条件共用同一段代码。
func (a *API) GetPendingCounts(c *gin.Context) {
	counts, err := a.drafts.Counts()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取计数失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"counts": counts})
}
