package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequestRevision 接受人工修改意见并派发异步修订任务。
// 返回后 UI 应转入轮询，任务可能耗时数十秒。
func (a *API) RequestRevision(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的草稿ID")
		return
	}

	var input struct {
		Notes string `json:"notes"`
	}
	if !bindJSON(c, &input, "无效的修订参数") {
		return
	}

	revision, err := a.revisions.RequestChanges(id, input.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"accepted": true,
		"jobId":    revision.JobID,
	})
}

// PollRevision 查询修订任务进度，UI 每隔数秒调用一次直到终态。
func (a *API) PollRevision(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的草稿ID")
		return
	}

	status, err := a.revisions.Poll(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"revision": status})
}

// ApplyRevision 把修订结果应用到正文。
func (a *API) ApplyRevision(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的草稿ID")
		return
	}

	draft, err := a.revisions.Apply(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "修订已应用", "draft": draft})
}

// DiscardRevision 丢弃修订结果，不触碰正文。
func (a *API) DiscardRevision(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的草稿ID")
		return
	}

	if err := a.revisions.Discard(id); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "修订已丢弃"})
}
