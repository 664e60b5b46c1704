package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ScanTopics 触发一次选题扫描，扫描进行中时并发请求被直接拒绝。
func (a *API) ScanTopics(c *gin.Context) {
	result, err := a.topics.Scan(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// ListTopics 返回等待消费的选题列表。
func (a *API) ListTopics(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	topics, err := a.topics.ListPending(limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取选题列表失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"topics": topics})
}

// GenerateDrafts 把一批待处理选题交给模型批量生成草稿。
func (a *API) GenerateDrafts(c *gin.Context) {
	var input struct {
		Mode  string `json:"mode"`
		Limit int    `json:"limit"`
	}
	if !bindJSON(c, &input, "无效的生成参数") {
		return
	}

	result, err := a.generate.GenerateFromTopics(c.Request.Context(), input.Mode, input.Limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}
