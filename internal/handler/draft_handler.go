package handler

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/newsdesk/internal/db"
	"github.com/newsdesk/internal/service"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	previewSanitizer = bluemonday.UGCPolicy()
)

type draftInput struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Summary  string   `json:"summary"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Mode     string   `json:"mode"`
	CoverURL string   `json:"coverUrl"`
}

// ListDrafts 获取草稿列表
func (a *API) ListDrafts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("perPage", "10"))

	result, err := a.drafts.List(service.DraftFilter{
		Status:       c.Query("status"),
		ReviewStatus: c.Query("reviewStatus"),
		Mode:         c.Query("mode"),
		Search:       c.Query("search"),
		Page:         page,
		PerPage:      perPage,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取草稿列表失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"drafts":     result.Drafts,
		"total":      result.Total,
		"totalPages": result.TotalPages,
		"page":       result.Page,
		"perPage":    result.PerPage,
	})
}

// GetDraft 获取单篇草稿
func (a *API) GetDraft(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的草稿ID")
		return
	}

	draft, err := a.drafts.Get(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

// CreateDraft 人工创建新草稿
func (a *API) CreateDraft(c *gin.Context) {
	var input draftInput
	if !bindJSON(c, &input, "无效的草稿参数") {
		return
	}

	draft, err := a.drafts.Create(service.DraftInput{
		Title:    input.Title,
		Content:  input.Content,
		Summary:  input.Summary,
		Category: input.Category,
		Tags:     input.Tags,
		Mode:     input.Mode,
		CoverURL: input.CoverURL,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "草稿创建成功", "draft": draft})
}

// UpdateDraft 人工编辑草稿正文
func (a *API) UpdateDraft(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的草稿ID")
		return
	}

	var input draftInput
	if !bindJSON(c, &input, "无效的草稿参数") {
		return
	}

	draft, err := a.drafts.Update(id, service.DraftInput{
		Title:    input.Title,
		Content:  input.Content,
		Summary:  input.Summary,
		Category: input.Category,
		Tags:     input.Tags,
		CoverURL: input.CoverURL,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "草稿更新成功", "draft": draft})
}

// RejectDraft 硬拒绝草稿：两条状态轴同时进入终态。
func (a *API) RejectDraft(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的草稿ID")
		return
	}

	draft, err := a.reviews.Reject(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "草稿已拒绝", "draft": draft})
}

// TransitionReviewStatus 请求一次审核状态迁移，服务端做合法性裁决。
func (a *API) TransitionReviewStatus(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的草稿ID")
		return
	}

	var input struct {
		Status string `json:"status"`
	}
	if !bindJSON(c, &input, "无效的状态参数") {
		return
	}

	draft, err := a.reviews.Transition(id, input.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "状态已更新", "draft": draft})
}

// PublishDraft 立即发布草稿，前提是审核已通过。
func (a *API) PublishDraft(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的草稿ID")
		return
	}

	draft, err := a.reviews.Publish(id, time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "发布成功", "draft": draft})
}

// ScheduleDraft 人工指定发布时间。
func (a *API) ScheduleDraft(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的草稿ID")
		return
	}

	var input struct {
		ScheduledAt time.Time `json:"scheduledAt"`
	}
	if !bindJSON(c, &input, "无效的排期参数") {
		return
	}

	draft, err := a.drafts.Schedule(id, input.ScheduledAt, time.Now())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "排期成功", "draft": draft})
}

// PreviewDraft 把当前或提议中的 Markdown 渲染为净化后的 HTML。
func (a *API) PreviewDraft(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的草稿ID")
		return
	}

	draft, err := a.drafts.Get(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	content := draft.Content
	if c.Query("proposed") == "1" {
		if draft.Review == nil || draft.Review.Status != db.RevisionReady {
			respondServiceError(c, service.ErrNoPendingRevision)
			return
		}
		content = draft.Review.ProposedContent
	}

	var rendered bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &rendered); err != nil {
		respondError(c, http.StatusInternalServerError, "渲染预览失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"html": previewSanitizer.Sanitize(rendered.String()),
	})
}

// ShareDraftNow 人工触发立即分发到社交渠道。
func (a *API) ShareDraftNow(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的草稿ID")
		return
	}

	draft, err := a.social.ShareNow(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "分发成功", "draft": draft})
}
