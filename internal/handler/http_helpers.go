package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/newsdesk/internal/service"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// respondCodedError 带机器可读的错误码返回，
// 让 UI 能区分"稍后重试"与普通失败。
func respondCodedError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": message, "code": code})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// serviceErrorCodes 把业务哨兵错误映射为 HTTP 状态与错误码。
var serviceErrorCodes = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrDraftNotFound, http.StatusNotFound, "DRAFT_NOT_FOUND"},
	{service.ErrNoOpTransition, http.StatusConflict, "NO_OP_TRANSITION"},
	{service.ErrInvalidTransition, http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
	{service.ErrDraftTerminal, http.StatusConflict, "DRAFT_TERMINAL"},
	{service.ErrPublishNotApproved, http.StatusPreconditionFailed, "PUBLISH_NOT_APPROVED"},
	{service.ErrDraftConflict, http.StatusConflict, "CONCURRENT_MODIFICATION"},
	{service.ErrRevisionNotesRequired, http.StatusBadRequest, "NOTES_REQUIRED"},
	{service.ErrRevisionInProgress, http.StatusConflict, "REVISION_IN_PROGRESS"},
	{service.ErrNoRevision, http.StatusNotFound, "NO_REVISION"},
	{service.ErrNoPendingRevision, http.StatusConflict, "NO_PENDING_REVISION"},
	{service.ErrScanInProgress, http.StatusConflict, "SCAN_IN_PROGRESS"},
	{service.ErrGenerationInProgress, http.StatusConflict, "GENERATION_IN_PROGRESS"},
	{service.ErrScheduleRunInProgress, http.StatusConflict, "SCHEDULE_IN_PROGRESS"},
	{service.ErrSocialRunInProgress, http.StatusConflict, "SOCIAL_RUN_IN_PROGRESS"},
	{service.ErrAlreadyShared, http.StatusConflict, "ALREADY_SHARED"},
	{service.ErrNotPublished, http.StatusPreconditionFailed, "NOT_PUBLISHED"},
	{service.ErrInvalidMode, http.StatusBadRequest, "INVALID_MODE"},
	{service.ErrContentRequired, http.StatusBadRequest, "CONTENT_REQUIRED"},
	{service.ErrScheduleInPast, http.StatusBadRequest, "SCHEDULE_IN_PAST"},
	{service.ErrDraftNotSchedulable, http.StatusPreconditionFailed, "NOT_SCHEDULABLE"},
	{service.ErrInvalidSlotWindow, http.StatusBadRequest, "INVALID_SLOT_CONFIG"},
	{service.ErrInvalidSlotInterval, http.StatusBadRequest, "INVALID_SLOT_CONFIG"},
}

// respondServiceError 统一翻译业务层错误，未识别的一律按 500 处理。
func respondServiceError(c *gin.Context, err error) {
	for _, mapping := range serviceErrorCodes {
		if errors.Is(err, mapping.err) {
			respondCodedError(c, mapping.status, mapping.code, err.Error())
			return
		}
	}
	respondError(c, http.StatusInternalServerError, err.Error())
}
