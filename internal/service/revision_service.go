package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/newsdesk/internal/db"
	"github.com/newsdesk/internal/metrics"
	"gorm.io/gorm"
)

var (
	// ErrRevisionNotesRequired 表示修改意见不能为空白。
	ErrRevisionNotesRequired = errors.New("revision notes must not be empty")
	// ErrRevisionInProgress 表示该草稿已有未完成的修订任务（单飞拒绝）。
	ErrRevisionInProgress = errors.New("a revision job is already running for this draft")
	// ErrNoRevision 表示草稿当前没有任何修订记录。
	ErrNoRevision = errors.New("draft has no revision record")
	// ErrNoPendingRevision 表示没有可应用的修订结果。
	ErrNoPendingRevision = errors.New("draft has no ready revision to apply")
)

const defaultRevisionJobTimeout = 3 * time.Minute

// RevisionService 实现人工意见驱动的异步 AI 修订协议：
// 请求被接受后立即返回，任务在后台执行，进度状态全部落在草稿上，
// UI 通过轮询观察完成情况，掉线重连不丢进度。
// 已派发的任务无法中途取消，丢弃操作只丢弃结果。
type RevisionService struct {
	db      *gorm.DB
	reviser DraftReviser
	reviews *ReviewService
	// dispatch 决定任务如何执行，默认开 goroutine；测试注入同步执行器。
	dispatch func(job func())
	timeout  time.Duration
}

// RevisionStatus 是轮询接口返回的任务视图。
type RevisionStatus struct {
	Status          string     `json:"status"`
	ProposedTitle   string     `json:"proposedTitle,omitempty"`
	ProposedContent string     `json:"proposedContent,omitempty"`
	ProposedSummary string     `json:"proposedSummary,omitempty"`
	Diff            string     `json:"diff,omitempty"`
	ModelName       string     `json:"model,omitempty"`
	ErrorMsg        string     `json:"errorMsg,omitempty"`
	FinishedAt      *time.Time `json:"finishedAt,omitempty"`
}

// NewRevisionService 创建 RevisionService 实例。
func NewRevisionService(gdb *gorm.DB, reviser DraftReviser, reviews *ReviewService) *RevisionService {
	return &RevisionService{
		db:       gdb,
		reviser:  reviser,
		reviews:  reviews,
		dispatch: func(job func()) { go job() },
		timeout:  defaultRevisionJobTimeout,
	}
}

// SetDispatcher 覆盖任务执行方式，主要用于测试中同步跑完任务。
func (s *RevisionService) SetDispatcher(dispatch func(job func())) {
	if dispatch != nil {
		s.dispatch = dispatch
	}
}

// RequestChanges 接受人工修改意见并派发异步修订任务。
// 空白意见直接拒绝；同一草稿已有任务在跑时以单飞错误拒绝而不是排队。
// 新意见整体替换旧意见，从不合并。
func (s *RevisionService) RequestChanges(draftID uint, notes string) (*db.DraftRevision, error) {
	trimmed := strings.TrimSpace(notes)
	if trimmed == "" {
		return nil, ErrRevisionNotesRequired
	}

	var draft db.Draft
	if err := s.db.Preload("Review").First(&draft, draftID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}

	if draft.TerminalStatus() {
		return nil, ErrDraftTerminal
	}
	if draft.ReviewStatus == db.ReviewChangesInProgress {
		return nil, ErrRevisionInProgress
	}
	if draft.Review != nil && draft.Review.Status == db.RevisionPending {
		return nil, ErrRevisionInProgress
	}

	// 先走状态机到 changes_requested，再进入 changes_in_progress。
	if draft.ReviewStatus != db.ReviewChangesRequested {
		if _, err := s.reviews.Transition(draftID, db.ReviewChangesRequested); err != nil {
			return nil, err
		}
	}
	if err := s.db.Model(&db.Draft{}).Where("id = ?", draftID).
		Update("review_notes", trimmed).Error; err != nil {
		return nil, err
	}
	if _, err := s.reviews.Transition(draftID, db.ReviewChangesInProgress); err != nil {
		return nil, err
	}

	jobID := uuid.NewString()
	revision := db.DraftRevision{
		DraftID: draftID,
		JobID:   jobID,
		Status:  db.RevisionPending,
	}

	// 历史结果记录让位于新任务。
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("draft_id = ?", draftID).Delete(&db.DraftRevision{}).Error; err != nil {
			return err
		}
		return tx.Create(&revision).Error
	}); err != nil {
		// 任务记录没建成，审核轴退回 changes_requested，草稿可以重新请求。
		if _, rbErr := s.reviews.Transition(draftID, db.ReviewChangesRequested); rbErr != nil {
			log.Printf("[revision] failed to roll back review status for draft %d: %v", draftID, rbErr)
		}
		return nil, err
	}

	input := ReviseInput{
		Title:   draft.Title,
		Content: draft.Content,
		Notes:   trimmed,
		Mode:    draft.Mode,
	}
	s.dispatch(func() { s.runJob(draftID, jobID, input) })

	return &revision, nil
}

// runJob 在后台执行一次修订，并把结果写回草稿的修订子记录。
// 任务返回时若草稿已进入终态或任务记录已被替换，结果直接丢弃。
func (s *RevisionService) runJob(draftID uint, jobID string, input ReviseInput) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result, callErr := s.reviser.ReviseDraft(ctx, input)

	var draft db.Draft
	if err := s.db.First(&draft, draftID).Error; err != nil {
		log.Printf("[revision] draft %d vanished before job %s landed: %v", draftID, jobID, err)
		metrics.RevisionJobs.WithLabelValues("discarded").Inc()
		return
	}

	if draft.TerminalStatus() {
		// 迟到的结果不允许把终态草稿拉回流程。
		log.Printf("[revision] discarding late result for terminal draft %d (job %s)", draftID, jobID)
		s.db.Where("draft_id = ? AND job_id = ?", draftID, jobID).Delete(&db.DraftRevision{})
		metrics.RevisionJobs.WithLabelValues("discarded").Inc()
		return
	}

	var revision db.DraftRevision
	if err := s.db.Where("draft_id = ? AND job_id = ?", draftID, jobID).
		First(&revision).Error; err != nil {
		log.Printf("[revision] job %s superseded for draft %d, discarding result", jobID, draftID)
		metrics.RevisionJobs.WithLabelValues("discarded").Inc()
		return
	}

	now := time.Now()

	if callErr != nil {
		updates := map[string]interface{}{
			"status":      db.RevisionError,
			"error_msg":   callErr.Error(),
			"finished_at": now,
		}
		if err := s.db.Model(&revision).Updates(updates).Error; err != nil {
			log.Printf("[revision] failed to record error for draft %d: %v", draftID, err)
		}
		// 回到 changes_requested，让人工调整意见后重新触发。
		if _, err := s.reviews.Transition(draftID, db.ReviewChangesRequested); err != nil {
			log.Printf("[revision] failed to roll back review status for draft %d: %v", draftID, err)
		}
		metrics.RevisionJobs.WithLabelValues("error").Inc()
		return
	}

	diffText := ""
	if diff, err := ComputeLineDiff(draft.Content, result.Content); err == nil {
		diffText = diff.Text
	}

	updates := map[string]interface{}{
		"status":           db.RevisionReady,
		"proposed_title":   result.Title,
		"proposed_content": result.Content,
		"proposed_summary": result.Summary,
		"diff":             diffText,
		"model_name":       result.Model,
		"error_msg":        "",
		"finished_at":      now,
	}
	if err := s.db.Model(&revision).Updates(updates).Error; err != nil {
		log.Printf("[revision] failed to store result for draft %d: %v", draftID, err)
		return
	}

	if _, err := s.reviews.Transition(draftID, db.ReviewChangesCompleted); err != nil {
		log.Printf("[revision] review status moved concurrently for draft %d: %v", draftID, err)
	}
	metrics.RevisionJobs.WithLabelValues("ready").Inc()
}

// Poll 返回当前修订任务的状态，供 UI 每隔数秒轮询一次。
func (s *RevisionService) Poll(draftID uint) (*RevisionStatus, error) {
	var revision db.DraftRevision
	if err := s.db.Where("draft_id = ?", draftID).First(&revision).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoRevision
		}
		return nil, err
	}

	return &RevisionStatus{
		Status:          revision.Status,
		ProposedTitle:   revision.ProposedTitle,
		ProposedContent: revision.ProposedContent,
		ProposedSummary: revision.ProposedSummary,
		Diff:            revision.Diff,
		ModelName:       revision.ModelName,
		ErrorMsg:        revision.ErrorMsg,
		FinishedAt:      revision.FinishedAt,
	}, nil
}

// Apply 把修订结果复制到正文字段并清掉子记录。
// 审核状态保持 changes_completed，由人工随后决定通过还是继续修改。
func (s *RevisionService) Apply(draftID uint) (*db.Draft, error) {
	var draft db.Draft
	if err := s.db.Preload("Review").First(&draft, draftID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}

	if draft.Review == nil || draft.Review.Status != db.RevisionReady {
		return nil, ErrNoPendingRevision
	}
	if draft.TerminalStatus() {
		return nil, ErrDraftTerminal
	}

	revision := draft.Review
	err := s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"content": revision.ProposedContent,
		}
		if strings.TrimSpace(revision.ProposedTitle) != "" {
			updates["title"] = revision.ProposedTitle
		}
		if strings.TrimSpace(revision.ProposedSummary) != "" {
			updates["summary"] = revision.ProposedSummary
		}
		if err := tx.Model(&db.Draft{}).Where("id = ?", draftID).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("draft_id = ?", draftID).Delete(&db.DraftRevision{}).Error
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.First(&draft, draftID).Error; err != nil {
		return nil, err
	}
	draft.PopulateDerivedFields()
	return &draft, nil
}

// Discard 丢弃已完成（ready 或 error）的修订记录，不触碰正文。
// 任务仍在执行时拒绝丢弃：已派发的外部调用无法取消，
// 等它落地后记录会按常规路径被替换或清理。
func (s *RevisionService) Discard(draftID uint) error {
	var revision db.DraftRevision
	if err := s.db.Where("draft_id = ?", draftID).First(&revision).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoRevision
		}
		return err
	}

	if revision.Status == db.RevisionPending {
		return ErrRevisionInProgress
	}

	if err := s.db.Where("draft_id = ?", draftID).Delete(&db.DraftRevision{}).Error; err != nil {
		return err
	}

	// error 记录被丢弃后审核轴停在 changes_requested；
	// ready 记录被丢弃后停在 changes_completed，均可直接再次请求修改。
	return nil
}
