package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/newsdesk/internal/db"
	"github.com/newsdesk/internal/metrics"
	"gorm.io/gorm"
)

var (
	ErrDraftNotFound      = errors.New("draft not found")
	ErrNoOpTransition     = errors.New("review status already has the requested value")
	ErrInvalidTransition  = errors.New("review status transition not allowed")
	ErrDraftTerminal      = errors.New("draft is in a terminal status")
	ErrPublishNotApproved = errors.New("draft must be approved before publishing")
	ErrDraftConflict      = errors.New("draft was modified concurrently, retry")
)

// reviewTransitions 是审核轴的完整迁移表，服务端是唯一权威。
// rejected 为终态，不出现在键集合中。
var reviewTransitions = map[string][]string{
	db.ReviewPending:           {db.ReviewApproved, db.ReviewChangesRequested, db.ReviewRejected},
	db.ReviewApproved:          {db.ReviewPending, db.ReviewChangesRequested, db.ReviewRejected},
	db.ReviewChangesRequested:  {db.ReviewPending, db.ReviewChangesInProgress, db.ReviewRejected},
	db.ReviewChangesInProgress: {db.ReviewPending, db.ReviewChangesCompleted, db.ReviewChangesRequested, db.ReviewRejected},
	db.ReviewChangesCompleted:  {db.ReviewPending, db.ReviewApproved, db.ReviewChangesRequested, db.ReviewRejected},
}

// ReviewService 负责草稿两条状态轴上的全部迁移。
type ReviewService struct {
	db *gorm.DB
}

// NewReviewService 创建 ReviewService 实例。
func NewReviewService(gdb *gorm.DB) *ReviewService {
	return &ReviewService{db: gdb}
}

// CanTransition 判断迁移表是否允许 from → to，不触发任何副作用。
func CanTransition(from, to string) bool {
	for _, allowed := range reviewTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition 将草稿的审核状态迁移到 target，并执行迁移绑定的副作用。
// 向当前值迁移视为错误而不是静默成功，避免副作用被重复触发。
func (s *ReviewService) Transition(draftID uint, target string) (*db.Draft, error) {
	if !db.ValidReviewStatus(target) {
		return nil, fmt.Errorf("%w: unknown review status %q", ErrInvalidTransition, target)
	}

	var draft db.Draft
	if err := s.db.First(&draft, draftID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}

	if draft.TerminalStatus() {
		return nil, ErrDraftTerminal
	}
	if draft.ReviewStatus == target {
		return nil, ErrNoOpTransition
	}
	if !CanTransition(draft.ReviewStatus, target) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, draft.ReviewStatus, target)
	}

	updates := map[string]interface{}{
		"review_status": target,
		"lock_version":  draft.LockVersion + 1,
	}

	// 硬拒绝同时终结发布轴。
	if target == db.ReviewRejected {
		updates["status"] = db.StatusRejected
	}

	if err := s.applyGuarded(&draft, updates); err != nil {
		return nil, err
	}

	if target == db.ReviewApproved {
		metrics.DraftApprovals.Inc()
	}

	draft.PopulateDerivedFields()
	return &draft, nil
}

// Publish 将草稿发布上线。前置条件：审核轴必须处于 approved。
// 尚未到点的排期时间在发布瞬间被清除，避免一条已上线内容再被排期器碰到。
func (s *ReviewService) Publish(draftID uint, now time.Time) (*db.Draft, error) {
	var draft db.Draft
	if err := s.db.First(&draft, draftID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}

	if draft.TerminalStatus() {
		return nil, ErrDraftTerminal
	}
	if draft.ReviewStatus != db.ReviewApproved {
		return nil, ErrPublishNotApproved
	}

	updates := map[string]interface{}{
		"status":       db.StatusPublished,
		"published_at": now,
		"lock_version": draft.LockVersion + 1,
	}
	if draft.ScheduledAt != nil && draft.ScheduledAt.After(now) {
		updates["scheduled_at"] = nil
	}

	if err := s.applyGuarded(&draft, updates); err != nil {
		return nil, err
	}

	metrics.DraftPublishes.Inc()

	draft.PopulateDerivedFields()
	return &draft, nil
}

// Reject 人工硬拒绝草稿：两条状态轴同时进入终态。
func (s *ReviewService) Reject(draftID uint) (*db.Draft, error) {
	draft, err := s.Transition(draftID, db.ReviewRejected)
	if err != nil {
		if errors.Is(err, ErrNoOpTransition) {
			return nil, ErrDraftTerminal
		}
		return nil, err
	}
	return draft, nil
}

// applyGuarded 以乐观版本号做读改写保护：
// 同一草稿上的两次并发迁移必然有一次因版本不匹配而失败。
func (s *ReviewService) applyGuarded(draft *db.Draft, updates map[string]interface{}) error {
	result := s.db.Model(&db.Draft{}).
		Where("id = ? AND lock_version = ?", draft.ID, draft.LockVersion).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDraftConflict
	}
	return s.db.First(draft, draft.ID).Error
}
