package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/newsdesk/internal/db"
	"github.com/newsdesk/internal/metrics"
	"gorm.io/gorm"
)

var (
	// ErrSocialRunInProgress 表示社交排期器正在执行。
	ErrSocialRunInProgress = errors.New("social share run already running")
	// ErrAlreadyShared 表示该内容已在分发中或已分发完成。
	ErrAlreadyShared = errors.New("content is already shared or sharing")
	// ErrNotPublished 表示只有已上线内容才能分发。
	ErrNotPublished = errors.New("only published content can be shared")
)

// SocialPublisher 抽象外部社交渠道。
type SocialPublisher interface {
	Post(ctx context.Context, message, link string) (SocialPostResult, error)
}

// SocialPostResult 是社交渠道返回的发布回执。
type SocialPostResult struct {
	PostID    string
	Permalink string
}

// SocialSchedulerService 把已上线内容按自身的时间窗分发到社交渠道。
// 与站点排期器完全独立：两者的选取集不相交，可安全并行。
type SocialSchedulerService struct {
	db        *gorm.DB
	locks     *LockService
	publisher SocialPublisher
	cfg       SlotConfig
	baseURL   string
	Enabled   bool
}

// SocialRunResult 汇总一次社交分发执行的结果。
type SocialRunResult struct {
	Scheduled map[uint]time.Time `json:"scheduled"`
	Shared    []uint             `json:"shared"`
	Failed    []uint             `json:"failed"`
	Skipped   bool               `json:"skipped"`
}

// NewSocialSchedulerService 创建社交排期器。
func NewSocialSchedulerService(gdb *gorm.DB, locks *LockService, publisher SocialPublisher, cfg SlotConfig, baseURL string, enabled bool) *SocialSchedulerService {
	return &SocialSchedulerService{db: gdb, locks: locks, publisher: publisher, cfg: cfg, baseURL: baseURL, Enabled: enabled}
}

// SocialShareEligible 是社交分发的唯一判定条件：
// 已上线、且分发状态为 none 或 error（error 是重试候选）。
// sharing 被排除以防双发。角标计数与排期器选取都走这一个函数。
func SocialShareEligible(query *gorm.DB) *gorm.DB {
	return query.
		Where("status = ?", db.StatusPublished).
		Where("share_status IN ?", []string{db.ShareNone, db.ShareError})
}

// Run 执行一轮社交分发：先为没有槽位的条目分配时间，
// 再把到点的条目逐个推送到社交渠道，逐条记录成败。
func (s *SocialSchedulerService) Run(ctx context.Context, now time.Time) (*SocialRunResult, error) {
	if !s.Enabled {
		return &SocialRunResult{Scheduled: map[uint]time.Time{}, Skipped: true}, nil
	}

	if !s.locks.TryAcquire(LockKeySocialShare, uuid.NewString()) {
		return nil, ErrSocialRunInProgress
	}
	defer s.locks.Release(LockKeySocialShare)

	var eligible []db.Draft
	if err := SocialShareEligible(s.db.Model(&db.Draft{})).
		Order("published_at asc, id asc").
		Find(&eligible).Error; err != nil {
		return nil, err
	}

	result := &SocialRunResult{Scheduled: map[uint]time.Time{}}

	// 只为尚无槽位的条目分配时间，已有槽位的保持原样（幂等重排）。
	unplanned := make([]uint, 0, len(eligible))
	for _, item := range eligible {
		if item.ShareScheduledAt == nil {
			unplanned = append(unplanned, item.ID)
		}
	}

	slots, err := AllocateSlots(unplanned, now, s.cfg)
	if err != nil {
		return nil, err
	}
	for id, at := range slots {
		if err := s.db.Model(&db.Draft{}).
			Where("id = ? AND share_scheduled_at IS NULL", id).
			Update("share_scheduled_at", at).Error; err != nil {
			return nil, err
		}
		result.Scheduled[id] = at
		metrics.ScheduledSlots.WithLabelValues("social").Inc()
	}

	// 推送所有槽位已到点的条目。
	for _, item := range eligible {
		at := item.ShareScheduledAt
		if planned, ok := slots[item.ID]; ok {
			at = &planned
		}
		if at == nil || at.After(now) {
			continue
		}

		if err := s.shareOne(ctx, item.ID); err != nil {
			result.Failed = append(result.Failed, item.ID)
			continue
		}
		result.Shared = append(result.Shared, item.ID)
	}

	return result, nil
}

// ShareNow 人工绕过排期立即分发一条内容。
// 与排期路径共用同一套成功/失败记录与防双发保护。
func (s *SocialSchedulerService) ShareNow(ctx context.Context, draftID uint) (*db.Draft, error) {
	var draft db.Draft
	if err := s.db.First(&draft, draftID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}

	if draft.Status != db.StatusPublished {
		return nil, ErrNotPublished
	}
	if draft.ShareStatus == db.ShareSharing || draft.ShareStatus == db.SharePublished {
		return nil, ErrAlreadyShared
	}

	if err := s.shareOne(ctx, draftID); err != nil {
		return nil, err
	}

	if err := s.db.First(&draft, draftID).Error; err != nil {
		return nil, err
	}
	draft.PopulateDerivedFields()
	return &draft, nil
}

// shareOne 执行单条分发：先抢占 sharing 态，调用外部渠道，
// 成功写回 postId/permalink，失败写回 lastError 并留作下轮重试。
func (s *SocialSchedulerService) shareOne(ctx context.Context, draftID uint) error {
	claim := s.db.Model(&db.Draft{}).
		Where("id = ? AND share_status IN ?", draftID, []string{db.ShareNone, db.ShareError}).
		Update("share_status", db.ShareSharing)
	if claim.Error != nil {
		return claim.Error
	}
	if claim.RowsAffected == 0 {
		return ErrAlreadyShared
	}

	var draft db.Draft
	if err := s.db.First(&draft, draftID).Error; err != nil {
		return err
	}

	message := draft.Title
	if draft.Summary != "" {
		message = draft.Title + "\n\n" + draft.Summary
	}
	link := s.permalinkFor(draft.ID)

	post, err := s.publisher.Post(ctx, message, link)
	if err != nil {
		metrics.SocialShares.WithLabelValues("error").Inc()
		if recordErr := s.db.Model(&db.Draft{}).Where("id = ?", draftID).Updates(map[string]interface{}{
			"share_status":     db.ShareError,
			"share_last_error": err.Error(),
		}).Error; recordErr != nil {
			return recordErr
		}
		return fmt.Errorf("social publisher rejected draft %d: %w", draftID, err)
	}

	metrics.SocialShares.WithLabelValues("published").Inc()
	return s.db.Model(&db.Draft{}).Where("id = ?", draftID).Updates(map[string]interface{}{
		"share_status":     db.SharePublished,
		"share_post_id":    post.PostID,
		"share_permalink":  post.Permalink,
		"share_last_error": "",
	}).Error
}

func (s *SocialSchedulerService) permalinkFor(id uint) string {
	if s.baseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/articles/%d", strings.TrimRight(s.baseURL, "/"), id)
}
