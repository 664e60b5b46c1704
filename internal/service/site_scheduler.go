package service

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/newsdesk/internal/db"
	"github.com/newsdesk/internal/metrics"
	"gorm.io/gorm"
)

// ErrScheduleRunInProgress 表示站点排期器正在执行，请求被单飞锁拒绝。
var ErrScheduleRunInProgress = errors.New("site schedule recalculation already running")

// SiteSchedulerService 为已审核通过但尚无发布时间的草稿分配时间槽。
// 触发方式是显式的 Recalculate 调用，周期性调度由外部负责。
type SiteSchedulerService struct {
	db    *gorm.DB
	locks *LockService
	cfg   SlotConfig
	// Enabled 为 false 时 Recalculate 直接返回空结果。
	Enabled bool
}

// ScheduleRunResult 汇总一次排期执行的产出。
type ScheduleRunResult struct {
	Scheduled map[uint]time.Time `json:"scheduled"`
	Skipped   bool               `json:"skipped"`
}

// NewSiteSchedulerService 创建站点排期器。
func NewSiteSchedulerService(gdb *gorm.DB, locks *LockService, cfg SlotConfig, enabled bool) *SiteSchedulerService {
	return &SiteSchedulerService{db: gdb, locks: locks, cfg: cfg, Enabled: enabled}
}

// SiteScheduleEligible 是站点排期器的选取条件：
// 仍在草稿态、审核已通过、且尚未有任何排期时间。
// 已排期的草稿不会被重复触碰，这也保证了过去的时间点不被改写。
func SiteScheduleEligible(query *gorm.DB) *gorm.DB {
	return query.
		Where("status = ?", db.StatusDraft).
		Where("review_status = ?", db.ReviewApproved).
		Where("scheduled_at IS NULL")
}

// Recalculate 拉取所有符合条件的草稿并写入时间槽。
// 同名锁保证同一时刻只有一次执行；重复调用是幂等的。
func (s *SiteSchedulerService) Recalculate(now time.Time) (*ScheduleRunResult, error) {
	if !s.Enabled {
		return &ScheduleRunResult{Scheduled: map[uint]time.Time{}, Skipped: true}, nil
	}

	if !s.locks.TryAcquire(LockKeySiteSchedule, uuid.NewString()) {
		return nil, ErrScheduleRunInProgress
	}
	defer s.locks.Release(LockKeySiteSchedule)

	var drafts []db.Draft
	if err := SiteScheduleEligible(s.db.Model(&db.Draft{})).
		Order("created_at asc, id asc").
		Find(&drafts).Error; err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(drafts))
	for _, draft := range drafts {
		ids = append(ids, draft.ID)
	}

	slots, err := AllocateSlots(ids, now, s.cfg)
	if err != nil {
		return nil, err
	}

	for id, at := range slots {
		if err := s.db.Model(&db.Draft{}).
			Where("id = ? AND scheduled_at IS NULL", id).
			Update("scheduled_at", at).Error; err != nil {
			return nil, err
		}
		metrics.ScheduledSlots.WithLabelValues("site").Inc()
	}

	return &ScheduleRunResult{Scheduled: slots}, nil
}
