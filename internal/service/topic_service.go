package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/newsdesk/internal/db"
	"gorm.io/gorm"
)

// ErrScanInProgress 表示已有扫描在执行，请求被单飞锁拒绝。
var ErrScanInProgress = errors.New("topic scan already running")

// TopicService 维护选题的录入、消费与归档。
type TopicService struct {
	db      *gorm.DB
	locks   *LockService
	scanner TopicScanner
}

// ScanResult 汇总一次扫描的产出。
type ScanResult struct {
	Found    int `json:"found"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// NewTopicService 创建 TopicService 实例。
func NewTopicService(gdb *gorm.DB, locks *LockService, scanner TopicScanner) *TopicService {
	return &TopicService{db: gdb, locks: locks, scanner: scanner}
}

// Scan 触发一次选题扫描。扫描是昂贵的外部调用，
// 并发的第二次请求直接拒绝而不是排队。
// 与已归档选题同名的条目不会被重新录入。
func (s *TopicService) Scan(ctx context.Context) (*ScanResult, error) {
	if !s.locks.TryAcquire(LockKeyScan, uuid.NewString()) {
		return nil, ErrScanInProgress
	}
	defer s.locks.Release(LockKeyScan)

	scanned, err := s.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{Found: len(scanned)}
	now := time.Now()

	for _, item := range scanned {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			result.Skipped++
			continue
		}

		var existing db.Topic
		err := s.db.Unscoped().Where("title = ?", title).First(&existing).Error
		if err == nil {
			// 已存在（含已归档）的选题一律跳过，归档不可复活。
			result.Skipped++
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		topic := db.Topic{
			Title:      title,
			Category:   item.Category,
			Confidence: item.Confidence,
			Impact:     item.Impact,
			Sources:    item.Source,
			Status:     db.TopicPending,
			DetectedAt: now,
		}
		if err := s.db.Create(&topic).Error; err != nil {
			return nil, err
		}
		result.Inserted++
	}

	return result, nil
}

// ListPending 返回等待消费的选题，按检测时间先后排序。
func (s *TopicService) ListPending(limit int) ([]db.Topic, error) {
	query := s.db.Where("status = ?", db.TopicPending).Order("detected_at asc, id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var topics []db.Topic
	if err := query.Find(&topics).Error; err != nil {
		return nil, err
	}
	return topics, nil
}

// MarkConsumed 把选题标记为已消费。
func (s *TopicService) MarkConsumed(id uint) error {
	return s.db.Model(&db.Topic{}).Where("id = ?", id).
		Update("status", db.TopicConsumed).Error
}

// Archive 软删除一批选题并返回实际归档数量。
func (s *TopicService) Archive(ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result := s.db.Model(&db.Topic{}).
		Where("id IN ?", ids).
		Update("status", db.TopicArchived)
	if result.Error != nil {
		return 0, result.Error
	}

	if err := s.db.Where("id IN ?", ids).Delete(&db.Topic{}).Error; err != nil {
		return 0, err
	}

	return result.RowsAffected, nil
}
