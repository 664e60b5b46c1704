package service

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/newsdesk/internal/db"
	"gorm.io/gorm"
)

// ErrGenerationInProgress 表示已有批量生成在执行，请求被单飞锁拒绝。
var ErrGenerationInProgress = errors.New("draft generation already running")

const defaultGenerationBatchSize = 5

// GenerationService 把待处理选题批量转换成草稿。
// 每次生成都是一串昂贵的模型调用，并发触发直接拒绝。
type GenerationService struct {
	db        *gorm.DB
	locks     *LockService
	topics    *TopicService
	generator DraftGenerator
	drafts    *DraftService
	covers    *CoverService
}

// GenerationResult 汇总一次批量生成的结果。
type GenerationResult struct {
	Created []uint `json:"created"`
	Failed  []uint `json:"failed"`
}

// NewGenerationService 创建 GenerationService 实例。covers 可以为 nil，
// 此时生成的草稿不带封面。
func NewGenerationService(gdb *gorm.DB, locks *LockService, topics *TopicService, generator DraftGenerator, drafts *DraftService, covers *CoverService) *GenerationService {
	return &GenerationService{
		db:        gdb,
		locks:     locks,
		topics:    topics,
		generator: generator,
		drafts:    drafts,
		covers:    covers,
	}
}

// GenerateFromTopics 消费至多 limit 条待处理选题，为每条生成草稿。
// 单条失败只记录该条，不中断批次；消费成功的选题随后归档。
func (s *GenerationService) GenerateFromTopics(ctx context.Context, mode string, limit int) (*GenerationResult, error) {
	if mode == "" {
		mode = db.ModeFactual
	}
	if !db.ValidMode(mode) {
		return nil, ErrInvalidMode
	}
	if limit <= 0 {
		limit = defaultGenerationBatchSize
	}

	if !s.locks.TryAcquire(LockKeyGeneration, uuid.NewString()) {
		return nil, ErrGenerationInProgress
	}
	defer s.locks.Release(LockKeyGeneration)

	topics, err := s.topics.ListPending(limit)
	if err != nil {
		return nil, err
	}

	result := &GenerationResult{}
	consumed := make([]uint, 0, len(topics))

	for _, topic := range topics {
		written, err := s.generator.GenerateDraft(ctx, GenerateInput{
			TopicTitle: topic.Title,
			Category:   topic.Category,
			Mode:       mode,
		})
		if err != nil {
			log.Printf("[generation] topic %d failed: %v", topic.ID, err)
			result.Failed = append(result.Failed, topic.ID)
			continue
		}

		topicID := topic.ID
		draft, err := s.drafts.Create(DraftInput{
			Title:    written.Title,
			Content:  written.Content,
			Summary:  written.Summary,
			Category: topic.Category,
			Mode:     mode,
			TopicID:  &topicID,
		})
		if err != nil {
			log.Printf("[generation] create draft for topic %d failed: %v", topic.ID, err)
			result.Failed = append(result.Failed, topic.ID)
			continue
		}

		if s.covers != nil {
			if coverURL, err := s.covers.GenerateCover(ctx, draft.Title, draft.Summary); err != nil {
				// 封面失败不阻塞草稿产出，留给人工补图。
				log.Printf("[generation] cover for draft %d failed: %v", draft.ID, err)
			} else if coverURL != "" {
				if err := s.db.Model(&db.Draft{}).Where("id = ?", draft.ID).
					Update("cover_url", coverURL).Error; err != nil {
					log.Printf("[generation] store cover for draft %d failed: %v", draft.ID, err)
				}
			}
		}

		if err := s.topics.MarkConsumed(topic.ID); err != nil {
			log.Printf("[generation] mark topic %d consumed failed: %v", topic.ID, err)
		}
		consumed = append(consumed, topic.ID)
		result.Created = append(result.Created, draft.ID)
	}

	if len(consumed) > 0 {
		if _, err := s.topics.Archive(consumed); err != nil {
			log.Printf("[generation] archive consumed topics failed: %v", err)
		}
	}

	return result, nil
}
