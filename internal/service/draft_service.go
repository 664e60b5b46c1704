package service

import (
	"errors"
	"strings"
	"time"

	"github.com/newsdesk/internal/db"
	"gorm.io/gorm"
)

var (
	ErrInvalidMode        = errors.New("mode must be factual or opinion")
	ErrContentRequired    = errors.New("title and content are required")
	ErrScheduleInPast     = errors.New("scheduled time must be in the future")
	ErrDraftNotSchedulable = errors.New("only approved drafts can be scheduled")
)

// DraftService 封装草稿的增删改查与筛选逻辑。
type DraftService struct {
	db *gorm.DB
}

// DraftFilter 描述列表查询的筛选条件。
type DraftFilter struct {
	Status       string
	ReviewStatus string
	Mode         string
	Search       string
	Page         int
	PerPage      int
}

// DraftListResult 聚合分页列表与总量信息。
type DraftListResult struct {
	Drafts     []db.Draft
	Total      int64
	TotalPages int
	Page       int
	PerPage    int
}

// DraftInput 表示创建或编辑草稿时接受的字段。
// Mode 仅在创建时生效，创建后不可变更。
type DraftInput struct {
	Title    string
	Content  string
	Summary  string
	Category string
	Tags     []string
	Mode     string
	CoverURL string
	TopicID  *uint
}

// PendingCounts 是后台角标使用的各桶计数。
// social 桶与社交排期器共用同一个判定条件（见 SocialShareEligible）。
type PendingCounts struct {
	Topics   int64 `json:"topics"`
	Review   int64 `json:"review"`
	Schedule int64 `json:"schedule"`
	Social   int64 `json:"social"`
}

// NewDraftService 创建 DraftService 实例。
func NewDraftService(gdb *gorm.DB) *DraftService {
	return &DraftService{db: gdb}
}

// Create 持久化一篇新草稿，初始处于 draft/pending。
func (s *DraftService) Create(input DraftInput) (*db.Draft, error) {
	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" || content == "" {
		return nil, ErrContentRequired
	}

	mode := strings.TrimSpace(input.Mode)
	if mode == "" {
		mode = db.ModeFactual
	}
	if !db.ValidMode(mode) {
		return nil, ErrInvalidMode
	}

	draft := db.Draft{
		Title:        title,
		Content:      content,
		Summary:      strings.TrimSpace(input.Summary),
		Category:     strings.TrimSpace(input.Category),
		Tags:         db.JoinTags(input.Tags),
		Mode:         mode,
		Status:       db.StatusDraft,
		ReviewStatus: db.ReviewPending,
		ShareStatus:  db.ShareNone,
		CoverURL:     strings.TrimSpace(input.CoverURL),
		TopicID:      input.TopicID,
	}

	if err := s.db.Create(&draft).Error; err != nil {
		return nil, err
	}

	draft.PopulateDerivedFields()
	return &draft, nil
}

// Get 根据 id 读取草稿，附带修订子记录。
func (s *DraftService) Get(id uint) (*db.Draft, error) {
	var draft db.Draft
	if err := s.db.Preload("Review").First(&draft, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}
	draft.PopulateDerivedFields()
	return &draft, nil
}

// Update 应用人工编辑到正文字段。终态草稿不可编辑。
func (s *DraftService) Update(id uint, input DraftInput) (*db.Draft, error) {
	var existing db.Draft
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}

	if existing.TerminalStatus() {
		return nil, ErrDraftTerminal
	}

	title := strings.TrimSpace(input.Title)
	content := strings.TrimSpace(input.Content)
	if title == "" || content == "" {
		return nil, ErrContentRequired
	}

	updates := map[string]interface{}{
		"title":    title,
		"content":  content,
		"summary":  strings.TrimSpace(input.Summary),
		"category": strings.TrimSpace(input.Category),
		"tags":     db.JoinTags(input.Tags),
	}
	if cover := strings.TrimSpace(input.CoverURL); cover != "" {
		updates["cover_url"] = cover
	}

	if err := s.db.Model(&existing).Updates(updates).Error; err != nil {
		return nil, err
	}

	return s.Get(id)
}

// List 按筛选条件返回分页草稿列表。
func (s *DraftService) List(filter DraftFilter) (*DraftListResult, error) {
	result := &DraftListResult{Page: filter.Page, PerPage: filter.PerPage}
	if result.Page <= 0 {
		result.Page = 1
	}
	if result.PerPage <= 0 {
		result.PerPage = 10
	}

	query := s.applyFilters(s.db.Model(&db.Draft{}), filter)
	if err := query.Count(&result.Total).Error; err != nil {
		return nil, err
	}

	offset := (result.Page - 1) * result.PerPage

	var drafts []db.Draft
	dataQuery := s.applyFilters(s.db.Model(&db.Draft{}).Preload("Review"), filter)
	if err := dataQuery.Order("created_at desc").Limit(result.PerPage).Offset(offset).Find(&drafts).Error; err != nil {
		return nil, err
	}

	for i := range drafts {
		drafts[i].PopulateDerivedFields()
	}

	if result.Total == 0 {
		result.TotalPages = 1
	} else {
		result.TotalPages = int((result.Total + int64(result.PerPage) - 1) / int64(result.PerPage))
	}

	result.Drafts = drafts
	return result, nil
}

// Schedule 人工指定发布时间点。
func (s *DraftService) Schedule(id uint, at time.Time, now time.Time) (*db.Draft, error) {
	var draft db.Draft
	if err := s.db.First(&draft, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDraftNotFound
		}
		return nil, err
	}

	if draft.TerminalStatus() {
		return nil, ErrDraftTerminal
	}
	if draft.ReviewStatus != db.ReviewApproved {
		return nil, ErrDraftNotSchedulable
	}
	if !at.After(now) {
		return nil, ErrScheduleInPast
	}

	if err := s.db.Model(&draft).Update("scheduled_at", at).Error; err != nil {
		return nil, err
	}

	return s.Get(id)
}

// Counts 计算后台角标的各桶数量。
// 排期与社交两个桶必须复用排期器自身的判定条件，避免"角标说有、
// 排期器说无"这类不一致。
func (s *DraftService) Counts() (*PendingCounts, error) {
	counts := &PendingCounts{}

	if err := s.db.Model(&db.Topic{}).
		Where("status = ?", db.TopicPending).
		Count(&counts.Topics).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&db.Draft{}).
		Where("review_status IN ?", []string{db.ReviewPending, db.ReviewChangesCompleted}).
		Where("status = ?", db.StatusDraft).
		Count(&counts.Review).Error; err != nil {
		return nil, err
	}

	if err := SiteScheduleEligible(s.db.Model(&db.Draft{})).Count(&counts.Schedule).Error; err != nil {
		return nil, err
	}

	if err := SocialShareEligible(s.db.Model(&db.Draft{})).Count(&counts.Social).Error; err != nil {
		return nil, err
	}

	return counts, nil
}

func (s *DraftService) applyFilters(query *gorm.DB, filter DraftFilter) *gorm.DB {
	if status := strings.TrimSpace(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if review := strings.TrimSpace(filter.ReviewStatus); review != "" {
		query = query.Where("review_status = ?", review)
	}
	if mode := strings.TrimSpace(filter.Mode); mode != "" {
		query = query.Where("mode = ?", mode)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		query = query.Where("title LIKE ? OR content LIKE ?", like, like)
	}
	return query
}
