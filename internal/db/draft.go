package db

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Draft 的发布轴状态。published 与 rejected 为终态。
const (
	StatusDraft     = "draft"
	StatusReviewed  = "reviewed"
	StatusPublished = "published"
	StatusRejected  = "rejected"
)

// Draft 的审核轴状态，与发布轴相互独立。
const (
	ReviewPending           = "pending"
	ReviewApproved          = "approved"
	ReviewChangesRequested  = "changes_requested"
	ReviewChangesInProgress = "changes_in_progress"
	ReviewChangesCompleted  = "changes_completed"
	ReviewRejected          = "rejected"
)

// 草稿写作模式，创建时确定并保持不变。
const (
	ModeFactual = "factual"
	ModeOpinion = "opinion"
)

// 社交分发子状态。
const (
	ShareNone      = "none"
	ShareSharing   = "sharing"
	SharePublished = "published"
	ShareError     = "error"
)

// 对外展示的发布状态标签，始终由字段推导，不落库。
const (
	PublishStateDraft     = "pendiente"
	PublishStateScheduled = "programado"
	PublishStatePublished = "publicado"
)

// Draft 定义了编辑流水线中的草稿模型。
type Draft struct {
	gorm.Model
	Title        string `gorm:"size:255"`
	Content      string `gorm:"type:text"`
	Summary      string `gorm:"type:text"`
	Category     string `gorm:"size:100"`
	Tags         string `gorm:"type:text"`
	Mode         string `gorm:"size:20;not null;default:factual"`
	Status       string `gorm:"size:20;not null;default:draft;index"`
	ReviewStatus string `gorm:"size:30;not null;default:pending;index"`
	ReviewNotes  string `gorm:"type:text"`
	CoverURL     string `gorm:"size:500"`
	TopicID      *uint  `gorm:"index"`

	ScheduledAt *time.Time
	PublishedAt *time.Time

	ShareStatus      string `gorm:"size:20;not null;default:none;index"`
	ShareScheduledAt *time.Time
	SharePostID      string `gorm:"size:100"`
	SharePermalink   string `gorm:"size:500"`
	ShareLastError   string `gorm:"type:text"`

	// LockVersion 用于同一草稿上状态迁移的乐观并发控制。
	LockVersion int `gorm:"not null;default:0"`

	Review *DraftRevision `gorm:"foreignKey:DraftID"`

	PublishState string   `gorm:"-" json:"publishState"`
	TagList      []string `gorm:"-" json:"tagList"`
}

// PopulateDerivedFields 计算仅用于展示的派生字段，不做持久化。
func (d *Draft) PopulateDerivedFields() {
	d.PublishState = d.derivePublishState()
	d.TagList = SplitTags(d.Tags)
}

func (d *Draft) derivePublishState() string {
	if d.Status == StatusPublished {
		return PublishStatePublished
	}
	if d.ScheduledAt != nil && !d.ScheduledAt.IsZero() {
		return PublishStateScheduled
	}
	return PublishStateDraft
}

// TerminalStatus 判断发布轴是否已进入终态。
func (d *Draft) TerminalStatus() bool {
	return d.Status == StatusPublished || d.Status == StatusRejected
}

// ValidReviewStatus 判断给定值是否为六个已定义的审核状态之一。
func ValidReviewStatus(value string) bool {
	switch value {
	case ReviewPending, ReviewApproved, ReviewChangesRequested,
		ReviewChangesInProgress, ReviewChangesCompleted, ReviewRejected:
		return true
	}
	return false
}

// ValidMode 判断写作模式取值是否合法。
func ValidMode(value string) bool {
	return value == ModeFactual || value == ModeOpinion
}

// SplitTags 将逗号拼接的标签串拆分为去除空白后的切片。
func SplitTags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		tags = append(tags, trimmed)
	}
	return tags
}

// JoinTags 将标签切片拼接回存储格式，忽略空白项。
func JoinTags(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}
	return strings.Join(cleaned, ",")
}
