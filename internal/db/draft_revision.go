package db

import (
	"time"
)

// 修订任务状态。任务结束后记录保留，直到被应用或丢弃。
const (
	RevisionPending = "pending"
	RevisionReady   = "ready"
	RevisionError   = "error"
)

// DraftRevision 记录一次 AI 修订任务的去向与结果快照。
// 每篇草稿同一时间最多存在一条记录。不走软删除：
// draft_id 上的唯一索引要求被替换或丢弃的记录真正离开表。
type DraftRevision struct {
	ID              uint   `gorm:"primarykey"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DraftID         uint   `gorm:"uniqueIndex;not null"`
	JobID           string `gorm:"size:64;index"`
	Status          string `gorm:"size:20;not null;default:pending"`
	ProposedTitle   string `gorm:"size:255"`
	ProposedContent string `gorm:"type:text"`
	ProposedSummary string `gorm:"type:text"`
	Diff            string `gorm:"type:text"`
	ModelName       string `gorm:"size:100"`
	ErrorMsg        string `gorm:"type:text"`
	FinishedAt      *time.Time
}

// TableName 指定自定义表名。
func (DraftRevision) TableName() string {
	return "draft_revisions"
}
