package db

import (
	"time"

	"gorm.io/gorm"
)

// 选题生命周期：扫描产生 pending，被批量生成消费后 consumed，清理后 archived。
// archived 选题不允许被再次使用。
const (
	TopicPending  = "pending"
	TopicConsumed = "consumed"
	TopicArchived = "archived"
)

// Topic 是外部扫描器产出的候选选题，核心流程只读消费。
type Topic struct {
	gorm.Model
	Title      string  `gorm:"size:255;not null"`
	Category   string  `gorm:"size:100"`
	Confidence float64 `gorm:"not null;default:0"`
	Impact     int     `gorm:"not null;default:0"`
	Sources    string  `gorm:"type:text"`
	Status     string  `gorm:"size:20;not null;default:pending;index"`
	DetectedAt time.Time
}
