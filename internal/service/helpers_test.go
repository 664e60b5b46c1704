package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/newsdesk/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB 为每个测试打开独立的内存数据库并迁移核心模型。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}, &db.Draft{}, &db.DraftRevision{}, &db.Topic{}, &db.SystemSetting{}); err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return gdb
}

// createTestDraft 以默认字段落库一篇草稿，调用方按需覆盖。
func createTestDraft(t *testing.T, gdb *gorm.DB, mutate func(*db.Draft)) *db.Draft {
	t.Helper()

	draft := &db.Draft{
		Title:        "测试草稿",
		Content:      "# 测试草稿\n\n正文内容。",
		Summary:      "正文内容。",
		Mode:         db.ModeFactual,
		Status:       db.StatusDraft,
		ReviewStatus: db.ReviewPending,
		ShareStatus:  db.ShareNone,
	}
	if mutate != nil {
		mutate(draft)
	}

	if err := gdb.Create(draft).Error; err != nil {
		t.Fatalf("failed to create test draft: %v", err)
	}
	return draft
}
