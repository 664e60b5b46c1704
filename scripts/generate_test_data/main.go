package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/newsdesk/internal/db"
)

// 往本地数据库灌入覆盖各审核阶段的样例数据，方便开发后台界面。
func main() {
	_ = godotenv.Load()

	if err := db.Init(os.Getenv("DATABASE_PATH")); err != nil {
		log.Fatalf("数据库初始化失败: %v", err)
	}

	now := time.Now()
	drafts := []db.Draft{
		{
			Title:        "新发布的CPI数据解读",
			Content:      "# 新发布的CPI数据解读\n\n本月居民消费价格指数同比上涨……",
			Summary:      "本月CPI数据与市场预期的对比。",
			Category:     "财经",
			Tags:         "财经,宏观",
			Mode:         db.ModeFactual,
			Status:       db.StatusDraft,
			ReviewStatus: db.ReviewPending,
		},
		{
			Title:        "对新能源补贴退坡的看法",
			Content:      "# 对新能源补贴退坡的看法\n\n补贴退坡并不意味着行业失速……",
			Summary:      "补贴退坡后的行业走向评论。",
			Category:     "产业",
			Tags:         "新能源,评论",
			Mode:         db.ModeOpinion,
			Status:       db.StatusDraft,
			ReviewStatus: db.ReviewApproved,
		},
		{
			Title:        "芯片出口数据需要补充来源",
			Content:      "# 芯片出口数据需要补充来源\n\n初稿缺少海关总署的原始数据……",
			Summary:      "等待修订的稿件。",
			Category:     "科技",
			Tags:         "半导体",
			Mode:         db.ModeFactual,
			Status:       db.StatusDraft,
			ReviewStatus: db.ReviewChangesRequested,
		},
		{
			Title:        "上周发布的航运指数报道",
			Content:      "# 上周发布的航运指数报道\n\n集装箱运价指数连续三周回落……",
			Summary:      "已经发布并等待社交分发的稿件。",
			Category:     "财经",
			Tags:         "航运",
			Mode:         db.ModeFactual,
			Status:       db.StatusPublished,
			ReviewStatus: db.ReviewApproved,
			PublishedAt:  ptrTime(now.Add(-72 * time.Hour)),
		},
	}
	for i := range drafts {
		if err := db.DB.Create(&drafts[i]).Error; err != nil {
			log.Fatalf("写入样例草稿失败: %v", err)
		}
	}

	topics := []db.Topic{
		{Title: "多地出台楼市新政", Category: "财经", Confidence: 0.85, Impact: 3, Sources: "https://news.example.com/housing", Status: db.TopicPending, DetectedAt: now.Add(-2 * time.Hour)},
		{Title: "AI芯片厂商发布新品", Category: "科技", Confidence: 0.74, Impact: 2, Sources: "https://news.example.com/chips", Status: db.TopicPending, DetectedAt: now.Add(-1 * time.Hour)},
	}
	for i := range topics {
		if err := db.DB.Create(&topics[i]).Error; err != nil {
			log.Fatalf("写入样例选题失败: %v", err)
		}
	}

	fmt.Printf("样例数据已写入：%d 篇草稿，%d 条选题\n", len(drafts), len(topics))
}

func ptrTime(t time.Time) *time.Time {
	return &t
}
