package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/newsdesk/internal/config"
	"github.com/newsdesk/internal/db"
	"github.com/newsdesk/internal/handler"
	"github.com/newsdesk/internal/router"
	"github.com/newsdesk/internal/service"
)

func main() {
	// .env 仅用于本地开发，不存在时静默跳过
	_ = godotenv.Load()

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// 管理员账号自举
	if err := db.EnsureUser(cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		log.Fatalf("failed to ensure admin user: %v", err)
	}

	locks := service.NewLockService()
	system := service.NewSystemSettingService(db.DB)
	writer := service.NewAIWriterService(system)
	covers := service.NewCoverService(system, nil, cfg.UploadDir, cfg.UploadURLPath)
	publisher := service.NewWebhookSocialPublisher(system)
	scanner := service.NewHTMLTopicScanner(nil, cfg.TopicScanURL)

	drafts := service.NewDraftService(db.DB)
	reviews := service.NewReviewService(db.DB)
	revisions := service.NewRevisionService(db.DB, writer, reviews)
	topics := service.NewTopicService(db.DB, locks, scanner)
	generate := service.NewGenerationService(db.DB, locks, topics, writer, drafts, covers)

	site := service.NewSiteSchedulerService(db.DB, locks, service.SlotConfig{
		IntervalMinutes: cfg.SitePublish.IntervalMinutes,
		StartHour:       cfg.SitePublish.StartHour,
		EndHour:         cfg.SitePublish.EndHour,
		MaxPerDay:       cfg.SitePublish.MaxPerDay,
	}, cfg.SitePublish.Enabled)

	social := service.NewSocialSchedulerService(db.DB, locks, publisher, service.SlotConfig{
		IntervalMinutes: cfg.SocialShare.IntervalMinutes,
		StartHour:       cfg.SocialShare.StartHour,
		EndHour:         cfg.SocialShare.EndHour,
		MaxPerDay:       cfg.SocialShare.MaxPerDay,
	}, cfg.SiteBaseURL, cfg.SocialShare.Enabled)

	api := handler.NewAPI(db.DB, handler.Options{
		Drafts:    drafts,
		Reviews:   reviews,
		Revisions: revisions,
		Topics:    topics,
		Generate:  generate,
		Site:      site,
		Social:    social,
		System:    system,
		UploadDir: cfg.UploadDir,
		UploadURL: cfg.UploadURLPath,
	})

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api, cfg.SessionSecret)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
