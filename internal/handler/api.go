package handler

import (
	"strings"

	"github.com/newsdesk/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	drafts    *service.DraftService
	reviews   *service.ReviewService
	revisions *service.RevisionService
	topics    *service.TopicService
	generate  *service.GenerationService
	site      *service.SiteSchedulerService
	social    *service.SocialSchedulerService
	system    *service.SystemSettingService
	uploadDir string
	uploadURL string
}

// Options 描述构造 API 所需的外部协作者与配置。
type Options struct {
	Drafts    *service.DraftService
	Reviews   *service.ReviewService
	Revisions *service.RevisionService
	Topics    *service.TopicService
	Generate  *service.GenerationService
	Site      *service.SiteSchedulerService
	Social    *service.SocialSchedulerService
	System    *service.SystemSettingService
	UploadDir string
	UploadURL string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, opts Options) *API {
	return &API{
		db:        gdb,
		drafts:    opts.Drafts,
		reviews:   opts.Reviews,
		revisions: opts.Revisions,
		topics:    opts.Topics,
		generate:  opts.Generate,
		site:      opts.Site,
		social:    opts.Social,
		system:    opts.System,
		uploadDir: opts.UploadDir,
		uploadURL: strings.TrimRight(strings.TrimSpace(opts.UploadURL), "/"),
	}
}

// DB exposes the underlying gorm instance for legacy paths.
func (a *API) DB() *gorm.DB {
	return a.db
}

// UploadPaths 返回上传目录与对外 URL 前缀，供路由层挂载静态服务。
func (a *API) UploadPaths() (dir, urlPrefix string) {
	return a.uploadDir, a.uploadURL
}
