package router

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/newsdesk/internal/handler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, sessionSecret string) *gin.Engine {
	r := gin.Default()

	// 配置会话中间件。
	// Cookie 属性必须显式给出：库默认的 Secure+SameSite=None 在纯 HTTP 部署下不回传。
	store := cookie.NewStore([]byte(sessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("newsdesk_session", store))

	r.GET("/healthz", api.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 上传的配图走静态文件服务
	if dir, urlPrefix := api.UploadPaths(); dir != "" && urlPrefix != "" {
		r.Static(urlPrefix, dir)
	}

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.POST("/login", handler.Login)
		admin.GET("/logout", handler.Logout)

		// 需要认证的后台路由
		auth := admin.Group("")
		auth.Use(handler.AuthRequired())
		{
			apiGroup := auth.Group("/api")
			{
				apiGroup.GET("/drafts", api.ListDrafts)
				apiGroup.POST("/drafts", api.CreateDraft)
				apiGroup.GET("/drafts/:id", api.GetDraft)
				apiGroup.PUT("/drafts/:id", api.UpdateDraft)
				apiGroup.DELETE("/drafts/:id", api.RejectDraft)
				apiGroup.GET("/drafts/:id/preview", api.PreviewDraft)
				apiGroup.POST("/drafts/:id/review-status", api.TransitionReviewStatus)
				apiGroup.POST("/drafts/:id/publish", api.PublishDraft)
				apiGroup.POST("/drafts/:id/schedule", api.ScheduleDraft)
				apiGroup.POST("/drafts/:id/share", api.ShareDraftNow)

				apiGroup.POST("/drafts/:id/revision", api.RequestRevision)
				apiGroup.GET("/drafts/:id/revision", api.PollRevision)
				apiGroup.POST("/drafts/:id/revision/apply", api.ApplyRevision)
				apiGroup.DELETE("/drafts/:id/revision", api.DiscardRevision)

				apiGroup.GET("/topics", api.ListTopics)
				apiGroup.POST("/topics/scan", api.ScanTopics)
				apiGroup.POST("/topics/generate", api.GenerateDrafts)

				apiGroup.POST("/schedule/recalculate", api.RecalculateSchedule)
				apiGroup.POST("/social/run", api.RunSocialSchedule)
				apiGroup.GET("/counts", api.GetPendingCounts)

				apiGroup.GET("/settings", api.GetSystemSettings)
				apiGroup.PUT("/settings", api.UpdateSystemSettings)

				apiGroup.POST("/upload", api.UploadImage)
			}
		}
	}

	return r
}
