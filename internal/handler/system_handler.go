package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/newsdesk/internal/service"
)

// HealthCheck 提供部署平台与监控系统使用的健康检查端点。
func (a *API) HealthCheck(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "database handle unavailable",
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
	})
}

// GetSystemSettings 返回当前系统设置，密钥仅返回是否已配置。
func (a *API) GetSystemSettings(c *gin.Context) {
	settings, err := a.system.GetSettings()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "读取系统设置失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"siteName":           settings.SiteName,
		"aiProvider":         settings.AIProvider,
		"openaiConfigured":   settings.OpenAIAPIKey != "",
		"deepseekConfigured": settings.DeepSeekAPIKey != "",
		"draftPrompt":        settings.DraftPrompt,
		"revisionPrompt":     settings.RevisionPrompt,
		"socialWebhookUrl":   settings.SocialWebhookURL,
		"socialConfigured":   settings.SocialAccessToken != "",
	})
}

// UpdateSystemSettings 保存系统设置。
func (a *API) UpdateSystemSettings(c *gin.Context) {
	var input struct {
		SiteName          string `json:"siteName"`
		AIProvider        string `json:"aiProvider"`
		OpenAIAPIKey      string `json:"openaiApiKey"`
		DeepSeekAPIKey    string `json:"deepseekApiKey"`
		DraftPrompt       string `json:"draftPrompt"`
		RevisionPrompt    string `json:"revisionPrompt"`
		SocialWebhookURL  string `json:"socialWebhookUrl"`
		SocialAccessToken string `json:"socialAccessToken"`
	}
	if !bindJSON(c, &input, "无效的设置参数") {
		return
	}

	settings, err := a.system.UpdateSettings(service.SystemSettingsInput{
		SiteName:          input.SiteName,
		AIProvider:        input.AIProvider,
		OpenAIAPIKey:      input.OpenAIAPIKey,
		DeepSeekAPIKey:    input.DeepSeekAPIKey,
		DraftPrompt:       input.DraftPrompt,
		RevisionPrompt:    input.RevisionPrompt,
		SocialWebhookURL:  input.SocialWebhookURL,
		SocialAccessToken: input.SocialAccessToken,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "保存系统设置失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "设置已保存", "siteName": settings.SiteName})
}
