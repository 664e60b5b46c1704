package db

import "gorm.io/gorm"

// SystemSetting 存储后台可配置的系统级键值对。
type SystemSetting struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 指定自定义表名以保持命名一致。
func (SystemSetting) TableName() string {
	return "system_settings"
}

const (
	// SettingKeySiteName 表示站点名称。
	SettingKeySiteName = "site_name"
	// SettingKeyAIProvider 表示当前启用的 AI 平台。
	SettingKeyAIProvider = "ai_provider"
	// SettingKeyOpenAIAPIKey 表示 OpenAI API Key。
	SettingKeyOpenAIAPIKey = "openai_api_key"
	// SettingKeyDeepSeekAPIKey 表示 DeepSeek API Key。
	SettingKeyDeepSeekAPIKey = "deepseek_api_key"
	// SettingKeyDraftPrompt 表示草稿生成的自定义提示词。
	SettingKeyDraftPrompt = "draft_prompt"
	// SettingKeyRevisionPrompt 表示修订任务的自定义提示词。
	SettingKeyRevisionPrompt = "revision_prompt"
	// SettingKeySocialWebhookURL 表示社交分发 Webhook 地址。
	SettingKeySocialWebhookURL = "social_webhook_url"
	// SettingKeySocialAccessToken 表示社交分发凭证。
	SettingKeySocialAccessToken = "social_access_token"
)
