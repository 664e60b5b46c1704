package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/newsdesk/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// AIProviderOpenAI 表示使用 OpenAI 能力。
	AIProviderOpenAI = "openai"
	// AIProviderDeepSeek 表示使用 DeepSeek 能力。
	AIProviderDeepSeek = "deepseek"
)

// ErrAIAPIKeyMissing 表示未提供必需的 AI 平台 API Key。
var ErrAIAPIKeyMissing = errors.New("api key is required")

// SystemSettings 描述后台可配置的系统信息。
type SystemSettings struct {
	SiteName          string
	AIProvider        string
	OpenAIAPIKey      string
	DeepSeekAPIKey    string
	DraftPrompt       string
	RevisionPrompt    string
	SocialWebhookURL  string
	SocialAccessToken string
}

// SystemSettingsInput 用于更新系统设置。
type SystemSettingsInput struct {
	SiteName          string
	AIProvider        string
	OpenAIAPIKey      string
	DeepSeekAPIKey    string
	DraftPrompt       string
	RevisionPrompt    string
	SocialWebhookURL  string
	SocialAccessToken string
}

// SystemSettingService 提供系统设置的读取与更新能力。
type SystemSettingService struct {
	db         *gorm.DB
	httpClient httpDoer
}

// NewSystemSettingService 构造 SystemSettingService。
func NewSystemSettingService(gdb *gorm.DB) *SystemSettingService {
	return &SystemSettingService{
		db:         gdb,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

var settingKeys = []string{
	db.SettingKeySiteName,
	db.SettingKeyAIProvider,
	db.SettingKeyOpenAIAPIKey,
	db.SettingKeyDeepSeekAPIKey,
	db.SettingKeyDraftPrompt,
	db.SettingKeyRevisionPrompt,
	db.SettingKeySocialWebhookURL,
	db.SettingKeySocialAccessToken,
}

// GetSettings 读取系统设置，如未设置将返回默认值。
func (s *SystemSettingService) GetSettings() (SystemSettings, error) {
	result := SystemSettings{SiteName: "Newsdesk", AIProvider: AIProviderOpenAI}

	var records []db.SystemSetting
	if err := s.db.Where("key IN ?", settingKeys).Find(&records).Error; err != nil {
		return result, fmt.Errorf("load system settings: %w", err)
	}

	for _, record := range records {
		switch record.Key {
		case db.SettingKeySiteName:
			if strings.TrimSpace(record.Value) != "" {
				result.SiteName = record.Value
			}
		case db.SettingKeyAIProvider:
			if provider := normalizeAIProvider(record.Value); provider != "" {
				result.AIProvider = provider
			}
		case db.SettingKeyOpenAIAPIKey:
			result.OpenAIAPIKey = record.Value
		case db.SettingKeyDeepSeekAPIKey:
			result.DeepSeekAPIKey = record.Value
		case db.SettingKeyDraftPrompt:
			result.DraftPrompt = record.Value
		case db.SettingKeyRevisionPrompt:
			result.RevisionPrompt = record.Value
		case db.SettingKeySocialWebhookURL:
			result.SocialWebhookURL = record.Value
		case db.SettingKeySocialAccessToken:
			result.SocialAccessToken = record.Value
		}
	}

	return result, nil
}

// UpdateSettings 保存系统设置，未填写站点名称时回退默认值。
func (s *SystemSettingService) UpdateSettings(input SystemSettingsInput) (SystemSettings, error) {
	provider := normalizeAIProvider(input.AIProvider)
	if provider == "" {
		provider = AIProviderOpenAI
	}

	sanitized := SystemSettings{
		SiteName:          strings.TrimSpace(input.SiteName),
		AIProvider:        provider,
		OpenAIAPIKey:      strings.TrimSpace(input.OpenAIAPIKey),
		DeepSeekAPIKey:    strings.TrimSpace(input.DeepSeekAPIKey),
		DraftPrompt:       strings.TrimSpace(input.DraftPrompt),
		RevisionPrompt:    strings.TrimSpace(input.RevisionPrompt),
		SocialWebhookURL:  strings.TrimSpace(input.SocialWebhookURL),
		SocialAccessToken: strings.TrimSpace(input.SocialAccessToken),
	}

	if sanitized.SiteName == "" {
		sanitized.SiteName = "Newsdesk"
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		pairs := []struct {
			key   string
			value string
		}{
			{db.SettingKeySiteName, sanitized.SiteName},
			{db.SettingKeyAIProvider, sanitized.AIProvider},
			{db.SettingKeyOpenAIAPIKey, sanitized.OpenAIAPIKey},
			{db.SettingKeyDeepSeekAPIKey, sanitized.DeepSeekAPIKey},
			{db.SettingKeyDraftPrompt, sanitized.DraftPrompt},
			{db.SettingKeyRevisionPrompt, sanitized.RevisionPrompt},
			{db.SettingKeySocialWebhookURL, sanitized.SocialWebhookURL},
			{db.SettingKeySocialAccessToken, sanitized.SocialAccessToken},
		}
		for _, pair := range pairs {
			if err := upsertSetting(tx, pair.key, pair.value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return SystemSettings{}, fmt.Errorf("update system settings: %w", err)
	}

	return sanitized, nil
}

func upsertSetting(tx *gorm.DB, key, value string) error {
	setting := db.SystemSetting{Key: key, Value: value}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&setting).Error; err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}

// SetHTTPClient 替换用于访问第三方服务的 HTTP 客户端，主要面向测试场景。
func (s *SystemSettingService) SetHTTPClient(client httpDoer) {
	if client == nil {
		s.httpClient = &http.Client{Timeout: 10 * time.Second}
		return
	}
	s.httpClient = client
}

func normalizeAIProvider(provider string) string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case AIProviderOpenAI:
		return AIProviderOpenAI
	case AIProviderDeepSeek:
		return AIProviderDeepSeek
	}
	return ""
}
