package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// WebhookSocialPublisher 通过系统设置里配置的 Webhook 把内容推送到社交渠道。
// 渠道方返回帖子 id 与永久链接，失败原样上抛，由调用方记录到条目上。
type WebhookSocialPublisher struct {
	settings *SystemSettingService
	http     httpDoer
}

// NewWebhookSocialPublisher 构造 WebhookSocialPublisher。
func NewWebhookSocialPublisher(settings *SystemSettingService) *WebhookSocialPublisher {
	return &WebhookSocialPublisher{
		settings: settings,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// SetHTTPClient 替换 HTTP 客户端，主要用于测试。
func (p *WebhookSocialPublisher) SetHTTPClient(client httpDoer) {
	if client != nil {
		p.http = client
	}
}

// Post 推送一条内容到社交渠道。
func (p *WebhookSocialPublisher) Post(ctx context.Context, message, link string) (SocialPostResult, error) {
	settings, err := p.settings.GetSettings()
	if err != nil {
		return SocialPostResult{}, fmt.Errorf("读取系统设置失败: %w", err)
	}

	endpoint := strings.TrimSpace(settings.SocialWebhookURL)
	if endpoint == "" {
		return SocialPostResult{}, fmt.Errorf("social webhook url is not configured")
	}

	payload := map[string]string{
		"message": message,
		"link":    link,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return SocialPostResult{}, fmt.Errorf("构造分发请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return SocialPostResult{}, fmt.Errorf("创建分发请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := strings.TrimSpace(settings.SocialAccessToken); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return SocialPostResult{}, fmt.Errorf("请求社交渠道失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return SocialPostResult{}, fmt.Errorf("读取社交渠道响应失败: %w", err)
	}

	var parsed struct {
		PostID    string `json:"postId"`
		Permalink string `json:"permalink"`
		Error     string `json:"error"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return SocialPostResult{}, fmt.Errorf("解析社交渠道响应失败: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		msg := strings.TrimSpace(parsed.Error)
		if msg == "" {
			msg = resp.Status
		}
		return SocialPostResult{}, fmt.Errorf("社交渠道返回错误：%s", msg)
	}

	if parsed.PostID == "" {
		return SocialPostResult{}, fmt.Errorf("社交渠道未返回帖子标识")
	}

	return SocialPostResult{PostID: parsed.PostID, Permalink: parsed.Permalink}, nil
}
