package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

// fakeWebhookClient 捕获发出的请求并返回预置响应。
type fakeWebhookClient struct {
	status   int
	body     string
	requests []*http.Request
	payloads []map[string]string
}

func (f *fakeWebhookClient) Do(req *http.Request) (*http.Response, error) {
	f.requests = append(f.requests, req)

	raw, _ := io.ReadAll(req.Body)
	var payload map[string]string
	_ = json.Unmarshal(raw, &payload)
	f.payloads = append(f.payloads, payload)

	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewReader([]byte(f.body))),
	}, nil
}

func newWebhookTestPublisher(t *testing.T, client *fakeWebhookClient, webhookURL, token string) *WebhookSocialPublisher {
	t.Helper()
	gdb := setupTestDB(t)
	settings := NewSystemSettingService(gdb)
	if _, err := settings.UpdateSettings(SystemSettingsInput{
		SocialWebhookURL:  webhookURL,
		SocialAccessToken: token,
	}); err != nil {
		t.Fatalf("failed to seed settings: %v", err)
	}

	publisher := NewWebhookSocialPublisher(settings)
	publisher.SetHTTPClient(client)
	return publisher
}

func TestWebhookPublisherPostsPayload(t *testing.T) {
	client := &fakeWebhookClient{body: `{"postId":"p-42","permalink":"https://social.example.com/p-42"}`}
	publisher := newWebhookTestPublisher(t, client, "https://hooks.example.com/share", "secret-token")

	result, err := publisher.Post(context.Background(), "标题\n\n摘要", "https://news.example.com/articles/7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.PostID != "p-42" || result.Permalink != "https://social.example.com/p-42" {
		t.Fatalf("unexpected receipt: %+v", result)
	}

	req := client.requests[0]
	if req.URL.String() != "https://hooks.example.com/share" {
		t.Fatalf("unexpected endpoint: %q", req.URL.String())
	}
	if got := req.Header.Get("Authorization"); got != "Bearer secret-token" {
		t.Fatalf("unexpected authorization header: %q", got)
	}
	if client.payloads[0]["message"] != "标题\n\n摘要" || client.payloads[0]["link"] != "https://news.example.com/articles/7" {
		t.Fatalf("unexpected payload: %+v", client.payloads[0])
	}
}

func TestWebhookPublisherRequiresConfiguration(t *testing.T) {
	publisher := newWebhookTestPublisher(t, &fakeWebhookClient{}, "", "")

	if _, err := publisher.Post(context.Background(), "消息", ""); err == nil {
		t.Fatal("expected error when webhook url is not configured")
	}
}

func TestWebhookPublisherSurfacesChannelError(t *testing.T) {
	client := &fakeWebhookClient{status: http.StatusBadGateway, body: `{"error":"channel unavailable"}`}
	publisher := newWebhookTestPublisher(t, client, "https://hooks.example.com/share", "")

	_, err := publisher.Post(context.Background(), "消息", "")
	if err == nil || !strings.Contains(err.Error(), "channel unavailable") {
		t.Fatalf("expected channel error to surface, got %v", err)
	}
}

func TestWebhookPublisherRejectsMissingPostID(t *testing.T) {
	client := &fakeWebhookClient{body: `{}`}
	publisher := newWebhookTestPublisher(t, client, "https://hooks.example.com/share", "")

	if _, err := publisher.Post(context.Background(), "消息", ""); err == nil {
		t.Fatal("expected error when channel omits the post id")
	}
}
