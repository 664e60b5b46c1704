package handler

import (
	"net/http"
	"testing"

	"github.com/newsdesk/internal/service"
)

func TestScanTopicsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.scanner.topics = []service.ScannedTopic{
		{Title: "央行降息预期", Category: "宏观"},
		{Title: "新能源销量走高", Category: "产业"},
	}

	resp := env.request(t, http.MethodPost, "/admin/api/topics/scan", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	result := decodeBody(t, resp)["result"].(map[string]interface{})
	if result["inserted"].(float64) != 2 {
		t.Fatalf("expected 2 inserted, got %v", result["inserted"])
	}

	list := env.request(t, http.MethodGet, "/admin/api/topics", nil)
	topics := decodeBody(t, list)["topics"].([]interface{})
	if len(topics) != 2 {
		t.Fatalf("expected 2 topics listed, got %d", len(topics))
	}
}

func TestGenerateDraftsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.scanner.topics = []service.ScannedTopic{{Title: "批量生成选题"}}
	env.request(t, http.MethodPost, "/admin/api/topics/scan", nil)

	resp := env.request(t, http.MethodPost, "/admin/api/topics/generate",
		map[string]interface{}{"mode": "factual", "limit": 5})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	result := decodeBody(t, resp)["result"].(map[string]interface{})
	created, _ := result["created"].([]interface{})
	if len(created) != 1 {
		t.Fatalf("expected 1 draft created, got %s", resp.Body.String())
	}

	// 消费后的选题不再出现在列表里。
	list := env.request(t, http.MethodGet, "/admin/api/topics", nil)
	topics := decodeBody(t, list)["topics"].([]interface{})
	if len(topics) != 0 {
		t.Fatalf("expected no pending topics, got %d", len(topics))
	}
}

func TestGenerateDraftsInvalidMode(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/admin/api/topics/generate",
		map[string]interface{}{"mode": "poetic"})
	if resp.Code != http.StatusBadRequest || decodeBody(t, resp)["code"] != "INVALID_MODE" {
		t.Fatalf("expected 400 INVALID_MODE, got %d %s", resp.Code, resp.Body.String())
	}
}
