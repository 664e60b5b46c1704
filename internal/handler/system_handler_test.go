package handler

import (
	"net/http"
	"testing"
)

func TestHealthCheckEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/healthz", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body := decodeBody(t, resp)
	if body["status"] != "ok" || body["database"] != "up" {
		t.Fatalf("unexpected health payload: %s", resp.Body.String())
	}
}

func TestSystemSettingsMaskSecrets(t *testing.T) {
	env := newTestEnv(t)

	update := env.request(t, http.MethodPut, "/admin/api/settings", map[string]string{
		"siteName":          "财经快报",
		"aiProvider":        "deepseek",
		"deepseekApiKey":    "sk-secret",
		"socialAccessToken": "token-secret",
	})
	if update.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", update.Code, update.Body.String())
	}

	get := env.request(t, http.MethodGet, "/admin/api/settings", nil)
	if get.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", get.Code)
	}

	body := decodeBody(t, get)
	if body["siteName"] != "财经快报" || body["aiProvider"] != "deepseek" {
		t.Fatalf("unexpected settings payload: %s", get.Body.String())
	}
	if body["deepseekConfigured"] != true || body["socialConfigured"] != true {
		t.Fatalf("expected configured flags, got %s", get.Body.String())
	}
	// 密钥本身绝不回传。
	for _, key := range []string{"deepseekApiKey", "openaiApiKey", "socialAccessToken"} {
		if _, present := body[key]; present {
			t.Fatalf("secret %q must not appear in the response", key)
		}
	}
}
