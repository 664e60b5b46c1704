package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeCoverGenerator struct {
	prompt string
	raw    []byte
	err    error
}

func (f *fakeCoverGenerator) GenerateCoverImage(_ context.Context, prompt string) ([]byte, error) {
	f.prompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return f.raw, nil
}

func encodeTestPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestGenerateCoverSavesJPEG(t *testing.T) {
	gdb := setupTestDB(t)
	system := NewSystemSettingService(gdb)

	dir := t.TempDir()
	gen := &fakeCoverGenerator{raw: encodeTestPNG(t, 800, 450)}
	svc := NewCoverService(system, gen, dir, "/static/uploads/")

	url, err := svc.GenerateCover(context.Background(), " 财经头条 ", "市场摘要")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(url, "/static/uploads/") || !strings.HasSuffix(url, ".jpg") {
		t.Fatalf("unexpected cover URL: %s", url)
	}
	if !strings.Contains(gen.prompt, "财经头条") || !strings.Contains(gen.prompt, "市场摘要") {
		t.Fatalf("prompt missing title or summary: %s", gen.prompt)
	}

	saved, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/static/uploads/")))
	if err != nil {
		t.Fatalf("cover file not written: %v", err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(saved)); err != nil {
		t.Fatalf("saved cover is not a valid JPEG: %v", err)
	}
}

func TestGenerateCoverScalesWideImages(t *testing.T) {
	gdb := setupTestDB(t)
	system := NewSystemSettingService(gdb)

	dir := t.TempDir()
	gen := &fakeCoverGenerator{raw: encodeTestPNG(t, 2400, 1200)}
	svc := NewCoverService(system, gen, dir, "/static/uploads")

	url, err := svc.GenerateCover(context.Background(), "宽幅封面", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	saved, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/static/uploads/")))
	if err != nil {
		t.Fatalf("cover file not written: %v", err)
	}
	decoded, err := jpeg.Decode(bytes.NewReader(saved))
	if err != nil {
		t.Fatalf("saved cover is not a valid JPEG: %v", err)
	}
	if got := decoded.Bounds().Dx(); got != maxCoverWidth {
		t.Fatalf("expected width %d after scaling, got %d", maxCoverWidth, got)
	}
	if got := decoded.Bounds().Dy(); got != 600 {
		t.Fatalf("expected proportional height 600, got %d", got)
	}
}

func TestGenerateCoverRequiresTitle(t *testing.T) {
	gdb := setupTestDB(t)
	system := NewSystemSettingService(gdb)

	svc := NewCoverService(system, &fakeCoverGenerator{}, t.TempDir(), "/static/uploads")
	if _, err := svc.GenerateCover(context.Background(), "   ", "摘要"); err == nil {
		t.Fatal("expected error for blank title")
	}
}

type fakeImageHTTPClient struct {
	lastRequest *http.Request
	lastBody    []byte
	status      int
	respBody    string
}

func (f *fakeImageHTTPClient) Do(req *http.Request) (*http.Response, error) {
	f.lastRequest = req
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		f.lastBody = body
	}
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(strings.NewReader(f.respBody)),
		Header:     make(http.Header),
	}, nil
}

func TestOpenAIImageClientDecodesPayload(t *testing.T) {
	gdb := setupTestDB(t)
	system := NewSystemSettingService(gdb)
	if _, err := system.UpdateSettings(SystemSettingsInput{
		AIProvider:   "openai",
		OpenAIAPIKey: "sk-image-test",
	}); err != nil {
		t.Fatalf("failed to seed settings: %v", err)
	}

	raw := encodeTestPNG(t, 10, 10)
	fake := &fakeImageHTTPClient{
		respBody: fmt.Sprintf(`{"data":[{"b64_json":%q}]}`, base64.StdEncoding.EncodeToString(raw)),
	}

	client := newOpenAIImageClient(system)
	client.SetHTTPClient(fake)
	client.SetBaseURL("https://openai.test/v1")

	got, err := client.GenerateCoverImage(context.Background(), "测试提示词")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatal("decoded image bytes do not match generator payload")
	}

	if fake.lastRequest.URL.String() != "https://openai.test/v1/images/generations" {
		t.Fatalf("unexpected endpoint: %s", fake.lastRequest.URL)
	}
	if auth := fake.lastRequest.Header.Get("Authorization"); auth != "Bearer sk-image-test" {
		t.Fatalf("unexpected auth header: %s", auth)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(fake.lastBody, &payload); err != nil {
		t.Fatalf("failed to decode request payload: %v", err)
	}
	if payload["prompt"] != "测试提示词" || payload["model"] != defaultCoverModel {
		t.Fatalf("unexpected request payload: %s", fake.lastBody)
	}
}

func TestOpenAIImageClientSurfacesAPIError(t *testing.T) {
	gdb := setupTestDB(t)
	system := NewSystemSettingService(gdb)
	if _, err := system.UpdateSettings(SystemSettingsInput{
		AIProvider:   "openai",
		OpenAIAPIKey: "sk-image-test",
	}); err != nil {
		t.Fatalf("failed to seed settings: %v", err)
	}

	fake := &fakeImageHTTPClient{
		status:   http.StatusTooManyRequests,
		respBody: `{"error":{"message":"rate limited"}}`,
	}
	client := newOpenAIImageClient(system)
	client.SetHTTPClient(fake)
	client.SetBaseURL("https://openai.test/v1")

	_, err := client.GenerateCoverImage(context.Background(), "提示")
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected rate limit error, got %v", err)
	}
}

func TestOpenAIImageClientRequiresAPIKey(t *testing.T) {
	gdb := setupTestDB(t)
	system := NewSystemSettingService(gdb)

	client := newOpenAIImageClient(system)
	client.SetHTTPClient(&fakeImageHTTPClient{})

	if _, err := client.GenerateCoverImage(context.Background(), "提示"); err != ErrAIAPIKeyMissing {
		t.Fatalf("expected ErrAIAPIKeyMissing, got %v", err)
	}
}
