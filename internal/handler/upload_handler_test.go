package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func multipartImageRequest(t *testing.T, field, filename, contentType string, payload []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("failed to create multipart part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("failed to write payload: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/admin/api/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestUploadImageSavesFile(t *testing.T) {
	env := newTestEnv(t)

	req := multipartImageRequest(t, "image", "cover.png", "image/png", []byte("fake-png-bytes"))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	url, _ := body["url"].(string)
	if !strings.HasPrefix(url, "/static/uploads/") || !strings.HasSuffix(url, ".png") {
		t.Fatalf("unexpected upload URL: %s", url)
	}

	dir, _ := env.api.UploadPaths()
	saved, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(url, "/static/uploads/")))
	if err != nil {
		t.Fatalf("uploaded file not written: %v", err)
	}
	if string(saved) != "fake-png-bytes" {
		t.Fatalf("uploaded file content mismatch")
	}
}

func TestUploadImageRejectsNonImage(t *testing.T) {
	env := newTestEnv(t)

	req := multipartImageRequest(t, "image", "notes.txt", "text/plain", []byte("plain text"))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUploadImageRequiresFile(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodPost, "/admin/api/upload", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
