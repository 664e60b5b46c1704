package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

const (
	defaultCoverModel    = "gpt-image-1"
	defaultCoverSize     = "1536x1024"
	maxCoverWidth        = 1200
	coverResponseLimit   = 16 << 20
	defaultCoverQuality  = 85
	defaultCoverHTTPWait = 120 * time.Second
)

// CoverGenerator 抽象外部图像生成服务。
type CoverGenerator interface {
	GenerateCoverImage(ctx context.Context, prompt string) ([]byte, error)
}

// CoverService 为草稿生成封面图：调用外部图像服务，
// 超宽图片用 x/image 缩放到上限宽度，再以 uuid 文件名落盘。
type CoverService struct {
	settings  *SystemSettingService
	generator CoverGenerator
	uploadDir string
	uploadURL string
}

// NewCoverService 构造 CoverService。generator 为空时使用默认的 OpenAI 图像客户端。
func NewCoverService(settings *SystemSettingService, generator CoverGenerator, uploadDir, uploadURL string) *CoverService {
	if generator == nil {
		generator = newOpenAIImageClient(settings)
	}
	return &CoverService{
		settings:  settings,
		generator: generator,
		uploadDir: uploadDir,
		uploadURL: strings.TrimRight(strings.TrimSpace(uploadURL), "/"),
	}
}

// SetUploadURL 指定对外可访问的图片 URL 前缀。
func (s *CoverService) SetUploadURL(prefix string) {
	s.uploadURL = strings.TrimRight(strings.TrimSpace(prefix), "/")
}

// GenerateCover 生成并保存封面，返回可访问的 URL。
func (s *CoverService) GenerateCover(ctx context.Context, title, summary string) (string, error) {
	trimmedTitle := strings.TrimSpace(title)
	if trimmedTitle == "" {
		return "", fmt.Errorf("title is required for cover generation")
	}

	prompt := "为以下新闻文章生成一张无文字的横版封面插图：\n标题：" + trimmedTitle
	if trimmed := strings.TrimSpace(summary); trimmed != "" {
		prompt += "\n摘要：" + truncateRunes(trimmed, 300)
	}

	raw, err := s.generator.GenerateCoverImage(ctx, prompt)
	if err != nil {
		return "", err
	}

	processed, err := normalizeCoverImage(raw)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("创建上传目录失败: %w", err)
	}

	filename := fmt.Sprintf("%s-%s.jpg", time.Now().Format("20060102"), uuid.NewString())
	if err := os.WriteFile(filepath.Join(s.uploadDir, filename), processed, 0o644); err != nil {
		return "", fmt.Errorf("保存封面失败: %w", err)
	}

	return s.uploadURL + "/" + filename, nil
}

// normalizeCoverImage 解码原始图片并在超过上限宽度时等比缩放。
func normalizeCoverImage(raw []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("解码封面图片失败: %w", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() > maxCoverWidth {
		height := bounds.Dy() * maxCoverWidth / bounds.Dx()
		dst := image.NewRGBA(image.Rect(0, 0, maxCoverWidth, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: defaultCoverQuality}); err != nil {
		return nil, fmt.Errorf("编码封面图片失败: %w", err)
	}
	return buf.Bytes(), nil
}

// openAIImageClient 调用 OpenAI 图像接口，返回 base64 解码后的图片字节。
type openAIImageClient struct {
	settings *SystemSettingService
	http     httpDoer
	baseURL  string
}

func newOpenAIImageClient(settings *SystemSettingService) *openAIImageClient {
	return &openAIImageClient{
		settings: settings,
		http:     &http.Client{Timeout: defaultCoverHTTPWait},
		baseURL:  "https://api.openai.com/v1",
	}
}

func (c *openAIImageClient) SetHTTPClient(client httpDoer) {
	if client != nil {
		c.http = client
	}
}

func (c *openAIImageClient) SetBaseURL(base string) {
	c.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
}

func (c *openAIImageClient) GenerateCoverImage(ctx context.Context, prompt string) ([]byte, error) {
	settings, err := c.settings.GetSettings()
	if err != nil {
		return nil, fmt.Errorf("读取系统设置失败: %w", err)
	}

	apiKey := strings.TrimSpace(settings.OpenAIAPIKey)
	if apiKey == "" {
		return nil, ErrAIAPIKeyMissing
	}

	payload := map[string]interface{}{
		"model":  defaultCoverModel,
		"prompt": prompt,
		"size":   defaultCoverSize,
		"n":      1,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("构造图像请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("创建图像请求失败: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求图像接口失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, coverResponseLimit))
	if err != nil {
		return nil, fmt.Errorf("读取图像响应失败: %w", err)
	}

	var parsed struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("解析图像响应失败: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		msg := strings.TrimSpace(parsed.Error.Message)
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("图像接口返回错误：%s", msg)
	}
	if len(parsed.Data) == 0 || parsed.Data[0].B64JSON == "" {
		return nil, fmt.Errorf("图像接口未返回结果")
	}

	return base64.StdEncoding.DecodeString(parsed.Data[0].B64JSON)
}
