package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/newsdesk/internal/db"
)

const (
	defaultOpenAIWriterModel   = "gpt-4o-mini"
	defaultDeepSeekWriterModel = "deepseek-chat"
	defaultWriterMaxTokens     = 4096
	defaultWriterTemperature   = 0.4
	maxWriterContentRuneCount  = 16000
)

// ErrWriterEmpty 表示模型未返回可用内容。
var ErrWriterEmpty = errors.New("ai writer returned empty content")

const defaultDraftSystemPrompt = "你是一名新闻编辑部的撰稿人，请根据给定选题撰写一篇完整的 Markdown 文章。要求：\n1. 第一行为一级标题。\n2. 事实模式下只陈述可核实的信息，观点模式下可以表达立场但须注明这是评论。\n3. 结构清晰，分段合理，不要输出正文以外的说明。"

const defaultRevisionSystemPrompt = "你是一名新闻编辑部的资深编辑，请按照编辑给出的修改意见重写文章。要求：\n1. 保留未被意见涉及的事实与结构。\n2. 输出仅包含修改后的 Markdown 正文，第一行为一级标题。\n3. 不要附加解释或修改说明。"

// GenerateInput 描述根据选题生成草稿所需的上下文。
type GenerateInput struct {
	TopicTitle string
	Category   string
	Mode       string
}

// ReviseInput 描述一次修订任务的输入：当前正文加人工修改意见。
type ReviseInput struct {
	Title   string
	Content string
	Notes   string
	Mode    string
}

// WriterResult 是生成与修订共用的产物形态。
type WriterResult struct {
	Title   string
	Content string
	Summary string
	Model   string
}

// DraftGenerator 定义按选题产出草稿的能力。
type DraftGenerator interface {
	GenerateDraft(ctx context.Context, input GenerateInput) (WriterResult, error)
}

// DraftReviser 定义按人工意见重写草稿的能力。
type DraftReviser interface {
	ReviseDraft(ctx context.Context, input ReviseInput) (WriterResult, error)
}

// AIWriterService 基于大模型接口完成草稿生成与修订两类写作任务。
type AIWriterService struct {
	client *aiChatClient
}

// NewAIWriterService 构造默认的 AIWriterService。
func NewAIWriterService(settings *SystemSettingService) *AIWriterService {
	return &AIWriterService{
		client: newAIChatClient(settings, defaultOpenAIWriterModel, defaultDeepSeekWriterModel),
	}
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (s *AIWriterService) SetHTTPClient(client httpDoer) {
	s.client.SetHTTPClient(client)
}

// SetOpenAIBaseURL 覆盖默认的 OpenAI API 地址。
func (s *AIWriterService) SetOpenAIBaseURL(base string) {
	s.client.SetOpenAIBaseURL(base)
}

// SetDeepSeekBaseURL 覆盖默认的 DeepSeek API 地址。
func (s *AIWriterService) SetDeepSeekBaseURL(base string) {
	s.client.SetDeepSeekBaseURL(base)
}

// GenerateDraft 根据选题生成一篇完整草稿。
func (s *AIWriterService) GenerateDraft(ctx context.Context, input GenerateInput) (WriterResult, error) {
	topic := strings.TrimSpace(input.TopicTitle)
	if topic == "" {
		return WriterResult{}, fmt.Errorf("topic title is required")
	}

	settings, err := s.client.settings.GetSettings()
	if err != nil {
		return WriterResult{}, fmt.Errorf("读取系统设置失败: %w", err)
	}

	systemPrompt := strings.TrimSpace(settings.DraftPrompt)
	if systemPrompt == "" {
		systemPrompt = defaultDraftSystemPrompt
	}

	var builder strings.Builder
	builder.WriteString("选题：")
	builder.WriteString(topic)
	if category := strings.TrimSpace(input.Category); category != "" {
		builder.WriteString("\n栏目：")
		builder.WriteString(category)
	}
	builder.WriteString("\n写作模式：")
	if input.Mode == db.ModeOpinion {
		builder.WriteString("观点评论")
	} else {
		builder.WriteString("事实报道")
	}

	logAIExchange("generate", "request", builder.String())
	result, err := s.client.callWithSettings(ctx, settings, aiChatRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   builder.String(),
		MaxTokens:    defaultWriterMaxTokens,
		Temperature:  defaultWriterTemperature,
	})
	if err != nil {
		return WriterResult{}, err
	}
	logAIExchange("generate", "response", result.Content)

	return buildWriterResult(result)
}

// ReviseDraft 按修改意见重写正文。
func (s *AIWriterService) ReviseDraft(ctx context.Context, input ReviseInput) (WriterResult, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return WriterResult{}, fmt.Errorf("content is required")
	}
	notes := strings.TrimSpace(input.Notes)
	if notes == "" {
		return WriterResult{}, fmt.Errorf("revision notes are required")
	}

	settings, err := s.client.settings.GetSettings()
	if err != nil {
		return WriterResult{}, fmt.Errorf("读取系统设置失败: %w", err)
	}

	systemPrompt := strings.TrimSpace(settings.RevisionPrompt)
	if systemPrompt == "" {
		systemPrompt = defaultRevisionSystemPrompt
	}

	// 长图片链接先压缩成占位符，避免浪费 Prompt Token
	compressed, images := compressMarkdownImageURLs(truncateRunes(content, maxWriterContentRuneCount))

	var builder strings.Builder
	builder.WriteString("修改意见：\n")
	builder.WriteString(notes)
	builder.WriteString("\n\n文章正文（Markdown）：\n")
	builder.WriteString(compressed)

	logAIExchange("revise", "request", builder.String())
	result, err := s.client.callWithSettings(ctx, settings, aiChatRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   builder.String(),
		MaxTokens:    defaultWriterMaxTokens,
		Temperature:  defaultWriterTemperature,
	})
	if err != nil {
		return WriterResult{}, err
	}
	logAIExchange("revise", "response", result.Content)

	result.Content = images.Restore(result.Content)
	return buildWriterResult(result)
}

// buildWriterResult 清洗模型输出并推导标题与摘要。
func buildWriterResult(resp aiChatResponse) (WriterResult, error) {
	content := stripMarkdownFence(resp.Content)
	if content == "" {
		return WriterResult{}, ErrWriterEmpty
	}

	return WriterResult{
		Title:   db.DeriveTitleFromContent(content),
		Content: content,
		Summary: deriveSummary(content),
		Model:   resp.Model,
	}, nil
}

// stripMarkdownFence 去除模型偶尔包裹的 ```markdown 围栏。
func stripMarkdownFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```markdown")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// deriveSummary 取标题后的第一个正文段落作为摘要。
func deriveSummary(content string) string {
	passedTitle := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			passedTitle = true
			continue
		}
		if passedTitle || !strings.HasPrefix(trimmed, "#") {
			return truncateRunes(trimmed, 200)
		}
	}
	return ""
}
