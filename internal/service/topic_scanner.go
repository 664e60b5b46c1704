package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// ScannedTopic 是扫描器产出的候选选题。
type ScannedTopic struct {
	Title      string
	Category   string
	Confidence float64
	Impact     int
	Source     string
}

// TopicScanner 抽象外部选题来源。判定选题价值的启发式不在核心范围内，
// 这里只负责把来源页面变成结构化条目。
type TopicScanner interface {
	Scan(ctx context.Context) ([]ScannedTopic, error)
}

// HTMLTopicScanner 抓取配置的新闻聚合页并抽取标题作为候选选题。
type HTMLTopicScanner struct {
	client  httpDoer
	listURL string
}

// NewHTMLTopicScanner 构造 HTMLTopicScanner，client 为空时使用默认超时客户端。
func NewHTMLTopicScanner(client httpDoer, listURL string) *HTMLTopicScanner {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HTMLTopicScanner{client: client, listURL: strings.TrimSpace(listURL)}
}

// Scan 抓取列表页并返回去重后的选题条目。
func (s *HTMLTopicScanner) Scan(ctx context.Context) ([]ScannedTopic, error) {
	if s.listURL == "" {
		return nil, fmt.Errorf("topic scan url is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.listURL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建扫描请求失败: %w", err)
	}
	req.Header.Set("User-Agent", "newsdesk-scanner/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求选题来源失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("选题来源返回 %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("解析选题页面失败: %w", err)
	}

	seen := map[string]struct{}{}
	topics := make([]ScannedTopic, 0)

	doc.Find("article").Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Find("h1, h2, h3").First().Text())
		if title == "" {
			return
		}
		if _, ok := seen[title]; ok {
			return
		}
		seen[title] = struct{}{}

		link, _ := sel.Find("a").First().Attr("href")
		category := strings.TrimSpace(sel.Find(".category, [data-category]").First().Text())

		topics = append(topics, ScannedTopic{
			Title:    title,
			Category: category,
			Source:   strings.TrimSpace(link),
		})
	})

	return topics, nil
}
