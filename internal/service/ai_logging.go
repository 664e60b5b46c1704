package service

import (
	"log"
	"strings"
	"unicode/utf8"
)

// 单条日志最多保留这么多 Rune 的提示词或模型输出，避免长文刷屏。
const aiLogSnippetLimit = 800

// logAIExchange 记录一次模型交互的方向与内容片段，便于回溯生成质量问题。
func logAIExchange(task, phase, content string) {
	body := strings.TrimSpace(content)
	if body == "" {
		log.Printf("[ai:%s] %s: <empty>", task, phase)
		return
	}

	total := utf8.RuneCountInString(body)
	if total > aiLogSnippetLimit {
		body = string([]rune(body)[:aiLogSnippetLimit]) + "…"
	}
	log.Printf("[ai:%s] %s runes=%d: %s", task, phase, total, body)
}
