package db

import "strings"

// DeriveTitleFromContent 从 Markdown 正文推导标题：
// 取第一行非空文本，剥掉标题标记与强调符号。
func DeriveTitleFromContent(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		trimmed = strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		trimmed = strings.Trim(trimmed, "*_ ")
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
