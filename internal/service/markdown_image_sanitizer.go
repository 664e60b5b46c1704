package service

import (
	"fmt"
	"regexp"
	"strings"
)

var markdownImageURLPattern = regexp.MustCompile(`!\[[^\]]*]\((<[^>]+>|[^)\s]+)([^)]*)\)`)

type imagePlaceholderEntry struct {
	token   string
	url     string
	wrapped bool
}

// markdownImagePlaceholders 记录压缩时替换掉的图片链接，修订完成后按原样还原。
type markdownImagePlaceholders struct {
	entries []imagePlaceholderEntry
}

// compressMarkdownImageURLs 把 Markdown 图片的长链接换成短占位符，省下这部分 Prompt Token。
func compressMarkdownImageURLs(input string) (string, *markdownImagePlaceholders) {
	placeholders := &markdownImagePlaceholders{}
	if !markdownImageURLPattern.MatchString(input) {
		return input, placeholders
	}

	result := markdownImageURLPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := markdownImageURLPattern.FindStringSubmatch(match)
		if len(groups) < 3 {
			return match
		}

		url := groups[1]
		entry := imagePlaceholderEntry{
			token: fmt.Sprintf("image://asset-%d", len(placeholders.entries)+1),
		}
		if strings.HasPrefix(url, "<") && strings.HasSuffix(url, ">") {
			entry.wrapped = true
			url = url[1 : len(url)-1]
		}
		entry.url = url
		placeholders.entries = append(placeholders.entries, entry)

		token := entry.token
		if entry.wrapped {
			token = "<" + token + ">"
		}
		return strings.Replace(match, groups[1], token, 1)
	})

	return result, placeholders
}

// Count 返回压缩掉的图片链接数量。
func (p *markdownImagePlaceholders) Count() int {
	if p == nil {
		return 0
	}
	return len(p.entries)
}

// Restore 把占位符换回原始链接。模型偶尔会给占位符补上或去掉尖括号，两种形态都要处理。
func (p *markdownImagePlaceholders) Restore(input string) string {
	if p.Count() == 0 {
		return input
	}

	output := input
	for _, entry := range p.entries {
		target := entry.url
		if entry.wrapped {
			target = "<" + entry.url + ">"
		}
		output = strings.ReplaceAll(output, "<"+entry.token+">", target)
		output = strings.ReplaceAll(output, entry.token, entry.url)
	}
	return output
}
