package service

import (
	"errors"
	"strings"
)

// ErrDiffBaselineMissing 表示没有可比对的基线文本。
// 与"内容无变化"是两种必须区分的结果。
var ErrDiffBaselineMissing = errors.New("diff baseline is missing")

// DiffResult 描述一次行级比对的产物。
type DiffResult struct {
	Changed bool
	Text    string
}

// ComputeLineDiff 对两份文本做行级比对，输出 "-"/"+"/" " 前缀的补丁文本。
// 结果对相同输入完全确定。基线为空白时返回 ErrDiffBaselineMissing。
func ComputeLineDiff(baseline, proposed string) (DiffResult, error) {
	if strings.TrimSpace(baseline) == "" {
		return DiffResult{}, ErrDiffBaselineMissing
	}

	if baseline == proposed {
		return DiffResult{Changed: false, Text: ""}, nil
	}

	oldLines := splitLines(baseline)
	newLines := splitLines(proposed)

	var builder strings.Builder
	for _, op := range diffOps(oldLines, newLines) {
		builder.WriteString(op)
		builder.WriteByte('\n')
	}

	return DiffResult{Changed: true, Text: strings.TrimRight(builder.String(), "\n")}, nil
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

// diffOps 基于最长公共子序列回溯出删除、新增与保留行。
func diffOps(oldLines, newLines []string) []string {
	m, n := len(oldLines), len(newLines)

	lcs := make([][]int, m+1)
	for i := range lcs {
		lcs[i] = make([]int, n+1)
	}
	for i := m - 1; i >= 0; i-- {
		for j := n - 1; j >= 0; j-- {
			if oldLines[i] == newLines[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	ops := make([]string, 0, m+n)
	i, j := 0, 0
	for i < m && j < n {
		switch {
		case oldLines[i] == newLines[j]:
			ops = append(ops, "  "+oldLines[i])
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			ops = append(ops, "- "+oldLines[i])
			i++
		default:
			ops = append(ops, "+ "+newLines[j])
			j++
		}
	}
	for ; i < m; i++ {
		ops = append(ops, "- "+oldLines[i])
	}
	for ; j < n; j++ {
		ops = append(ops, "+ "+newLines[j])
	}
	return ops
}
