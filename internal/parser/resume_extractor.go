package parser

import (
	"regexp"
	"strings"
	"unicode"

	"resume-analyzer/internal/constants"
	"resume-analyzer/internal/taxonomy"
	"resume-analyzer/internal/types"
)

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// phonePattern 比较宽松，任意足够长的数字串（如日期区间、证件号）也会命中
	phonePattern = regexp.MustCompile(`\+?\d[\d\s\-()]{7,}\d`)
)

// NormalizeWhitespace 将所有连续空白（含换行）压缩为单个空格并去掉首尾空白
func NormalizeWhitespace(text string) string {
	return strings.Join(strings.FieldsFunc(text, isSpace), " ")
}

// ExtractName 取原文中第一行非空内容作为姓名，最多 80 个字符
func ExtractName(text string) types.Field {
	for _, line := range strings.FieldsFunc(text, isLineBreak) {
		line = strings.TrimFunc(line, isSpace)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > constants.MaxNameLength {
			line = string(runes[:constants.MaxNameLength])
		}
		return types.FoundField(line)
	}
	return types.Field{}
}

// ExtractEmail 返回第一个邮箱地址
func ExtractEmail(text string) types.Field {
	if m := emailPattern.FindString(text); m != "" {
		return types.FoundField(m)
	}
	return types.Field{}
}

// ExtractPhone 返回第一个疑似电话号码
func ExtractPhone(text string) types.Field {
	if m := phonePattern.FindString(text); m != "" {
		return types.FoundField(m)
	}
	return types.Field{}
}

// ExtractSkills 返回文本中出现过的技能短语（已排序、去重）。
// 采用子串匹配而非词边界匹配，"r" 会命中任何含字母 r 的单词。
func ExtractSkills(text string) []string {
	low := strings.ToLower(text)
	found := make([]string, 0)
	// AllSkills 本身有序且无重复，按序追加即可保证结果有序
	for _, skill := range taxonomy.AllSkills() {
		if strings.Contains(low, skill) {
			found = append(found, skill)
		}
	}
	return found
}

// isSpace 在 unicode.IsSpace 之外把 \x1c-\x1f 信息分隔符也视为空白
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= '\x1c' && r <= '\x1f')
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}
