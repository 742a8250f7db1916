package tracing

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxLength span 属性值默认长度上限
	DefaultMaxLength = 200

	// MaxRedisKeyLength Redis 键长度上限
	MaxRedisKeyLength = 100
)

// piiKeyFragments 属性名包含这些片段时只记录掩码后的值
var piiKeyFragments = []string{"email", "phone", "name"}

// SafeAttributeValue 候选人联系方式类属性做掩码，其它属性只截断
func SafeAttributeValue(key string, value string, maxLength int) string {
	lowerKey := strings.ToLower(key)
	for _, fragment := range piiKeyFragments {
		if strings.Contains(lowerKey, fragment) {
			return MaskPII(value)
		}
	}
	return TruncateString(value, maxLength)
}

// MaskPII 保留首尾各两个字符（不超过 4 个字符时各一个），其余替换为 *
// "jane@example.com" -> "ja************om"，"王小明" -> "王*明"
func MaskPII(value string) string {
	runes := []rune(value)
	n := len(runes)
	keep := 2
	switch {
	case n == 0:
		return ""
	case n == 1:
		return "*"
	case n == 2:
		return string(runes[:1]) + "*"
	case n <= 4:
		keep = 1
	}
	return string(runes[:keep]) + strings.Repeat("*", n-2*keep) + string(runes[n-keep:])
}

// TruncateString 超长时保留首尾，中间用 ... 连接
func TruncateString(s string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxLength {
		return s
	}

	runes := []rune(s)
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	keep := max((maxLength-3)/2, 1)
	return string(runes[:keep]) + "..." + string(runes[len(runes)-keep:])
}

// SafeRedisKey 截断过长的 Redis 键
func SafeRedisKey(key string) string {
	return TruncateString(key, MaxRedisKeyLength)
}
