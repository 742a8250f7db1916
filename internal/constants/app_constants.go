package constants

import "time"

const (
	// 对外可见的哨兵值，序列化时使用
	NotFound    = "Not found"
	UnknownName = "Unknown"

	// MaxNameLength 候选人姓名最多保留的字符数
	MaxNameLength = 80

	// PrimaryRoleThreshold 主岗位的最低得分（百分比）
	PrimaryRoleThreshold = 15.0

	// MissingInputMessage 两个表单字段任一为空时返回的错误信息
	MissingInputMessage = "Please provide both job description and resume text."
	// RateLimitedMessage 限流时返回的错误信息
	RateLimitedMessage = "Too many requests, please retry later."

	// 表单字段名
	FormJobDescription = "job_description"
	FormResumeText     = "resume_text"

	// IndexTemplate 首页模板名
	IndexTemplate = "index.html"

	// HeaderRequestID 请求ID头
	HeaderRequestID = "X-Request-ID"

	// DefaultParseCacheTTL 简历解析结果缓存默认过期时间
	DefaultParseCacheTTL = 24 * time.Hour
)
