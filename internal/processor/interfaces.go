package processor

import (
	"context"

	"resume-analyzer/internal/types"
)

// ParseCache 简历解析结果缓存。
// Get 未命中时返回的错误需满足 errors.Is(err, ErrCacheMiss)。
type ParseCache interface {
	GetParsedResume(ctx context.Context, textHash string) (*types.ParsedResume, error)
	SetParsedResume(ctx context.Context, textHash string, parsed *types.ParsedResume) error
	Ping(ctx context.Context) error
}
