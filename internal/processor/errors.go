package processor

import (
	"errors"

	"resume-analyzer/internal/constants"
	"resume-analyzer/internal/storage"
)

var (
	// ErrMissingInput JD 或简历文本为空
	ErrMissingInput = errors.New(constants.MissingInputMessage)

	// ErrCacheMiss 缓存未命中
	ErrCacheMiss = storage.ErrNotFound
)
