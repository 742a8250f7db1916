package processor

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"resume-analyzer/internal/constants"
	"resume-analyzer/internal/logger"
	"resume-analyzer/internal/metrics"
	"resume-analyzer/internal/taxonomy"
	"resume-analyzer/internal/tracing"
	"resume-analyzer/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var analyzerTracer = otel.Tracer("resume-analyzer/processor")

// Analyzer 串联简历解析、岗位评分与JD匹配
type Analyzer struct {
	cache     ParseCache
	logSkills bool
	now       func() time.Time
}

// AnalyzerOption 定义了 Analyzer 的配置选项函数类型。
type AnalyzerOption func(*Analyzer)

// WithParseCache 设置解析结果缓存，nil 表示不使用缓存
func WithParseCache(cache ParseCache) AnalyzerOption {
	return func(a *Analyzer) {
		a.cache = cache
	}
}

// WithSkillLogging 额外输出一条 debug 日志，列出识别到的技能
func WithSkillLogging(enabled bool) AnalyzerOption {
	return func(a *Analyzer) {
		a.logSkills = enabled
	}
}

// NewAnalyzer 创建分析器
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	a := &Analyzer{now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze 校验输入并生成分析结果；任一输入去除空白后为空时返回 ErrMissingInput，
// ctx 已结束时返回包装了 ctx.Err() 的错误
func (a *Analyzer) Analyze(ctx context.Context, jobDescription, resumeText string) (*types.AnalysisResult, error) {
	start := a.now()
	ctx, span := analyzerTracer.Start(ctx, "Analyzer.Analyze", trace.WithAttributes(
		attribute.Int("resume.length", len(resumeText)),
		attribute.Int("jd.length", len(jobDescription)),
	))
	defer span.End()

	if strings.TrimSpace(jobDescription) == "" || strings.TrimSpace(resumeText) == "" {
		metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeInvalidInput).Inc()
		tracing.RecordError(span, ErrMissingInput, tracing.ErrorTypeValidation)
		return nil, ErrMissingInput
	}
	if err := ctx.Err(); err != nil {
		metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeError).Inc()
		tracing.RecordError(span, err, tracing.ErrorTypeInternal)
		return nil, fmt.Errorf("简历分析已中止: %w", err)
	}

	parsed := a.parse(ctx, resumeText)
	match := MatchJobDescription(parsed.Skills, jobDescription)

	result := &types.AnalysisResult{
		CandidateName: parsed.Name.Or(constants.UnknownName),
		Email:         parsed.Email.Or(constants.NotFound),
		Phone:         parsed.Phone.Or(constants.NotFound),
		Skills:        parsed.Skills,
		MatchedSkills: match.MatchedSkills,
		MatchScore:    match.MatchScore,
		RoleScores:    parsed.RoleScores,
		PrimaryRole:   parsed.PrimaryRole,
	}
	if result.Skills == nil {
		result.Skills = []string{}
	}

	metrics.AnalysesTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	metrics.PrimaryRoleTotal.WithLabelValues(parsed.PrimaryRole.String()).Inc()
	metrics.MatchScore.Observe(result.MatchScore)
	metrics.AnalysisDuration.Observe(a.now().Sub(start).Seconds())

	span.SetAttributes(
		attribute.String("candidate.email", tracing.SafeAttributeValue("email", result.Email, tracing.DefaultMaxLength)),
		attribute.Int("skills.count", len(result.Skills)),
		attribute.Int("skills.matched", len(result.MatchedSkills)),
		attribute.Float64("match.score", result.MatchScore),
		attribute.String("role.primary", parsed.PrimaryRole.String()),
	)

	logger.Ctx(ctx).Info().
		Int("skills", len(result.Skills)).
		Int("matched", len(result.MatchedSkills)).
		Float64("match_score", result.MatchScore).
		Str("primary_role", parsed.PrimaryRole.String()).
		Msg("简历分析完成")
	if a.logSkills {
		logger.Ctx(ctx).Debug().
			Strs("skills", result.Skills).
			Strs("matched_skills", result.MatchedSkills).
			Msg("识别到的技能")
	}

	return result, nil
}

// parse 优先读缓存；缓存不可用时直接解析，不影响结果
func (a *Analyzer) parse(ctx context.Context, resumeText string) types.ParsedResume {
	if a.cache == nil {
		return ParseResume(resumeText)
	}

	hash := TextHash(resumeText)
	cached, err := a.cache.GetParsedResume(ctx, hash)
	switch {
	case err == nil && cached != nil && validCachedSkills(cached.Skills):
		metrics.ParseCacheRequests.WithLabelValues(metrics.CacheHit).Inc()
		return *cached
	case err == nil && cached != nil:
		metrics.ParseCacheRequests.WithLabelValues(metrics.CacheError).Inc()
		logger.Ctx(ctx).Warn().Str("hash", hash).Msg("缓存中的技能列表不在词表内，重新解析")
	case err == nil || errors.Is(err, ErrCacheMiss):
		metrics.ParseCacheRequests.WithLabelValues(metrics.CacheMiss).Inc()
	default:
		metrics.ParseCacheRequests.WithLabelValues(metrics.CacheError).Inc()
		logger.Ctx(ctx).Warn().Err(err).Msg("读取解析缓存失败，直接解析")
	}

	parsed := ParseResume(resumeText)
	if err := a.cache.SetParsedResume(ctx, hash, &parsed); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("写入解析缓存失败")
	}
	return parsed
}

// validCachedSkills 缓存的技能必须都在当前词表内且严格有序，词表变更后旧缓存自动失效
func validCachedSkills(skills []string) bool {
	for i, s := range skills {
		if !taxonomy.IsKnownSkill(s) {
			return false
		}
		if i > 0 && skills[i-1] >= s {
			return false
		}
	}
	return true
}

// Ready 检查依赖是否可用，未配置缓存时总是返回 nil
func (a *Analyzer) Ready(ctx context.Context) error {
	if a.cache == nil {
		return nil
	}
	if err := a.cache.Ping(ctx); err != nil {
		return fmt.Errorf("解析缓存不可用: %w", err)
	}
	return nil
}

// TextHash 原文的MD5，作为缓存键。
// 姓名依赖原文的行结构，所以不能用归一化后的文本做键。
func TextHash(resumeText string) string {
	sum := md5.Sum([]byte(resumeText))
	return hex.EncodeToString(sum[:])
}
