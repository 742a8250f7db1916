package handler

import (
	"context"
	"errors"
	"strings"

	"resume-analyzer/internal/constants"
	"resume-analyzer/internal/logger"
	"resume-analyzer/internal/processor"
	"resume-analyzer/internal/tracing"
	"resume-analyzer/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var handlerTracer = otel.Tracer("resume-analyzer/api/handler")

// ResumeAnalyzer 由 processor.Analyzer 实现
type ResumeAnalyzer interface {
	Analyze(ctx context.Context, jobDescription, resumeText string) (*types.AnalysisResult, error)
	Ready(ctx context.Context) error
}

// AnalyzeHandler 首页与简历分析接口
type AnalyzeHandler struct {
	analyzer ResumeAnalyzer
}

// NewAnalyzeHandler 创建处理器
func NewAnalyzeHandler(analyzer ResumeAnalyzer) *AnalyzeHandler {
	return &AnalyzeHandler{analyzer: analyzer}
}

// Index GET / 渲染首页模板
func (h *AnalyzeHandler) Index(c context.Context, ctx *app.RequestContext) {
	ctx.HTML(consts.StatusOK, constants.IndexTemplate, nil)
}

// Analyze POST /analyze
// 表单字段: job_description, resume_text
func (h *AnalyzeHandler) Analyze(c context.Context, ctx *app.RequestContext) {
	c, span := handlerTracer.Start(c, "POST /analyze")
	defer span.End()

	jobDescription := ctx.PostForm(constants.FormJobDescription)
	resumeText := ctx.PostForm(constants.FormResumeText)
	// 简历原文含联系方式，span 只记录规模
	span.SetAttributes(
		attribute.Int("jd.length", len(jobDescription)),
		attribute.Int("resume.length", len(resumeText)),
		attribute.Int("resume.lines", strings.Count(resumeText, "\n")+1),
	)

	result, err := h.analyzer.Analyze(c, jobDescription, resumeText)
	if err != nil {
		if errors.Is(err, processor.ErrMissingInput) {
			tracing.RecordHTTPError(span, err, consts.StatusBadRequest)
			ctx.JSON(consts.StatusBadRequest, types.ErrorResponse{Error: constants.MissingInputMessage})
			return
		}
		logger.Ctx(c).Error().Err(err).Msg("简历分析失败")
		tracing.RecordHTTPError(span, err, consts.StatusInternalServerError)
		ctx.JSON(consts.StatusInternalServerError, types.ErrorResponse{Error: err.Error()})
		return
	}

	ctx.JSON(consts.StatusOK, result)
}

// Health GET /health
// 缓存不可用时分析仍会直接解析，因此返回 200 并标记 degraded
func (h *AnalyzeHandler) Health(c context.Context, ctx *app.RequestContext) {
	if err := h.analyzer.Ready(c); err != nil {
		logger.Ctx(c).Warn().Err(err).Msg("健康检查: 依赖不可用")
		ctx.JSON(consts.StatusOK, utils.H{"status": "degraded", "error": err.Error()})
		return
	}
	ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
}
