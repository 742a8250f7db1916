package router

import (
	"context"
	"net/http"

	"resume-analyzer/internal/api/handler"
	"resume-analyzer/internal/logger"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes 注册中间件与路由。templatePath 为空时不注册首页，
// analyzeMiddleware 只作用于 POST /analyze。
func RegisterRoutes(h *server.Hertz, analyzeHandler *handler.AnalyzeHandler, templatePath string, analyzeMiddleware ...app.HandlerFunc) {
	h.Use(RequestID(), AccessLog())

	if templatePath != "" {
		h.LoadHTMLFiles(templatePath)
		h.GET("/", analyzeHandler.Index)
	}
	analyzeChain := append([]app.HandlerFunc{}, analyzeMiddleware...)
	h.POST("/analyze", append(analyzeChain, analyzeHandler.Analyze)...)

	// 添加健康检查与指标
	h.GET("/health", analyzeHandler.Health)
	h.GET("/metrics", MetricsHandler(promhttp.Handler()))
}

// MetricsHandler 把 net/http 的 Prometheus handler 适配到 Hertz
func MetricsHandler(next http.Handler) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		req, err := adaptor.GetCompatRequest(&ctx.Request)
		if err != nil {
			logger.Ctx(c).Error().Err(err).Msg("转换指标请求失败")
			ctx.AbortWithStatus(http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(adaptor.GetCompatResponseWriter(&ctx.Response), req.WithContext(c))
	}
}
