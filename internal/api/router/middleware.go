package router

import (
	"context"
	"math"
	"strconv"
	"time"

	"resume-analyzer/internal/constants"
	"resume-analyzer/internal/logger"
	"resume-analyzer/internal/metrics"
	"resume-analyzer/internal/types"
	"resume-analyzer/pkg/ratelimit"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
)

// RequestID 透传或生成 X-Request-ID，并把带 request_id 的 logger 放进 context
func RequestID() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		id := string(ctx.GetHeader(constants.HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		ctx.Set(constants.HeaderRequestID, id)
		ctx.Response.Header.Set(constants.HeaderRequestID, id)

		ctx.Next(logger.WithRequestID(c, id))
	}
}

// AccessLog 记录请求日志并统计请求数
func AccessLog() app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		start := time.Now()
		ctx.Next(c)

		status := ctx.Response.StatusCode()
		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(string(ctx.Method()), route, strconv.Itoa(status)).Inc()

		logger.Ctx(c).Info().
			Str("method", string(ctx.Method())).
			Str("path", string(ctx.Path())).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("Request")
	}
}

// RateLimit 令牌耗尽时直接返回 429，并给出 Retry-After
func RateLimit(tb *ratelimit.TokenBucket) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		if tb.Allow() {
			ctx.Next(c)
			return
		}
		retryAfter := int(math.Ceil(tb.RetryAfter().Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		logger.Ctx(c).Warn().Int("retry_after", retryAfter).Msg("请求被限流")
		ctx.Response.Header.Set("Retry-After", strconv.Itoa(retryAfter))
		ctx.AbortWithStatusJSON(consts.StatusTooManyRequests, types.ErrorResponse{Error: constants.RateLimitedMessage})
	}
}
