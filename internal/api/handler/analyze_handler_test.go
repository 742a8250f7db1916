package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"resume-analyzer/internal/api/handler"
	"resume-analyzer/internal/api/router"
	"resume-analyzer/internal/constants"
	appCoreLogger "resume-analyzer/internal/logger"
	"resume-analyzer/internal/processor"
	"resume-analyzer/internal/storage"
	"resume-analyzer/internal/types"
	"resume-analyzer/pkg/ratelimit"

	"github.com/alicebob/miniredis/v2"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const testTemplatePath = "../../../web/templates/index.html"

// analyzeResponse 与接口返回保持一致，primary_role 用指针区分 null
type analyzeResponse struct {
	CandidateName string             `json:"candidate_name"`
	Email         string             `json:"email"`
	Phone         string             `json:"phone"`
	Skills        []string           `json:"skills"`
	MatchedSkills []string           `json:"matched_skills"`
	MatchScore    float64            `json:"match_score"`
	RoleScores    map[string]float64 `json:"role_scores"`
	PrimaryRole   *string            `json:"primary_role"`
}

const janeResume = "Jane Doe\njane@example.com\n555-123-4567\nSkilled in Python, TensorFlow, and AWS."

func newTestServer(t *testing.T, templatePath string) *server.Hertz {
	t.Helper()
	return newTestServerWith(t, templatePath, processor.NewAnalyzer())
}

func newTestServerWith(t *testing.T, templatePath string, analyzer handler.ResumeAnalyzer, analyzeMiddleware ...app.HandlerFunc) *server.Hertz {
	t.Helper()
	appCoreLogger.Init(appCoreLogger.Config{Level: "warn", Format: "json", Output: io.Discard})

	h := server.New(server.WithHostPorts("127.0.0.1:0"))
	router.RegisterRoutes(h, handler.NewAnalyzeHandler(analyzer), templatePath, analyzeMiddleware...)
	return h
}

// startServer 在随机端口上启动真实服务并返回基础 URL。
// ut.PerformRequest 构造的上下文没有 HTML 渲染器，首页只能走真实连接测试。
func startServer(t *testing.T, templatePath string) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	appCoreLogger.Init(appCoreLogger.Config{Level: "warn", Format: "json", Output: io.Discard})
	h := server.New(server.WithHostPorts(addr), server.WithExitWaitTime(time.Second))
	router.RegisterRoutes(h, handler.NewAnalyzeHandler(processor.NewAnalyzer()), templatePath)
	go func() { _ = h.Run() }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = h.Shutdown(ctx)
	})

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 5*time.Second, 20*time.Millisecond, "server did not start")
	return "http://" + addr
}

func getPage(t *testing.T, baseURL string) (*http.Response, string) {
	t.Helper()
	client := &http.Client{Timeout: 5 * time.Second, Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get(baseURL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

// stubAnalyzer 返回固定结果或错误
type stubAnalyzer struct {
	err      error
	readyErr error
}

func (s stubAnalyzer) Analyze(context.Context, string, string) (*types.AnalysisResult, error) {
	return nil, s.err
}

func (s stubAnalyzer) Ready(context.Context) error { return s.readyErr }

var (
	spanRecorderOnce sync.Once
	spanRecorder     *tracetest.SpanRecorder
)

// recordSpans 全局 provider 只能接管一次已创建的 tracer，因此整个测试进程共用一个 recorder
func recordSpans() *tracetest.SpanRecorder {
	spanRecorderOnce.Do(func() {
		spanRecorder = tracetest.NewSpanRecorder()
		otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanRecorder)))
	})
	return spanRecorder
}

func postAnalyze(h *server.Hertz, form url.Values, headers ...ut.Header) *ut.ResponseRecorder {
	body := form.Encode()
	headers = append(headers, ut.Header{Key: "Content-Type", Value: "application/x-www-form-urlencoded"})
	return ut.PerformRequest(h.Engine, consts.MethodPost, "/analyze",
		&ut.Body{Body: strings.NewReader(body), Len: len(body)}, headers...)
}

func TestIndex(t *testing.T) {
	baseURL := startServer(t, testTemplatePath)

	resp, body := getPage(t, baseURL)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, "<form")
	assert.Contains(t, body, "/analyze")
}

func TestIndexCustomTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), constants.IndexTemplate)
	require.NoError(t, os.WriteFile(path, []byte("<h1>custom page</h1>"), 0644))
	baseURL := startServer(t, path)

	resp, body := getPage(t, baseURL)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<h1>custom page</h1>", body)
}

func TestIndexNotRegisteredWithoutTemplate(t *testing.T) {
	h := newTestServer(t, "")

	w := ut.PerformRequest(h.Engine, consts.MethodGet, "/", nil)
	assert.Equal(t, consts.StatusNotFound, w.Result().StatusCode())
}

func TestAnalyzeSuccess(t *testing.T) {
	h := newTestServer(t, "")

	w := postAnalyze(h, url.Values{
		"job_description": {"Python and AWS experience needed"},
		"resume_text":     {janeResume},
	})
	resp := w.Result()
	require.Equal(t, consts.StatusOK, resp.StatusCode())
	assert.Contains(t, string(resp.Header.ContentType()), "application/json")

	var got analyzeResponse
	require.NoError(t, json.Unmarshal(resp.Body(), &got))
	assert.Equal(t, "Jane Doe", got.CandidateName)
	assert.Equal(t, "jane@example.com", got.Email)
	assert.Equal(t, "555-123-4567", got.Phone)
	assert.Equal(t, []string{"aws", "python", "r", "tensorflow"}, got.Skills)
	assert.Equal(t, []string{"aws", "python", "r"}, got.MatchedSkills)
	assert.Equal(t, 75.0, got.MatchScore)
	assert.Equal(t, map[string]float64{"data_scientist": 6.2, "ml_engineer": 8.9, "ai_engineer": 11.1}, got.RoleScores)
	assert.Nil(t, got.PrimaryRole)

	// 字段顺序与接口约定一致
	body := string(resp.Body())
	keys := []string{"candidate_name", "email", "phone", "skills", "matched_skills", "match_score", "role_scores", "primary_role"}
	last := -1
	for _, k := range keys {
		idx := strings.Index(body, `"`+k+`"`)
		require.Greater(t, idx, last, "key %s out of order", k)
		last = idx
	}
}

func TestAnalyzePrimaryRole(t *testing.T) {
	h := newTestServer(t, "")

	w := postAnalyze(h, url.Values{
		"job_description": {"Looking for an AI engineer: pytorch, transformers, kubernetes"},
		"resume_text": {"Dr. Alex Kim\nEmail: alex.kim@research.ai | Phone: +1 (415) 555-0199\n" +
			"Deep learning, PyTorch, transformers, NLP, computer vision, docker, kubernetes, sagemaker, gcp"},
	})
	require.Equal(t, consts.StatusOK, w.Result().StatusCode())

	var got analyzeResponse
	require.NoError(t, json.Unmarshal(w.Result().Body(), &got))
	require.NotNil(t, got.PrimaryRole)
	assert.Equal(t, "ai_engineer", *got.PrimaryRole)
	assert.Equal(t, 27.8, got.RoleScores["ai_engineer"])
}

func TestAnalyzeNoSkills(t *testing.T) {
	h := newTestServer(t, "")

	w := postAnalyze(h, url.Values{
		"job_description": {"python developer"},
		"resume_text":     {"Bob\nI like cooking."},
	})
	require.Equal(t, consts.StatusOK, w.Result().StatusCode())

	body := string(w.Result().Body())
	assert.Contains(t, body, `"skills":[]`)
	assert.Contains(t, body, `"matched_skills":[]`)
	assert.Contains(t, body, `"primary_role":null`)

	var got analyzeResponse
	require.NoError(t, json.Unmarshal(w.Result().Body(), &got))
	assert.Equal(t, constants.NotFound, got.Email)
	assert.Equal(t, constants.NotFound, got.Phone)
	assert.Equal(t, 0.0, got.MatchScore)
	assert.Equal(t, map[string]float64{"data_scientist": 0, "ml_engineer": 0, "ai_engineer": 0}, got.RoleScores)
}

func TestAnalyzeMissingFields(t *testing.T) {
	h := newTestServer(t, "")

	cases := map[string]url.Values{
		"空JD":     {"job_description": {""}, "resume_text": {"Jane Doe\npython"}},
		"空白简历":   {"job_description": {"python"}, "resume_text": {"  \n\t"}},
		"缺少全部字段": {},
		"缺少简历字段": {"job_description": {"python"}},
	}
	for name, form := range cases {
		t.Run(name, func(t *testing.T) {
			w := postAnalyze(h, form)
			resp := w.Result()
			assert.Equal(t, consts.StatusBadRequest, resp.StatusCode())
			assert.JSONEq(t, `{"error": "Please provide both job description and resume text."}`, string(resp.Body()))
		})
	}
}

func TestAnalyzeMultipartForm(t *testing.T) {
	h := newTestServer(t, "")

	body := "--XYZ\r\n" +
		"Content-Disposition: form-data; name=\"job_description\"\r\n\r\n" +
		"aws docker\r\n" +
		"--XYZ\r\n" +
		"Content-Disposition: form-data; name=\"resume_text\"\r\n\r\n" +
		"Sam\nDocker, AWS, Python\r\n" +
		"--XYZ--\r\n"
	w := ut.PerformRequest(h.Engine, consts.MethodPost, "/analyze",
		&ut.Body{Body: strings.NewReader(body), Len: len(body)},
		ut.Header{Key: "Content-Type", Value: "multipart/form-data; boundary=XYZ"})
	require.Equal(t, consts.StatusOK, w.Result().StatusCode())

	var got analyzeResponse
	require.NoError(t, json.Unmarshal(w.Result().Body(), &got))
	assert.Equal(t, "Sam", got.CandidateName)
	// "docker" 含字母 r，子串匹配会带出 "r"
	assert.Equal(t, []string{"aws", "docker", "python", "r"}, got.Skills)
	assert.Equal(t, []string{"aws", "docker", "r"}, got.MatchedSkills)
	assert.Equal(t, 75.0, got.MatchScore)
}

func TestRequestIDHeader(t *testing.T) {
	h := newTestServer(t, "")

	w := ut.PerformRequest(h.Engine, consts.MethodGet, "/health", nil,
		ut.Header{Key: constants.HeaderRequestID, Value: "req-42"})
	assert.Equal(t, "req-42", string(w.Result().Header.Peek(constants.HeaderRequestID)))

	w = ut.PerformRequest(h.Engine, consts.MethodGet, "/health", nil)
	assert.Len(t, string(w.Result().Header.Peek(constants.HeaderRequestID)), 36)
	assert.JSONEq(t, `{"status":"ok"}`, string(w.Result().Body()))
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, "")
	postAnalyze(h, url.Values{"job_description": {"python"}, "resume_text": {"Ann\npython"}})

	w := ut.PerformRequest(h.Engine, consts.MethodGet, "/metrics", nil)
	require.Equal(t, consts.StatusOK, w.Result().StatusCode())
	body := string(w.Result().Body())
	assert.Contains(t, body, "resume_analyses_total")
	assert.Contains(t, body, "http_requests_total")
}

func TestAnalyzeRateLimited(t *testing.T) {
	h := newTestServerWith(t, "", processor.NewAnalyzer(), router.RateLimit(ratelimit.NewTokenBucket(1, 1)))

	form := url.Values{
		"job_description": {"python"},
		"resume_text":     {"Jane Doe\nPython"},
	}
	require.Equal(t, consts.StatusOK, postAnalyze(h, form).Result().StatusCode())

	resp := postAnalyze(h, form).Result()
	assert.Equal(t, consts.StatusTooManyRequests, resp.StatusCode())
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.JSONEq(t, `{"error":"`+constants.RateLimitedMessage+`"}`, string(resp.Body()))

	// 其它路由不受限流影响
	w := ut.PerformRequest(h.Engine, consts.MethodGet, "/health", nil)
	assert.Equal(t, consts.StatusOK, w.Result().StatusCode())
}

func TestAnalyzeInternalError(t *testing.T) {
	h := newTestServerWith(t, "", stubAnalyzer{err: errors.New("analysis aborted")})

	w := postAnalyze(h, url.Values{"job_description": {"python"}, "resume_text": {"Ann\npython"}})
	assert.Equal(t, consts.StatusInternalServerError, w.Result().StatusCode())
	assert.JSONEq(t, `{"error":"analysis aborted"}`, string(w.Result().Body()))
}

func TestHealthReportsCacheState(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cache := storage.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}), time.Hour)
	defer cache.Close()
	h := newTestServerWith(t, "", processor.NewAnalyzer(processor.WithParseCache(cache)))

	w := ut.PerformRequest(h.Engine, consts.MethodGet, "/health", nil)
	assert.Equal(t, consts.StatusOK, w.Result().StatusCode())
	assert.JSONEq(t, `{"status":"ok"}`, string(w.Result().Body()))

	mr.Close()
	w = ut.PerformRequest(h.Engine, consts.MethodGet, "/health", nil)
	assert.Equal(t, consts.StatusOK, w.Result().StatusCode())

	var got map[string]string
	require.NoError(t, json.Unmarshal(w.Result().Body(), &got))
	assert.Equal(t, "degraded", got["status"])
	assert.NotEmpty(t, got["error"])

	// 缓存不可用时分析照常进行
	w = postAnalyze(h, url.Values{"job_description": {"python"}, "resume_text": {"Ann\npython"}})
	assert.Equal(t, consts.StatusOK, w.Result().StatusCode())
}

func TestHealthDegraded(t *testing.T) {
	h := newTestServerWith(t, "", stubAnalyzer{readyErr: errors.New("cache down")})

	w := ut.PerformRequest(h.Engine, consts.MethodGet, "/health", nil)
	assert.Equal(t, consts.StatusOK, w.Result().StatusCode())
	assert.JSONEq(t, `{"status":"degraded","error":"cache down"}`, string(w.Result().Body()))
}

func TestAnalyzeSpansOmitContactDetails(t *testing.T) {
	rec := recordSpans()
	before := len(rec.Ended())

	h := newTestServer(t, "")
	w := postAnalyze(h, url.Values{
		"job_description": {"Python and AWS experience needed"},
		"resume_text":     {janeResume},
	})
	require.Equal(t, consts.StatusOK, w.Result().StatusCode())

	spans := rec.Ended()[before:]
	names := make([]string, 0, len(spans))
	for _, span := range spans {
		names = append(names, span.Name())
		for _, attr := range span.Attributes() {
			value := attr.Value.Emit()
			for _, secret := range []string{"Jane Doe", "jane@example.com", "555-123-4567"} {
				assert.NotContains(t, value, secret, "span %s attribute %s", span.Name(), attr.Key)
			}
		}
	}
	assert.Contains(t, names, "POST /analyze")
	assert.Contains(t, names, "Analyzer.Analyze")
}
