package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalysesTotal 按结果统计的分析请求数: ok / invalid_input / error
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_analyses_total",
			Help: "Total number of resume analyses by outcome",
		},
		[]string{"outcome"},
	)

	// PrimaryRoleTotal 主岗位分布，未达阈值记为 none
	PrimaryRoleTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_primary_role_total",
			Help: "Number of analyzed resumes per primary role",
		},
		[]string{"role"},
	)

	MatchScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resume_jd_match_score",
			Help:    "Distribution of job description match scores (0-100)",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "resume_analysis_duration_seconds",
			Help:    "Duration of resume analysis in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
	)

	// ParseCacheRequests 解析缓存命中情况: hit / miss / error
	ParseCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_parse_cache_requests_total",
			Help: "Parse cache lookups by result",
		},
		[]string{"result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status code",
		},
		[]string{"method", "route", "status"},
	)
)

const (
	OutcomeOK           = "ok"
	OutcomeInvalidInput = "invalid_input"
	OutcomeError        = "error"

	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)
