package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-analyzer/internal/api/handler"
	"resume-analyzer/internal/api/router"
	"resume-analyzer/internal/config"
	"resume-analyzer/internal/logger"
	"resume-analyzer/internal/processor"
	"resume-analyzer/internal/storage"
	"resume-analyzer/internal/tracing"
	"resume-analyzer/pkg/ratelimit"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/middlewares/server/recovery"
	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/spf13/pflag"
)

var (
	version     = "1.0.0"           //nolint:gochecknoglobals
	serviceName = "resume-analyzer" //nolint:gochecknoglobals
)

func main() {
	var (
		configPath   string
		samplePath   string
		printVersion bool
	)
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.StringVar(&samplePath, "write-sample-config", "", "Write a sample config file to the given path and exit")
	pflag.BoolVarP(&printVersion, "version", "v", false, "Print version and exit")
	pflag.Parse()

	if printVersion {
		fmt.Printf("%s %s\n", serviceName, version)
		return
	}
	if samplePath != "" {
		if err := config.CreateSampleConfig(samplePath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("示例配置文件已创建: %s\n", samplePath)
		return
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	initLogger(cfg)
	logger.Info().Str("address", cfg.Server.Address).Msg("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Tracing.Enabled {
		shutdownTracing, err := tracing.InitProvider(ctx, tracing.ProviderConfig{
			ServiceName:    cfg.Tracing.ServiceName,
			ServiceVersion: version,
			Endpoint:       cfg.Tracing.Endpoint,
			Insecure:       cfg.Tracing.Insecure,
			SampleRatio:    cfg.Tracing.SampleRatio,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("初始化链路追踪失败")
		}
		defer func() {
			flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer flushCancel()
			if err := shutdownTracing(flushCtx); err != nil {
				logger.Warn().Err(err).Msg("关闭链路追踪失败")
			}
		}()
		logger.Info().Str("endpoint", cfg.Tracing.Endpoint).Msg("链路追踪已启用")
	}

	analyzerOpts := []processor.AnalyzerOption{processor.WithSkillLogging(cfg.Analyzer.LogSkills)}
	if cfg.Redis.Enabled {
		cache, err := storage.NewRedisAdapter(ctx, &cfg.Redis)
		if err != nil {
			// 缓存只是加速手段，连接失败时继续以无缓存方式运行
			logger.Warn().Err(err).Msg("初始化Redis解析缓存失败，将不使用缓存")
		} else {
			defer cache.Close()
			analyzerOpts = append(analyzerOpts, processor.WithParseCache(cache))
			logger.Info().Str("address", cfg.Redis.Address).Dur("ttl", cache.TTL()).Msg("Redis解析缓存初始化成功")
		}
	}

	analyzeHandler := handler.NewAnalyzeHandler(processor.NewAnalyzer(analyzerOpts...))

	hertzOpts := []hertzconfig.Option{
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	}
	if cfg.Server.MaxRequestBody > 0 {
		hertzOpts = append(hertzOpts, server.WithMaxRequestBodySize(cfg.Server.MaxRequestBody))
	}
	h := server.New(hertzOpts...)
	h.Use(recovery.Recovery())

	templatePath := cfg.Server.TemplatePath
	if _, err := os.Stat(templatePath); err != nil {
		logger.Warn().Err(err).Str("template", templatePath).Msg("首页模板不存在，GET / 将不可用")
		templatePath = ""
	}
	var analyzeMiddleware []app.HandlerFunc
	if cfg.Server.RateLimitQPM > 0 {
		bucket := ratelimit.NewTokenBucket(cfg.Server.RateLimitQPM, cfg.Server.RateLimitBurst)
		analyzeMiddleware = append(analyzeMiddleware, router.RateLimit(bucket))
		logger.Info().Int("qpm", cfg.Server.RateLimitQPM).Msg("分析接口限流已启用")
	}
	router.RegisterRoutes(h, analyzeHandler, templatePath, analyzeMiddleware...)
	logger.Info().Msg("HTTP路由注册成功")

	go func() {
		logger.Info().Msgf("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("启动HTTP服务器失败")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(),
		config.GetDuration(cfg.Server.ShutdownTimeout, 5*time.Second))
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
	}
	logger.Info().Msg("优雅退出完成")
}

// initLogger 初始化日志系统，并附加服务级字段
func initLogger(cfg *config.Config) {
	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})

	logger.Logger = logger.Logger.With().
		Str("app", serviceName).
		Str("version", version).
		Logger()
}
