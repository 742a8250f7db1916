package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用程序配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logger   LoggerConfig   `yaml:"logger"`
	Redis    RedisConfig    `yaml:"redis"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Analyzer AnalyzerConfig `yaml:"analyzer"`
}

// ServerConfig 定义服务器配置
type ServerConfig struct {
	Address         string `yaml:"address"`          // 例如 ":5000" or "0.0.0.0:5000"
	TemplatePath    string `yaml:"template_path"`    // 首页模板文件
	ShutdownTimeout string `yaml:"shutdown_timeout"` // 例如 "5s"
	MaxRequestBody  int    `yaml:"max_request_body"` // 请求体上限(字节)
	// /analyze 限流，每分钟请求数，0 表示不限流
	RateLimitQPM   int `yaml:"rate_limit_qpm"`
	RateLimitBurst int `yaml:"rate_limit_burst"` // 令牌桶容量，0 时取 QPM 的一半
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	Format       string `yaml:"format"`        // json, pretty
	TimeFormat   string `yaml:"time_format"`   // 时间格式
	ReportCaller bool   `yaml:"report_caller"` // 是否报告调用位置
}

// RedisConfig 解析结果缓存使用的Redis配置，未启用时服务直接解析
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// 连接池设置
	PoolSize     int `yaml:"pool_size"`      // 连接池大小
	MinIdleConns int `yaml:"min_idle_conns"` // 最小空闲连接数
	// 超时设置
	DialTimeoutSeconds  int `yaml:"dial_timeout_seconds"`  // 连接超时(秒)
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`  // 读取超时(秒)
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"` // 写入超时(秒)
	MaxRetries          int `yaml:"max_retries"`           // 最大重试次数
	// 缓存过期时间，例如 "24h"
	CacheTTL string `yaml:"cache_ttl"`
}

// TracingConfig OpenTelemetry 配置
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"` // OTLP gRPC 地址，例如 "localhost:4317"
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// AnalyzerConfig 分析器配置
type AnalyzerConfig struct {
	// LogSkills 为 true 时在 debug 日志中输出识别出的技能列表
	LogSkills bool `yaml:"log_skills"`
}

// LoadConfig 从文件加载配置。
// configPath 为空时在常见位置查找 config.yaml，找不到则使用默认配置；
// 显式指定但不存在的路径返回错误。
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = findConfigFile()
	}

	config := DefaultConfig()
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("配置文件不存在: %s", configPath)
			}
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}

	applyEnvOverrides(config)
	applyDefaults(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func findConfigFile() string {
	searchPaths := []string{
		"config.yaml",
		filepath.Join("configs", "config.yaml"),
	}
	if execPath, err := os.Executable(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(filepath.Dir(execPath), "config.yaml"))
	}
	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// applyEnvOverrides 从环境变量覆盖配置（如果存在）
func applyEnvOverrides(config *Config) {
	host, port := os.Getenv("HOST"), os.Getenv("PORT")
	if host != "" || port != "" {
		curHost, curPort, err := net.SplitHostPort(config.Server.Address)
		if err != nil {
			curHost, curPort = "", "5000"
		}
		if host != "" {
			curHost = host
		}
		if port != "" {
			curPort = port
		}
		config.Server.Address = net.JoinHostPort(curHost, curPort)
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		config.Redis.Address = addr
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Logger.Level = level
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		config.Tracing.Endpoint = endpoint
	}
}

// applyDefaults 为YAML中留空的字段填充默认值
func applyDefaults(config *Config) {
	if config.Server.Address == "" {
		config.Server.Address = ":5000" // 默认服务器地址
	}
	if config.Server.TemplatePath == "" {
		config.Server.TemplatePath = "web/templates/index.html"
	}
	if config.Server.ShutdownTimeout == "" {
		config.Server.ShutdownTimeout = "5s"
	}
	if config.Logger.Level == "" {
		config.Logger.Level = "info"
	}
	if config.Logger.Format == "" {
		config.Logger.Format = "pretty"
	}
	if config.Redis.CacheTTL == "" {
		config.Redis.CacheTTL = "24h"
	}
	if config.Tracing.ServiceName == "" {
		config.Tracing.ServiceName = "resume-analyzer"
	}
}

// Validate 检查配置之间的依赖关系
func (c *Config) Validate() error {
	if c.Redis.Enabled && c.Redis.Address == "" {
		return fmt.Errorf("redis已启用但未配置address")
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing已启用但未配置endpoint")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio 必须在 [0,1] 之间: %v", c.Tracing.SampleRatio)
	}
	if c.Server.MaxRequestBody < 0 {
		return fmt.Errorf("server.max_request_body 不能为负数")
	}
	if c.Server.RateLimitQPM < 0 || c.Server.RateLimitBurst < 0 {
		return fmt.Errorf("server.rate_limit_qpm 与 server.rate_limit_burst 不能为负数")
	}
	if err := validateDuration("server.shutdown_timeout", c.Server.ShutdownTimeout); err != nil {
		return err
	}
	if err := validateDuration("redis.cache_ttl", c.Redis.CacheTTL); err != nil {
		return err
	}
	return nil
}

// validateDuration 空值表示使用默认值，否则必须是正的时长
func validateDuration(field, value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s 不是合法的时长: %q", field, value)
	}
	if d <= 0 {
		return fmt.Errorf("%s 必须大于0: %q", field, value)
	}
	return nil
}

// DefaultConfig 创建默认配置
func DefaultConfig() *Config {
	config := &Config{}

	config.Server.Address = ":5000"
	config.Server.TemplatePath = "web/templates/index.html"
	config.Server.ShutdownTimeout = "5s"
	config.Server.MaxRequestBody = 4 * 1024 * 1024

	// 日志默认配置
	config.Logger.Level = "info"
	config.Logger.Format = "pretty" // 开发环境默认使用美化输出
	config.Logger.TimeFormat = "2006-01-02 15:04:05"
	config.Logger.ReportCaller = true

	// Redis默认配置，缓存默认关闭
	config.Redis.Enabled = false
	config.Redis.Address = "localhost:6379"
	config.Redis.PoolSize = 10
	config.Redis.MinIdleConns = 2
	config.Redis.DialTimeoutSeconds = 5
	config.Redis.ReadTimeoutSeconds = 3
	config.Redis.WriteTimeoutSeconds = 3
	config.Redis.MaxRetries = 3
	config.Redis.CacheTTL = "24h"

	config.Tracing.Enabled = false
	config.Tracing.Endpoint = "localhost:4317"
	config.Tracing.Insecure = true
	config.Tracing.ServiceName = "resume-analyzer"
	config.Tracing.SampleRatio = 1.0

	return config
}

// CreateSampleConfig 创建一个示例配置文件
func CreateSampleConfig(filePath string) error {
	if _, err := os.Stat(filePath); err == nil {
		return fmt.Errorf("文件 '%s' 已存在，不会覆盖", filePath)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("写入示例配置文件 '%s' 失败: %w", filePath, err)
	}
	return nil
}

// GetDuration 解析配置中的时长，空值或解析失败时返回默认值。
// LoadConfig 已经校验过时长字段，这里的回退只在直接构造 Config 时生效。
func GetDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	if durationStr == "" {
		return defaultDuration
	}
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return defaultDuration
	}
	return d
}
