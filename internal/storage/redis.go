package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"resume-analyzer/internal/config"
	"resume-analyzer/internal/constants"
	"resume-analyzer/internal/tracing"
	"resume-analyzer/internal/types"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotFound is returned when a key is not found in Redis.
var ErrNotFound = redis.Nil

var redisTracer = otel.Tracer("resume-analyzer/storage/redis")

// Redis wraps the Redis client used as the parse result cache
type Redis struct {
	Client *redis.Client
	ttl    time.Duration
}

// NewRedisAdapter creates a new Redis client connection and verifies it with PING
func NewRedisAdapter(ctx context.Context, cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		MaxRetries:   cfg.MaxRetries,
	})

	// 添加OpenTelemetry钩子, 记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return NewRedisFromClient(client, config.GetDuration(cfg.CacheTTL, constants.DefaultParseCacheTTL)), nil
}

// NewRedisFromClient 使用已有客户端构造缓存，ttl<=0 时使用默认过期时间
func NewRedisFromClient(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = constants.DefaultParseCacheTTL
	}
	return &Redis{Client: client, ttl: ttl}
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// TTL 缓存过期时间
func (r *Redis) TTL() time.Duration { return r.ttl }

// ParsedResumeKey 解析结果缓存键
func ParsedResumeKey(textHash string) string {
	return fmt.Sprintf(constants.KeyParsedResume, textHash)
}

// GetParsedResume 读取缓存的解析结果，未命中时返回 ErrNotFound
func (r *Redis) GetParsedResume(ctx context.Context, textHash string) (*types.ParsedResume, error) {
	key := ParsedResumeKey(textHash)
	ctx, span := redisTracer.Start(ctx, "Redis.GetParsedResume",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.redis.key", tracing.SafeRedisKey(key))))
	defer span.End()

	data, err := r.Client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			span.SetAttributes(attribute.Bool("cache.hit", false))
			return nil, ErrNotFound
		}
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return nil, fmt.Errorf("读取解析缓存失败: %w", err)
	}

	var parsed types.ParsedResume
	if err := json.Unmarshal(data, &parsed); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeSerialization)
		return nil, fmt.Errorf("反序列化解析缓存失败: %w", err)
	}
	span.SetAttributes(attribute.Bool("cache.hit", true))
	return &parsed, nil
}

// SetParsedResume 写入解析结果
func (r *Redis) SetParsedResume(ctx context.Context, textHash string, parsed *types.ParsedResume) error {
	if parsed == nil {
		return fmt.Errorf("parsed resume cannot be nil")
	}
	key := ParsedResumeKey(textHash)
	ctx, span := redisTracer.Start(ctx, "Redis.SetParsedResume",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.redis.key", tracing.SafeRedisKey(key))))
	defer span.End()

	data, err := json.Marshal(parsed)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeSerialization)
		return fmt.Errorf("序列化解析结果失败: %w", err)
	}
	if err := r.Client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return fmt.Errorf("写入解析缓存失败: %w", err)
	}
	return nil
}
