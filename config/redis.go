package config

import (
	"context"
	"fmt"
	"time"

	"github.com/gocrud/beans/di"
	"github.com/redis/go-redis/v9"
)

// RedisOptions Redis 定义源配置，一个 hash 保存全部定义，field 为组件名
type RedisOptions struct {
	Addr        string        // Redis 服务器地址 (host:port)
	Password    string        // 密码（可选）
	DB          int           // 数据库编号
	Key         string        // 存放定义的 hash 键
	DialTimeout time.Duration // 连接超时时间
	ReadTimeout time.Duration // 读取超时时间
	MaxRetries  int           // 最大重试次数
	Client      *redis.Client // 已有客户端（可选），设置后忽略连接参数
}

// NewDefaultRedisOptions 创建默认配置
func NewDefaultRedisOptions() *RedisOptions {
	return &RedisOptions{
		Addr:        "localhost:6379",
		Key:         "beans:definitions",
		DialTimeout: 5 * time.Second,
		ReadTimeout: 3 * time.Second,
		MaxRetries:  3,
	}
}

// Validate 验证配置
func (o *RedisOptions) Validate() error {
	if o.Client == nil && o.Addr == "" {
		return fmt.Errorf("redis address is required")
	}
	if o.Key == "" {
		return fmt.Errorf("redis hash key is required")
	}
	if o.DB < 0 {
		return fmt.Errorf("redis database number must be non-negative")
	}
	if o.Client == nil && o.DialTimeout <= 0 {
		return fmt.Errorf("redis dial timeout must be positive")
	}
	return nil
}

// RedisSource Redis 定义源
type RedisSource struct {
	Options RedisOptions
}

func (s *RedisSource) Name() string {
	addr := s.Options.Addr
	if s.Options.Client != nil {
		addr = s.Options.Client.Options().Addr
	}
	return fmt.Sprintf("Redis(%s/%d %s)", addr, s.Options.DB, s.Options.Key)
}

func (s *RedisSource) Load(ctx context.Context) (*di.Document, error) {
	client := s.Options.Client
	if client == nil {
		client = redis.NewClient(&redis.Options{
			Addr:        s.Options.Addr,
			Password:    s.Options.Password,
			DB:          s.Options.DB,
			DialTimeout: s.Options.DialTimeout,
			ReadTimeout: s.Options.ReadTimeout,
			MaxRetries:  s.Options.MaxRetries,
		})
		defer client.Close()
	}

	fields, err := client.HGetAll(ctx, s.Options.Key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions from redis: %w", err)
	}

	entries := make([]entry, 0, len(fields))
	for name, spec := range fields {
		entries = append(entries, entry{Name: name, Spec: []byte(spec)})
	}
	// hash 无序，按组件名排序
	return decodeEntries(s.Name(), entries, false)
}

// PutRedisDefinition 写入一条定义，便于初始化或迁移
func PutRedisDefinition(ctx context.Context, client *redis.Client, key, name, spec string) error {
	if _, err := di.ParseDefinition("redis", name, []byte(spec)); err != nil {
		return err
	}
	return client.HSet(ctx, key, name, spec).Err()
}
