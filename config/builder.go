package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gocrud/beans/di"
	"github.com/gocrud/beans/logging"
)

// DefinitionsBuilder 组件定义构建器，按添加顺序合并各来源，后添加的覆盖先添加的
type DefinitionsBuilder struct {
	sources []Source
	errors  []error
	logger  logging.Logger
	mu      sync.RWMutex
}

// NewDefinitionsBuilder 创建定义构建器
func NewDefinitionsBuilder() *DefinitionsBuilder {
	return &DefinitionsBuilder{
		sources: make([]Source, 0),
		logger:  logging.NewNopLogger(),
	}
}

// WithLogger 设置日志记录器
func (b *DefinitionsBuilder) WithLogger(logger logging.Logger) *DefinitionsBuilder {
	if logger != nil {
		b.logger = logger.WithCategory("config")
	}
	return b
}

// Add 添加定义源
func (b *DefinitionsBuilder) Add(source Source) *DefinitionsBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sources = append(b.sources, source)
	return b
}

// AddYamlFile 添加 YAML 文件定义源
func (b *DefinitionsBuilder) AddYamlFile(path string, optional ...bool) *DefinitionsBuilder {
	isOptional := len(optional) > 0 && optional[0]
	return b.Add(&FileSource{Path: path, Optional: isOptional, Format: "Yaml"})
}

// AddJsonFile 添加 JSON 文件定义源
func (b *DefinitionsBuilder) AddJsonFile(path string, optional ...bool) *DefinitionsBuilder {
	isOptional := len(optional) > 0 && optional[0]
	return b.Add(&FileSource{Path: path, Optional: isOptional, Format: "Json"})
}

// AddInMemory 添加内存定义源
func (b *DefinitionsBuilder) AddInMemory(defs ...*di.ComponentDefinition) *DefinitionsBuilder {
	return b.Add(&InMemorySource{Definitions: defs})
}

// AddBytes 添加已读入内存的定义文本
func (b *DefinitionsBuilder) AddBytes(label string, data []byte) *DefinitionsBuilder {
	return b.Add(&BytesSource{Label: label, Data: data})
}

// AddEtcd 添加 etcd 定义源
func (b *DefinitionsBuilder) AddEtcd(configure func(*EtcdOptions)) *DefinitionsBuilder {
	opts := NewDefaultEtcdOptions()
	if configure != nil {
		configure(opts)
	}
	if err := opts.Validate(); err != nil {
		return b.fail(fmt.Errorf("invalid etcd source: %w", err))
	}
	return b.Add(&EtcdSource{Options: *opts})
}

// AddRedis 添加 Redis 定义源
func (b *DefinitionsBuilder) AddRedis(configure func(*RedisOptions)) *DefinitionsBuilder {
	opts := NewDefaultRedisOptions()
	if configure != nil {
		configure(opts)
	}
	if err := opts.Validate(); err != nil {
		return b.fail(fmt.Errorf("invalid redis source: %w", err))
	}
	return b.Add(&RedisSource{Options: *opts})
}

// AddMongo 添加 MongoDB 定义源
func (b *DefinitionsBuilder) AddMongo(uri string, configure func(*MongoOptions)) *DefinitionsBuilder {
	opts := NewDefaultMongoOptions(uri)
	if configure != nil {
		configure(opts)
	}
	if err := opts.Validate(); err != nil {
		return b.fail(fmt.Errorf("invalid mongo source: %w", err))
	}
	return b.Add(&MongoSource{Options: *opts})
}

// AddDatabase 添加 SQL 数据库定义源
func (b *DefinitionsBuilder) AddDatabase(configure func(*DatabaseOptions)) *DefinitionsBuilder {
	opts := NewDefaultDatabaseOptions()
	if configure != nil {
		configure(opts)
	}
	if err := opts.Validate(); err != nil {
		return b.fail(fmt.Errorf("invalid database source: %w", err))
	}
	return b.Add(&DatabaseSource{Options: *opts})
}

func (b *DefinitionsBuilder) fail(err error) *DefinitionsBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errors = append(b.errors, err)
	return b
}

// Build 依次加载全部来源并合并为 DefinitionStore
func (b *DefinitionsBuilder) Build(ctx context.Context) (*di.DefinitionStore, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	// 检查是否有配置错误
	if len(b.errors) > 0 {
		return nil, fmt.Errorf("definition source errors: %v", b.errors)
	}

	docs := make([]*di.Document, 0, len(b.sources))
	for _, source := range b.sources {
		start := time.Now()
		doc, err := source.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load definition source %s: %w", source.Name(), err)
		}

		b.logger.Info("Definition source loaded",
			logging.Field{Key: "source", Value: source.Name()},
			logging.Field{Key: "definitions", Value: len(doc.Definitions)},
			logging.Field{Key: "elapsed", Value: time.Since(start)})
		docs = append(docs, doc)
	}

	return di.NewDefinitionStore(docs...), nil
}
