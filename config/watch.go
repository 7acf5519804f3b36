package config

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/gocrud/beans/di"
	"github.com/gocrud/beans/logging"
	"github.com/robfig/cron/v3"
)

// Diff 两次加载之间定义的差异
type Diff struct {
	Added   []string
	Removed []string
	Changed []string
}

// Empty 是否没有差异
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// DiffStores 比较两份定义，结果按 next 中的出现顺序排列，Removed 按 prev 中的顺序
func DiffStores(prev, next *di.DefinitionStore) Diff {
	var d Diff
	for _, name := range next.Names() {
		nd, _ := next.Get(name)
		pd, ok := prev.Get(name)
		switch {
		case !ok:
			d.Added = append(d.Added, name)
		case !reflect.DeepEqual(pd, nd):
			d.Changed = append(d.Changed, name)
		}
	}
	for _, name := range prev.Names() {
		if !next.Has(name) {
			d.Removed = append(d.Removed, name)
		}
	}
	return d
}

// Watcher 按 cron 表达式定期重新加载定义源并报告变化。
// 已创建的 Engine 不会被修改，是否重建由 OnChange 决定。
type Watcher struct {
	builder  *DefinitionsBuilder
	spec     string
	logger   logging.Logger
	onChange func(store *di.DefinitionStore, diff Diff)
	timeout  time.Duration

	cron    *cron.Cron
	mu      sync.Mutex
	current *di.DefinitionStore
}

// WatcherOption 配置 Watcher
type WatcherOption func(*Watcher)

// WithWatchLogger 设置日志记录器
func WithWatchLogger(logger logging.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithLoadTimeout 设置每次加载的超时时间
func WithLoadTimeout(timeout time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.timeout = timeout
	}
}

// NewWatcher 创建 Watcher；spec 如 "@every 30s" 或 "*/5 * * * *"
func NewWatcher(builder *DefinitionsBuilder, current *di.DefinitionStore, spec string,
	onChange func(store *di.DefinitionStore, diff Diff), opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		builder:  builder,
		spec:     spec,
		logger:   logging.NewNopLogger(),
		onChange: onChange,
		timeout:  10 * time.Second,
		current:  current,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.WithCategory("config")

	w.cron = cron.New(cron.WithChain(cron.Recover(newCronLogger(w.logger))))
	if _, err := w.cron.AddFunc(spec, w.poll); err != nil {
		return nil, fmt.Errorf("invalid watch schedule '%s': %w", spec, err)
	}
	return w, nil
}

// Current 最近一次加载成功的定义
func (w *Watcher) Current() *di.DefinitionStore {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Check 立即重新加载一次。加载失败时保留当前定义。
func (w *Watcher) Check(ctx context.Context) (Diff, error) {
	next, err := w.builder.Build(ctx)
	if err != nil {
		return Diff{}, err
	}

	w.mu.Lock()
	prev := w.current
	w.current = next
	w.mu.Unlock()

	if prev == nil {
		prev = di.NewDefinitionStore()
	}
	diff := DiffStores(prev, next)
	if !diff.Empty() {
		w.logger.Info("Definitions changed",
			logging.Field{Key: "added", Value: diff.Added},
			logging.Field{Key: "removed", Value: diff.Removed},
			logging.Field{Key: "changed", Value: diff.Changed})
		if w.onChange != nil {
			w.onChange(next, diff)
		}
	}
	return diff, nil
}

func (w *Watcher) poll() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if _, err := w.Check(ctx); err != nil {
		w.logger.Warn("Failed to reload definitions", logging.Field{Key: "error", Value: err.Error()})
	}
}

// Start 启动调度，阻塞直到 ctx 取消
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info(fmt.Sprintf("Definition watcher started with spec '%s'", w.spec))
	w.cron.Start()
	<-ctx.Done()
	return w.Stop(context.Background())
}

// Stop 停止调度并等待正在执行的加载结束
func (w *Watcher) Stop(ctx context.Context) error {
	stopCtx := w.cron.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger 将日志接口适配到 cron 的日志接口
type cronLogger struct {
	logger logging.Logger
}

func newCronLogger(logger logging.Logger) cron.Logger {
	return &cronLogger{logger: logger}
}

func (l *cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, convertToFields(keysAndValues)...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...any) {
	fields := convertToFields(keysAndValues)
	fields = append(fields, logging.Field{Key: "error", Value: err.Error()})
	l.logger.Error(msg, fields...)
}

func convertToFields(keysAndValues []any) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logging.Field{Key: fmt.Sprintf("%v", keysAndValues[i]), Value: keysAndValues[i+1]})
	}
	return fields
}
