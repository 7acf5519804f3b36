package di

import "github.com/gocrud/beans/logging"

// Option 配置 Engine。
type Option func(*Engine)

// WithLogger 设置日志记录器，默认不输出。
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithFieldWriter 替换字段写入策略，默认为 ReflectFieldWriter。
func WithFieldWriter(w FieldWriter) Option {
	return func(e *Engine) {
		if w != nil {
			e.writer = w
		}
	}
}
