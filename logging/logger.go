package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel 日志级别
type LogLevel int

const (
	LogLevelTrace LogLevel = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarn
	LogLevelError
	// LogLevelOff 关闭全部输出
	LogLevelOff
)

// String 返回日志级别的字符串表示
func (l LogLevel) String() string {
	switch l {
	case LogLevelTrace:
		return "TRACE"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	case LogLevelOff:
		return "OFF"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel 解析日志级别名称（大小写不敏感）
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TRACE":
		return LogLevelTrace, nil
	case "DEBUG":
		return LogLevelDebug, nil
	case "INFO", "":
		return LogLevelInfo, nil
	case "WARN", "WARNING":
		return LogLevelWarn, nil
	case "ERROR":
		return LogLevelError, nil
	case "OFF", "NONE":
		return LogLevelOff, nil
	}
	return LogLevelInfo, fmt.Errorf("logging: unknown level %q", name)
}

// Field 日志字段
type Field struct {
	Key   string
	Value any
}

// Logger 日志接口
type Logger interface {
	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Log(level LogLevel, msg string, fields ...Field)
	Enabled(level LogLevel) bool
	WithFields(fields ...Field) Logger
	WithCategory(category string) Logger
}

// Options 日志选项
type Options struct {
	Level     LogLevel
	Formatter Formatter
	Output    io.Writer
}

// sink 是同一个输出目标上所有派生 logger 共享的部分
type sink struct {
	mu        sync.Mutex
	out       io.Writer
	formatter Formatter
}

func (s *sink) write(entry *LogEntry) {
	data, err := s.formatter.Format(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: format error: %v\n", err)
		return
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.out.Write(data); err != nil {
		fmt.Fprintf(os.Stderr, "logging: write error: %v\n", err)
	}
}

type logger struct {
	sink     *sink
	level    LogLevel
	category string
	fields   []Field
}

// New 根据选项创建 Logger
func New(opts Options) Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Formatter == nil {
		opts.Formatter = NewTextFormatter()
	}
	return &logger{
		sink:  &sink{out: opts.Output, formatter: opts.Formatter},
		level: opts.Level,
	}
}

// NewLogger 创建一个默认的控制台 Logger（便于测试使用）
func NewLogger() Logger {
	return New(Options{Level: LogLevelInfo})
}

func (l *logger) Trace(msg string, fields ...Field) { l.Log(LogLevelTrace, msg, fields...) }
func (l *logger) Debug(msg string, fields ...Field) { l.Log(LogLevelDebug, msg, fields...) }
func (l *logger) Info(msg string, fields ...Field)  { l.Log(LogLevelInfo, msg, fields...) }
func (l *logger) Warn(msg string, fields ...Field)  { l.Log(LogLevelWarn, msg, fields...) }
func (l *logger) Error(msg string, fields ...Field) { l.Log(LogLevelError, msg, fields...) }

func (l *logger) Enabled(level LogLevel) bool {
	return level >= l.level && level < LogLevelOff
}

func (l *logger) Log(level LogLevel, msg string, fields ...Field) {
	if !l.Enabled(level) {
		return
	}

	all := make([]Field, 0, len(l.fields)+len(fields))
	all = append(all, l.fields...)
	all = append(all, fields...)

	l.sink.write(&LogEntry{
		Time:     time.Now(),
		Level:    level,
		Category: l.category,
		Message:  msg,
		Fields:   all,
	})
}

func (l *logger) WithFields(fields ...Field) Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &logger{sink: l.sink, level: l.level, category: l.category, fields: merged}
}

func (l *logger) WithCategory(category string) Logger {
	return &logger{sink: l.sink, level: l.level, category: category, fields: l.fields}
}

// nopLogger 丢弃所有日志
type nopLogger struct{}

// NewNopLogger 创建不输出任何内容的 Logger
func NewNopLogger() Logger { return nopLogger{} }

func (nopLogger) Trace(string, ...Field)           {}
func (nopLogger) Debug(string, ...Field)           {}
func (nopLogger) Info(string, ...Field)            {}
func (nopLogger) Warn(string, ...Field)            {}
func (nopLogger) Error(string, ...Field)           {}
func (nopLogger) Log(LogLevel, string, ...Field)   {}
func (nopLogger) Enabled(LogLevel) bool            { return false }
func (n nopLogger) WithFields(...Field) Logger     { return n }
func (n nopLogger) WithCategory(string) Logger     { return n }
