package logging

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Formatter 把一条日志编码为一行输出
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
}

// LogEntry 日志条目
type LogEntry struct {
	Time     time.Time
	Level    LogLevel
	Category string
	Message  string
	Fields   []Field
}

// TextFormatter 单行文本：
//
//	2024-01-02 15:04:05 INFO [di] Component built {component=mailer, singleton=true}
type TextFormatter struct {
	IncludeTimestamp bool
	TimestampFormat  string
	ColorOutput      bool
}

// NewTextFormatter 创建文本格式化器
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		IncludeTimestamp: true,
		TimestampFormat:  time.DateTime,
	}
}

func (f *TextFormatter) Format(entry *LogEntry) ([]byte, error) {
	var sb strings.Builder

	if f.IncludeTimestamp {
		sb.WriteString(entry.Time.Format(f.TimestampFormat))
		sb.WriteByte(' ')
	}

	level := entry.Level.String()
	if color := levelColors[entry.Level]; f.ColorOutput && color != "" {
		level = color + level + "\033[0m"
	}
	sb.WriteString(level)

	if entry.Category != "" {
		fmt.Fprintf(&sb, " [%s]", entry.Category)
	}
	sb.WriteByte(' ')
	sb.WriteString(entry.Message)

	for i, field := range entry.Fields {
		if i == 0 {
			sb.WriteString(" {")
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(field.Key)
		sb.WriteByte('=')
		sb.WriteString(textValue(field.Value))
	}
	if len(entry.Fields) > 0 {
		sb.WriteByte('}')
	}

	sb.WriteByte('\n')
	return []byte(sb.String()), nil
}

var levelColors = map[LogLevel]string{
	LogLevelTrace: "\033[90m",
	LogLevelDebug: "\033[36m",
	LogLevelInfo:  "\033[32m",
	LogLevelWarn:  "\033[33m",
	LogLevelError: "\033[31m",
}

// textValue 含空白或分隔符的字符串加引号，其余按 %v 输出
func textValue(v any) string {
	s := fmt.Sprintf("%v", plainValue(v))
	if s == "" || strings.ContainsAny(s, " \t\n,{}=\"") {
		return strconv.Quote(s)
	}
	return s
}

// plainValue 把 error、Duration 等转换为可读的基本值
func plainValue(v any) any {
	switch x := v.(type) {
	case error:
		return x.Error()
	case time.Duration:
		return x.String()
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return x.String()
	}
	return v
}

// JsonFormatter 每条日志一个 JSON 对象，字段放在 "fields" 下
type JsonFormatter struct {
	TimestampFormat string
}

// NewJsonFormatter 创建 JSON 格式化器
func NewJsonFormatter() *JsonFormatter {
	return &JsonFormatter{
		TimestampFormat: time.RFC3339Nano,
	}
}

type jsonEntry struct {
	Time     string         `json:"time"`
	Level    string         `json:"level"`
	Category string         `json:"category,omitempty"`
	Message  string         `json:"msg"`
	Fields   map[string]any `json:"fields,omitempty"`
}

func (f *JsonFormatter) Format(entry *LogEntry) ([]byte, error) {
	out := jsonEntry{
		Time:     entry.Time.Format(f.TimestampFormat),
		Level:    entry.Level.String(),
		Category: entry.Category,
		Message:  entry.Message,
	}
	if len(entry.Fields) > 0 {
		out.Fields = make(map[string]any, len(entry.Fields))
		for _, field := range entry.Fields {
			out.Fields[field.Key] = plainValue(field.Value)
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	return append(data, '\n'), nil
}
