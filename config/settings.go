package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings 应用设置（定义文件位置、后端地址、日志级别等），构建后只读
//
// 键支持 "a:b:c" 或 "a.b.c" 形式的路径。
type Settings struct {
	data map[string]any
}

// NewSettings 按顺序合并多个 map，后面的覆盖前面的
func NewSettings(layers ...map[string]any) *Settings {
	s := &Settings{data: make(map[string]any)}
	for _, layer := range layers {
		mergeMaps(s.data, layer)
	}
	return s
}

// LoadSettings 读取 YAML 设置文件（可不存在），再用带前缀的环境变量覆盖
//
//	BEANS_SERVER_ADDR=:8080 -> server:addr
func LoadSettings(path, envPrefix string) (*Settings, error) {
	file := make(map[string]any)
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, &file); err != nil {
				return nil, fmt.Errorf("failed to parse settings %s: %w", path, err)
			}
		}
	}
	return NewSettings(file, environment(envPrefix)), nil
}

// LoadEnvFiles 读取 .env 文件到进程环境，不覆盖已存在的变量；不存在的文件被忽略
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		err := godotenv.Load(f)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to load env file %s: %w", f, err)
		}
	}
	return nil
}

// environment 读取带前缀的环境变量，_ 作为层级分隔符
func environment(prefix string) map[string]any {
	result := make(map[string]any)
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		key = strings.ToLower(strings.TrimPrefix(key, prefix))
		if key == "" {
			continue
		}
		setNestedValue(result, strings.Split(key, "_"), parseScalar(value))
	}
	return result
}

// parseScalar 尝试把环境变量转换为整数、浮点数或布尔值，否则保持字符串
func parseScalar(value string) any {
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return value
}

// Get 获取设置值
func (s *Settings) Get(key string) string {
	switch v := s.lookup(key).(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// GetWithDefault 获取设置值，不存在时返回默认值
func (s *Settings) GetWithDefault(key, defaultValue string) string {
	if v := s.Get(key); v != "" {
		return v
	}
	return defaultValue
}

// GetInt 获取整数设置值
func (s *Settings) GetInt(key string) (int, error) {
	switch v := s.lookup(key).(type) {
	case nil:
		return 0, fmt.Errorf("key %s not found", key)
	case int:
		return v, nil
	case string:
		return strconv.Atoi(v)
	default:
		return 0, fmt.Errorf("cannot convert %v to int", v)
	}
}

// GetBool 获取布尔设置值
func (s *Settings) GetBool(key string) (bool, error) {
	switch v := s.lookup(key).(type) {
	case nil:
		return false, fmt.Errorf("key %s not found", key)
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	default:
		return false, fmt.Errorf("cannot convert %v to bool", v)
	}
}

// GetDuration 获取时长设置值，如 "5s"
func (s *Settings) GetDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := s.Get(key)
	if v == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(v)
}

// GetStrings 获取字符串列表，支持 YAML 列表或逗号分隔
func (s *Settings) GetStrings(key string) []string {
	var out []string
	switch v := s.lookup(key).(type) {
	case []any:
		for _, item := range v {
			out = append(out, fmt.Sprintf("%v", item))
		}
	case string:
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// Bind 绑定设置节到结构体
func (s *Settings) Bind(key string, target any) error {
	data := s.lookup(key)
	if data == nil {
		return fmt.Errorf("key %s not found", key)
	}

	// 使用 JSON 序列化/反序列化进行绑定
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}
	if err := json.Unmarshal(jsonData, target); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return nil
}

// Load 绑定指定节到 T
func Load[T any](s *Settings, section string) (T, error) {
	var t T
	err := s.Bind(section, &t)
	return t, err
}

func (s *Settings) lookup(path string) any {
	if path == "" {
		return s.data
	}

	current := any(s.data)
	for _, part := range strings.Split(strings.ReplaceAll(path, ":", "."), ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[part]
	}
	return current
}

// mergeMaps 合并两个 map
func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		if dstMap, ok := dst[k].(map[string]any); ok {
			if srcMap, ok := v.(map[string]any); ok {
				mergeMaps(dstMap, srcMap)
				continue
			}
		}
		if srcMap, ok := v.(map[string]any); ok {
			copied := make(map[string]any, len(srcMap))
			mergeMaps(copied, srcMap)
			v = copied
		}
		dst[k] = v
	}
}

// setNestedValue 设置嵌套值
func setNestedValue(data map[string]any, parts []string, value any) {
	current := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}
