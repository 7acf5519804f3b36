package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/gocrud/beans/di"
)

// Source 组件定义来源
type Source interface {
	Load(ctx context.Context) (*di.Document, error)
	Name() string
}

// FileSource YAML / JSON 文件定义源，JSON 通过 YAML 解析器兼容
type FileSource struct {
	Path     string
	Optional bool
	Format   string // 仅用于显示
}

func (s *FileSource) Name() string {
	return fmt.Sprintf("%sFile(%s)", s.Format, s.Path)
}

func (s *FileSource) Load(ctx context.Context) (*di.Document, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if s.Optional && errors.Is(err, os.ErrNotExist) {
			return di.NewDocument(s.Path), nil
		}
		return nil, err
	}
	return di.ParseDocument(s.Path, data)
}

// InMemorySource 直接在代码中声明的定义
type InMemorySource struct {
	Label       string
	Definitions []*di.ComponentDefinition
}

func (s *InMemorySource) Name() string {
	if s.Label == "" {
		return "InMemory"
	}
	return fmt.Sprintf("InMemory(%s)", s.Label)
}

func (s *InMemorySource) Load(ctx context.Context) (*di.Document, error) {
	defs := make([]*di.ComponentDefinition, len(s.Definitions))
	copy(defs, s.Definitions)
	return di.NewDocument(s.Name(), defs...), nil
}

// BytesSource 已读入内存的定义文本
type BytesSource struct {
	Label string
	Data  []byte
}

func (s *BytesSource) Name() string {
	return fmt.Sprintf("Bytes(%s)", s.Label)
}

func (s *BytesSource) Load(ctx context.Context) (*di.Document, error) {
	return di.ParseDocument(s.Label, s.Data)
}

// entry 远程存储中的一条定义：组件名 + 定义体文本
type entry struct {
	Name string
	Spec []byte
}

// decodeEntries 逐条解析远程来源读取的定义。
// sorted 为 false 时按组件名排序，保证来源内顺序稳定。
func decodeEntries(source string, entries []entry, sorted bool) (*di.Document, error) {
	if !sorted {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	}

	doc := di.NewDocument(source)
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		def, err := di.ParseDefinition(source, e.Name, e.Spec)
		if err != nil {
			return nil, err
		}
		doc.Definitions = append(doc.Definitions, def)
	}
	return doc, nil
}
