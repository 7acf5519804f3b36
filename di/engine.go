package di

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gocrud/beans/logging"
)

// Engine 按组件定义构造实例并注入依赖。
//
// 定义与类型注册表在创建时传入；单例缓存随 Engine 存活，没有重置接口。
// 每个公开调用使用独立的 resolution，可在多个 goroutine 中并发调用。
type Engine struct {
	store      *DefinitionStore
	types      *TypeRegistry
	singletons *singletonCache
	writer     FieldWriter
	logger     logging.Logger
}

// NewEngine 创建引擎。
func NewEngine(store *DefinitionStore, types *TypeRegistry, opts ...Option) *Engine {
	if store == nil {
		store = NewDefinitionStore()
	}
	if types == nil {
		types = NewTypeRegistry()
	}

	e := &Engine{
		store:      store,
		types:      types,
		singletons: newSingletonCache(),
		writer:     ReflectFieldWriter{},
		logger:     logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.WithCategory("di")
	return e
}

// GetDependencyInstance 返回命名组件的实例；组件未定义时返回 (nil, nil)。
func (e *Engine) GetDependencyInstance(name string) (any, error) {
	res := newResolution()
	inst, ok, err := e.resolveOrBuild(name, res)
	if err != nil {
		e.fail(res, err)
		return nil, err
	}
	if !ok {
		e.logger.Debug("Component not defined", logging.Field{Key: "component", Value: name})
		return nil, nil
	}
	return inst, nil
}

// InjectDependencies 对每个 字段 -> 组件名 构造（或取出）组件并写入 target。
// 按字段名排序处理，每一对使用独立的 resolution；未定义的组件跳过。
func (e *Engine) InjectDependencies(target any, deps map[string]string) error {
	if target == nil {
		return &FieldError{Err: ErrNilTarget}
	}

	fields := make([]string, 0, len(deps))
	for field := range deps {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		if err := e.InjectDependency(target, field, deps[field]); err != nil {
			return err
		}
	}
	return nil
}

// InjectDependency 把组件 name 写入 target 的 field 字段。
func (e *Engine) InjectDependency(target any, field, name string) error {
	if target == nil {
		return &FieldError{Field: field, Err: ErrNilTarget}
	}

	res := newResolution()
	inst, ok, err := e.resolveOrBuild(name, res)
	if err != nil {
		e.fail(res, err)
		return err
	}
	if !ok {
		e.logger.Debug("Skipping undefined dependency",
			logging.Field{Key: "field", Value: field},
			logging.Field{Key: "component", Value: name})
		return nil
	}
	return e.writer.SetField(target, field, inst)
}

// InjectDependenciesOfType 把 load_in 包含 category 的每个组件写入 target 中与组件同名的字段。
// target 没有对应字段时跳过该组件。
func (e *Engine) InjectDependenciesOfType(target any, category string) error {
	if target == nil {
		return &FieldError{Err: ErrNilTarget}
	}

	for _, def := range e.store.DefinitionsForCategory(category) {
		res := newResolution()
		inst, _, err := e.resolveOrBuild(def.Name, res)
		if err != nil {
			e.fail(res, err)
			return err
		}

		err = e.writer.SetField(target, def.Name, inst)
		if errors.Is(err, ErrNoSuchField) {
			e.logger.Debug("Target has no field for category member",
				logging.Field{Key: "category", Value: category},
				logging.Field{Key: "component", Value: def.Name},
				logging.Field{Key: "target", Value: fmt.Sprintf("%T", target)})
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// InjectProperties 解析一组规格（字面量或引用）并写入 target。
func (e *Engine) InjectProperties(target any, props []Property) error {
	if target == nil {
		return &FieldError{Err: ErrNilTarget}
	}

	res := newResolution()
	values, err := e.resolveAll("", props, res, true)
	if err == nil {
		err = e.apply(target, values, res)
	}
	if err != nil {
		e.fail(res, err)
		return err
	}
	return nil
}

// Definitions 返回引擎使用的定义。
func (e *Engine) Definitions() *DefinitionStore {
	return e.store
}

// Types 返回类型注册表。
func (e *Engine) Types() *TypeRegistry {
	return e.types
}

// Singletons 返回已缓存的单例名称（排序后）。
func (e *Engine) Singletons() []string {
	return e.singletons.names()
}

// IsSingletonBuilt 判断单例是否已经构造。
func (e *Engine) IsSingletonBuilt(name string) bool {
	_, ok := e.singletons.get(name)
	return ok
}

func (e *Engine) fail(res *resolution, err error) {
	n := res.rollback(e.singletons)
	e.logger.Debug("Resolution failed",
		logging.Field{Key: "error", Value: err},
		logging.Field{Key: "rolled_back", Value: n})
}
