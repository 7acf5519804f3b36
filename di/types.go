package di

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// TypeDescriptor 描述一个可按名称实例化的类型。
type TypeDescriptor struct {
	Name        string
	Type        reflect.Type // 注册时的类型参数
	constructor reflect.Value
	factories   map[string]reflect.Value
}

// HasConstructor 是否注册了构造函数。
func (d *TypeDescriptor) HasConstructor() bool {
	return d.constructor.IsValid()
}

// StaticFactory 查找静态工厂。
func (d *TypeDescriptor) StaticFactory(method string) (reflect.Value, bool) {
	fn, ok := d.factories[method]
	return fn, ok
}

// TypeOption 配置类型注册。
type TypeOption func(*typeConfig)

type typeConfig struct {
	constructor any
	factories   map[string]any
}

// WithConstructor 指定构造函数，返回值为 T 或 (T, error)。
// construct 中的参数按声明顺序传入。
func WithConstructor(fn any) TypeOption {
	return func(c *typeConfig) {
		c.constructor = fn
	}
}

// WithStaticFactory 注册一个无参的静态工厂，供 factory-method 使用。
// 返回值为任意类型或 (任意类型, error)。
func WithStaticFactory(method string, fn any) TypeOption {
	return func(c *typeConfig) {
		if c.factories == nil {
			c.factories = make(map[string]any)
		}
		c.factories[method] = fn
	}
}

// TypeRegistry 类型名到 TypeDescriptor 的映射，取代按类名加载。
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[string]*TypeDescriptor
}

// NewTypeRegistry 创建空的类型注册表。
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		types: make(map[string]*TypeDescriptor),
	}
}

// RegisterType 以 name 注册类型 T。
//
// 未提供构造函数时，指针类型 *S 通过 new(S) 创建，结构体类型 S 同样创建为 *S
// 以便后续写入属性。
func RegisterType[T any](r *TypeRegistry, name string, opts ...TypeOption) error {
	t := reflect.TypeOf((*T)(nil)).Elem()

	cfg := &typeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	desc := &TypeDescriptor{
		Name:      name,
		Type:      t,
		factories: make(map[string]reflect.Value, len(cfg.factories)),
	}

	if cfg.constructor != nil {
		fn := reflect.ValueOf(cfg.constructor)
		if err := checkFuncResults(fn); err != nil {
			return fmt.Errorf("di: constructor for %q: %w", name, err)
		}
		if out := fn.Type().Out(0); !out.AssignableTo(t) {
			return fmt.Errorf("di: constructor for %q returns %v, not assignable to %v", name, out, t)
		}
		desc.constructor = fn
	} else if !instantiable(t) {
		return fmt.Errorf("di: type %v registered as %q needs a constructor", t, name)
	}

	for method, f := range cfg.factories {
		fn := reflect.ValueOf(f)
		if err := checkFuncResults(fn); err != nil {
			return fmt.Errorf("di: factory %s::%s: %w", name, method, err)
		}
		if fn.Type().NumIn() != 0 {
			return fmt.Errorf("di: factory %s::%s must take no arguments", name, method)
		}
		desc.factories[method] = fn
	}

	return r.Register(desc)
}

// MustRegisterType 同 RegisterType，失败时 panic。
func MustRegisterType[T any](r *TypeRegistry, name string, opts ...TypeOption) {
	if err := RegisterType[T](r, name, opts...); err != nil {
		panic(err)
	}
}

// Register 注册描述符，同名时覆盖。
func (r *TypeRegistry) Register(desc *TypeDescriptor) error {
	if desc == nil || desc.Name == "" {
		return fmt.Errorf("di: type descriptor needs a name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[desc.Name] = desc
	return nil
}

// Lookup 按名称查找类型。
func (r *TypeRegistry) Lookup(name string) (*TypeDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.types[name]
	return desc, ok
}

// Names 返回已注册的类型名（排序后）。
func (r *TypeRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func instantiable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr:
		return t.Elem().Kind() != reflect.Interface
	case reflect.Interface, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return false
	}
	return true
}

// checkFuncResults 要求 fn 是返回 T 或 (T, error) 的函数。
func checkFuncResults(fn reflect.Value) error {
	if fn.Kind() != reflect.Func {
		return fmt.Errorf("expected a function, got %s", fn.Kind())
	}
	ft := fn.Type()
	switch ft.NumOut() {
	case 1:
		return nil
	case 2:
		if ft.Out(1) != errorType {
			return fmt.Errorf("second result must be error, got %v", ft.Out(1))
		}
		return nil
	}
	return fmt.Errorf("must return T or (T, error)")
}
