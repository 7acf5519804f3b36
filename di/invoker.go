package di

import (
	"fmt"
	"reflect"
	"unicode"
	"unicode/utf8"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Invoker 实例化调用器
// 封装了反射调用的细节，统一检查错误和 nil 返回值
type Invoker func(args []reflect.Value) (any, error)

// newInvoker 为返回 T 或 (T, error) 的函数创建调用器
func newInvoker(fn reflect.Value) Invoker {
	return func(args []reflect.Value) (any, error) {
		var results []reflect.Value
		if fn.Type().IsVariadic() {
			results = fn.CallSlice(packVariadic(fn.Type(), args))
		} else {
			results = fn.Call(args)
		}
		if len(results) == 0 {
			return nil, fmt.Errorf("function returned no values")
		}

		// 检查 error
		if len(results) > 1 {
			if last := results[len(results)-1]; !last.IsNil() {
				return nil, last.Interface().(error)
			}
		}

		// 检查 nil
		first := results[0]
		switch first.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			if first.IsNil() {
				return nil, ErrNilInstance
			}
		}
		return first.Interface(), nil
	}
}

// packVariadic 把多余的参数收拢为最后一个切片参数
func packVariadic(ft reflect.Type, args []reflect.Value) []reflect.Value {
	fixed := ft.NumIn() - 1
	sliceType := ft.In(fixed)
	rest := reflect.MakeSlice(sliceType, 0, len(args)-fixed)
	for _, a := range args[fixed:] {
		rest = reflect.Append(rest, a)
	}
	return append(args[:fixed:fixed], rest)
}

// argument 是解析后的构造参数，Present 为 false 表示引用未定义
type argument struct {
	Value   any
	Present bool
}

// construct 用构造函数（或零值分配）创建实例
func (d *TypeDescriptor) construct(args []argument) (any, error) {
	if !d.HasConstructor() {
		if len(args) > 0 {
			return nil, fmt.Errorf("%w: %s takes no arguments, got %d", ErrArgumentCount, d.Name, len(args))
		}
		t := d.Type
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		return reflect.New(t).Interface(), nil
	}

	ft := d.constructor.Type()
	in, err := buildArgs(ft, args)
	if err != nil {
		return nil, err
	}
	return newInvoker(d.constructor)(in)
}

func buildArgs(ft reflect.Type, args []argument) ([]reflect.Value, error) {
	n := ft.NumIn()
	if ft.IsVariadic() {
		if len(args) < n-1 {
			return nil, fmt.Errorf("%w: want at least %d, got %d", ErrArgumentCount, n-1, len(args))
		}
	} else if len(args) != n {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrArgumentCount, n, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, a := range args {
		pt := paramType(ft, i)
		if !a.Present {
			in[i] = reflect.Zero(pt)
			continue
		}
		v, err := adapt(a.Value, pt)
		if err != nil {
			return nil, fmt.Errorf("argument #%d: %w", i, err)
		}
		in[i] = v
	}
	return in, nil
}

func paramType(ft reflect.Type, i int) reflect.Type {
	if ft.IsVariadic() && i >= ft.NumIn()-1 {
		return ft.In(ft.NumIn() - 1).Elem()
	}
	return ft.In(i)
}

// callStatic 调用类型的静态工厂
func (d *TypeDescriptor) callStatic(method string) (any, error) {
	fn, ok := d.StaticFactory(method)
	if !ok {
		return nil, fmt.Errorf("%w: %s::%s", ErrFactoryNotFound, d.Name, method)
	}
	return newInvoker(fn)(nil)
}

// callMethod 调用工厂组件上的无参方法，先按原名查找，再尝试首字母大写
func callMethod(owner any, method string) (any, error) {
	v := reflect.ValueOf(owner)
	m := v.MethodByName(method)
	if !m.IsValid() {
		m = v.MethodByName(exportName(method))
	}
	if !m.IsValid() {
		return nil, fmt.Errorf("%w: %T.%s", ErrFactoryNotFound, owner, method)
	}
	if err := checkFuncResults(m); err != nil {
		return nil, fmt.Errorf("%T.%s: %w", owner, method, err)
	}
	if m.Type().NumIn() != 0 && !(m.Type().IsVariadic() && m.Type().NumIn() == 1) {
		return nil, fmt.Errorf("%w: %T.%s must take no arguments", ErrArgumentCount, owner, method)
	}
	return newInvoker(m)(nil)
}

func exportName(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}
