package di

import (
	"fmt"
	"reflect"
)

// Get 获取组件并断言为 T。
// 第二个返回值为 false 表示组件未定义。
func Get[T any](e *Engine, name string) (T, bool, error) {
	var zero T
	inst, err := e.GetDependencyInstance(name)
	if err != nil {
		return zero, false, err
	}
	if inst == nil {
		return zero, false, nil
	}

	v, ok := inst.(T)
	if !ok {
		return zero, true, fmt.Errorf("di: component %q is %T, not %v", name, inst, reflect.TypeOf((*T)(nil)).Elem())
	}
	return v, true, nil
}

// MustGet 获取组件，未定义或失败时 panic。
func MustGet[T any](e *Engine, name string) T {
	v, ok, err := Get[T](e, name)
	if err != nil {
		panic(err)
	}
	if !ok {
		panic(fmt.Sprintf("di: component %q is not defined", name))
	}
	return v
}
