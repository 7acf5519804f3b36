package di

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrUnknownType 定义引用的类型未在 TypeRegistry 中注册。
	ErrUnknownType = errors.New("di: type not registered")
	// ErrFactoryNotFound 找不到声明的工厂方法。
	ErrFactoryNotFound = errors.New("di: factory method not found")
	// ErrArgumentCount 构造参数个数与构造函数不匹配。
	ErrArgumentCount = errors.New("di: constructor argument count mismatch")
	// ErrNilInstance 构造函数或工厂返回了 nil。
	ErrNilInstance = errors.New("di: constructor returned nil instance")
	// ErrNoSuchField 目标对象上不存在该字段。
	ErrNoSuchField = errors.New("di: no such field")
	// ErrNilTarget 注入目标为 nil。
	ErrNilTarget = errors.New("di: nil injection target")
	// ErrUnknownLiteralType 字面量声明了不支持的类型。
	ErrUnknownLiteralType = errors.New("di: unknown literal type")
	// ErrConstructorCycle 构造参数或工厂组件形成环，无法先得到实例。
	ErrConstructorCycle = errors.New("di: dependency cycle through constructor arguments")
)

// CoercionError 字面量无法转换为声明类型，属于配置错误。
type CoercionError struct {
	Component string // 为空表示来自 InjectProperties
	Property  string
	Type      string
	Value     any
	Err       error
}

func (e *CoercionError) Error() string {
	where := e.Property
	if e.Component != "" {
		where = e.Component + "." + e.Property
	}
	return fmt.Sprintf("di: cannot coerce %s value %#v to %s: %v", where, e.Value, e.Type, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }

// ConstructionError 组件无法被实例化（构造函数或工厂失败）。
type ConstructionError struct {
	Component string
	Err       error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("di: cannot construct component %q: %v", e.Component, e.Err)
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// FieldError 字段写入失败。
type FieldError struct {
	Field  string
	Target reflect.Type
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("di: cannot set field %q on %v: %v", e.Field, e.Target, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// InvalidDefinitionError 定义文本格式错误。
type InvalidDefinitionError struct {
	Source    string
	Component string
	Reason    string
}

func (e *InvalidDefinitionError) Error() string {
	if e.Component == "" {
		return fmt.Sprintf("di: invalid definitions in %s: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("di: invalid definition %q in %s: %s", e.Component, e.Source, e.Reason)
}
