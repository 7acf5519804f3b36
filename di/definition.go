package di

import (
	"fmt"
	"strings"
)

// SpecKind 区分属性规格的两种形态。
type SpecKind int

const (
	// KindLiteral 字面量，解析时按声明类型转换。
	KindLiteral SpecKind = iota
	// KindReference 引用另一个命名组件。
	KindReference
)

func (k SpecKind) String() string {
	if k == KindReference {
		return "reference"
	}
	return "literal"
}

// 字面量声明类型。
const (
	TypeString = "string"
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeBool   = "bool"
	TypeArray  = "array"
	TypeNull   = "null"
)

// PropertySpec 描述一个构造参数或属性的取值方式。
//
// 字面量: {value: <raw>, type: <string|int|float|bool|array|null>}
// 引用:   {ref: <componentName>}
type PropertySpec struct {
	Kind  SpecKind
	Type  string // 仅字面量
	Value any    // 仅字面量，通常是字符串；array 类型为结构化值
	Ref   string // 仅引用
}

// Ref 创建引用规格。
func Ref(name string) PropertySpec {
	return PropertySpec{Kind: KindReference, Ref: name}
}

// Literal 创建字面量规格。
func Literal(typ string, raw any) PropertySpec {
	return PropertySpec{Kind: KindLiteral, Type: typ, Value: raw}
}

func (s PropertySpec) String() string {
	if s.Kind == KindReference {
		return "ref:" + s.Ref
	}
	return fmt.Sprintf("%s:%v", s.Type, s.Value)
}

// Property 是有序映射中的一项：名称 + 规格。
// 构造参数同样使用 Property，名称只用于诊断。
type Property struct {
	Name string
	Spec PropertySpec
}

// ComponentDefinition 组件定义，加载后不可变。
type ComponentDefinition struct {
	Name          string
	Class         string // 类型路径，取最后一段作为类型名
	Namespace     string
	Singleton     bool
	FactoryMethod string
	FactoryBean   string // 为空时使用类型自身的静态工厂
	Construct     []Property
	Properties    []Property
	LoadIn        []string // 自动注入的目标类别
}

// TypeName 返回在 TypeRegistry 中查找的类型名。
//
//	class: "services/mail/Mailer", namespace: ""    -> "Mailer"
//	class: "services/mail/Mailer", namespace: "app" -> "app.Mailer"
func (d *ComponentDefinition) TypeName() string {
	class := d.Class
	if i := strings.LastIndex(class, "/"); i >= 0 {
		class = class[i+1:]
	}
	if d.Namespace != "" {
		return d.Namespace + "." + class
	}
	return class
}

// IsFactory 是否以工厂方法构造。
func (d *ComponentDefinition) IsFactory() bool {
	return d.FactoryMethod != ""
}

// UsesFactoryBean 是否由另一个组件的方法生产。没有 factory-method 时 factory-bean 被忽略。
func (d *ComponentDefinition) UsesFactoryBean() bool {
	return d.IsFactory() && d.FactoryBean != ""
}

// InCategory 判断定义是否声明了指定的自动注入类别。
func (d *ComponentDefinition) InCategory(category string) bool {
	for _, c := range d.LoadIn {
		if c == category {
			return true
		}
	}
	return false
}

// Document 是一个定义来源解析后的结果，保持声明顺序。
type Document struct {
	Source      string
	Definitions []*ComponentDefinition
}

// NewDocument 用 Go 代码直接声明定义（内存来源）。
func NewDocument(source string, defs ...*ComponentDefinition) *Document {
	return &Document{Source: source, Definitions: defs}
}
