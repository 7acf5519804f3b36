package di

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// 定义文件中支持的键。
const (
	keyClass         = "class"
	keyNamespace     = "namespace"
	keySingleton     = "singleton"
	keyFactoryMethod = "factory-method"
	keyFactoryBean   = "factory-bean"
	keyConstruct     = "construct"
	keyProperties    = "properties"
	keyLoadIn        = "load_in"

	keyRef   = "ref"
	keyValue = "value"
	keyType  = "type"
)

// ParseDocument 解析 YAML（JSON 亦可，通过 YAML 解析器兼容）格式的定义文件。
// 顶层是 组件名 -> 定义 的映射；construct 与 properties 保持声明顺序。
//
//	mailer:
//	  class: services/Mailer
//	  singleton: "true"
//	  construct:
//	    - {value: "smtp.local", type: string}
//	  properties:
//	    transport: {ref: smtp}
func ParseDocument(source string, data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &InvalidDefinitionError{Source: source, Reason: err.Error()}
	}

	doc := &Document{Source: source}
	node := unwrap(&root)
	if node == nil || isNull(node) {
		return doc, nil // 空文件
	}
	if node.Kind != yaml.MappingNode {
		return nil, &InvalidDefinitionError{Source: source, Reason: "top level must be a mapping of component name to definition"}
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		def, err := decodeDefinition(source, name, node.Content[i+1])
		if err != nil {
			return nil, err
		}
		doc.Definitions = append(doc.Definitions, def)
	}
	return doc, nil
}

// ParseDefinition 解析单个组件的定义体（远程来源按组件逐条存储时使用）。
func ParseDefinition(source, name string, data []byte) (*ComponentDefinition, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &InvalidDefinitionError{Source: source, Component: name, Reason: err.Error()}
	}
	return decodeDefinition(source, name, unwrap(&root))
}

func decodeDefinition(source, name string, node *yaml.Node) (*ComponentDefinition, error) {
	invalid := func(format string, args ...any) error {
		return &InvalidDefinitionError{Source: source, Component: name, Reason: fmt.Sprintf(format, args...)}
	}

	if name == "" {
		return nil, invalid("empty component name")
	}
	node = unwrap(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return nil, invalid("definition must be a mapping")
	}

	def := &ComponentDefinition{Name: name}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := unwrap(node.Content[i+1])

		var err error
		switch key {
		case keyClass:
			def.Class, err = scalar(val)
		case keyNamespace:
			def.Namespace, err = scalar(val)
		case keySingleton:
			var s string
			s, err = scalar(val)
			def.Singleton = s == "true" || s == "TRUE"
		case keyFactoryMethod:
			def.FactoryMethod, err = scalar(val)
		case keyFactoryBean:
			def.FactoryBean, err = scalar(val)
		case keyConstruct:
			def.Construct, err = decodeProperties(val, true)
		case keyProperties:
			def.Properties, err = decodeProperties(val, false)
		case keyLoadIn:
			def.LoadIn, err = decodeCategories(val)
		default:
			// 未识别的键忽略，便于在定义中携带注释性数据
		}
		if err != nil {
			return nil, invalid("%s: %v", key, err)
		}
	}

	if def.Class == "" {
		return nil, invalid("missing %q", keyClass)
	}
	return def, nil
}

// decodeProperties 解析有序规格列表。构造参数允许使用序列，属性必须是映射。
func decodeProperties(node *yaml.Node, allowSequence bool) ([]Property, error) {
	if node == nil || isNull(node) {
		return nil, nil
	}

	switch node.Kind {
	case yaml.MappingNode:
		props := make([]Property, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			name := node.Content[i].Value
			spec, err := decodeSpec(node.Content[i+1])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			props = append(props, Property{Name: name, Spec: spec})
		}
		return props, nil

	case yaml.SequenceNode:
		if !allowSequence {
			return nil, fmt.Errorf("expected a mapping")
		}
		props := make([]Property, 0, len(node.Content))
		for i, item := range node.Content {
			spec, err := decodeSpec(item)
			if err != nil {
				return nil, fmt.Errorf("#%d: %w", i, err)
			}
			props = append(props, Property{Name: strconv.Itoa(i), Spec: spec})
		}
		return props, nil
	}
	return nil, fmt.Errorf("expected a mapping or sequence")
}

func decodeSpec(node *yaml.Node) (PropertySpec, error) {
	node = unwrap(node)
	if node == nil || node.Kind != yaml.MappingNode {
		return PropertySpec{}, fmt.Errorf("spec must be {ref: name} or {value: raw, type: t}")
	}

	var refNode, valueNode, typeNode *yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		switch node.Content[i].Value {
		case keyRef:
			refNode = unwrap(node.Content[i+1])
		case keyValue:
			valueNode = unwrap(node.Content[i+1])
		case keyType:
			typeNode = unwrap(node.Content[i+1])
		}
	}

	if refNode != nil {
		ref, err := scalar(refNode)
		if err != nil || ref == "" {
			return PropertySpec{}, fmt.Errorf("ref must be a component name")
		}
		return Ref(ref), nil
	}
	if valueNode == nil {
		return PropertySpec{}, fmt.Errorf("spec has neither %q nor %q", keyRef, keyValue)
	}

	typ := TypeString
	if typeNode != nil {
		t, err := scalar(typeNode)
		if err != nil {
			return PropertySpec{}, fmt.Errorf("type: %w", err)
		}
		if t != "" {
			typ = strings.ToLower(t)
		}
	}

	// 标量保持原始文本，由解析阶段做严格转换；结构化值原样解码
	if valueNode.Kind == yaml.ScalarNode {
		if typ == TypeArray {
			var raw any
			if err := valueNode.Decode(&raw); err != nil {
				return PropertySpec{}, err
			}
			return Literal(typ, raw), nil
		}
		return Literal(typ, valueNode.Value), nil
	}

	var raw any
	if err := valueNode.Decode(&raw); err != nil {
		return PropertySpec{}, err
	}
	return Literal(typ, raw), nil
}

func decodeCategories(node *yaml.Node) ([]string, error) {
	if node == nil || isNull(node) {
		return nil, nil
	}

	var parts []string
	switch node.Kind {
	case yaml.ScalarNode:
		parts = strings.Split(node.Value, ",")
	case yaml.SequenceNode:
		for _, item := range node.Content {
			s, err := scalar(unwrap(item))
			if err != nil {
				return nil, err
			}
			parts = append(parts, s)
		}
	default:
		return nil, fmt.Errorf("expected a comma separated string or a sequence")
	}

	seen := make(map[string]struct{}, len(parts))
	categories := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		categories = append(categories, p)
	}
	return categories, nil
}

// unwrap 跳过文档节点与别名。
func unwrap(node *yaml.Node) *yaml.Node {
	for node != nil {
		switch node.Kind {
		case yaml.DocumentNode:
			if len(node.Content) == 0 {
				return nil
			}
			node = node.Content[0]
		case yaml.AliasNode:
			node = node.Alias
		case 0:
			return nil // 空输入
		default:
			return node
		}
	}
	return nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}

func scalar(node *yaml.Node) (string, error) {
	if node == nil || isNull(node) {
		return "", nil
	}
	if node.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("expected a scalar")
	}
	return node.Value, nil
}
