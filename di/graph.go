package di

import (
	"fmt"
	"sort"
	"strings"
)

// EdgeKind 依赖边的来源。
type EdgeKind string

const (
	EdgeConstruct   EdgeKind = "construct"
	EdgeProperty    EdgeKind = "property"
	EdgeFactoryBean EdgeKind = "factory-bean"
)

// Edge 表示 From 依赖 To。
type Edge struct {
	From  string   `json:"from"`
	To    string   `json:"to"`
	Kind  EdgeKind `json:"kind"`
	Field string   `json:"field,omitempty"`
}

// blocking 为 true 的边必须先得到实例才能构造 From。
func (e Edge) blocking() bool {
	return e.Kind != EdgeProperty
}

// Graph 定义之间的引用关系，只做静态分析，不构造实例。
type Graph struct {
	nodes []string
	edges map[string][]Edge
}

// NewGraph 从定义中提取引用关系。
func NewGraph(store *DefinitionStore) *Graph {
	g := &Graph{
		nodes: store.Names(),
		edges: make(map[string][]Edge, store.Len()),
	}

	for _, name := range g.nodes {
		def, _ := store.Get(name)
		var edges []Edge
		if def.UsesFactoryBean() {
			edges = append(edges, Edge{From: name, To: def.FactoryBean, Kind: EdgeFactoryBean})
		}
		// 工厂模式忽略构造参数
		if !def.IsFactory() {
			for _, p := range def.Construct {
				if p.Spec.Kind == KindReference {
					edges = append(edges, Edge{From: name, To: p.Spec.Ref, Kind: EdgeConstruct, Field: p.Name})
				}
			}
		}
		for _, p := range def.Properties {
			if p.Spec.Kind == KindReference {
				edges = append(edges, Edge{From: name, To: p.Spec.Ref, Kind: EdgeProperty, Field: p.Name})
			}
		}
		g.edges[name] = edges
	}
	return g
}

// Nodes 返回全部组件名。
func (g *Graph) Nodes() []string {
	return g.nodes
}

// Edges 返回 name 的出边。
func (g *Graph) Edges(name string) []Edge {
	return g.edges[name]
}

// Dependents 返回直接引用 name 的组件（排序后）。
func (g *Graph) Dependents(name string) []string {
	var out []string
	for _, from := range g.nodes {
		for _, e := range g.edges[from] {
			if e.To == name {
				out = append(out, from)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

// Missing 返回指向未定义组件的边。这些引用在解析时被当作缺席。
func (g *Graph) Missing() []Edge {
	var out []Edge
	for _, from := range g.nodes {
		for _, e := range g.edges[from] {
			if _, ok := g.edges[e.To]; !ok {
				out = append(out, e)
			}
		}
	}
	return out
}

// ConstructorCycle 查找只经过构造参数与工厂组件的环。
// 经过属性的环可以解析，不在此列。找到时返回环上的组件名，首尾相同。
func (g *Graph) ConstructorCycle() []string {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var stack []string
	var cycle []string

	var visit func(string) bool
	visit = func(u string) bool {
		visited[u] = true
		onStack[u] = true
		stack = append(stack, u)

		for _, e := range g.edges[u] {
			if !e.blocking() {
				continue
			}
			// 未定义的引用解析为缺席，不参与环检测
			if _, exists := g.edges[e.To]; !exists {
				continue
			}
			if !visited[e.To] {
				if visit(e.To) {
					return true
				}
			} else if onStack[e.To] {
				for i, n := range stack {
					if n == e.To {
						cycle = append(append([]string{}, stack[i:]...), e.To)
						break
					}
				}
				return true
			}
		}

		onStack[u] = false
		stack = stack[:len(stack)-1]
		return false
	}

	for _, n := range g.nodes {
		if !visited[n] && visit(n) {
			return cycle
		}
	}
	return nil
}

// Validate 静态检查定义：类型是否注册、静态工厂是否存在、是否有构造环。
// 未定义的引用不算错误。
func Validate(store *DefinitionStore, types *TypeRegistry) error {
	var problems []string

	for _, name := range store.Names() {
		def, _ := store.Get(name)
		if def.UsesFactoryBean() {
			if !store.Has(def.FactoryBean) {
				problems = append(problems, fmt.Sprintf("%s: factory bean %q is not defined", name, def.FactoryBean))
			}
			continue
		}

		desc, ok := types.Lookup(def.TypeName())
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: type %q is not registered", name, def.TypeName()))
			continue
		}
		if def.IsFactory() {
			if _, ok := desc.StaticFactory(def.FactoryMethod); !ok {
				problems = append(problems, fmt.Sprintf("%s: %s has no static factory %q", name, desc.Name, def.FactoryMethod))
			}
		}
	}

	if cycle := NewGraph(store).ConstructorCycle(); cycle != nil {
		problems = append(problems, "constructor cycle: "+strings.Join(cycle, " -> "))
	}

	if len(problems) > 0 {
		return fmt.Errorf("di: invalid definitions:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}
