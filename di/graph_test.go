package di

import (
	"reflect"
	"strings"
	"testing"
)

func mustStore(t *testing.T, src string) *DefinitionStore {
	t.Helper()
	doc, err := ParseDocument("graph.yaml", []byte(src))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	return NewDefinitionStore(doc)
}

func TestGraphEdges(t *testing.T) {
	g := NewGraph(mustStore(t, `
a:
  class: A
  construct: [{ref: b}, {value: x}]
  properties: {peer: {ref: c}, ghost: {ref: missing}}
b: {class: B, properties: {back: {ref: a}}}
c: {class: C, factory-bean: b, factory-method: make, construct: [{ref: a}]}
`))

	want := []Edge{
		{From: "a", To: "b", Kind: EdgeConstruct, Field: "0"},
		{From: "a", To: "c", Kind: EdgeProperty, Field: "peer"},
		{From: "a", To: "missing", Kind: EdgeProperty, Field: "ghost"},
	}
	if got := g.Edges("a"); !reflect.DeepEqual(got, want) {
		t.Errorf("Edges(a) = %v", got)
	}

	// 工厂模式忽略构造参数
	if got := g.Edges("c"); len(got) != 1 || got[0].Kind != EdgeFactoryBean {
		t.Errorf("Edges(c) = %v", got)
	}

	if got := g.Dependents("b"); !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Errorf("Dependents(b) = %v", got)
	}
	if got := g.Missing(); len(got) != 1 || got[0].To != "missing" {
		t.Errorf("Missing() = %v", got)
	}

	// a -> b 是构造边，b -> a 是属性边，可以解析
	if cycle := g.ConstructorCycle(); cycle != nil {
		t.Errorf("unexpected constructor cycle %v", cycle)
	}
}

func TestGraphConstructorCycle(t *testing.T) {
	g := NewGraph(mustStore(t, `
a: {class: A, construct: [{ref: b}]}
b: {class: B, factory-bean: c, factory-method: make}
c: {class: C, construct: [{ref: a}]}
d: {class: D, construct: [{ref: a}]}
`))

	cycle := g.ConstructorCycle()
	if len(cycle) != 4 || cycle[0] != cycle[len(cycle)-1] {
		t.Fatalf("ConstructorCycle() = %v", cycle)
	}
	if joined := strings.Join(cycle, ">"); joined != "a>b>c>a" {
		t.Errorf("cycle = %s", joined)
	}
}

type validated struct{}

func TestValidate(t *testing.T) {
	types := NewTypeRegistry()
	if err := RegisterType[*validated](types, "Known", WithStaticFactory("make", func() *validated { return &validated{} })); err != nil {
		t.Fatal(err)
	}

	ok := mustStore(t, `
a: {class: x/Known, properties: {p: {ref: undefined}}}
b: {class: Known, factory-method: make}
c: {class: Unregistered, factory-bean: a, factory-method: anything}
`)
	if err := Validate(ok, types); err != nil {
		t.Errorf("Validate failed: %v", err)
	}

	bad := mustStore(t, `
a: {class: Unknown}
b: {class: Known, factory-method: missing}
c: {class: Known, factory-bean: nobody, factory-method: make}
d: {class: Known, construct: [{ref: e}]}
e: {class: Known, construct: [{ref: d}]}
`)
	err := Validate(bad, types)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{`"Unknown" is not registered`, `no static factory "missing"`, `"nobody" is not defined`, "constructor cycle: d -> e -> d"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}
