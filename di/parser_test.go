package di

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseDocument(t *testing.T) {
	src := `
mailer:
  class: services/mail/Mailer
  namespace: app
  singleton: "true"
  construct:
    - {value: smtp.local}
    - {value: "25", type: int}
    - {ref: clock}
  properties:
    zeta: {value: "1", type: integer}
    alpha: {ref: transport}
    tags: {value: [a, b], type: array}
  load_in: "controller, cli ,controller"
clock:
  class: Clock
  singleton: "false"
`
	doc, err := ParseDocument("mail.yaml", []byte(src))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	if len(doc.Definitions) != 2 || doc.Source != "mail.yaml" {
		t.Fatalf("unexpected document: %+v", doc)
	}

	m := doc.Definitions[0]
	if m.Name != "mailer" || m.TypeName() != "app.Mailer" || !m.Singleton {
		t.Errorf("unexpected definition header: %+v", m)
	}

	wantConstruct := []Property{
		{Name: "0", Spec: Literal(TypeString, "smtp.local")},
		{Name: "1", Spec: Literal(TypeInt, "25")},
		{Name: "2", Spec: Ref("clock")},
	}
	if !reflect.DeepEqual(m.Construct, wantConstruct) {
		t.Errorf("construct = %v, want %v", m.Construct, wantConstruct)
	}

	// 属性保持声明顺序
	var names []string
	for _, p := range m.Properties {
		names = append(names, p.Name)
	}
	if !reflect.DeepEqual(names, []string{"zeta", "alpha", "tags"}) {
		t.Errorf("property order = %v", names)
	}
	if got := m.Properties[2].Spec.Value; !reflect.DeepEqual(got, []any{"a", "b"}) {
		t.Errorf("array value = %#v", got)
	}
	if m.Properties[0].Spec.Type != "integer" {
		t.Errorf("type alias should be kept for coercion, got %q", m.Properties[0].Spec.Type)
	}

	if !reflect.DeepEqual(m.LoadIn, []string{"controller", "cli"}) {
		t.Errorf("load_in = %v", m.LoadIn)
	}
	if !m.InCategory("cli") || m.InCategory("worker") {
		t.Error("InCategory mismatch")
	}

	if doc.Definitions[1].Singleton {
		t.Error("only \"true\" and \"TRUE\" enable singleton")
	}
}

func TestParseDocumentJSON(t *testing.T) {
	src := `{
  "repo": {
    "class": "store/Repo",
    "construct": {"dsn": {"value": "file::memory:"}},
    "properties": {"size": {"value": 10, "type": "int"}},
    "load_in": ["cli"]
  }
}`
	doc, err := ParseDocument("repo.json", []byte(src))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	def := doc.Definitions[0]
	if def.Construct[0].Name != "dsn" || def.Construct[0].Spec.Value != "file::memory:" {
		t.Errorf("construct mapping = %v", def.Construct)
	}
	if def.Properties[0].Spec.Value != "10" {
		t.Errorf("scalar values keep raw text, got %#v", def.Properties[0].Spec.Value)
	}
	if !reflect.DeepEqual(def.LoadIn, []string{"cli"}) {
		t.Errorf("load_in = %v", def.LoadIn)
	}
}

func TestParseDocumentEmpty(t *testing.T) {
	for _, src := range []string{"", "# nothing\n", "~"} {
		doc, err := ParseDocument("empty", []byte(src))
		if err != nil {
			t.Fatalf("ParseDocument(%q) failed: %v", src, err)
		}
		if len(doc.Definitions) != 0 {
			t.Errorf("ParseDocument(%q) = %d definitions", src, len(doc.Definitions))
		}
	}
}

func TestParseDocumentRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"top level list", "- a\n- b\n"},
		{"definition scalar", "a: Foo\n"},
		{"missing class", "a: {singleton: \"true\"}\n"},
		{"spec without value", "a: {class: Foo, properties: {x: {type: int}}}\n"},
		{"spec scalar", "a: {class: Foo, properties: {x: 3}}\n"},
		{"properties sequence", "a: {class: Foo, properties: [{value: 1}]}\n"},
		{"empty ref", "a: {class: Foo, properties: {x: {ref: \"\"}}}\n"},
		{"load_in mapping", "a: {class: Foo, load_in: {x: y}}\n"},
		{"syntax", "a: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument("bad.yaml", []byte(tt.src))
			var ide *InvalidDefinitionError
			if !errors.As(err, &ide) {
				t.Fatalf("expected InvalidDefinitionError, got %v", err)
			}
			if ide.Source != "bad.yaml" {
				t.Errorf("source = %q", ide.Source)
			}
		})
	}
}

func TestParseDefinition(t *testing.T) {
	def, err := ParseDefinition("etcd", "cache", []byte("class: cache/Redis\nsingleton: TRUE\nfactory-bean: pool\nfactory-method: open\n"))
	if err != nil {
		t.Fatalf("ParseDefinition failed: %v", err)
	}
	if def.Name != "cache" || !def.Singleton || !def.IsFactory() || def.FactoryBean != "pool" {
		t.Errorf("unexpected definition: %+v", def)
	}

	// 没有 factory-method 时 factory-bean 保留但不生效
	def, err = ParseDefinition("etcd", "plain", []byte("class: X\nfactory-bean: pool\n"))
	if err != nil {
		t.Fatalf("factory-bean without method should parse: %v", err)
	}
	if def.IsFactory() || def.UsesFactoryBean() {
		t.Errorf("factory-bean without method must not switch to factory mode: %+v", def)
	}

	_, err = ParseDefinition("etcd", "", []byte("class: X"))
	if err == nil {
		t.Error("empty name should be rejected")
	}
}

func TestParseDocumentAliases(t *testing.T) {
	src := `
base: &port {value: "8080", type: int}
web:
  class: Server
  properties:
    port: *port
`
	// base 缺少 class，别名只应在合法文档中使用
	if _, err := ParseDocument("a.yaml", []byte(src)); err == nil {
		t.Fatal("expected base to be rejected")
	}

	src = `
web:
  class: Server
  properties:
    port: &port {value: "8080", type: int}
    admin: *port
`
	doc, err := ParseDocument("a.yaml", []byte(src))
	if err != nil {
		t.Fatalf("ParseDocument failed: %v", err)
	}
	props := doc.Definitions[0].Properties
	if props[1].Spec != props[0].Spec {
		t.Errorf("alias not resolved: %v vs %v", props[1].Spec, props[0].Spec)
	}
}
