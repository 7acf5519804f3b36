package di

import (
	"reflect"
	"testing"
)

func TestDefinitionStoreMerge(t *testing.T) {
	base := NewDocument("base",
		&ComponentDefinition{Name: "db", Class: "Sqlite", LoadIn: []string{"repo"}},
		&ComponentDefinition{Name: "cache", Class: "Memory"},
	)
	override := NewDocument("override",
		&ComponentDefinition{Name: "cache", Class: "Redis", LoadIn: []string{"repo"}},
		&ComponentDefinition{Name: "mail", Class: "Smtp"},
	)

	s := NewDefinitionStore(base, nil, override)

	if s.Len() != 3 {
		t.Fatalf("Len() = %d", s.Len())
	}
	if !reflect.DeepEqual(s.Names(), []string{"db", "cache", "mail"}) {
		t.Errorf("Names() = %v", s.Names())
	}
	if def, _ := s.Get("cache"); def.Class != "Redis" {
		t.Errorf("later source should win, got %s", def.Class)
	}
	if _, ok := s.Get("missing"); ok || s.Has("missing") {
		t.Error("unexpected definition")
	}

	var names []string
	for _, def := range s.DefinitionsForCategory("repo") {
		names = append(names, def.Name)
	}
	if !reflect.DeepEqual(names, []string{"db", "cache"}) {
		t.Errorf("DefinitionsForCategory(repo) = %v", names)
	}
	if got := s.DefinitionsForCategory("none"); len(got) != 0 {
		t.Errorf("unexpected members %v", got)
	}
}

func TestTypeNameAndRegistry(t *testing.T) {
	def := &ComponentDefinition{Class: "services/mail/Mailer"}
	if def.TypeName() != "Mailer" {
		t.Errorf("TypeName() = %s", def.TypeName())
	}
	def.Namespace = "app"
	if def.TypeName() != "app.Mailer" {
		t.Errorf("TypeName() = %s", def.TypeName())
	}

	r := NewTypeRegistry()
	if err := RegisterType[*validated](r, "B"); err != nil {
		t.Fatal(err)
	}
	if err := RegisterType[validated](r, "A"); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(r.Names(), []string{"A", "B"}) {
		t.Errorf("Names() = %v", r.Names())
	}

	// 值类型同样创建为指针，便于写入属性
	desc, _ := r.Lookup("A")
	inst, err := desc.construct(nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := inst.(*validated); !ok {
		t.Errorf("construct() = %T", inst)
	}

	if err := RegisterType[error](r, "E"); err == nil {
		t.Error("interface types need a constructor")
	}
	if err := RegisterType[*validated](r, "C", WithConstructor(func() string { return "" })); err == nil {
		t.Error("constructor result must match the type")
	}
	if err := RegisterType[*validated](r, "D", WithConstructor(func() (*validated, int) { return nil, 0 })); err == nil {
		t.Error("second result must be error")
	}
	if err := RegisterType[*validated](r, "F", WithStaticFactory("make", func(int) *validated { return nil })); err == nil {
		t.Error("static factories take no arguments")
	}
	if err := RegisterType[*validated](r, "G", WithConstructor("not a func")); err == nil {
		t.Error("constructor must be a function")
	}
}

func TestVariadicConstructor(t *testing.T) {
	r := NewTypeRegistry()
	err := RegisterType[[]string](r, "List", WithConstructor(func(prefix string, items ...string) []string {
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, prefix+it)
		}
		return out
	}))
	if err != nil {
		t.Fatal(err)
	}

	desc, _ := r.Lookup("List")
	got, err := desc.construct([]argument{{Value: "x-", Present: true}, {Value: "a", Present: true}, {Value: "b", Present: true}})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"x-a", "x-b"}) {
		t.Errorf("construct() = %v", got)
	}

	if _, err := desc.construct(nil); err == nil {
		t.Error("missing fixed argument should fail")
	}
}
