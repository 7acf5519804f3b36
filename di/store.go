package di

// DefinitionStore 保存合并后的组件定义，构造后只读，可并发读取。
type DefinitionStore struct {
	definitions map[string]*ComponentDefinition
	order       []string // 名称首次出现的顺序
}

// NewDefinitionStore 按顺序合并多个来源，同名时后面的覆盖前面的。
func NewDefinitionStore(docs ...*Document) *DefinitionStore {
	s := &DefinitionStore{
		definitions: make(map[string]*ComponentDefinition),
	}

	for _, doc := range docs {
		if doc == nil {
			continue
		}
		for _, def := range doc.Definitions {
			if def == nil || def.Name == "" {
				continue
			}
			if _, exists := s.definitions[def.Name]; !exists {
				s.order = append(s.order, def.Name)
			}
			s.definitions[def.Name] = def
		}
	}
	return s
}

// Get 按名称获取定义。
func (s *DefinitionStore) Get(name string) (*ComponentDefinition, bool) {
	def, ok := s.definitions[name]
	return def, ok
}

// Has 判断名称是否已定义。
func (s *DefinitionStore) Has(name string) bool {
	_, ok := s.definitions[name]
	return ok
}

// DefinitionsForCategory 返回 load_in 包含 category 的全部定义。
func (s *DefinitionStore) DefinitionsForCategory(category string) []*ComponentDefinition {
	var defs []*ComponentDefinition
	for _, name := range s.order {
		if def := s.definitions[name]; def.InCategory(category) {
			defs = append(defs, def)
		}
	}
	return defs
}

// Names 返回全部组件名。
func (s *DefinitionStore) Names() []string {
	names := make([]string, len(s.order))
	copy(names, s.order)
	return names
}

// Len 返回定义数量。
func (s *DefinitionStore) Len() int {
	return len(s.definitions)
}
