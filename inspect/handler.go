package inspect

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/beans/di"
	"github.com/gocrud/beans/logging"
)

// Handler 以只读方式暴露引擎的定义、单例状态与依赖图。
// POST /instances/:name 会真正解析组件，可能构造并缓存单例。
type Handler struct {
	engine *di.Engine
	logger logging.Logger
}

// NewHandler 创建检查接口
func NewHandler(engine *di.Engine, logger logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Handler{
		engine: engine,
		logger: logger.WithCategory("inspect"),
	}
}

// MountRoutes 注册路由
func (h *Handler) MountRoutes(router gin.IRouter) {
	router.GET("/definitions", h.listDefinitions)
	router.GET("/definitions/:name", h.getDefinition)
	router.GET("/singletons", h.listSingletons)
	router.GET("/graph", h.graph)
	router.POST("/instances/:name", h.resolveInstance)
}

type specView struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Type  string `json:"type,omitempty"`
	Value any    `json:"value,omitempty"`
	Ref   string `json:"ref,omitempty"`
}

type definitionView struct {
	Name          string     `json:"name"`
	Class         string     `json:"class"`
	Namespace     string     `json:"namespace,omitempty"`
	TypeName      string     `json:"typeName"`
	Registered    bool       `json:"registered"`
	Singleton     bool       `json:"singleton"`
	Built         bool       `json:"built"`
	FactoryMethod string     `json:"factoryMethod,omitempty"`
	FactoryBean   string     `json:"factoryBean,omitempty"`
	Construct     []specView `json:"construct,omitempty"`
	Properties    []specView `json:"properties,omitempty"`
	LoadIn        []string   `json:"loadIn,omitempty"`
}

type graphView struct {
	Nodes            []string  `json:"nodes"`
	Edges            []di.Edge `json:"edges"`
	Missing          []di.Edge `json:"missing"`
	ConstructorCycle []string  `json:"constructorCycle,omitempty"`
	Valid            bool      `json:"valid"`
	Problems         string    `json:"problems,omitempty"`
}

type instanceView struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Singleton bool   `json:"singleton"`
}

func (h *Handler) view(def *di.ComponentDefinition) definitionView {
	_, registered := h.engine.Types().Lookup(def.TypeName())
	return definitionView{
		Name:          def.Name,
		Class:         def.Class,
		Namespace:     def.Namespace,
		TypeName:      def.TypeName(),
		Registered:    registered,
		Singleton:     def.Singleton,
		Built:         def.Singleton && h.engine.IsSingletonBuilt(def.Name),
		FactoryMethod: def.FactoryMethod,
		FactoryBean:   def.FactoryBean,
		Construct:     specViews(def.Construct),
		Properties:    specViews(def.Properties),
		LoadIn:        def.LoadIn,
	}
}

func specViews(props []di.Property) []specView {
	out := make([]specView, 0, len(props))
	for _, p := range props {
		v := specView{Name: p.Name, Kind: p.Spec.Kind.String()}
		if p.Spec.Kind == di.KindReference {
			v.Ref = p.Spec.Ref
		} else {
			v.Type = p.Spec.Type
			v.Value = p.Spec.Value
		}
		out = append(out, v)
	}
	return out
}

func (h *Handler) listDefinitions(c *gin.Context) {
	store := h.engine.Definitions()
	var defs []*di.ComponentDefinition
	if category := c.Query("category"); category != "" {
		defs = store.DefinitionsForCategory(category)
	} else {
		for _, name := range store.Names() {
			def, _ := store.Get(name)
			defs = append(defs, def)
		}
	}

	out := make([]definitionView, 0, len(defs))
	for _, def := range defs {
		out = append(out, h.view(def))
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) getDefinition(c *gin.Context) {
	def, ok := h.engine.Definitions().Get(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "component not defined"})
		return
	}
	c.JSON(http.StatusOK, h.view(def))
}

func (h *Handler) listSingletons(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"singletons": h.engine.Singletons()})
}

func (h *Handler) graph(c *gin.Context) {
	store := h.engine.Definitions()
	g := di.NewGraph(store)

	out := graphView{
		Nodes:            g.Nodes(),
		Edges:            []di.Edge{},
		Missing:          g.Missing(),
		ConstructorCycle: g.ConstructorCycle(),
		Valid:            true,
	}
	for _, n := range out.Nodes {
		out.Edges = append(out.Edges, g.Edges(n)...)
	}
	if out.Missing == nil {
		out.Missing = []di.Edge{}
	}
	if err := di.Validate(store, h.engine.Types()); err != nil {
		out.Valid = false
		out.Problems = err.Error()
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) resolveInstance(c *gin.Context) {
	name := c.Param("name")
	def, ok := h.engine.Definitions().Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "component not defined"})
		return
	}

	inst, err := h.engine.GetDependencyInstance(name)
	if err != nil {
		h.logger.Warn("Failed to resolve component",
			logging.Field{Key: "component", Value: name},
			logging.Field{Key: "error", Value: err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info("Component resolved", logging.Field{Key: "component", Value: name})
	c.JSON(http.StatusOK, instanceView{
		Name:      name,
		Type:      fmt.Sprintf("%T", inst),
		Singleton: def.Singleton,
	})
}
