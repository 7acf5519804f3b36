package di

import (
	"github.com/gocrud/beans/logging"
)

// resolved 是 resolveAll 的一项结果。Present 为 false 表示引用未定义（缺席），
// 与值为 nil 的字面量区分开。Pending 表示引用的组件仍在解析构造参数，写入需延后。
type resolved struct {
	Name    string
	Value   any
	Present bool
	Pending bool
	Ref     string
}

// resolve 解析单个规格：引用交给 resolveOrBuild，字面量做严格类型转换。
func (e *Engine) resolve(component string, p Property, res *resolution) (any, bool, error) {
	if p.Spec.Kind == KindReference {
		return e.resolveOrBuild(p.Spec.Ref, res)
	}

	v, err := coerce(p.Spec.Type, p.Spec.Value)
	if err != nil {
		return nil, false, &CoercionError{
			Component: component,
			Property:  p.Name,
			Type:      p.Spec.Type,
			Value:     p.Spec.Value,
			Err:       err,
		}
	}
	return v, true, nil
}

// resolveAll 按声明顺序解析，前面的引用构造结果会进入 inFlight 供后面的规格复用。
// deferrable 为 true（属性）时，引用到尚在构造中的组件得到 Pending 结果而不是构造环错误。
func (e *Engine) resolveAll(component string, props []Property, res *resolution, deferrable bool) ([]resolved, error) {
	out := make([]resolved, 0, len(props))
	for _, p := range props {
		if deferrable && p.Spec.Kind == KindReference && res.constructing[p.Spec.Ref] {
			out = append(out, resolved{Name: p.Name, Pending: true, Ref: p.Spec.Ref})
			continue
		}

		v, ok, err := e.resolve(component, p, res)
		if err != nil {
			return nil, err
		}
		if !ok {
			e.logger.Debug("Reference to undefined component left unset",
				logging.Field{Key: "component", Value: component},
				logging.Field{Key: "property", Value: p.Name},
				logging.Field{Key: "ref", Value: p.Spec.Ref})
		}
		out = append(out, resolved{Name: p.Name, Value: v, Present: ok})
	}
	return out, nil
}

// apply 把已解析的值写入目标，缺席的值跳过，Pending 的值排队等待。
func (e *Engine) apply(target any, values []resolved, res *resolution) error {
	for _, v := range values {
		if v.Pending {
			res.deferWrite(target, v.Name, v.Ref)
			continue
		}
		if !v.Present {
			continue
		}
		if err := e.writer.SetField(target, v.Name, v.Value); err != nil {
			return err
		}
	}
	return nil
}
