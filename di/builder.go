package di

import (
	"fmt"

	"github.com/gocrud/beans/logging"
)

// resolveOrBuild 返回命名组件的实例。第二个返回值为 false 表示组件未定义。
//
// 顺序：未定义 -> 缺席；单例缓存命中；本次调用中已开始构造（循环）；否则新建。
// 循环与缓存命中都不会重新注入属性，因此递归一定终止。
func (e *Engine) resolveOrBuild(name string, res *resolution) (any, bool, error) {
	def, ok := e.store.Get(name)
	if !ok {
		return nil, false, nil
	}

	if inst, ok := e.singletons.get(name); ok {
		e.logger.Trace("Singleton cache hit", logging.Field{Key: "component", Value: name})
		return inst, true, nil
	}

	if inst, ok := res.lookup(name); ok {
		e.logger.Trace("Cycle short-circuit", logging.Field{Key: "component", Value: name})
		return inst, true, nil
	}

	inst, err := e.build(def, res)
	if err != nil {
		return nil, false, err
	}
	return inst, true, nil
}

func (e *Engine) build(def *ComponentDefinition, res *resolution) (any, error) {
	log := e.logger.WithFields(logging.Field{Key: "component", Value: def.Name})
	log.Debug("Building component", logging.Field{Key: "type", Value: def.TypeName()})

	if res.constructing[def.Name] {
		return nil, &ConstructionError{Component: def.Name, Err: ErrConstructorCycle}
	}
	res.constructing[def.Name] = true
	inst, err := e.instantiate(def, res)
	delete(res.constructing, def.Name)
	if err != nil {
		return nil, err
	}

	if def.Singleton {
		entry, won := e.singletons.commit(def.Name, inst)
		if !won {
			log.Debug("Lost singleton race, using committed instance")
			if err := e.settle(def.Name, entry.instance, res); err != nil {
				return nil, err
			}
			return entry.instance, nil
		}
		res.committed = append(res.committed, entry)
	}

	// 属性注入之前登记，循环另一端拿到同一个对象
	if err := e.settle(def.Name, inst, res); err != nil {
		return nil, err
	}

	values, err := e.resolveAll(def.Name, def.Properties, res, true)
	if err != nil {
		return nil, err
	}
	if err := e.apply(inst, values, res); err != nil {
		return nil, fmt.Errorf("component %q: %w", def.Name, err)
	}

	log.Debug("Component built", logging.Field{Key: "singleton", Value: def.Singleton})
	return inst, nil
}

// settle 登记实例，并补上构造期间经属性引用它而延后的写入。
func (e *Engine) settle(name string, inst any, res *resolution) error {
	res.register(name, inst)
	for _, w := range res.takeDeferred(name) {
		if err := e.writer.SetField(w.target, w.field, inst); err != nil {
			return fmt.Errorf("component %q: %w", name, err)
		}
	}
	return nil
}

// instantiate 通过工厂或构造函数得到新实例。
func (e *Engine) instantiate(def *ComponentDefinition, res *resolution) (any, error) {
	fail := func(err error) error {
		return &ConstructionError{Component: def.Name, Err: err}
	}

	if def.FactoryBean != "" && !def.IsFactory() {
		e.logger.Debug("factory-bean ignored without factory-method",
			logging.Field{Key: "component", Value: def.Name},
			logging.Field{Key: "factory_bean", Value: def.FactoryBean})
	}

	if def.IsFactory() {
		if def.UsesFactoryBean() {
			owner, ok, err := e.resolveOrBuild(def.FactoryBean, res)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fail(fmt.Errorf("%w: factory bean %q is not defined", ErrFactoryNotFound, def.FactoryBean))
			}
			inst, err := callMethod(owner, def.FactoryMethod)
			if err != nil {
				return nil, fail(err)
			}
			return inst, nil
		}

		desc, ok := e.types.Lookup(def.TypeName())
		if !ok {
			return nil, fail(fmt.Errorf("%w: %s", ErrUnknownType, def.TypeName()))
		}
		inst, err := desc.callStatic(def.FactoryMethod)
		if err != nil {
			return nil, fail(err)
		}
		return inst, nil
	}

	desc, ok := e.types.Lookup(def.TypeName())
	if !ok {
		return nil, fail(fmt.Errorf("%w: %s", ErrUnknownType, def.TypeName()))
	}

	values, err := e.resolveAll(def.Name, def.Construct, res, false)
	if err != nil {
		return nil, err
	}
	args := make([]argument, len(values))
	for i, v := range values {
		args[i] = argument{Value: v.Value, Present: v.Present}
	}

	inst, err := desc.construct(args)
	if err != nil {
		return nil, fail(err)
	}
	return inst, nil
}
