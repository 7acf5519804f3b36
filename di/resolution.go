package di

// resolution 是一次顶层调用的临时状态，不跨 goroutine 共享。
//
// inFlight 记录本次调用中已开始构造的实例（名称 -> 实例），
// 实例在属性注入之前写入，循环引用的另一端因此拿到的是同一个对象。
// constructing 记录正在解析构造参数、尚无实例的组件，用于发现无法满足的构造环。
// 经属性引用到这类组件时不报错，写入排队到 deferred，等实例登记后再补上。
type resolution struct {
	inFlight     map[string]any
	constructing map[string]bool
	committed    []*singletonEntry
	deferred     []deferredWrite
}

// deferredWrite 等待组件 ref 得到实例后写入 target.field
type deferredWrite struct {
	target any
	field  string
	ref    string
}

func newResolution() *resolution {
	return &resolution{
		inFlight:     make(map[string]any),
		constructing: make(map[string]bool),
	}
}

func (r *resolution) lookup(name string) (any, bool) {
	inst, ok := r.inFlight[name]
	return inst, ok
}

func (r *resolution) register(name string, instance any) {
	r.inFlight[name] = instance
}

func (r *resolution) deferWrite(target any, field, ref string) {
	r.deferred = append(r.deferred, deferredWrite{target: target, field: field, ref: ref})
}

// takeDeferred 取出等待 name 的写入，保持排队顺序
func (r *resolution) takeDeferred(name string) []deferredWrite {
	var taken []deferredWrite
	kept := r.deferred[:0]
	for _, w := range r.deferred {
		if w.ref == name {
			taken = append(taken, w)
		} else {
			kept = append(kept, w)
		}
	}
	r.deferred = kept
	return taken
}

// rollback 撤销本次调用提交的全部单例，避免缓存半成品。
func (r *resolution) rollback(cache *singletonCache) int {
	n := 0
	for i := len(r.committed) - 1; i >= 0; i-- {
		if cache.discard(r.committed[i]) {
			n++
		}
	}
	r.committed = nil
	return n
}
