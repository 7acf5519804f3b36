package di

import (
	"sort"
	"sync"
)

// singletonEntry 包装缓存中的实例，按条目指针判断归属。
type singletonEntry struct {
	name     string
	instance any
}

// singletonCache 进程级单例缓存。
// 每个名称只写入一次：先提交者获胜，没有失效与淘汰。
type singletonCache struct {
	mu      sync.RWMutex
	entries map[string]*singletonEntry
}

func newSingletonCache() *singletonCache {
	return &singletonCache{
		entries: make(map[string]*singletonEntry),
	}
}

func (c *singletonCache) get(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[name]; ok {
		return e.instance, true
	}
	return nil, false
}

// commit 尝试写入实例。已有条目时返回已有条目与 false。
func (c *singletonCache) commit(name string, instance any) (*singletonEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[name]; ok {
		return e, false
	}
	e := &singletonEntry{name: name, instance: instance}
	c.entries[name] = e
	return e, true
}

// discard 撤销一次提交，仅当条目仍是 e 时生效。
func (c *singletonCache) discard(e *singletonEntry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries[e.name]; ok && cur == e {
		delete(c.entries, e.name)
		return true
	}
	return false
}

func (c *singletonCache) names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *singletonCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
