package service

import (
	"strings"
	"sync"
)

// SkillResolution 技能名解析结果；Missing 为负缓存标记
type SkillResolution struct {
	ID      string
	Missing bool
}

// SkillResolutionCache 技能名 -> CMS 标识的进程内缓存（大小写不敏感）
type SkillResolutionCache struct {
	mu      sync.Mutex
	entries map[string]SkillResolution
}

func NewSkillResolutionCache() *SkillResolutionCache {
	return &SkillResolutionCache{entries: make(map[string]SkillResolution)}
}

func resolutionKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (c *SkillResolutionCache) Lookup(name string) (SkillResolution, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[resolutionKey(name)]
	return r, ok
}

func (c *SkillResolutionCache) StoreID(name, id string) {
	c.mu.Lock()
	c.entries[resolutionKey(name)] = SkillResolution{ID: id}
	c.mu.Unlock()
}

func (c *SkillResolutionCache) StoreMissing(name string) {
	c.mu.Lock()
	c.entries[resolutionKey(name)] = SkillResolution{Missing: true}
	c.mu.Unlock()
}

// Evict 删除缓存项，返回是否存在
func (c *SkillResolutionCache) Evict(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := resolutionKey(name)
	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok
}

func (c *SkillResolutionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
