package cache

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Memory is an in-process Cache backed by one bounded LRU per domain.
type Memory struct {
	mu          sync.Mutex
	size        int
	domains     map[string]*lru.Cache[string, any]
	lastChanged map[string]string
	bumps       uint64
}

func NewMemory(size int) *Memory {
	if size <= 0 {
		size = 4096
	}

	return &Memory{
		size:        size,
		domains:     make(map[string]*lru.Cache[string, any]),
		lastChanged: make(map[string]string),
	}
}

func (m *Memory) domain(name string) *lru.Cache[string, any] {
	d, ok := m.domains[name]
	if !ok {
		d, _ = lru.New[string, any](m.size)
		m.domains[name] = d
	}

	return d
}

func (m *Memory) Get(key, domain string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.domain(domain).Get(key)
}

func (m *Memory) GetMulti(keys []string, domain string) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.domain(domain)
	out := make(map[string]any, len(keys))
	for _, key := range keys {
		if val, ok := d.Get(key); ok {
			out[key] = val
		}
	}

	return out
}

func (m *Memory) Set(key string, value any, domain string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.domain(domain).Add(key, value)
}

func (m *Memory) Add(key string, value any, domain string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.domain(domain)
	if _, ok := d.Get(key); ok {
		return
	}
	d.Add(key, value)
}

func (m *Memory) Delete(key, domain string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.domain(domain).Remove(key)
}

func (m *Memory) LastChanged(domain string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	token, ok := m.lastChanged[domain]
	if !ok {
		token = m.mintLocked()
		m.lastChanged[domain] = token
	}

	return token
}

func (m *Memory) BumpLastChanged(domain string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastChanged[domain] = m.mintLocked()
}

func (m *Memory) mintLocked() string {
	m.bumps++
	return fmt.Sprintf("%d.%d", time.Now().UnixMicro(), m.bumps)
}
