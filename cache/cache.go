package cache

// Cache is the generic key/value object cache consumed by the query engine.
// An unavailable backend is modeled as a permanent miss; the engine never
// retries and never treats a miss as an error.
//
// Concurrent writers racing on the same key are benign: values are a pure
// function of the key, so last-writer-wins is correct.
type Cache interface {
	Get(key, domain string) (any, bool)
	GetMulti(keys []string, domain string) map[string]any
	Set(key string, value any, domain string)
	// Add stores only when the key is absent.
	Add(key string, value any, domain string)
	Delete(key, domain string)

	// LastChanged returns the invalidation token for a domain, minting one
	// if none exists yet. The engine reads tokens; mutation-side
	// collaborators bump them via BumpLastChanged.
	LastChanged(domain string) string
	BumpLastChanged(domain string)
}

type noop struct{}

// Noop returns a cache that always misses. Used when no backend is wired.
func Noop() Cache { return noop{} }

func (noop) Get(string, string) (any, bool)       { return nil, false }
func (noop) GetMulti([]string, string) map[string]any { return map[string]any{} }
func (noop) Set(string, any, string)              {}
func (noop) Add(string, any, string)              {}
func (noop) Delete(string, string)                {}
func (noop) LastChanged(string) string            { return "" }
func (noop) BumpLastChanged(string)               {}
