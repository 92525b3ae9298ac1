package circuitbreaker

import (
	"context"
	"sort"
	"sync"
)

// Group lazily keeps one breaker per key, e.g. one per printer.
type Group struct {
	template Config
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewGroup creates a group whose breakers share template; each breaker is named after its key.
func NewGroup(template Config) *Group {
	return &Group{template: template, breakers: make(map[string]*CircuitBreaker)}
}

// Get returns the breaker for key, creating it on first use.
func (g *Group) Get(key string) *CircuitBreaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	cb, ok := g.breakers[key]
	if !ok {
		cfg := g.template
		cfg.Name = key
		cb = New(cfg)
		g.breakers[key] = cb
	}
	return cb
}

// Execute runs fn through the breaker for key.
func (g *Group) Execute(ctx context.Context, key string, fn func() error) error {
	return g.Get(key).Execute(ctx, fn)
}

// Reset closes the breaker for key if it exists.
func (g *Group) Reset(key string) {
	g.mu.Lock()
	cb, ok := g.breakers[key]
	g.mu.Unlock()
	if ok {
		cb.Reset()
	}
}

// Stats returns the stats of every breaker, sorted by name.
func (g *Group) Stats() []Stats {
	g.mu.Lock()
	out := make([]Stats, 0, len(g.breakers))
	for _, cb := range g.breakers {
		out = append(out, cb.GetStats())
	}
	g.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
