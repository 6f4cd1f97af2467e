package sheets

import (
	"context"
	"fmt"
)

// Resolver resolves a human-readable sheet name to the durable ID
// assigned by the external spreadsheet store.
type Resolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// CachingResolver consults an IDCache before delegating to the
// upstream resolver, and records successful resolutions.
type CachingResolver struct {
	cache    *IDCache
	upstream Resolver
}

// NewCachingResolver wraps upstream with cache.
func NewCachingResolver(cache *IDCache, upstream Resolver) *CachingResolver {
	return &CachingResolver{cache: cache, upstream: upstream}
}

// Resolve returns the spreadsheet ID for name, from cache when fresh.
func (r *CachingResolver) Resolve(ctx context.Context, name string) (string, error) {
	if id, ok := r.cache.Get(name); ok {
		return id, nil
	}

	id, err := r.upstream.Resolve(ctx, name)
	if err != nil {
		return "", fmt.Errorf("resolve sheet %q: %w", name, err)
	}

	r.cache.Set(name, id)
	return id, nil
}
