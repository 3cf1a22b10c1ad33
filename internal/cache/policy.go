package cache

import "time"

// DefaultTTL passed to Set or ComputeOptions selects the namespace's
// configured TTL.
const DefaultTTL time.Duration = 0

// DefaultGlobalTTL applies to namespaces missing from the policy table.
const DefaultGlobalTTL = 5 * time.Minute

// Policy maps namespaces to their default TTL. It is fixed at construction.
type Policy struct {
	fallback   time.Duration
	namespaces map[string]time.Duration
}

// NewPolicy copies table; non-positive entries are ignored and a
// non-positive fallback becomes DefaultGlobalTTL.
func NewPolicy(fallback time.Duration, table map[string]time.Duration) *Policy {
	if fallback <= 0 {
		fallback = DefaultGlobalTTL
	}
	p := &Policy{
		fallback:   fallback,
		namespaces: make(map[string]time.Duration, len(table)),
	}
	for ns, ttl := range table {
		if ttl > 0 {
			p.namespaces[ns] = ttl
		}
	}
	return p
}

// TTL returns the default TTL of namespace.
func (p *Policy) TTL(namespace string) time.Duration {
	if ttl, ok := p.namespaces[namespace]; ok {
		return ttl
	}
	return p.fallback
}

// Fallback returns the TTL for unlisted namespaces.
func (p *Policy) Fallback() time.Duration {
	return p.fallback
}

// resolve returns ttl, or the namespace default when ttl <= 0.
func (p *Policy) resolve(namespace string, ttl time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	return p.TTL(namespace)
}
