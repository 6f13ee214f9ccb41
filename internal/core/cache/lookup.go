package cache

import (
	"github.com/bdijkstra82/dnsjava/internal/core/name"
	"github.com/bdijkstra82/dnsjava/internal/core/rr"
)

// Lookup implements the §4.4.1 state machine: walk tname from qname
// toward the root, label count descending to 1 (root), returning the
// first non-Unknown result. Every touched entry whose TTL has expired is
// removed during the scan and treated as absent.
func (c *Cache) Lookup(qname name.Name, qtype rr.Type, minCred rr.Credibility) LookupResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	labels := qname.Labels()
	for tlabels := labels; tlabels >= 1; tlabels-- {
		tname := qname.Suffix(tlabels)
		isExact := tlabels == labels

		key := tname.CacheKey()
		b, ok := c.lru.Get(key)
		if !ok {
			continue
		}
		c.expireLocked(b, now)
		if len(b.entries) == 0 {
			c.lru.Remove(key)
			continue
		}

		if isExact && qtype == rr.TypeANY {
			var sets []*rr.RRset
			for _, e := range b.entries {
				if e.Kind == KindPositive && e.Cred >= minCred {
					sets = append(sets, e.RRset)
				}
			}
			if len(sets) > 0 {
				return successResult(sets)
			}
		} else if isExact {
			if e, ok := b.entries[qtype]; ok {
				if e.Kind == KindPositive && e.Cred >= minCred {
					return successResult([]*rr.RRset{e.RRset})
				}
				if e.Kind == KindNegative {
					return nxRRsetResult()
				}
			}
			if e, ok := b.entries[rr.TypeCNAME]; ok && e.Kind == KindPositive && e.Cred >= minCred {
				return cnameResult(e.RRset)
			}
		} else {
			if e, ok := b.entries[rr.TypeDNAME]; ok && e.Kind == KindPositive && e.Cred >= minCred {
				return dnameResult(e.RRset)
			}
		}

		if e, ok := b.entries[rr.TypeNS]; ok && e.Kind == KindPositive && e.Cred >= minCred {
			return delegationResult(e.RRset)
		}

		if isExact {
			if e, ok := b.entries[rr.TypeNone]; ok && e.Kind == KindNegative {
				return nxDomainResult()
			}
		}
	}
	return unknownResult()
}

func (c *Cache) expireLocked(b *bucket, now uint32) {
	for t, e := range b.entries {
		if e.expired(now) {
			delete(b.entries, t)
		}
	}
}
