// Package cache implements the credibility-aware, TTL-expiring RRset
// cache described in §3.4/§4.4 of the spec, generalizing the teacher's
// sharded raw-byte DNSCache (internal/dns/server/cache.go) into a
// single-mutex store keyed by name.Name holding typed CacheEntry values,
// with eviction delegated to hashicorp/golang-lru rather than the
// teacher's periodic sweep (Design Note: "LinkedHashMap access-order LRU
// ... use an established LRU container").
package cache

import "github.com/bdijkstra82/dnsjava/internal/core/rr"

// Kind distinguishes the two CacheEntry variants (§3.3).
type Kind int

const (
	KindPositive Kind = iota
	KindNegative
)

// Entry is one CacheEntry: either a positive RRset at a given
// credibility, or a negative (NXDOMAIN/NXRRSET) marker. Exactly one
// Entry exists per (name, type) at any time.
type Entry struct {
	Kind Kind

	// RRset is populated for KindPositive.
	RRset *rr.RRset

	// NegType is the queried type a KindNegative entry denies; rr.TypeNone
	// (0) denotes NXDOMAIN, any other value denotes NXRRSET for that type.
	NegType rr.Type

	Cred        rr.Credibility
	ExpireEpoch uint32
}

func (e *Entry) expired(now uint32) bool { return e.ExpireEpoch <= now }
