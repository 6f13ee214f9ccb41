package cache

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/bdijkstra82/dnsjava/internal/core/name"
	"github.com/bdijkstra82/dnsjava/internal/core/rr"
)

// Config configures a Cache, replacing the teacher's implicit constants
// with an explicit struct passed at construction (Design Note: no
// module-level mutable state).
type Config struct {
	// MaxEntries bounds the number of distinct owner names held; 0 uses
	// the spec default of 50,000.
	MaxEntries int
	// MaxTTLSeconds clamps positive TTLs on insert; -1 means unlimited.
	MaxTTLSeconds int32
	// MaxNCacheSeconds clamps negative (NXDOMAIN/NXRRSET) TTLs on insert.
	MaxNCacheSeconds int32
	// Now, if set, replaces time.Now for deterministic tests.
	Now func() uint32
}

const defaultMaxEntries = 50000

type bucket struct {
	owner   name.Name
	entries map[rr.Type]*Entry
}

// Cache is an ordered associative store mapping Name to one or more
// CacheEntry values (§3.4), with credibility-arbitrated inserts and
// strict-LRU eviction by access. All public methods acquire a single
// mutex for their entire duration (§5): lookups mutate LRU order and may
// evict, so reads are also writers.
type Cache struct {
	mu        sync.Mutex
	lru       *lru.Cache[string, *bucket]
	maxTTL    int32
	maxNCache int32
	now       func() uint32
}

// New constructs a Cache per cfg.
func New(cfg Config) (*Cache, error) {
	max := cfg.MaxEntries
	if max <= 0 {
		max = defaultMaxEntries
	}
	l, err := lru.New[string, *bucket](max)
	if err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	now := cfg.Now
	if now == nil {
		now = func() uint32 { return uint32(time.Now().Unix()) }
	}
	return &Cache{lru: l, maxTTL: cfg.MaxTTLSeconds, maxNCache: cfg.MaxNCacheSeconds, now: now}, nil
}

func (c *Cache) clampPositive(ttl uint32) uint32 {
	if c.maxTTL >= 0 && ttl > uint32(c.maxTTL) {
		return uint32(c.maxTTL)
	}
	return ttl
}

func (c *Cache) clampNegative(ttl uint32) uint32 {
	if c.maxNCache >= 0 && ttl > uint32(c.maxNCache) {
		return uint32(c.maxNCache)
	}
	return ttl
}

func (c *Cache) bucketFor(n name.Name, create bool) *bucket {
	key := n.CacheKey()
	b, ok := c.lru.Get(key)
	if !ok {
		if !create {
			return nil
		}
		b = &bucket{owner: n, entries: map[rr.Type]*Entry{}}
		c.lru.Add(key, b)
	}
	return b
}

// AddRRset ingests set at credibility cred (§4.4 add_rrset).
func (c *Cache) AddRRset(set *rr.RRset, cred rr.Credibility) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addRRsetLocked(set, cred)
}

func (c *Cache) addRRsetLocked(set *rr.RRset, cred rr.Credibility) {
	b := c.bucketFor(set.Owner, true)
	existing := b.entries[set.Type]

	if set.TTL() == 0 {
		if existing == nil || cred >= existing.Cred {
			delete(b.entries, set.Type)
		}
		return
	}

	ttl := c.clampPositive(set.TTL())
	expire := c.now() + ttl

	if existing != nil {
		if existing.Cred > cred {
			return
		}
		if existing.Cred == cred && existing.Kind == KindPositive {
			merged := existing.RRset.Clone()
			for _, r := range set.Records() {
				merged.Add(r)
			}
			// Open Question (§9): equal-credibility merge with a
			// differing TTL — this cache takes the minimum of the two
			// expiries, consistent with RFC 2181's "a set expires
			// together" rule applied to the merge as a whole.
			newExpire := existing.ExpireEpoch
			if expire < newExpire {
				newExpire = expire
			}
			b.entries[set.Type] = &Entry{Kind: KindPositive, RRset: merged, Cred: cred, ExpireEpoch: newExpire}
			return
		}
	}

	stored := set.Clone()
	stored.SetTTL(ttl)
	b.entries[set.Type] = &Entry{Kind: KindPositive, RRset: stored, Cred: cred, ExpireEpoch: expire}
}

// AddRecord ingests a single record as a singleton RRset (§4.4
// add_record).
func (c *Cache) AddRecord(r rr.Record, cred rr.Credibility) {
	c.AddRRset(rr.NewRRset(r), cred)
}

// AddNegative records that qtype does not exist at owner (qtype ==
// rr.TypeNone means the whole name is NXDOMAIN), with ttl already
// computed by the caller as min(soa.Minimum, soa.TTL) or 0 when no SOA
// was available (§4.4 add_negative).
func (c *Cache) AddNegative(owner name.Name, qtype rr.Type, ttl uint32, cred rr.Credibility) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.bucketFor(owner, true)
	existing := b.entries[qtype]

	if ttl == 0 {
		if existing == nil || cred >= existing.Cred {
			delete(b.entries, qtype)
		}
		return
	}

	if existing != nil && existing.Cred > cred {
		return
	}

	clamped := c.clampNegative(ttl)
	b.entries[qtype] = &Entry{Kind: KindNegative, NegType: qtype, Cred: cred, ExpireEpoch: c.now() + clamped}
}

// FlushSet removes the entry at (owner, qtype), if any.
func (c *Cache) FlushSet(owner name.Name, qtype rr.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b := c.bucketFor(owner, false); b != nil {
		delete(b.entries, qtype)
	}
}

// FlushName removes every entry at owner.
func (c *Cache) FlushName(owner name.Name) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(owner.CacheKey())
}

// Len returns the number of distinct owner names currently held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
