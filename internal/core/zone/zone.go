// Package zone implements the authoritative zone store (§3.5/§4.5):
// a sorted associative container from owner name to one-or-more RRsets,
// anchored at an origin that must carry SOA and NS data, with wildcard
// synthesis, delegation discovery and CNAME/DNAME chasing.
//
// It generalizes the teacher's repository-backed domain.Zone
// (internal/core/domain/dns.go) and the lookup/wildcard control flow of
// Server.handlePacket (internal/dns/server/server.go) into a self-
// contained, repository-free in-memory structure matching the source's
// `Zone` class, per Design Note ("global options ... replace with an
// explicit configuration struct"; zone holds no ambient server state).
package zone

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bdijkstra82/dnsjava/internal/core/dnserr"
	"github.com/bdijkstra82/dnsjava/internal/core/name"
	"github.com/bdijkstra82/dnsjava/internal/core/rr"
)

type ownerRecords map[rr.Type]*rr.RRset

// Zone is an authoritative in-memory zone. All mutating and lookup
// methods acquire a single mutex for their entire duration (§5):
// readers serialize with writers.
type Zone struct {
	mu     sync.Mutex
	origin name.Name
	data   map[string]ownerRecords
	owners map[string]name.Name // CacheKey -> original Name, for sorted iteration
	hasWild bool
}

// New constructs a Zone rooted at origin from an already-parsed record
// list (the master-file tokenizer is an external collaborator; this
// constructor is its only contract with the core). Construction fails
// if there is not exactly one SOA RRset with exactly one record at
// origin, if there is no NS RRset at origin, or if any record's owner
// is not a subdomain of origin.
func New(origin name.Name, records []rr.Record) (*Zone, error) {
	if !origin.IsAbsolute() {
		return nil, fmt.Errorf("zone: origin must be absolute: %w", dnserr.ErrRelative)
	}
	z := &Zone{
		origin: origin,
		data:   map[string]ownerRecords{},
		owners: map[string]name.Name{},
	}

	for _, r := range records {
		if !r.Owner.Subdomain(origin) {
			return nil, fmt.Errorf("zone: owner %s outside origin %s: %w", r.Owner, origin, dnserr.ErrZoneInvariant)
		}
		z.insert(r)
	}

	soaSet, ok := z.lookupExact(origin, rr.TypeSOA)
	if !ok || soaSet.Len() != 1 {
		return nil, fmt.Errorf("zone: exactly one SOA record required at origin: %w", dnserr.ErrZoneInvariant)
	}
	if !soaSet.Records()[0].Owner.Equal(origin) {
		return nil, fmt.Errorf("zone: SOA owner must equal origin: %w", dnserr.ErrZoneInvariant)
	}
	nsSet, ok := z.lookupExact(origin, rr.TypeNS)
	if !ok || nsSet.Len() == 0 {
		return nil, fmt.Errorf("zone: at least one NS record required at origin: %w", dnserr.ErrZoneInvariant)
	}

	z.recomputeHasWild()
	return z, nil
}

func (z *Zone) insert(r rr.Record) {
	key := r.Owner.CacheKey()
	bucket, ok := z.data[key]
	if !ok {
		bucket = ownerRecords{}
		z.data[key] = bucket
		z.owners[key] = r.Owner
	}
	if set, ok := bucket[r.Type]; ok {
		set.Add(r)
	} else {
		bucket[r.Type] = rr.NewRRset(r)
	}
	if r.Owner.IsWild() {
		z.hasWild = true
	}
}

func (z *Zone) recomputeHasWild() {
	for _, n := range z.owners {
		if n.IsWild() {
			z.hasWild = true
			return
		}
	}
}

func (z *Zone) lookupExact(n name.Name, t rr.Type) (*rr.RRset, bool) {
	bucket, ok := z.data[n.CacheKey()]
	if !ok {
		return nil, false
	}
	set, ok := bucket[t]
	return set, ok
}

// allSets returns every RRset held at n, for an ANY query.
func (z *Zone) allSets(n name.Name) ([]*rr.RRset, bool) {
	bucket, ok := z.data[n.CacheKey()]
	if !ok || len(bucket) == 0 {
		return nil, false
	}
	out := make([]*rr.RRset, 0, len(bucket))
	for _, set := range bucket {
		out = append(out, set)
	}
	return out, true
}

// hasOwner reports whether n exists in the zone at all (any type),
// distinguishing NXRRSET (owner exists, type doesn't) from NXDOMAIN.
func (z *Zone) hasOwner(n name.Name) bool {
	bucket, ok := z.data[n.CacheKey()]
	return ok && len(bucket) > 0
}

// Origin returns the zone's apex name.
func (z *Zone) Origin() name.Name { return z.origin }

// SOA returns the zone's apex SOA RRset, added to the AUTHORITY section
// on NXDOMAIN/NXRRSET answers (§4.6).
func (z *Zone) SOA() *rr.RRset {
	z.mu.Lock()
	defer z.mu.Unlock()
	set, _ := z.lookupExact(z.origin, rr.TypeSOA)
	return set
}

// OriginNS returns the zone's apex NS RRset, added to the AUTHORITY
// section of an authoritative Success answer (§4.6).
func (z *Zone) OriginNS() *rr.RRset {
	z.mu.Lock()
	defer z.mu.Unlock()
	set, _ := z.lookupExact(z.origin, rr.TypeNS)
	return set
}

// sortedOwners returns every owner name in canonical (RFC 4034) order,
// used by AXFR iteration.
func (z *Zone) sortedOwners() []name.Name {
	out := make([]name.Name, 0, len(z.owners))
	for _, n := range z.owners {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}
