package zone

import (
	"sort"

	"github.com/bdijkstra82/dnsjava/internal/core/rr"
)

// AXFR returns the zone transfer sequence (§4.5): the SOA RRset first,
// then the origin's NS RRset, then every other RRset in canonical owner
// order, then the SOA again. The slice is a snapshot taken under the
// zone's lock at call time; per §5 this is not a consistent view of a
// concurrently mutating zone, only a point-in-time enumeration of the
// key set that existed at the moment AXFR was invoked.
func (z *Zone) AXFR() []*rr.RRset {
	z.mu.Lock()
	defer z.mu.Unlock()

	soaSet, _ := z.lookupExact(z.origin, rr.TypeSOA)
	nsSet, _ := z.lookupExact(z.origin, rr.TypeNS)

	out := make([]*rr.RRset, 0, len(z.owners)+2)
	out = append(out, soaSet, nsSet)

	for _, owner := range z.sortedOwners() {
		atOrigin := owner.Equal(z.origin)
		bucket := z.data[owner.CacheKey()]
		for _, t := range sortedTypes(bucket) {
			if atOrigin && (t == rr.TypeSOA || t == rr.TypeNS) {
				continue
			}
			out = append(out, bucket[t])
		}
	}

	return append(out, soaSet)
}

func sortedTypes(bucket ownerRecords) []rr.Type {
	out := make([]rr.Type, 0, len(bucket))
	for t := range bucket {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
