package zone

import (
	"github.com/bdijkstra82/dnsjava/internal/core/lookupresult"
	"github.com/bdijkstra82/dnsjava/internal/core/name"
	"github.com/bdijkstra82/dnsjava/internal/core/rr"
)

// Lookup implements the §4.5 authoritative lookup algorithm: walk tname
// from the origin out to qname, returning a delegation at the first NS
// cut strictly below the origin, matching exactly at qname (including
// CNAME fallback and ANY aggregation), chasing DNAME at any ancestor,
// and falling back to wildcard synthesis when no ancestor or exact
// match was found.
func (z *Zone) Lookup(qname name.Name, qtype rr.Type) lookupresult.Result {
	z.mu.Lock()
	defer z.mu.Unlock()

	if !qname.Subdomain(z.origin) {
		return lookupresult.UnknownResult()
	}

	originLabels := z.origin.Labels()
	qLabels := qname.Labels()

	for tlabels := originLabels; tlabels <= qLabels; tlabels++ {
		tname := qname.Suffix(tlabels)
		isOrigin := tlabels == originLabels
		isExact := tlabels == qLabels

		if !isOrigin {
			if nsSet, ok := z.lookupExact(tname, rr.TypeNS); ok {
				return lookupresult.DelegationResult(nsSet)
			}
		}

		if isExact {
			if qtype == rr.TypeANY {
				if sets, ok := z.allSets(tname); ok {
					return lookupresult.SuccessResult(sets)
				}
			} else if set, ok := z.lookupExact(tname, qtype); ok {
				return lookupresult.SuccessResult([]*rr.RRset{set})
			} else if cname, ok := z.lookupExact(tname, rr.TypeCNAME); ok {
				return lookupresult.CNameResult(cname)
			} else if z.hasOwner(tname) {
				return lookupresult.NxRRsetResult()
			}
		} else if dname, ok := z.lookupExact(tname, rr.TypeDNAME); ok {
			return lookupresult.DNameResult(dname)
		}
	}

	if z.hasWild {
		for i := 1; i <= qLabels-originLabels; i++ {
			suffix := qname.Suffix(qLabels - i)
			wild, err := name.Wildcard(suffix)
			if err != nil {
				continue
			}
			if qtype == rr.TypeANY {
				if sets, ok := z.allSets(wild); ok {
					return lookupresult.SuccessResult(rewriteOwners(sets, qname))
				}
				continue
			}
			if set, ok := z.lookupExact(wild, qtype); ok {
				return lookupresult.SuccessResult([]*rr.RRset{set.WithOwner(qname)})
			}
			if cname, ok := z.lookupExact(wild, rr.TypeCNAME); ok {
				return lookupresult.CNameResult(cname.WithOwner(qname))
			}
		}
	}

	return lookupresult.NxDomainResult()
}

func rewriteOwners(sets []*rr.RRset, owner name.Name) []*rr.RRset {
	out := make([]*rr.RRset, len(sets))
	for i, s := range sets {
		out[i] = s.WithOwner(owner)
	}
	return out
}
