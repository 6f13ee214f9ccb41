package cache

import (
	"github.com/bdijkstra82/dnsjava/internal/core/message"
	"github.com/bdijkstra82/dnsjava/internal/core/name"
	"github.com/bdijkstra82/dnsjava/internal/core/rr"
)

// groupRecords partitions records into maximal runs sharing the same
// owner, type and class, mirroring how every producer in this module
// (responder, zone, AXFR) emits a whole RRset contiguously.
func groupRecords(records []rr.Record) [][]rr.Record {
	var out [][]rr.Record
	for _, r := range records {
		if n := len(out); n > 0 {
			h := out[n-1][0]
			if h.Owner.Equal(r.Owner) && h.Type == r.Type && h.Class == r.Class {
				out[n-1] = append(out[n-1], r)
				continue
			}
		}
		out = append(out, []rr.Record{r})
	}
	return out
}

func toRRset(group []rr.Record) *rr.RRset {
	set := rr.NewRRset(group[0])
	for _, r := range group[1:] {
		set.Add(r)
	}
	return set
}

func negativeTTLFromSOA(records []rr.Record) uint32 {
	for _, r := range records {
		if r.Type == rr.TypeSOA && r.SOA != nil {
			min := r.SOA.Minimum
			if r.TTL < min {
				min = r.TTL
			}
			return min
		}
	}
	return 0
}

// AddMessage ingests every RRset in msg into the cache, with credibility
// derived from the AA flag (§3.6), follows any in-message CNAME/DNAME
// chain to find the name negatives should be recorded under, and admits
// an ADDITIONAL RRset only if some earlier record marked its owner as
// needing glue (§4.4 add_message).
func (c *Cache) AddMessage(msg *message.Message) {
	if len(msg.Question) == 0 {
		return
	}
	q := msg.Question[0]

	cred := rr.CredNormal
	if msg.Header.Authoritative {
		cred = rr.CredAuth
	}

	curname := q.Name
	needsGlue := map[string]bool{}

	ingest := func(records []rr.Record) {
		for _, g := range groupRecords(records) {
			first := g[0]
			c.AddRRset(toRRset(g), cred)

			if first.Type == rr.TypeCNAME && first.Owner.Equal(curname) {
				curname = first.Host
			}
			if first.Type == rr.TypeDNAME && curname.Subdomain(first.Owner) {
				if synth, err := name.FromDNAME(curname, first.Owner, first.Host); err == nil {
					curname = synth
				}
			}
			if an, ok := first.AdditionalName(); ok {
				needsGlue[an.CacheKey()] = true
			}
		}
	}
	ingest(msg.Answer)
	ingest(msg.Authority)

	for _, g := range groupRecords(msg.Additional) {
		if !needsGlue[g[0].Owner.CacheKey()] {
			continue
		}
		c.AddRRset(toRRset(g), rr.CredGlue)
	}

	switch {
	case msg.Header.Rcode == message.RcodeNXDomain:
		c.AddNegative(curname, rr.TypeNone, negativeTTLFromSOA(msg.Authority), cred)
	case len(msg.Answer) == 0 && msg.Header.Rcode == message.RcodeNoError:
		c.AddNegative(curname, q.Type, negativeTTLFromSOA(msg.Authority), cred)
	}
}
