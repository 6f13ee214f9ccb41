package responder

import (
	"github.com/bdijkstra82/dnsjava/internal/core/lookupresult"
	"github.com/bdijkstra82/dnsjava/internal/core/message"
	"github.com/bdijkstra82/dnsjava/internal/core/name"
	"github.com/bdijkstra82/dnsjava/internal/core/rr"
)

// addAnswer implements §4.6 step 5: consult the best zone, fall back
// to the cache, apply the lookup result to resp, and recurse through
// CNAME/DNAME indirection up to maxChainDepth. Beyond the depth cap it
// returns with whatever has been assembled so far and RCODE left at
// NOERROR, matching the source's own (Design Note, open question b)
// behavior rather than substituting SERVFAIL.
func (r *Responder) addAnswer(resp *message.Message, qname name.Name, qtype rr.Type, qclass rr.Class, depth int) {
	if depth > maxChainDepth {
		return
	}

	z, zok := r.bestZone(qname)
	var res lookupresult.Result
	inZone := false
	if zok {
		res = z.Lookup(qname, qtype)
		inZone = res.Kind != lookupresult.Unknown
	}
	if !inZone {
		res = r.cache.Lookup(qname, qtype, rr.CredAny)
		r.metrics.CacheLookup(res.Kind != lookupresult.Unknown)
	}

	switch res.Kind {
	case lookupresult.NxDomain:
		resp.Header.Rcode = message.RcodeNXDomain
		if inZone {
			if soa := z.SOA(); soa != nil {
				resp.Authority = append(resp.Authority, soa.Records()...)
			}
			if depth == 0 {
				resp.Header.Authoritative = true
			}
		}

	case lookupresult.NxRRset:
		if inZone {
			if soa := z.SOA(); soa != nil {
				resp.Authority = append(resp.Authority, soa.Records()...)
			}
			if depth == 0 {
				resp.Header.Authoritative = true
			}
		}

	case lookupresult.Delegation:
		resp.Authority = append(resp.Authority, res.RRset.Records()...)

	case lookupresult.CName:
		resp.Answer = append(resp.Answer, res.RRset.Records()...)
		target := res.RRset.Records()[0].Host
		r.addAnswer(resp, target, qtype, qclass, depth+1)

	case lookupresult.DName:
		resp.Answer = append(resp.Answer, res.RRset.Records()...)
		target := res.RRset.Records()[0].Host
		synth, err := name.FromDNAME(qname, res.RRset.Owner, target)
		if err != nil {
			resp.Header.Rcode = message.RcodeYXDomain
			return
		}
		cname := rr.Record{Owner: qname, Type: rr.TypeCNAME, Class: qclass, TTL: res.RRset.TTL(), Host: synth}
		resp.Answer = append(resp.Answer, cname)
		r.addAnswer(resp, synth, qtype, qclass, depth+1)

	case lookupresult.Success:
		for _, set := range res.RRsets {
			resp.Answer = append(resp.Answer, set.Records()...)
		}
		if inZone {
			if ns := z.OriginNS(); ns != nil {
				resp.Authority = append(resp.Authority, ns.Records()...)
			}
			if depth == 0 {
				resp.Header.Authoritative = true
			}
		} else {
			nsRes := r.cache.Lookup(qname, rr.TypeNS, rr.CredAny)
			if nsRes.Kind == lookupresult.Success && len(nsRes.RRsets) > 0 {
				resp.Authority = append(resp.Authority, nsRes.RRsets[0].Records()...)
			}
		}

	case lookupresult.Unknown:
		// Neither the zone catalog nor the cache had anything to say;
		// leave the reply as assembled (NOERROR, no data).
	}
}

// addGlue implements §4.6 step 6: for every ANSWER/AUTHORITY record
// advertising an additional name (an NS target), resolve its A/AAAA
// from the best zone or the cache and append to ADDITIONAL. Any
// credibility is acceptable for glue.
func (r *Responder) addGlue(resp *message.Message) {
	seen := map[string]bool{}
	candidates := make([]rr.Record, 0, len(resp.Answer)+len(resp.Authority))
	candidates = append(candidates, resp.Answer...)
	candidates = append(candidates, resp.Authority...)

	for _, rec := range candidates {
		target, ok := rec.AdditionalName()
		if !ok {
			continue
		}
		key := target.CacheKey()
		if seen[key] {
			continue
		}
		seen[key] = true

		for _, t := range [...]rr.Type{rr.TypeA, rr.TypeAAAA} {
			if z, ok := r.bestZone(target); ok {
				if res := z.Lookup(target, t); res.Kind == lookupresult.Success {
					for _, set := range res.RRsets {
						resp.Additional = append(resp.Additional, set.Records()...)
					}
					continue
				}
			}
			if res := r.cache.Lookup(target, t, rr.CredAny); res.Kind == lookupresult.Success {
				for _, set := range res.RRsets {
					resp.Additional = append(resp.Additional, set.Records()...)
				}
			}
		}
	}
}

// respondAXFR implements §4.6 step 4: stream the matching zone's
// transfer sequence to opts.AXFRSink. AXFR with no sink configured (a
// UDP query, or a core embedded without transfer support) is answered
// NOTIMP rather than attempted.
func (r *Responder) respondAXFR(req *message.Message, q message.Question, opts Options) []byte {
	if opts.AXFRSink == nil {
		return r.encodeError(req, message.RcodeNotImp, opts)
	}
	z, ok := r.bestZone(q.Name)
	if !ok {
		return r.encodeError(req, message.RcodeNXDomain, opts)
	}
	for _, set := range z.AXFR() {
		if set == nil {
			continue
		}
		if err := opts.AXFRSink(set); err != nil {
			return nil
		}
	}
	return nil
}
