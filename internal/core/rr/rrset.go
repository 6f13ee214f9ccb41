package rr

import "github.com/bdijkstra82/dnsjava/internal/core/name"

// RRset groups all records sharing an owner, type and class into a
// single cacheable/answerable unit (§3.2), along with any RRSIGs
// covering it. The RRset's TTL is the minimum TTL of its member
// records, per RFC 2181 §5.2: a single set answered together expires
// together.
type RRset struct {
	Owner name.Name
	Type  Type
	Class Class

	records []Record
	sigs    []Record
	ttl     uint32
}

// NewRRset starts an RRset from its first member record.
func NewRRset(first Record) *RRset {
	return &RRset{
		Owner:   first.Owner,
		Type:    first.Type,
		Class:   first.Class,
		records: []Record{first},
		ttl:     first.TTL,
	}
}

// Add appends r to the set, lowering the set's TTL to r's if r's is
// smaller. The caller is responsible for verifying r.Owner/Type/Class
// match the set (the cache and zone do this before calling Add).
func (s *RRset) Add(r Record) {
	s.records = append(s.records, r)
	if r.TTL < s.ttl {
		s.ttl = r.TTL
	}
}

// AddSig appends a covering RRSIG record.
func (s *RRset) AddSig(sig Record) {
	s.sigs = append(s.sigs, sig)
}

// Records returns the set's member records.
func (s *RRset) Records() []Record { return s.records }

// Sigs returns the set's covering RRSIG records, if any.
func (s *RRset) Sigs() []Record { return s.sigs }

// TTL returns the set's current effective TTL.
func (s *RRset) TTL() uint32 { return s.ttl }

// Len returns the number of member records.
func (s *RRset) Len() int { return len(s.records) }

// SetTTL clamps every member record (and the set itself) to ttl. Used
// by the cache when applying max_ttl_s/max_ncache_s (§3.4, §4.4.2).
func (s *RRset) SetTTL(ttl uint32) {
	s.ttl = ttl
	for i := range s.records {
		s.records[i].TTL = ttl
	}
}

// WithOwner returns a deep copy of s with every member record's (and the
// set's own) owner rewritten to owner, used to synthesize the answer to
// a wildcard match (§4.5): the matched "*.example." RRset is returned
// under the queried name instead of the literal wildcard owner.
func (s *RRset) WithOwner(owner name.Name) *RRset {
	out := s.Clone()
	out.Owner = owner
	for i := range out.records {
		out.records[i].Owner = owner
	}
	return out
}

// Clone returns a deep copy, safe to hand to a caller that may mutate
// or retain it beyond the cache's own lock.
func (s *RRset) Clone() *RRset {
	out := &RRset{Owner: s.Owner, Type: s.Type, Class: s.Class, ttl: s.ttl}
	out.records = make([]Record, len(s.records))
	for i, r := range s.records {
		out.records[i] = r.Clone()
	}
	if s.sigs != nil {
		out.sigs = make([]Record, len(s.sigs))
		for i, r := range s.sigs {
			out.sigs[i] = r.Clone()
		}
	}
	return out
}
