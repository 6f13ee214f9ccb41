package rr

import "github.com/bdijkstra82/dnsjava/internal/core/name"

// SOAData holds the typed fields of a SOA record; the core inspects
// Minimum (negative-caching TTL) and MName (zone invariant checks).
type SOAData struct {
	MName   name.Name
	RName   name.Name
	Serial  uint32
	Refresh uint32
	Retry   uint32
	Expire  uint32
	Minimum uint32
}

// MXData holds the typed fields of an MX record.
type MXData struct {
	Preference uint16
	Exchange   name.Name
}

// SRVData holds the typed fields of an SRV record (RFC 2782).
type SRVData struct {
	Priority uint16
	Weight   uint16
	Port     uint16
	Target   name.Name
}

// EDNSOption is one TLV option inside an OPT pseudo-record.
type EDNSOption struct {
	Code uint16
	Data []byte
}

// OPTData holds the typed fields of an EDNS0 OPT pseudo-record
// (RFC 6891); it is carried as a record whose owner is the root and
// whose CLASS/TTL fields are repurposed for payload size and the
// extended RCODE/flags.
type OPTData struct {
	UDPSize  uint16
	ExtRCode uint8
	Version  uint8
	DO       bool
	Options  []EDNSOption
}

// TSIGData holds the typed fields of a TSIG record (RFC 2845); the core
// carries these opaque bytes through the hooks described in §4.7
// without interpreting the MAC.
type TSIGData struct {
	Algorithm  name.Name
	TimeSigned uint64
	Fudge      uint16
	MAC        []byte
	OriginalID uint16
	Error      uint16
	Other      []byte
}

// Record is the generic resource-record envelope (§2.4): owner, type,
// class, ttl and rdata, with typed accessor fields populated for the
// closed set of types the core inspects (A/AAAA/NS/SOA/CNAME/DNAME) plus
// the message-layer pseudo-records (OPT/TSIG) and a few supplemental
// convenience types (MX/TXT/SRV/PTR). Everything else round-trips via
// RDATA alone.
type Record struct {
	Owner name.Name
	Type  Type
	Class Class
	TTL   uint32

	// RDATA is the generic fallback payload: the raw, already-decoded
	// rdata bytes for types with no typed view below. For typed
	// records it is left nil; Encode re-derives the wire rdata from
	// the typed fields.
	RDATA []byte

	Addr    []byte    // A (4 bytes) / AAAA (16 bytes)
	Host    name.Name // NS / CNAME / DNAME / PTR target
	SOA     *SOAData
	MX      *MXData
	TXT     string
	SRV     *SRVData
	OPT     *OPTData
	TSIGRec *TSIGData
}

// AdditionalName returns the name, if any, this record advertises as
// needing glue resolution in the responder's glue pass (§4.6 step 6):
// the target of an NS record.
func (r Record) AdditionalName() (name.Name, bool) {
	if r.Type == TypeNS {
		return r.Host, true
	}
	return name.Name{}, false
}

// Clone returns a deep copy safe to store independently in the cache or
// a zone without aliasing the original's slices.
func (r Record) Clone() Record {
	out := r
	if r.Addr != nil {
		out.Addr = append([]byte(nil), r.Addr...)
	}
	if r.RDATA != nil {
		out.RDATA = append([]byte(nil), r.RDATA...)
	}
	if r.SOA != nil {
		soa := *r.SOA
		out.SOA = &soa
	}
	if r.MX != nil {
		mx := *r.MX
		out.MX = &mx
	}
	if r.SRV != nil {
		srv := *r.SRV
		out.SRV = &srv
	}
	if r.OPT != nil {
		opt := *r.OPT
		opt.Options = append([]EDNSOption(nil), r.OPT.Options...)
		out.OPT = &opt
	}
	if r.TSIGRec != nil {
		ts := *r.TSIGRec
		ts.MAC = append([]byte(nil), r.TSIGRec.MAC...)
		ts.Other = append([]byte(nil), r.TSIGRec.Other...)
		out.TSIGRec = &ts
	}
	return out
}
