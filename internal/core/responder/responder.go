// Package responder implements the query-answering policy (§4.6 of the
// spec): it consults an authoritative Zone catalog and falls back to a
// Cache, chases CNAME/DNAME/wildcard indirection up to a fixed depth,
// adds glue, and never lets an internal failure escape as anything but
// a well-formed reply (§7). It generalizes the control flow of the
// teacher's Server.handlePacket (internal/dns/server/server.go) —
// EDNS0 negotiation, truncation-on-send, wildcard fallback, NS/glue
// population — onto the Name/Message/Cache/Zone primitives instead of
// the teacher's repository-backed domain model.
package responder

import (
	"time"

	"github.com/bdijkstra82/dnsjava/internal/core/lookupresult"
	"github.com/bdijkstra82/dnsjava/internal/core/message"
	"github.com/bdijkstra82/dnsjava/internal/core/name"
	"github.com/bdijkstra82/dnsjava/internal/core/rr"
	"github.com/bdijkstra82/dnsjava/internal/core/zone"
)

const (
	maxChainDepth  = 6
	defaultUDPSize = 512
	maxTCPSize     = 65535
	echoUDPSize    = 4096
)

// Transport distinguishes the two framings a query arrived over: it
// governs the length cap Encode is asked to honor.
type Transport int

const (
	UDP Transport = iota
	TCP
)

// Options carries the per-request context the transport layer (not
// part of the core, §1) supplies to Respond.
type Options struct {
	Transport Transport
	// AXFRSink, if set, receives each RRset of a zone transfer in
	// order (§4.6 step 4). AXFR queries over UDP, or with no sink
	// configured, are answered NOTIMP.
	AXFRSink func(*rr.RRset) error
}

// Cache is the subset of *cache.Cache the responder depends on.
type Cache interface {
	Lookup(qname name.Name, qtype rr.Type, minCred rr.Credibility) lookupresult.Result
}

// Metrics is the subset of metrics.Recorder the responder depends on,
// kept as a small local interface (matching Verifier/Signer) so the
// core never imports the prometheus client directly.
type Metrics interface {
	QueryHandled(rcode, qtype string, elapsed time.Duration)
	CacheLookup(hit bool)
}

type noopMetrics struct{}

func (noopMetrics) QueryHandled(string, string, time.Duration) {}
func (noopMetrics) CacheLookup(bool)                           {}

// Responder answers queries against a catalog of authoritative zones
// and a shared cache.
type Responder struct {
	zones    []*zone.Zone
	cache    Cache
	keys     map[string][]byte
	verifier Verifier
	signer   Signer
	metrics  Metrics
}

// New constructs a Responder over the given zone catalog and cache.
// keys maps a TSIG key's case-folded presentation name to its secret;
// verifier/signer may be nil, disabling TSIG entirely (any TSIG-bearing
// query is then treated as carrying an unknown key, per §4.6 step 2).
// Metrics default to a no-op recorder until SetMetrics is called.
func New(zones []*zone.Zone, c Cache, keys map[string][]byte, verifier Verifier, signer Signer) *Responder {
	return &Responder{zones: zones, cache: c, keys: keys, verifier: verifier, signer: signer, metrics: noopMetrics{}}
}

// SetMetrics installs the Recorder used to instrument Respond and
// cache lookups. Passing nil restores the no-op recorder.
func (r *Responder) SetMetrics(m Metrics) {
	if m == nil {
		m = noopMetrics{}
	}
	r.metrics = m
}

// bestZone returns the zone whose origin is the longest matching
// suffix of qname, per §4.6 step 5's "best zone (longest-origin match)".
func (r *Responder) bestZone(qname name.Name) (*zone.Zone, bool) {
	var best *zone.Zone
	bestLabels := -1
	for _, z := range r.zones {
		if !qname.Subdomain(z.Origin()) {
			continue
		}
		if l := z.Origin().Labels(); l > bestLabels {
			best, bestLabels = z, l
		}
	}
	return best, best != nil
}

// Respond decodes raw, applies the full §4.6 policy, and returns the
// wire-format reply (nil if the policy calls for silence, e.g. a
// query with QR already set). It never panics or returns an error:
// every internal failure is mapped to an RCODE in a well-formed reply.
func (r *Responder) Respond(raw []byte, opts Options) []byte {
	start := time.Now()
	qtypeLabel := "unknown"
	rcodeLabel := message.RcodeNoError.String()
	defer func() {
		r.metrics.QueryHandled(rcodeLabel, qtypeLabel, time.Since(start))
	}()

	req, err := message.Decode(raw)
	if err != nil {
		rcodeLabel = message.RcodeFormErr.String()
		return encodeBareFormErr(bestEffortID(raw))
	}

	if req.Header.Response {
		return nil // never answer a response
	}
	if req.Header.Rcode != message.RcodeNoError {
		rcodeLabel = message.RcodeFormErr.String()
		return r.encodeError(req, message.RcodeFormErr, opts)
	}
	if req.Header.Opcode != message.OpcodeQuery {
		rcodeLabel = message.RcodeNotImp.String()
		return r.encodeError(req, message.RcodeNotImp, opts)
	}

	var keyName name.Name
	if req.TSIG != nil {
		keyName = req.TSIG.Owner
		if _, known := r.lookupKey(keyName); !known || r.verifier == nil || !r.verifier.Verify(keyName, req, raw) {
			rcodeLabel = message.RcodeFormErr.String()
			return encodeBareFormErr(req.Header.ID)
		}
	}

	maxUDP := uint16(defaultUDPSize)
	doBit := false
	if req.OPT != nil && req.OPT.OPT != nil {
		if req.OPT.OPT.UDPSize > maxUDP {
			maxUDP = req.OPT.OPT.UDPSize
		}
		doBit = req.OPT.OPT.DO
	}

	if len(req.Question) == 0 {
		rcodeLabel = message.RcodeFormErr.String()
		return r.encodeError(req, message.RcodeFormErr, opts)
	}
	q := req.Question[0]
	qtypeLabel = q.Type.String()

	if q.Type == rr.TypeAXFR {
		return r.respondAXFR(req, q, opts)
	}

	resp := &message.Message{Header: message.Header{
		ID: req.Header.ID, Response: true, Opcode: message.OpcodeQuery,
		RecursionDesired: req.Header.RecursionDesired,
	}}
	resp.Question = append(resp.Question, q)

	r.addAnswer(resp, q.Name, q.Type, q.Class, 0)
	r.addGlue(resp)

	if req.OPT != nil {
		resp.OPT = &rr.Record{Owner: name.Root(), Type: rr.TypeOPT, OPT: &rr.OPTData{UDPSize: echoUDPSize, DO: doBit}}
	}

	if req.TSIG != nil && r.signer != nil {
		r.sign(resp, keyName, req.TSIG)
	}

	rcodeLabel = resp.Header.Rcode.String()
	return r.render(resp, opts, maxUDP)
}

func (r *Responder) lookupKey(keyName name.Name) ([]byte, bool) {
	secret, ok := r.keys[keyName.CacheKey()]
	return secret, ok
}

func (r *Responder) sign(resp *message.Message, keyName name.Name, priorTSIG *rr.Record) {
	rendered, err := resp.Encode(0)
	if err != nil {
		return
	}
	var priorMAC []byte
	if priorTSIG != nil && priorTSIG.TSIGRec != nil {
		priorMAC = priorTSIG.TSIGRec.MAC
	}
	tsigRec, err := r.signer.Generate(keyName, resp, rendered, priorMAC)
	if err != nil {
		return
	}
	resp.TSIG = tsigRec
}

// render encodes resp honoring the negotiated length cap: UDP uses the
// negotiated/classic payload size, TCP the protocol maximum.
func (r *Responder) render(resp *message.Message, opts Options, maxUDP uint16) []byte {
	limit := int(maxUDP)
	if opts.Transport == TCP {
		limit = maxTCPSize
	}
	out, err := resp.Encode(limit)
	if err != nil {
		return nil
	}
	return out
}

// encodeError builds a minimal reply carrying only the header and
// (when one was parsed) the original question, with the given rcode.
func (r *Responder) encodeError(req *message.Message, rcode message.Rcode, opts Options) []byte {
	resp := &message.Message{Header: message.Header{ID: req.Header.ID, Response: true, Opcode: req.Header.Opcode, Rcode: rcode}}
	resp.Question = append(resp.Question, req.Question...)
	limit := defaultUDPSize
	if opts.Transport == TCP {
		limit = maxTCPSize
	}
	out, err := resp.Encode(limit)
	if err != nil {
		return nil
	}
	return out
}

// encodeBareFormErr builds the minimal FORMERR reply used when the
// incoming buffer couldn't be parsed, or a TSIG key was unknown/failed
// verification: header only, question omitted (§7).
func encodeBareFormErr(id uint16) []byte {
	resp := &message.Message{Header: message.Header{ID: id, Response: true, Rcode: message.RcodeFormErr}}
	out, err := resp.Encode(0)
	if err != nil {
		return nil
	}
	return out
}

// bestEffortID recovers the transaction ID from a buffer too malformed
// for message.Decode to accept, so the FORMERR reply still carries it.
func bestEffortID(raw []byte) uint16 {
	if len(raw) < 2 {
		return 0
	}
	return uint16(raw[0])<<8 | uint16(raw[1])
}
