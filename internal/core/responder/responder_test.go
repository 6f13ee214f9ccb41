package responder

import (
	"testing"
	"time"

	"github.com/bdijkstra82/dnsjava/internal/core/lookupresult"
	"github.com/bdijkstra82/dnsjava/internal/core/message"
	"github.com/bdijkstra82/dnsjava/internal/core/name"
	"github.com/bdijkstra82/dnsjava/internal/core/rr"
	"github.com/bdijkstra82/dnsjava/internal/core/zone"
)

func mustName(t *testing.T, s string) name.Name {
	t.Helper()
	n, err := name.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return n
}

func exampleSOA(t *testing.T, origin name.Name) rr.Record {
	return rr.Record{
		Owner: origin, Type: rr.TypeSOA, Class: rr.ClassIN, TTL: 3600,
		SOA: &rr.SOAData{
			MName: mustName(t, "ns1.example."), RName: mustName(t, "hostmaster.example."),
			Serial: 1, Refresh: 1, Retry: 1, Expire: 1, Minimum: 60,
		},
	}
}

func exampleNS(t *testing.T, origin name.Name, target name.Name) rr.Record {
	return rr.Record{Owner: origin, Type: rr.TypeNS, Class: rr.ClassIN, TTL: 3600, Host: target}
}

// emptyCache never has anything: every lookup is Unknown.
type emptyCache struct{}

func (emptyCache) Lookup(name.Name, rr.Type, rr.Credibility) lookupresult.Result {
	return lookupresult.UnknownResult()
}

func encodeQuery(t *testing.T, qname name.Name, qtype rr.Type) []byte {
	t.Helper()
	msg := &message.Message{Header: message.Header{ID: 0x1234, Opcode: message.OpcodeQuery, RecursionDesired: true}}
	msg.Question = append(msg.Question, message.Question{Name: qname, Type: qtype, Class: rr.ClassIN})
	out, err := msg.Encode(0)
	if err != nil {
		t.Fatalf("Encode request: %v", err)
	}
	return out
}

func decodeReply(t *testing.T, raw []byte) *message.Message {
	t.Helper()
	if raw == nil {
		t.Fatalf("Respond returned nil")
	}
	msg, err := message.Decode(raw)
	if err != nil {
		t.Fatalf("Decode reply: %v", err)
	}
	return msg
}

func newExampleZone(t *testing.T) *zone.Zone {
	origin := mustName(t, "example.")
	a := mustName(t, "a.example.")
	b := mustName(t, "b.example.")
	z, err := zone.New(origin, []rr.Record{
		exampleSOA(t, origin), exampleNS(t, origin, mustName(t, "ns1.example.")),
		{Owner: origin, Type: rr.TypeA, Class: rr.ClassIN, TTL: 300, Addr: []byte{192, 0, 2, 1}},
		{Owner: a, Type: rr.TypeCNAME, Class: rr.ClassIN, TTL: 300, Host: b},
		{Owner: b, Type: rr.TypeA, Class: rr.ClassIN, TTL: 300, Addr: []byte{192, 0, 2, 2}},
	})
	if err != nil {
		t.Fatalf("zone.New: %v", err)
	}
	return z
}

func TestRespondSuccessIsAuthoritativeWithNSInAuthority(t *testing.T) {
	z := newExampleZone(t)
	r := New([]*zone.Zone{z}, emptyCache{}, nil, nil, nil)

	raw := encodeQuery(t, mustName(t, "example."), rr.TypeA)
	reply := decodeReply(t, r.Respond(raw, Options{}))

	if !reply.Header.Response || !reply.Header.Authoritative {
		t.Fatalf("header = %+v, want Response+Authoritative", reply.Header)
	}
	if reply.Header.Rcode != message.RcodeNoError {
		t.Fatalf("Rcode = %v, want NOERROR", reply.Header.Rcode)
	}
	if len(reply.Answer) != 1 || reply.Answer[0].Type != rr.TypeA {
		t.Fatalf("Answer = %+v, want one A record", reply.Answer)
	}
	if len(reply.Authority) != 1 || reply.Authority[0].Type != rr.TypeNS {
		t.Fatalf("Authority = %+v, want origin NS", reply.Authority)
	}
}

func TestRespondCNAMEChaseFollowsToFinalAnswer(t *testing.T) {
	z := newExampleZone(t)
	r := New([]*zone.Zone{z}, emptyCache{}, nil, nil, nil)

	raw := encodeQuery(t, mustName(t, "a.example."), rr.TypeA)
	reply := decodeReply(t, r.Respond(raw, Options{}))

	if len(reply.Answer) != 2 {
		t.Fatalf("Answer = %+v, want CNAME + A", reply.Answer)
	}
	if reply.Answer[0].Type != rr.TypeCNAME || reply.Answer[1].Type != rr.TypeA {
		t.Fatalf("Answer types = %v, %v, want CNAME, A", reply.Answer[0].Type, reply.Answer[1].Type)
	}
}

func TestRespondNXDomainSetsRcodeAndSOA(t *testing.T) {
	z := newExampleZone(t)
	r := New([]*zone.Zone{z}, emptyCache{}, nil, nil, nil)

	raw := encodeQuery(t, mustName(t, "bogus.example."), rr.TypeA)
	reply := decodeReply(t, r.Respond(raw, Options{}))

	if reply.Header.Rcode != message.RcodeNXDomain {
		t.Fatalf("Rcode = %v, want NXDOMAIN", reply.Header.Rcode)
	}
	if len(reply.Authority) != 1 || reply.Authority[0].Type != rr.TypeSOA {
		t.Fatalf("Authority = %+v, want apex SOA", reply.Authority)
	}
}

func TestRespondDelegationPutsNSInAuthorityNotAnswer(t *testing.T) {
	origin := mustName(t, "example.")
	sub := mustName(t, "sub.example.")
	z, err := zone.New(origin, []rr.Record{
		exampleSOA(t, origin), exampleNS(t, origin, mustName(t, "ns1.example.")),
		{Owner: sub, Type: rr.TypeNS, Class: rr.ClassIN, TTL: 300, Host: mustName(t, "ns1.sub.example.")},
	})
	if err != nil {
		t.Fatalf("zone.New: %v", err)
	}
	r := New([]*zone.Zone{z}, emptyCache{}, nil, nil, nil)

	raw := encodeQuery(t, mustName(t, "www.sub.example."), rr.TypeA)
	reply := decodeReply(t, r.Respond(raw, Options{}))

	if len(reply.Answer) != 0 {
		t.Fatalf("Answer = %+v, want empty (delegation only)", reply.Answer)
	}
	if reply.Header.Authoritative {
		t.Fatalf("header.Authoritative = true, want false for a delegation")
	}
	if len(reply.Authority) != 1 || reply.Authority[0].Type != rr.TypeNS {
		t.Fatalf("Authority = %+v, want sub-zone NS", reply.Authority)
	}
}

func TestRespondDropsMessagesWithQRSet(t *testing.T) {
	z := newExampleZone(t)
	r := New([]*zone.Zone{z}, emptyCache{}, nil, nil, nil)

	msg := &message.Message{Header: message.Header{ID: 1, Response: true, Opcode: message.OpcodeQuery}}
	msg.Question = append(msg.Question, message.Question{Name: mustName(t, "example."), Type: rr.TypeA, Class: rr.ClassIN})
	raw, err := msg.Encode(0)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if out := r.Respond(raw, Options{}); out != nil {
		t.Fatalf("Respond(QR=1) = %v, want nil (silently dropped)", out)
	}
}

func TestRespondNonQueryOpcodeIsNotImplemented(t *testing.T) {
	z := newExampleZone(t)
	r := New([]*zone.Zone{z}, emptyCache{}, nil, nil, nil)

	msg := &message.Message{Header: message.Header{ID: 2, Opcode: message.OpcodeUpdate}}
	msg.Question = append(msg.Question, message.Question{Name: mustName(t, "example."), Type: rr.TypeA, Class: rr.ClassIN})
	raw, err := msg.Encode(0)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	reply := decodeReply(t, r.Respond(raw, Options{}))
	if reply.Header.Rcode != message.RcodeNotImp {
		t.Fatalf("Rcode = %v, want NOTIMP", reply.Header.Rcode)
	}
}

type refusingVerifier struct{}

func (refusingVerifier) Verify(name.Name, *message.Message, []byte) bool { return false }

func TestRespondUnknownTSIGKeyIsBareFormErr(t *testing.T) {
	z := newExampleZone(t)
	r := New([]*zone.Zone{z}, emptyCache{}, nil, refusingVerifier{}, nil)

	msg := &message.Message{Header: message.Header{ID: 3, Opcode: message.OpcodeQuery}}
	msg.Question = append(msg.Question, message.Question{Name: mustName(t, "example."), Type: rr.TypeA, Class: rr.ClassIN})
	msg.TSIG = &rr.Record{Owner: mustName(t, "key.example."), Type: rr.TypeTSIG, TSIGRec: &rr.TSIGData{}}
	raw, err := msg.Encode(0)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	reply := decodeReply(t, r.Respond(raw, Options{}))
	if reply.Header.Rcode != message.RcodeFormErr {
		t.Fatalf("Rcode = %v, want FORMERR", reply.Header.Rcode)
	}
	if len(reply.Question) != 0 {
		t.Fatalf("Question = %+v, want empty (bare FORMERR carries no question)", reply.Question)
	}
}

func TestRespondEchoesOPTAtNegotiatedSize(t *testing.T) {
	z := newExampleZone(t)
	r := New([]*zone.Zone{z}, emptyCache{}, nil, nil, nil)

	msg := &message.Message{Header: message.Header{ID: 4, Opcode: message.OpcodeQuery}}
	msg.Question = append(msg.Question, message.Question{Name: mustName(t, "example."), Type: rr.TypeA, Class: rr.ClassIN})
	msg.OPT = &rr.Record{Owner: name.Root(), Type: rr.TypeOPT, OPT: &rr.OPTData{UDPSize: 1200, DO: true}}
	raw, err := msg.Encode(0)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	reply := decodeReply(t, r.Respond(raw, Options{}))
	if reply.OPT == nil || reply.OPT.OPT == nil {
		t.Fatalf("reply OPT missing")
	}
	if reply.OPT.OPT.UDPSize != echoUDPSize {
		t.Fatalf("reply OPT UDPSize = %d, want %d", reply.OPT.OPT.UDPSize, echoUDPSize)
	}
	if !reply.OPT.OPT.DO {
		t.Fatalf("reply OPT DO = false, want echoed true")
	}
}

func TestRespondAXFROverUDPIsNotImplemented(t *testing.T) {
	z := newExampleZone(t)
	r := New([]*zone.Zone{z}, emptyCache{}, nil, nil, nil)

	raw := encodeQuery(t, mustName(t, "example."), rr.TypeAXFR)
	reply := decodeReply(t, r.Respond(raw, Options{Transport: UDP}))
	if reply.Header.Rcode != message.RcodeNotImp {
		t.Fatalf("Rcode = %v, want NOTIMP", reply.Header.Rcode)
	}
}

func TestRespondAXFRStreamsZoneThroughSink(t *testing.T) {
	z := newExampleZone(t)
	r := New([]*zone.Zone{z}, emptyCache{}, nil, nil, nil)

	var got []*rr.RRset
	sink := func(s *rr.RRset) error {
		got = append(got, s)
		return nil
	}

	raw := encodeQuery(t, mustName(t, "example."), rr.TypeAXFR)
	out := r.Respond(raw, Options{Transport: TCP, AXFRSink: sink})
	if out != nil {
		t.Fatalf("Respond(AXFR) = %v, want nil (streamed via sink)", out)
	}
	if len(got) < 2 || got[0].Type != rr.TypeSOA || got[len(got)-1].Type != rr.TypeSOA {
		t.Fatalf("sink sequence = %+v, want SOA first and last", got)
	}
}

func TestAddAnswerStopsAtChainDepthCap(t *testing.T) {
	origin := mustName(t, "loop.example.")
	records := []rr.Record{exampleSOA(t, origin), exampleNS(t, origin, mustName(t, "ns1.loop.example."))}
	for i := 0; i < maxChainDepth+2; i++ {
		from := mustName(t, chainLabel(i)+".loop.example.")
		to := mustName(t, chainLabel(i+1)+".loop.example.")
		records = append(records, rr.Record{Owner: from, Type: rr.TypeCNAME, Class: rr.ClassIN, TTL: 60, Host: to})
	}
	z, err := zone.New(origin, records)
	if err != nil {
		t.Fatalf("zone.New: %v", err)
	}
	r := New([]*zone.Zone{z}, emptyCache{}, nil, nil, nil)

	raw := encodeQuery(t, mustName(t, chainLabel(0)+".loop.example."), rr.TypeA)
	reply := decodeReply(t, r.Respond(raw, Options{}))

	if len(reply.Answer) > maxChainDepth+2 {
		t.Fatalf("Answer chain length = %d, want capped well below record count", len(reply.Answer))
	}
}

func chainLabel(i int) string {
	letters := "abcdefghijklmnopqrstuvwxyz"
	return string(letters[i%len(letters)])
}

// recordingMetrics captures every QueryHandled/CacheLookup call so tests
// can assert the live request path actually drives an injected Metrics,
// not just that the interface compiles.
type recordingMetrics struct {
	queries []string
	hits    []bool
}

func (m *recordingMetrics) QueryHandled(rcode, qtype string, _ time.Duration) {
	m.queries = append(m.queries, rcode+" "+qtype)
}

func (m *recordingMetrics) CacheLookup(hit bool) {
	m.hits = append(m.hits, hit)
}

func TestRespondRecordsMetricsForEveryQuery(t *testing.T) {
	z := newExampleZone(t)
	r := New([]*zone.Zone{z}, emptyCache{}, nil, nil, nil)
	m := &recordingMetrics{}
	r.SetMetrics(m)

	raw := encodeQuery(t, mustName(t, "example."), rr.TypeA)
	r.Respond(raw, Options{})

	if len(m.queries) != 1 || m.queries[0] != "NOERROR A" {
		t.Fatalf("recorded queries = %+v, want one NOERROR A entry", m.queries)
	}
}

func TestRespondRecordsCacheLookupOutsideZone(t *testing.T) {
	z := newExampleZone(t)
	r := New([]*zone.Zone{z}, emptyCache{}, nil, nil, nil)
	m := &recordingMetrics{}
	r.SetMetrics(m)

	raw := encodeQuery(t, mustName(t, "elsewhere.invalid."), rr.TypeA)
	r.Respond(raw, Options{})

	if len(m.hits) != 1 || m.hits[0] {
		t.Fatalf("recorded cache lookups = %+v, want one miss", m.hits)
	}
}
