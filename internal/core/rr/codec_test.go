package rr

import (
	"testing"

	"github.com/bdijkstra82/dnsjava/internal/core/compress"
	"github.com/bdijkstra82/dnsjava/internal/core/name"
	"github.com/bdijkstra82/dnsjava/internal/core/wire"
)

func mustName(t *testing.T, s string) name.Name {
	t.Helper()
	n, err := name.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return n
}

func roundTrip(t *testing.T, r Record) Record {
	t.Helper()
	buf := wire.NewWriter(512)
	if _, err := r.Encode(buf, compress.New()); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	reader := wire.NewBuffer(buf.Bytes())
	got, err := Decode(reader)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return got
}

func TestCodecA(t *testing.T) {
	r := Record{Owner: mustName(t, "www.example.com."), Type: TypeA, Class: ClassIN, TTL: 300, Addr: []byte{192, 0, 2, 1}}
	got := roundTrip(t, r)
	if string(got.Addr) != string(r.Addr) || got.TTL != r.TTL {
		t.Fatalf("A roundtrip mismatch: %+v", got)
	}
}

func TestCodecAAAA(t *testing.T) {
	addr := make([]byte, 16)
	addr[15] = 1
	r := Record{Owner: mustName(t, "www.example.com."), Type: TypeAAAA, Class: ClassIN, TTL: 300, Addr: addr}
	got := roundTrip(t, r)
	if string(got.Addr) != string(addr) {
		t.Fatalf("AAAA roundtrip mismatch: %+v", got)
	}
}

func TestCodecNSCompressesOwnerAndHost(t *testing.T) {
	owner := mustName(t, "example.com.")
	host := mustName(t, "ns1.example.com.")
	r := Record{Owner: owner, Type: TypeNS, Class: ClassIN, TTL: 3600, Host: host}
	got := roundTrip(t, r)
	if !got.Host.Equal(host) {
		t.Fatalf("Host = %s, want %s", got.Host, host)
	}
}

func TestCodecCNAME(t *testing.T) {
	r := Record{Owner: mustName(t, "alias.example.com."), Type: TypeCNAME, Class: ClassIN, TTL: 300, Host: mustName(t, "target.example.com.")}
	got := roundTrip(t, r)
	if !got.Host.Equal(r.Host) {
		t.Fatalf("CNAME host mismatch")
	}
}

func TestCodecDNAME(t *testing.T) {
	r := Record{Owner: mustName(t, "sub.example.com."), Type: TypeDNAME, Class: ClassIN, TTL: 300, Host: mustName(t, "other.example.com.")}
	got := roundTrip(t, r)
	if !got.Host.Equal(r.Host) {
		t.Fatalf("DNAME target mismatch")
	}
}

func TestCodecSOA(t *testing.T) {
	r := Record{
		Owner: mustName(t, "example.com."), Type: TypeSOA, Class: ClassIN, TTL: 3600,
		SOA: &SOAData{
			MName: mustName(t, "ns1.example.com."), RName: mustName(t, "hostmaster.example.com."),
			Serial: 2024010101, Refresh: 7200, Retry: 3600, Expire: 1209600, Minimum: 300,
		},
	}
	got := roundTrip(t, r)
	if got.SOA == nil || got.SOA.Serial != r.SOA.Serial || !got.SOA.MName.Equal(r.SOA.MName) {
		t.Fatalf("SOA roundtrip mismatch: %+v", got.SOA)
	}
}

func TestCodecMX(t *testing.T) {
	r := Record{Owner: mustName(t, "example.com."), Type: TypeMX, Class: ClassIN, TTL: 3600, MX: &MXData{Preference: 10, Exchange: mustName(t, "mail.example.com.")}}
	got := roundTrip(t, r)
	if got.MX == nil || got.MX.Preference != 10 || !got.MX.Exchange.Equal(r.MX.Exchange) {
		t.Fatalf("MX roundtrip mismatch: %+v", got.MX)
	}
}

func TestCodecTXTMultiChunk(t *testing.T) {
	long := make([]byte, 600)
	for i := range long {
		long[i] = byte('a' + i%26)
	}
	r := Record{Owner: mustName(t, "example.com."), Type: TypeTXT, Class: ClassIN, TTL: 300, TXT: string(long)}
	got := roundTrip(t, r)
	if got.TXT != r.TXT {
		t.Fatalf("TXT roundtrip mismatch: got %d bytes, want %d", len(got.TXT), len(r.TXT))
	}
}

func TestCodecSRV(t *testing.T) {
	r := Record{Owner: mustName(t, "_sip._tcp.example.com."), Type: TypeSRV, Class: ClassIN, TTL: 300,
		SRV: &SRVData{Priority: 10, Weight: 20, Port: 5060, Target: mustName(t, "sipserver.example.com.")}}
	got := roundTrip(t, r)
	if got.SRV == nil || got.SRV.Port != 5060 || !got.SRV.Target.Equal(r.SRV.Target) {
		t.Fatalf("SRV roundtrip mismatch: %+v", got.SRV)
	}
}

func TestCodecOPT(t *testing.T) {
	r := Record{Owner: name.Root(), Type: TypeOPT, Class: 0, TTL: 0,
		OPT: &OPTData{UDPSize: 4096, ExtRCode: 0, Version: 0, DO: true, Options: []EDNSOption{{Code: 8, Data: []byte{0, 1, 0, 0}}}}}
	got := roundTrip(t, r)
	if got.OPT == nil || got.OPT.UDPSize != 4096 || !got.OPT.DO {
		t.Fatalf("OPT roundtrip mismatch: %+v", got.OPT)
	}
	if len(got.OPT.Options) != 1 || got.OPT.Options[0].Code != 8 {
		t.Fatalf("OPT option roundtrip mismatch: %+v", got.OPT.Options)
	}
}

func TestCodecTSIG(t *testing.T) {
	r := Record{Owner: mustName(t, "key.example.com."), Type: TypeTSIG, Class: ClassANY, TTL: 0,
		TSIGRec: &TSIGData{
			Algorithm: mustName(t, "hmac-sha256."), TimeSigned: 1700000000, Fudge: 300,
			MAC: []byte{1, 2, 3, 4}, OriginalID: 42, Error: 0, Other: nil,
		}}
	got := roundTrip(t, r)
	if got.TSIGRec == nil || got.TSIGRec.OriginalID != 42 || string(got.TSIGRec.MAC) != string(r.TSIGRec.MAC) {
		t.Fatalf("TSIG roundtrip mismatch: %+v", got.TSIGRec)
	}
}

func TestCodecGenericFallback(t *testing.T) {
	r := Record{Owner: mustName(t, "example.com."), Type: TypeDS, Class: ClassIN, TTL: 300, RDATA: []byte{1, 2, 3, 4, 5}}
	got := roundTrip(t, r)
	if string(got.RDATA) != string(r.RDATA) {
		t.Fatalf("generic RDATA mismatch: %v", got.RDATA)
	}
}

func TestDecodeRejectsShortRDATA(t *testing.T) {
	buf := wire.NewWriter(64)
	owner := mustName(t, "example.com.")
	_ = owner.EncodeWire(buf, nil)
	_ = buf.WriteUint16(uint16(TypeA))
	_ = buf.WriteUint16(uint16(ClassIN))
	_ = buf.WriteUint32(300)
	_ = buf.WriteUint16(4) // rdlength 4
	_ = buf.WriteBytes([]byte{192, 0, 2}) // only 3 bytes supplied

	reader := wire.NewBuffer(buf.Bytes())
	if _, err := Decode(reader); err == nil {
		t.Fatal("expected error for truncated A rdata")
	}
}
