package zoneio

import (
	"strings"
	"testing"

	"github.com/bdijkstra82/dnsjava/internal/core/lookupresult"
	"github.com/bdijkstra82/dnsjava/internal/core/name"
	"github.com/bdijkstra82/dnsjava/internal/core/rr"
	"github.com/bdijkstra82/dnsjava/internal/core/zone"
)

const exampleZoneFile = `
$ORIGIN example.
$TTL 3600
@	IN	SOA	ns1.example. hostmaster.example. (
			1      ; serial
			3600   ; refresh
			900    ; retry
			604800 ; expire
			86400  ; minimum
			)
	IN	NS	ns1.example.
	IN	NS	ns2.example.
ns1	IN	A	192.0.2.1
ns2	IN	A	192.0.2.2
www	IN	CNAME	ns1.example.
mail	IN	MX	10 ns1.example.
*	IN	A	192.0.2.9
`

func TestParseBuildsLoadableZone(t *testing.T) {
	origin, err := name.Parse("example.")
	if err != nil {
		t.Fatalf("Parse origin: %v", err)
	}
	p := NewParser(origin)
	records, err := p.Parse(strings.NewReader(exampleZoneFile))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	z, err := zone.New(origin, records)
	if err != nil {
		t.Fatalf("zone.New: %v", err)
	}

	q, err := name.Parse("www.example.")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res := z.Lookup(q, rr.TypeCNAME)
	if res.Kind != lookupresult.Success || len(res.RRsets) != 1 {
		t.Fatalf("Lookup(www.example., CNAME) = %+v, want Success", res)
	}
}

func TestParseResolvesWildcardOwner(t *testing.T) {
	origin, err := name.Parse("example.")
	if err != nil {
		t.Fatalf("Parse origin: %v", err)
	}
	p := NewParser(origin)
	records, err := p.Parse(strings.NewReader(exampleZoneFile))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var sawWildcard bool
	for _, r := range records {
		if r.Owner.IsWild() {
			sawWildcard = true
		}
	}
	if !sawWildcard {
		t.Fatalf("no parsed record carried the wildcard owner")
	}
}

func TestParseRejectsUnknownType(t *testing.T) {
	origin, err := name.Parse("example.")
	if err != nil {
		t.Fatalf("Parse origin: %v", err)
	}
	p := NewParser(origin)
	_, err = p.Parse(strings.NewReader("bogus IN BOGUS somedata\n"))
	if err == nil {
		t.Fatalf("Parse(unknown type) = nil error, want failure")
	}
}
