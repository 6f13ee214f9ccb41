package rr

import "testing"

func TestRRsetTTLIsMinimumOfMembers(t *testing.T) {
	owner := mustName(t, "example.com.")
	set := NewRRset(Record{Owner: owner, Type: TypeA, Class: ClassIN, TTL: 300, Addr: []byte{1, 2, 3, 4}})
	set.Add(Record{Owner: owner, Type: TypeA, Class: ClassIN, TTL: 60, Addr: []byte{5, 6, 7, 8}})
	if set.TTL() != 60 {
		t.Fatalf("TTL() = %d, want 60", set.TTL())
	}
	if set.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", set.Len())
	}
}

func TestRRsetSetTTLClampsMembers(t *testing.T) {
	owner := mustName(t, "example.com.")
	set := NewRRset(Record{Owner: owner, Type: TypeA, Class: ClassIN, TTL: 300, Addr: []byte{1, 2, 3, 4}})
	set.Add(Record{Owner: owner, Type: TypeA, Class: ClassIN, TTL: 600, Addr: []byte{5, 6, 7, 8}})
	set.SetTTL(30)
	for _, r := range set.Records() {
		if r.TTL != 30 {
			t.Fatalf("member TTL = %d, want 30", r.TTL)
		}
	}
	if set.TTL() != 30 {
		t.Fatalf("TTL() = %d, want 30", set.TTL())
	}
}

func TestRRsetCloneIsIndependent(t *testing.T) {
	owner := mustName(t, "example.com.")
	set := NewRRset(Record{Owner: owner, Type: TypeA, Class: ClassIN, TTL: 300, Addr: []byte{1, 2, 3, 4}})
	clone := set.Clone()
	clone.Records()[0].Addr[0] = 9
	if set.Records()[0].Addr[0] == 9 {
		t.Fatal("Clone must deep-copy member records")
	}
}

func TestRRsetAddSig(t *testing.T) {
	owner := mustName(t, "example.com.")
	set := NewRRset(Record{Owner: owner, Type: TypeA, Class: ClassIN, TTL: 300, Addr: []byte{1, 2, 3, 4}})
	set.AddSig(Record{Owner: owner, Type: TypeRRSIG, Class: ClassIN, TTL: 300, RDATA: []byte{0xAA}})
	if len(set.Sigs()) != 1 {
		t.Fatalf("Sigs() len = %d, want 1", len(set.Sigs()))
	}
}
