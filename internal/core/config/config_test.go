package config

import (
	"strings"
	"testing"
)

const exampleConf = `
; comment line
port 5353
address 127.0.0.1
primary example. example.zone
secondary other.example. 192.0.2.53
cache cache.db
key hmac-sha256. key.example. 7365637265742d68657821
key other.example. plaintextsecret
`

func TestParseReadsAllDirectives(t *testing.T) {
	cfg, err := Parse(strings.NewReader(exampleConf))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Port != 5353 || cfg.Address != "127.0.0.1" {
		t.Fatalf("Port/Address = %d/%s, want 5353/127.0.0.1", cfg.Port, cfg.Address)
	}
	if len(cfg.Primaries) != 1 || cfg.Primaries[0].File != "example.zone" {
		t.Fatalf("Primaries = %+v", cfg.Primaries)
	}
	if len(cfg.Secondaries) != 1 || cfg.Secondaries[0].Remote != "192.0.2.53" {
		t.Fatalf("Secondaries = %+v", cfg.Secondaries)
	}
	if cfg.CacheFile != "cache.db" {
		t.Fatalf("CacheFile = %q, want cache.db", cfg.CacheFile)
	}
	if len(cfg.Keys) != 2 {
		t.Fatalf("Keys = %+v, want 2", cfg.Keys)
	}
	if cfg.Keys[1].Algorithm != "hmac-md5.sig-alg.reg.int." {
		t.Fatalf("default key algorithm = %q", cfg.Keys[1].Algorithm)
	}
}

func TestParseDefaultsPortAndAddress(t *testing.T) {
	cfg, err := Parse(strings.NewReader("primary example. example.zone\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Port != defaultPort || cfg.Address != defaultAddress {
		t.Fatalf("Port/Address = %d/%s, want defaults", cfg.Port, cfg.Address)
	}
}

func TestParseRejectsUnknownKeyword(t *testing.T) {
	_, err := Parse(strings.NewReader("bogus foo\n"))
	if err == nil {
		t.Fatalf("Parse(unknown keyword) = nil error, want failure")
	}
}

func TestParseRejectsMalformedPrimary(t *testing.T) {
	_, err := Parse(strings.NewReader("primary example.\n"))
	if err == nil {
		t.Fatalf("Parse(malformed primary) = nil error, want failure")
	}
}
