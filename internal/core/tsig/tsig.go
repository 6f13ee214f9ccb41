// Package tsig implements the concrete HMAC transaction-signature
// provider the responder's Verifier/Signer interfaces are defined
// against (§4.7). It generalizes the teacher's VerifyTSIG/SignTSIG
// (internal/dns/packet/tsig.go) from its single hardcoded
// hmac-md5.sig-alg.reg.int. algorithm and keyName string to a
// multi-key, multi-algorithm provider keyed by name.Name, matching the
// core's typed value objects instead of the teacher's raw strings.
package tsig

import (
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // RFC 2845's original algorithm; kept for interop alongside sha256
	"crypto/sha256"
	"fmt"
	"hash"
	"time"

	"github.com/bdijkstra82/dnsjava/internal/core/dnserr"
	"github.com/bdijkstra82/dnsjava/internal/core/message"
	"github.com/bdijkstra82/dnsjava/internal/core/name"
	"github.com/bdijkstra82/dnsjava/internal/core/rr"
	"github.com/bdijkstra82/dnsjava/internal/core/wire"
)

// Well-known TSIG algorithm presentation names (RFC 2845, RFC 4635).
var (
	AlgHMACMD5    = mustParse("hmac-md5.sig-alg.reg.int.")
	AlgHMACSHA256 = mustParse("hmac-sha256.")
)

func mustParse(s string) name.Name {
	n, err := name.Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

func hasherFor(alg name.Name) (func() hash.Hash, bool) {
	switch {
	case alg.Equal(AlgHMACMD5):
		return md5.New, true
	case alg.Equal(AlgHMACSHA256):
		return sha256.New, true
	default:
		return nil, false
	}
}

// Key is one configured TSIG key: its presentation name, shared
// secret, and signing algorithm.
type Key struct {
	Name      name.Name
	Secret    []byte
	Algorithm name.Name
}

// Provider implements responder.Verifier and responder.Signer over a
// fixed set of configured keys, with a fudge window bounding acceptable
// clock drift (§4.7; 300s matches the teacher's SignTSIG default).
type Provider struct {
	keys  map[string]Key
	fudge uint16
}

// New builds a Provider from keys, keyed by each Key's case-folded
// name. fudge of 0 defaults to 300 seconds, RFC 2845's recommended value.
func New(keys []Key, fudge uint16) *Provider {
	if fudge == 0 {
		fudge = 300
	}
	m := make(map[string]Key, len(keys))
	for _, k := range keys {
		m[k.Name.CacheKey()] = k
	}
	return &Provider{keys: m, fudge: fudge}
}

// Verify checks msg.TSIG's MAC and time drift against the named key
// (§4.7). raw is the original wire-format request, required because the
// MAC covers the request bytes verbatim up to (but not including) the
// TSIG record.
func (p *Provider) Verify(keyName name.Name, msg *message.Message, raw []byte) bool {
	key, ok := p.keys[keyName.CacheKey()]
	if !ok || msg.TSIG == nil || msg.TSIG.TSIGRec == nil {
		return false
	}
	hasher, ok := hasherFor(key.Algorithm)
	if !ok {
		return false
	}

	tsig := msg.TSIG.TSIGRec
	now := uint64(time.Now().Unix())
	var drift uint64
	if now > tsig.TimeSigned {
		drift = now - tsig.TimeSigned
	} else {
		drift = tsig.TimeSigned - now
	}
	if drift > uint64(tsig.Fudge) {
		return false
	}

	prefix, ok := tsigPrefix(raw)
	if !ok {
		return false
	}
	expected := computeMAC(hasher, key.Secret, prefix, msg.TSIG.Owner, msg.TSIG.Class, key.Algorithm, tsig)
	return hmac.Equal(tsig.MAC, expected)
}

// Generate produces the TSIG record to append to rendered (§4.7): a
// fresh MAC over rendered plus, when priorMAC is non-nil, the prior
// request's MAC prepended per RFC 2845 §4.4 ("the request's MAC is
// ... included in the digest" for responses to a signed query).
func (p *Provider) Generate(keyName name.Name, msg *message.Message, rendered []byte, priorMAC []byte) (*rr.Record, error) {
	key, ok := p.keys[keyName.CacheKey()]
	if !ok {
		return nil, fmt.Errorf("tsig: unknown key %s: %w", keyName, dnserr.ErrZoneInvariant)
	}
	hasher, ok := hasherFor(key.Algorithm)
	if !ok {
		return nil, fmt.Errorf("tsig: unsupported algorithm %s: %w", key.Algorithm, dnserr.ErrZoneInvariant)
	}

	tsig := &rr.TSIGData{
		Algorithm:  key.Algorithm,
		TimeSigned: uint64(time.Now().Unix()),
		Fudge:      p.fudge,
		OriginalID: msg.Header.ID,
	}

	h := hasher()
	if priorMAC != nil {
		prefix := make([]byte, 2+len(priorMAC))
		prefix[0] = byte(len(priorMAC) >> 8)
		prefix[1] = byte(len(priorMAC))
		copy(prefix[2:], priorMAC)
		h.Write(prefix)
	}
	h.Write(rendered)
	writeTSIGVariables(h, keyName, rr.ClassANY, key.Algorithm, tsig)
	tsig.MAC = h.Sum(nil)

	return &rr.Record{Owner: keyName, Type: rr.TypeTSIG, Class: rr.ClassANY, TSIGRec: tsig}, nil
}

// tsigPrefix returns raw with its ARCOUNT field decremented by one (to
// exclude the TSIG record itself, per RFC 2845 §3.4.1) and truncated to
// the bytes preceding the TSIG record. raw must be a message whose last
// additional record is a TSIG; message.Decode's own parse already
// guarantees this for anything handed to Verify.
func tsigPrefix(raw []byte) ([]byte, bool) {
	if len(raw) < 12 {
		return nil, false
	}
	arCount := uint16(raw[10])<<8 | uint16(raw[11])
	if arCount == 0 {
		return nil, false
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	arCount--
	out[10] = byte(arCount >> 8)
	out[11] = byte(arCount)
	return out, true
}

func computeMAC(newHash func() hash.Hash, secret, prefix []byte, owner name.Name, class rr.Class, alg name.Name, tsig *rr.TSIGData) []byte {
	h := hmac.New(newHash, secret)
	h.Write(prefix)
	writeTSIGVariables(h, owner, class, alg, tsig)
	return h.Sum(nil)
}

// writeTSIGVariables feeds the RFC 2845 §3.4.1/§3.4.2 "TSIG variables"
// into h: the key name, class, TTL, algorithm, signing time, fudge,
// error and other-data — all in canonical, uncompressed wire format.
func writeTSIGVariables(h hash.Hash, owner name.Name, class rr.Class, alg name.Name, tsig *rr.TSIGData) {
	buf := wire.NewWriter(64)
	_ = owner.Canonical().EncodeWire(buf, nil)
	_ = buf.WriteUint16(uint16(class))
	_ = buf.WriteUint32(0) // TTL is always 0 for TSIG
	_ = alg.Canonical().EncodeWire(buf, nil)
	_ = buf.WriteUint16(uint16(tsig.TimeSigned >> 32))
	_ = buf.WriteUint32(uint32(tsig.TimeSigned & 0xFFFFFFFF))
	_ = buf.WriteUint16(tsig.Fudge)
	_ = buf.WriteUint16(tsig.Error)
	_ = buf.WriteUint16(uint16(len(tsig.Other)))
	_ = buf.WriteBytes(tsig.Other)
	h.Write(buf.Bytes())
}
