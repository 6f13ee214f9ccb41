// Package zoneio implements the master-file tokenizer that is
// zone.New's external collaborator (§6): a line-oriented reader for
// RFC 1035 zone files producing the already-typed []rr.Record slice
// zone.New consumes directly.
//
// It generalizes the teacher's MasterParser
// (internal/dns/master/parser.go), keeping its line-joining algorithm
// (';' comment stripping, parenthesized multi-line continuation,
// leading-whitespace "same owner as previous line" rule, $ORIGIN/$TTL
// directives) but replacing its output — a flat domain.Record holding
// an untyped rdata string — with fully decoded rr.Record values, since
// this core has no repository layer for a later decode pass to feed.
package zoneio

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/bdijkstra82/dnsjava/internal/core/dnserr"
	"github.com/bdijkstra82/dnsjava/internal/core/name"
	"github.com/bdijkstra82/dnsjava/internal/core/rr"
)

func parseIP(s string, wantV6 bool) ([]byte, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("zoneio: invalid IP address %q: %w", s, dnserr.ErrTextParse)
	}
	if wantV6 {
		v6 := ip.To16()
		if v6 == nil || ip.To4() != nil {
			return nil, fmt.Errorf("zoneio: %q is not an IPv6 address: %w", s, dnserr.ErrTextParse)
		}
		return v6, nil
	}
	v4 := ip.To4()
	if v4 == nil {
		return nil, fmt.Errorf("zoneio: %q is not an IPv4 address: %w", s, dnserr.ErrTextParse)
	}
	return v4, nil
}

// Parser tokenizes a single zone file. Origin and TTL track the
// most recently seen $ORIGIN/$TTL directive, exactly as the teacher's
// MasterParser fields do.
type Parser struct {
	Origin     name.Name
	DefaultTTL uint32
}

// NewParser returns a Parser rooted at origin with a 3600s default TTL,
// matching the teacher's NewMasterParser default.
func NewParser(origin name.Name) *Parser {
	return &Parser{Origin: origin, DefaultTTL: 3600}
}

// Parse reads every record out of r, resolving relative owner and
// rdata names against the parser's current $ORIGIN.
func (p *Parser) Parse(r io.Reader) ([]rr.Record, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 1024*1024)
	scanner.Buffer(buf, 1024*1024)

	var out []rr.Record
	var lastOwner name.Name
	haveOwner := false
	var inParen bool
	var parenLines []string

	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.IndexByte(line, ';'); idx >= 0 {
			line = line[:idx]
		}

		firstLineLeadingWS := false
		if !inParen {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			firstLineLeadingWS = len(line) > 0 && (line[0] == ' ' || line[0] == '\t')
			if strings.Contains(line, "(") {
				inParen = true
				parenLines = append(parenLines, strings.Replace(line, "(", " ", 1))
				if !strings.Contains(line, ")") {
					continue
				}
			}
		} else {
			parenLines = append(parenLines, line)
			if !strings.Contains(line, ")") {
				continue
			}
			inParen = false
		}

		var fullLine string
		if len(parenLines) > 0 {
			fullLine = strings.ReplaceAll(strings.Join(parenLines, " "), ")", " ")
			parenLines = nil
		} else {
			fullLine = line
		}

		trimmed := strings.TrimSpace(fullLine)
		if trimmed == "" {
			continue
		}

		if strings.HasPrefix(trimmed, "$") {
			if err := p.directive(trimmed); err != nil {
				return nil, err
			}
			continue
		}

		fields := strings.Fields(trimmed)
		if len(fields) == 0 {
			continue
		}

		var owner name.Name
		if firstLineLeadingWS && haveOwner {
			owner = lastOwner
		} else {
			var err error
			owner, err = name.ParseInOrigin(fields[0], p.Origin)
			if err != nil {
				return nil, fmt.Errorf("zoneio: owner %q: %w", fields[0], err)
			}
			fields = fields[1:]
			lastOwner, haveOwner = owner, true
		}

		ttl := p.DefaultTTL
		var typ rr.Type
		var rdata []string
		for i := 0; i < len(fields); i++ {
			f := fields[i]
			upper := strings.ToUpper(f)
			if v, err := strconv.Atoi(f); err == nil {
				ttl = uint32(v)
				continue
			}
			if upper == "IN" || upper == "CH" || upper == "HS" || upper == "CS" {
				continue
			}
			if t, ok := typeByName[upper]; ok {
				typ = t
				rdata = fields[i+1:]
				break
			}
			return nil, fmt.Errorf("zoneio: unknown record type %q: %w", f, dnserr.ErrTextParse)
		}
		if typ == rr.TypeNone {
			continue
		}

		rec, err := decodeRecord(owner, typ, ttl, rdata, p.Origin)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var typeByName = map[string]rr.Type{
	"A": rr.TypeA, "AAAA": rr.TypeAAAA, "NS": rr.TypeNS, "CNAME": rr.TypeCNAME,
	"SOA": rr.TypeSOA, "PTR": rr.TypePTR, "MX": rr.TypeMX, "TXT": rr.TypeTXT,
	"SRV": rr.TypeSRV, "DNAME": rr.TypeDNAME,
}

func (p *Parser) directive(trimmed string) error {
	fields := strings.Fields(trimmed)
	if len(fields) < 2 {
		return fmt.Errorf("zoneio: malformed directive %q: %w", trimmed, dnserr.ErrTextParse)
	}
	switch strings.ToUpper(fields[0]) {
	case "$ORIGIN":
		n, err := name.Parse(fields[1])
		if err != nil {
			return fmt.Errorf("zoneio: $ORIGIN %q: %w", fields[1], err)
		}
		if !n.IsAbsolute() {
			n, err = n.Concat(p.Origin)
			if err != nil {
				return err
			}
		}
		p.Origin = n
	case "$TTL":
		v, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("zoneio: $TTL %q: %w", fields[1], err)
		}
		p.DefaultTTL = uint32(v)
	}
	return nil
}

func decodeRecord(owner name.Name, typ rr.Type, ttl uint32, fields []string, origin name.Name) (rr.Record, error) {
	rec := rr.Record{Owner: owner, Type: typ, Class: rr.ClassIN, TTL: ttl}
	switch typ {
	case rr.TypeA, rr.TypeAAAA:
		if len(fields) != 1 {
			return rr.Record{}, fmt.Errorf("zoneio: %s %s: expected one address field: %w", owner, typ, dnserr.ErrTextParse)
		}
		addr, err := parseIP(fields[0], typ == rr.TypeAAAA)
		if err != nil {
			return rr.Record{}, err
		}
		rec.Addr = addr
	case rr.TypeNS, rr.TypeCNAME, rr.TypeDNAME, rr.TypePTR:
		if len(fields) != 1 {
			return rr.Record{}, fmt.Errorf("zoneio: %s %s: expected one name field: %w", owner, typ, dnserr.ErrTextParse)
		}
		host, err := name.ParseInOrigin(fields[0], origin)
		if err != nil {
			return rr.Record{}, err
		}
		rec.Host = host
	case rr.TypeMX:
		if len(fields) != 2 {
			return rr.Record{}, fmt.Errorf("zoneio: %s MX: expected preference and exchange: %w", owner, dnserr.ErrTextParse)
		}
		pref, err := strconv.Atoi(fields[0])
		if err != nil {
			return rr.Record{}, err
		}
		exch, err := name.ParseInOrigin(fields[1], origin)
		if err != nil {
			return rr.Record{}, err
		}
		rec.MX = &rr.MXData{Preference: uint16(pref), Exchange: exch}
	case rr.TypeSRV:
		if len(fields) != 4 {
			return rr.Record{}, fmt.Errorf("zoneio: %s SRV: expected priority weight port target: %w", owner, dnserr.ErrTextParse)
		}
		prio, err := strconv.Atoi(fields[0])
		if err != nil {
			return rr.Record{}, err
		}
		weight, err := strconv.Atoi(fields[1])
		if err != nil {
			return rr.Record{}, err
		}
		port, err := strconv.Atoi(fields[2])
		if err != nil {
			return rr.Record{}, err
		}
		target, err := name.ParseInOrigin(fields[3], origin)
		if err != nil {
			return rr.Record{}, err
		}
		rec.SRV = &rr.SRVData{Priority: uint16(prio), Weight: uint16(weight), Port: uint16(port), Target: target}
	case rr.TypeSOA:
		if len(fields) != 7 {
			return rr.Record{}, fmt.Errorf("zoneio: %s SOA: expected 7 fields: %w", owner, dnserr.ErrTextParse)
		}
		mname, err := name.ParseInOrigin(fields[0], origin)
		if err != nil {
			return rr.Record{}, err
		}
		rname, err := name.ParseInOrigin(fields[1], origin)
		if err != nil {
			return rr.Record{}, err
		}
		nums := make([]uint32, 5)
		for i, f := range fields[2:] {
			v, err := strconv.ParseUint(f, 10, 32)
			if err != nil {
				return rr.Record{}, fmt.Errorf("zoneio: %s SOA field %d: %w", owner, i, err)
			}
			nums[i] = uint32(v)
		}
		rec.SOA = &rr.SOAData{MName: mname, RName: rname, Serial: nums[0], Refresh: nums[1], Retry: nums[2], Expire: nums[3], Minimum: nums[4]}
	case rr.TypeTXT:
		rec.TXT = strings.Trim(strings.Join(fields, " "), "\"")
	default:
		return rr.Record{}, fmt.Errorf("zoneio: unsupported record type %s: %w", typ, dnserr.ErrTextParse)
	}
	return rec, nil
}
