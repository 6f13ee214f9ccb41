package message

import (
	"fmt"

	"github.com/bdijkstra82/dnsjava/internal/core/compress"
	"github.com/bdijkstra82/dnsjava/internal/core/dnserr"
	"github.com/bdijkstra82/dnsjava/internal/core/name"
	"github.com/bdijkstra82/dnsjava/internal/core/rr"
	"github.com/bdijkstra82/dnsjava/internal/core/wire"
)

// Message is the in-memory form of one DNS message: the fixed header
// plus the four sections (§3.7). Answer/Authority/Additional are kept
// flat (record order as seen on the wire or as assembled by the
// responder) rather than pre-grouped into RRsets; Encode recovers RRset
// boundaries by grouping consecutive records sharing an owner/type/class,
// which holds for every producer in this module (cache, zone, responder
// always emit a whole RRset contiguously).
//
// OPT and TSIG pseudo-records are carried separately from Additional:
// both are logically part of the additional section on the wire, but
// both are exempt from the length-cap truncation rule (§4.3) and are
// always appended last.
type Message struct {
	Header Header

	Question   []Question
	Answer     []rr.Record
	Authority  []rr.Record
	Additional []rr.Record

	OPT  *rr.Record
	TSIG *rr.Record
}

// Decode parses a complete wire-format message out of raw.
func Decode(raw []byte) (*Message, error) {
	buf := wire.NewBuffer(raw)
	m := &Message{}

	id, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	flagWord, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	m.Header.ID = id
	readHeaderFlags(uint8(flagWord>>8), uint8(flagWord), &m.Header)

	qd, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	an, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	ns, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	ar, err := buf.ReadUint16()
	if err != nil {
		return nil, err
	}
	m.Header.QDCount, m.Header.ANCount, m.Header.NSCount, m.Header.ARCount = qd, an, ns, ar

	for i := 0; i < int(qd); i++ {
		q, err := decodeQuestion(buf)
		if err != nil {
			return nil, err
		}
		m.Question = append(m.Question, q)
	}
	for i := 0; i < int(an); i++ {
		r, err := rr.Decode(buf)
		if err != nil {
			return nil, err
		}
		m.Answer = append(m.Answer, r)
	}
	for i := 0; i < int(ns); i++ {
		r, err := rr.Decode(buf)
		if err != nil {
			return nil, err
		}
		m.Authority = append(m.Authority, r)
	}
	for i := 0; i < int(ar); i++ {
		r, err := rr.Decode(buf)
		if err != nil {
			return nil, err
		}
		switch r.Type {
		case rr.TypeOPT:
			rc := r
			m.OPT = &rc
		case rr.TypeTSIG:
			rc := r
			m.TSIG = &rc
		default:
			m.Additional = append(m.Additional, r)
		}
	}
	return m, nil
}

// group partitions records into maximal runs sharing the same owner,
// type and class — the RRset boundaries a truncating Encode must not
// split mid-set.
func group(records []rr.Record) [][]rr.Record {
	var out [][]rr.Record
	for _, r := range records {
		if n := len(out); n > 0 {
			last := out[n-1]
			h := last[0]
			if h.Owner.Equal(r.Owner) && h.Type == r.Type && h.Class == r.Class {
				out[n-1] = append(last, r)
				continue
			}
		}
		out = append(out, []rr.Record{r})
	}
	return out
}

// Encode serializes m. maxSize caps the total wire length (the UDP
// responder passes the negotiated EDNS0/classic payload size; the TCP
// responder passes 0, meaning unlimited — truncation is a UDP-only
// concept per §4.3). OPT and TSIG, if set, are always appended in full
// regardless of the cap; if fitting the rest of the message would
// require splitting an RRset, Encode rolls back to the last complete
// RRset boundary, zeros the counts of that section and every section
// after it, and sets the header's Truncated bit.
func (m *Message) Encode(maxSize int) ([]byte, error) {
	if maxSize > 0 && maxSize < 12 {
		return nil, fmt.Errorf("message: max length %d smaller than fixed header: %w", maxSize, dnserr.ErrWireParse)
	}

	tbl := compress.New()
	buf := wire.NewWriter(512)

	headerPos := buf.Pos()
	if err := m.Header.writePlaceholder(buf); err != nil {
		return nil, err
	}
	for _, q := range m.Question {
		if err := q.encode(buf, tbl); err != nil {
			return nil, err
		}
	}

	reserve := 0
	if m.OPT != nil || m.TSIG != nil {
		scratch := wire.NewWriter(64)
		if m.OPT != nil {
			if _, err := m.OPT.Encode(scratch, nil); err != nil {
				return nil, err
			}
		}
		if m.TSIG != nil {
			if _, err := m.TSIG.Encode(scratch, nil); err != nil {
				return nil, err
			}
		}
		reserve = scratch.Pos()
	}

	budget := 1<<30 - 1
	if maxSize > 0 {
		budget = maxSize - reserve
	}

	// ANSWER and AUTHORITY are the sections the length cap truncates:
	// overflow there rolls back to the last RRset boundary, sets TC and
	// (per the source's own behavior, left intentionally unchanged —
	// see the Design Notes open question on this) skips any later
	// non-ADDITIONAL section while still attempting ADDITIONAL.
	ancount, truncated := encodeSection(buf, tbl, group(m.Answer), budget, true)
	nscount := uint16(0)
	if !truncated {
		var authTrunc bool
		nscount, authTrunc = encodeSection(buf, tbl, group(m.Authority), budget, true)
		truncated = truncated || authTrunc
	}
	// ADDITIONAL never sets TC: a record that doesn't fit is simply
	// dropped (§8 boundary case).
	ar2count, _ := encodeSection(buf, tbl, group(m.Additional), budget, false)

	arcount := ar2count
	if m.OPT != nil {
		if _, err := m.OPT.Encode(buf, nil); err != nil {
			return nil, err
		}
		arcount++
	}
	if m.TSIG != nil {
		if _, err := m.TSIG.Encode(buf, nil); err != nil {
			return nil, err
		}
		arcount++
	}

	m.Header.Truncated = truncated
	if err := m.Header.patch(buf, headerPos, uint16(len(m.Question)), ancount, nscount, arcount); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeSection writes each RRset group in order, stopping and rolling
// back to the last group boundary once buf would exceed budget. When
// setsTC is false (the ADDITIONAL section), overflow still rolls back
// but is not reported as truncation.
func encodeSection(buf *wire.Buffer, tbl name.CompressionTable, groups [][]rr.Record, budget int, setsTC bool) (count uint16, truncated bool) {
	for _, g := range groups {
		mark := buf.Save()
		ok := true
		for _, r := range g {
			if _, err := r.Encode(buf, tbl); err != nil {
				ok = false
				break
			}
		}
		if !ok || buf.Pos() > budget {
			buf.Truncate(int(mark))
			return count, setsTC
		}
		count += uint16(len(g))
	}
	return count, false
}

func (h *Header) writePlaceholder(buf *wire.Buffer) error {
	if err := buf.WriteUint16(h.ID); err != nil {
		return err
	}
	a, b := writeHeaderFlags(h)
	if err := buf.WriteUint16(uint16(a)<<8 | uint16(b)); err != nil {
		return err
	}
	for i := 0; i < 4; i++ {
		if err := buf.WriteUint16(0); err != nil {
			return err
		}
	}
	return nil
}

func (h *Header) patch(buf *wire.Buffer, headerPos int, qd, an, ns, ar uint16) error {
	a, b := writeHeaderFlags(h)
	if err := buf.WriteUint16At(headerPos+2, uint16(a)<<8|uint16(b)); err != nil {
		return fmt.Errorf("message: patch flags: %w", err)
	}
	if err := buf.WriteUint16At(headerPos+4, qd); err != nil {
		return err
	}
	if err := buf.WriteUint16At(headerPos+6, an); err != nil {
		return err
	}
	if err := buf.WriteUint16At(headerPos+8, ns); err != nil {
		return err
	}
	return buf.WriteUint16At(headerPos+10, ar)
}
