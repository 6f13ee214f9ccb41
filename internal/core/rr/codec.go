package rr

import (
	"fmt"

	"github.com/bdijkstra82/dnsjava/internal/core/dnserr"
	"github.com/bdijkstra82/dnsjava/internal/core/name"
	"github.com/bdijkstra82/dnsjava/internal/core/wire"
)

// Decode reads one resource record (owner, type, class, ttl, rdlength,
// rdata) from buf. The rdata sub-decoder for the record's type MUST
// consume exactly rdlength bytes; any excess or shortfall is
// dnserr.ErrWireParse (§4.3).
func Decode(buf *wire.Buffer) (Record, error) {
	owner, err := name.DecodeWire(buf)
	if err != nil {
		return Record{}, err
	}
	typ, err := buf.ReadUint16()
	if err != nil {
		return Record{}, err
	}
	class, err := buf.ReadUint16()
	if err != nil {
		return Record{}, err
	}
	ttl, err := buf.ReadUint32()
	if err != nil {
		return Record{}, err
	}
	rdlen, err := buf.ReadUint16()
	if err != nil {
		return Record{}, err
	}
	start := buf.Pos()

	r := Record{Owner: owner, Type: Type(typ), Class: Class(class), TTL: ttl}
	if err := decodeRDATA(&r, buf, int(rdlen)); err != nil {
		return Record{}, err
	}
	consumed := buf.Pos() - start
	if consumed != int(rdlen) {
		return Record{}, fmt.Errorf("rr: type %s consumed %d of %d rdata bytes: %w", r.Type, consumed, rdlen, dnserr.ErrWireParse)
	}
	return r, nil
}

func decodeRDATA(r *Record, buf *wire.Buffer, rdlen int) error {
	start := buf.Pos()
	switch r.Type {
	case TypeA:
		addr, err := buf.ReadBytes(4)
		if err != nil {
			return err
		}
		r.Addr = addr
	case TypeAAAA:
		addr, err := buf.ReadBytes(16)
		if err != nil {
			return err
		}
		r.Addr = addr
	case TypeNS, TypeCNAME, TypeDNAME, TypePTR:
		host, err := name.DecodeWire(buf)
		if err != nil {
			return err
		}
		r.Host = host
	case TypeMX:
		pref, err := buf.ReadUint16()
		if err != nil {
			return err
		}
		exch, err := name.DecodeWire(buf)
		if err != nil {
			return err
		}
		r.MX = &MXData{Preference: pref, Exchange: exch}
	case TypeSOA:
		mname, err := name.DecodeWire(buf)
		if err != nil {
			return err
		}
		rname, err := name.DecodeWire(buf)
		if err != nil {
			return err
		}
		serial, err := buf.ReadUint32()
		if err != nil {
			return err
		}
		refresh, err := buf.ReadUint32()
		if err != nil {
			return err
		}
		retry, err := buf.ReadUint32()
		if err != nil {
			return err
		}
		expire, err := buf.ReadUint32()
		if err != nil {
			return err
		}
		minimum, err := buf.ReadUint32()
		if err != nil {
			return err
		}
		r.SOA = &SOAData{MName: mname, RName: rname, Serial: serial, Refresh: refresh, Retry: retry, Expire: expire, Minimum: minimum}
	case TypeTXT:
		remaining := rdlen
		var txt []byte
		for remaining > 0 {
			l, err := buf.ReadByte()
			if err != nil {
				return err
			}
			chunk, err := buf.ReadBytes(int(l))
			if err != nil {
				return err
			}
			txt = append(txt, chunk...)
			remaining -= 1 + int(l)
		}
		r.TXT = string(txt)
	case TypeSRV:
		prio, err := buf.ReadUint16()
		if err != nil {
			return err
		}
		weight, err := buf.ReadUint16()
		if err != nil {
			return err
		}
		port, err := buf.ReadUint16()
		if err != nil {
			return err
		}
		target, err := name.DecodeWire(buf)
		if err != nil {
			return err
		}
		r.SRV = &SRVData{Priority: prio, Weight: weight, Port: port, Target: target}
	case TypeOPT:
		opt := &OPTData{
			UDPSize:  uint16(r.Class),
			ExtRCode: uint8(r.TTL >> 24),
			Version:  uint8(r.TTL >> 16),
			DO:       r.TTL&0x8000 != 0,
		}
		remaining := rdlen
		for remaining >= 4 {
			code, err := buf.ReadUint16()
			if err != nil {
				return err
			}
			l, err := buf.ReadUint16()
			if err != nil {
				return err
			}
			if int(l) > remaining-4 {
				return fmt.Errorf("rr: opt option length overruns rdata: %w", dnserr.ErrWireParse)
			}
			data, err := buf.ReadBytes(int(l))
			if err != nil {
				return err
			}
			opt.Options = append(opt.Options, EDNSOption{Code: code, Data: data})
			remaining -= 4 + int(l)
		}
		r.OPT = opt
	case TypeTSIG:
		alg, err := name.DecodeWire(buf)
		if err != nil {
			return err
		}
		hi, err := buf.ReadUint16()
		if err != nil {
			return err
		}
		lo, err := buf.ReadUint32()
		if err != nil {
			return err
		}
		fudge, err := buf.ReadUint16()
		if err != nil {
			return err
		}
		macLen, err := buf.ReadUint16()
		if err != nil {
			return err
		}
		mac, err := buf.ReadBytes(int(macLen))
		if err != nil {
			return err
		}
		origID, err := buf.ReadUint16()
		if err != nil {
			return err
		}
		errCode, err := buf.ReadUint16()
		if err != nil {
			return err
		}
		otherLen, err := buf.ReadUint16()
		if err != nil {
			return err
		}
		other, err := buf.ReadBytes(int(otherLen))
		if err != nil {
			return err
		}
		r.TSIGRec = &TSIGData{
			Algorithm:  alg,
			TimeSigned: uint64(hi)<<32 | uint64(lo),
			Fudge:      fudge,
			MAC:        mac,
			OriginalID: origID,
			Error:      errCode,
			Other:      other,
		}
	default:
		data, err := buf.ReadBytes(rdlen)
		if err != nil {
			return err
		}
		r.RDATA = data
		return nil
	}
	_ = start
	return nil
}

// Encode writes r to buf, using tbl (if non-nil) to compress any names
// the owner or rdata carry. It returns the number of bytes written.
func (r Record) Encode(buf *wire.Buffer, tbl name.CompressionTable) (int, error) {
	start := buf.Pos()
	if err := r.Owner.EncodeWire(buf, tbl); err != nil {
		return 0, err
	}
	if err := buf.WriteUint16(uint16(r.Type)); err != nil {
		return 0, err
	}

	if r.Type == TypeOPT && r.OPT != nil {
		if err := buf.WriteUint16(r.OPT.UDPSize); err != nil {
			return 0, err
		}
		ttl := uint32(r.OPT.ExtRCode)<<24 | uint32(r.OPT.Version)<<16
		if r.OPT.DO {
			ttl |= 0x8000
		}
		if err := buf.WriteUint32(ttl); err != nil {
			return 0, err
		}
	} else {
		if err := buf.WriteUint16(uint16(r.Class)); err != nil {
			return 0, err
		}
		if err := buf.WriteUint32(r.TTL); err != nil {
			return 0, err
		}
	}

	rdlenPos := buf.Pos()
	if err := buf.WriteUint16(0); err != nil {
		return 0, err
	}
	rdStart := buf.Pos()
	if err := encodeRDATA(r, buf, tbl); err != nil {
		return 0, err
	}
	rdLen := buf.Pos() - rdStart
	if err := buf.WriteUint16At(rdlenPos, uint16(rdLen)); err != nil {
		return 0, err
	}
	return buf.Pos() - start, nil
}

func encodeRDATA(r Record, buf *wire.Buffer, tbl name.CompressionTable) error {
	switch r.Type {
	case TypeA:
		return buf.WriteBytes(r.Addr)
	case TypeAAAA:
		return buf.WriteBytes(r.Addr)
	case TypeNS, TypeCNAME, TypeDNAME, TypePTR:
		return r.Host.EncodeWire(buf, tbl)
	case TypeMX:
		if err := buf.WriteUint16(r.MX.Preference); err != nil {
			return err
		}
		return r.MX.Exchange.EncodeWire(buf, tbl)
	case TypeSOA:
		if err := r.SOA.MName.EncodeWire(buf, tbl); err != nil {
			return err
		}
		if err := r.SOA.RName.EncodeWire(buf, tbl); err != nil {
			return err
		}
		for _, v := range []uint32{r.SOA.Serial, r.SOA.Refresh, r.SOA.Retry, r.SOA.Expire, r.SOA.Minimum} {
			if err := buf.WriteUint32(v); err != nil {
				return err
			}
		}
		return nil
	case TypeTXT:
		txt := r.TXT
		for len(txt) > 255 {
			if err := buf.WriteByte(255); err != nil {
				return err
			}
			if err := buf.WriteBytes([]byte(txt[:255])); err != nil {
				return err
			}
			txt = txt[255:]
		}
		if err := buf.WriteByte(byte(len(txt))); err != nil {
			return err
		}
		return buf.WriteBytes([]byte(txt))
	case TypeSRV:
		if err := buf.WriteUint16(r.SRV.Priority); err != nil {
			return err
		}
		if err := buf.WriteUint16(r.SRV.Weight); err != nil {
			return err
		}
		if err := buf.WriteUint16(r.SRV.Port); err != nil {
			return err
		}
		return r.SRV.Target.EncodeWire(buf, nil) // SRV targets are not compressed (RFC 2782)
	case TypeOPT:
		for _, opt := range r.OPT.Options {
			if err := buf.WriteUint16(opt.Code); err != nil {
				return err
			}
			if err := buf.WriteUint16(uint16(len(opt.Data))); err != nil {
				return err
			}
			if err := buf.WriteBytes(opt.Data); err != nil {
				return err
			}
		}
		return nil
	case TypeTSIG:
		t := r.TSIGRec
		if err := t.Algorithm.EncodeWire(buf, nil); err != nil {
			return err
		}
		if err := buf.WriteUint16(uint16(t.TimeSigned >> 32)); err != nil {
			return err
		}
		if err := buf.WriteUint32(uint32(t.TimeSigned & 0xFFFFFFFF)); err != nil {
			return err
		}
		if err := buf.WriteUint16(t.Fudge); err != nil {
			return err
		}
		if err := buf.WriteUint16(uint16(len(t.MAC))); err != nil {
			return err
		}
		if err := buf.WriteBytes(t.MAC); err != nil {
			return err
		}
		if err := buf.WriteUint16(t.OriginalID); err != nil {
			return err
		}
		if err := buf.WriteUint16(t.Error); err != nil {
			return err
		}
		if err := buf.WriteUint16(uint16(len(t.Other))); err != nil {
			return err
		}
		return buf.WriteBytes(t.Other)
	default:
		return buf.WriteBytes(r.RDATA)
	}
}
