// Package name implements the canonical domain-name value object: wire
// decode/encode with RFC 1035 compression-pointer following, text
// parse/format, case-insensitive equality and ordering, and the
// subdomain/wildcard operations the zone and cache lookup state machines
// depend on.
//
// A Name is immutable after construction and safe to share freely across
// goroutines (§5 of the spec).
package name

import (
	"fmt"
	"strings"

	"github.com/bdijkstra82/dnsjava/internal/core/dnserr"
	"github.com/bdijkstra82/dnsjava/internal/core/wire"
)

const (
	// MaxLabels is the maximum number of labels (including the root) a
	// name may have.
	MaxLabels = 128
	// MaxWireLength is the maximum total wire-format length of a name.
	MaxWireLength = 255
	// MaxLabelLength is the maximum length of a single label.
	MaxLabelLength = 63
	// cachedOffsets is the number of label-start offsets kept inline
	// before falling back to recomputing by walking the raw bytes.
	cachedOffsets = 7
)

// Name is an ordered sequence of labels stored canonically as
// length-prefixed labels, terminated by a zero-length root label when
// absolute.
type Name struct {
	raw       []byte
	absolute  bool
	numLabels uint8
	offsets   [cachedOffsets]uint16
}

// Root is the zero-length absolute root name ".".
func Root() Name {
	return Name{raw: []byte{0}, absolute: true, numLabels: 1, offsets: [cachedOffsets]uint16{0}}
}

func fromRaw(raw []byte, absolute bool) (Name, error) {
	n := Name{raw: raw, absolute: absolute}
	pos := 0
	count := 0
	for pos < len(raw) {
		if count < cachedOffsets {
			n.offsets[count] = uint16(pos)
		}
		count++
		if count > MaxLabels {
			return Name{}, fmt.Errorf("name: %d labels: %w", count, dnserr.ErrTooManyLabels)
		}
		l := int(raw[pos])
		if l == 0 {
			pos++
			break
		}
		pos += 1 + l
	}
	if pos != len(raw) {
		return Name{}, fmt.Errorf("name: malformed label stream: %w", dnserr.ErrWireParse)
	}
	if len(raw) > MaxWireLength {
		return Name{}, fmt.Errorf("name: %d octets: %w", len(raw), dnserr.ErrNameTooLong)
	}
	n.numLabels = uint8(count)
	return n, nil
}

// allOffsets returns the byte offset, within raw, of every label's
// length byte. For names with more than the cached fast-path count it is
// recomputed by walking the raw bytes (§3.1).
func (n Name) allOffsets() []int {
	if int(n.numLabels) <= cachedOffsets {
		out := make([]int, n.numLabels)
		for i := range out {
			out[i] = int(n.offsets[i])
		}
		return out
	}
	out := make([]int, 0, n.numLabels)
	pos := 0
	for pos < len(n.raw) {
		out = append(out, pos)
		l := int(n.raw[pos])
		pos += 1 + l
		if l == 0 {
			break
		}
	}
	return out
}

// Labels returns the number of labels, including the terminating root
// label for an absolute name.
func (n Name) Labels() int { return int(n.numLabels) }

// IsAbsolute reports whether the name ends with the zero-length root
// label.
func (n Name) IsAbsolute() bool { return n.absolute }

// IsWild reports whether the first label is the single byte "*".
func (n Name) IsWild() bool {
	if n.numLabels == 0 || len(n.raw) == 0 {
		return false
	}
	l := int(n.raw[0])
	return l == 1 && n.raw[1] == '*'
}

// Label returns the raw bytes (no length prefix) of the i-th label,
// counting from the leftmost (most specific) label.
func (n Name) Label(i int) []byte {
	offs := n.allOffsets()
	if i < 0 || i >= len(offs) {
		return nil
	}
	start := offs[i]
	l := int(n.raw[start])
	return n.raw[start+1 : start+1+l]
}

// WireLength returns the total encoded length in bytes.
func (n Name) WireLength() int { return len(n.raw) }

// Raw returns the uncompressed wire-format bytes (length-prefixed
// labels). The canonical, case-normalized form used as a signing input
// is Canonical().Raw().
func (n Name) Raw() []byte { return n.raw }

func asciiLower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 32
	}
	return c
}

func labelEqualFold(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if asciiLower(a[i]) != asciiLower(b[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether two names compare equal case-insensitively,
// label by label.
func (n Name) Equal(o Name) bool {
	if n.numLabels != o.numLabels || n.absolute != o.absolute {
		return false
	}
	no, oo := n.allOffsets(), o.allOffsets()
	for i := range no {
		ln := int(n.raw[no[i]])
		lo := int(o.raw[oo[i]])
		if ln != lo {
			return false
		}
		if !labelEqualFold(n.raw[no[i]+1:no[i]+1+ln], o.raw[oo[i]+1:oo[i]+1+lo]) {
			return false
		}
	}
	return true
}

// Hash returns a case-insensitive multiplicative-accumulator hash; equal
// names always hash equal.
func (n Name) Hash() uint32 {
	var h uint32 = 5381
	for _, c := range n.raw {
		h = h*33 + uint32(asciiLower(c))
	}
	return h
}

// CacheKey returns a comparable, hashable string suitable for use as a
// map key for this name, case-folded so equal names collide.
func (n Name) CacheKey() string {
	out := make([]byte, len(n.raw))
	for i, c := range n.raw {
		out[i] = asciiLower(c)
	}
	return string(out)
}

// Subdomain reports whether other's labels are a trailing (suffix) match
// of self's labels — i.e. self is other, or a descendant of other.
func (n Name) Subdomain(other Name) bool {
	if other.numLabels > n.numLabels {
		return false
	}
	selfOffs := n.allOffsets()
	otherOffs := other.allOffsets()
	skip := len(selfOffs) - len(otherOffs)
	for i := range otherOffs {
		so := selfOffs[skip+i]
		oo := otherOffs[i]
		sl := int(n.raw[so])
		ol := int(other.raw[oo])
		if sl != ol || !labelEqualFold(n.raw[so+1:so+1+sl], other.raw[oo+1:oo+1+ol]) {
			return false
		}
	}
	return true
}

// Suffix returns the trailing k labels of n as a new absolute Name (k
// counts the root label, so Suffix(1) is always the root).
func (n Name) Suffix(k int) Name {
	if k >= int(n.numLabels) {
		return n
	}
	offs := n.allOffsets()
	start := offs[len(offs)-k]
	raw := make([]byte, len(n.raw)-start)
	copy(raw, n.raw[start:])
	out, _ := fromRaw(raw, true)
	return out
}

// StripWild returns a copy of n with the leading wildcard label removed,
// requiring IsWild() to hold.
func (n Name) StripWild() Name {
	offs := n.allOffsets()
	if len(offs) < 2 {
		return n
	}
	start := offs[1]
	raw := make([]byte, len(n.raw)-start)
	copy(raw, n.raw[start:])
	out, _ := fromRaw(raw, n.absolute)
	return out
}

// Concat appends other's labels to n, requiring n be relative and other
// be the absolute (or relative) continuation; used to complete a
// relative text-parsed name against an origin.
func (n Name) Concat(other Name) (Name, error) {
	if n.absolute {
		return n, nil
	}
	raw := make([]byte, 0, len(n.raw)+len(other.raw))
	raw = append(raw, n.raw...)
	raw = append(raw, other.raw...)
	return fromRaw(raw, other.absolute)
}

// FromDNAME synthesizes the CNAME target produced when qname (a
// descendant of the DNAME owner) is redirected by a DNAME record:
// replace the owner suffix with the DNAME's target. Fails with
// dnserr.ErrNameTooLong if the result exceeds MaxWireLength (YXDOMAIN at
// the responder layer).
func FromDNAME(qname, owner, target Name) (Name, error) {
	offs := qname.allOffsets()
	ownerOffs := owner.allOffsets()
	skip := len(offs) - len(ownerOffs)
	if skip < 0 {
		return Name{}, fmt.Errorf("name: qname shorter than dname owner: %w", dnserr.ErrWireParse)
	}
	prefixEnd := offs[skip]
	raw := make([]byte, 0, prefixEnd+len(target.raw))
	raw = append(raw, qname.raw[:prefixEnd]...)
	raw = append(raw, target.raw...)
	if len(raw) > MaxWireLength {
		return Name{}, fmt.Errorf("name: dname synthesis exceeds 255 octets: %w", dnserr.ErrNameTooLong)
	}
	return fromRaw(raw, target.absolute)
}

// Wildcard prepends a "*" label to suffix, used by zone lookup to build
// the candidate wildcard owner "*.example." for each proper suffix of a
// query name (§4.5).
func Wildcard(suffix Name) (Name, error) {
	raw := make([]byte, 0, 2+len(suffix.raw))
	raw = append(raw, 1, '*')
	raw = append(raw, suffix.raw...)
	return fromRaw(raw, suffix.absolute)
}

// Compare implements canonical DNS name ordering (RFC 4034 §6.1):
// compare label by label from the root end; shorter names sort first on
// a common prefix.
func (n Name) Compare(o Name) int {
	no, oo := n.allOffsets(), o.allOffsets()
	i, j := len(no)-1, len(oo)-1
	for i >= 0 && j >= 0 {
		ln := int(n.raw[no[i]])
		lo := int(o.raw[oo[j]])
		a := n.raw[no[i]+1 : no[i]+1+ln]
		b := o.raw[oo[j]+1 : oo[j]+1+lo]
		if c := compareLabelFold(a, b); c != 0 {
			return c
		}
		i--
		j--
	}
	switch {
	case len(no) < len(oo):
		return -1
	case len(no) > len(oo):
		return 1
	default:
		return 0
	}
}

func compareLabelFold(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ca, cb := asciiLower(a[i]), asciiLower(b[i])
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// String renders the name in presentation (text) format, escaping
// non-printable bytes as \DDD and '.'/'\\' as \c.
func (n Name) String() string {
	if n.numLabels == 0 {
		return ""
	}
	var sb strings.Builder
	offs := n.allOffsets()
	for idx, start := range offs {
		l := int(n.raw[start])
		if l == 0 {
			break
		}
		if idx > 0 {
			sb.WriteByte('.')
		}
		label := n.raw[start+1 : start+1+l]
		for _, c := range label {
			switch {
			case c == '.' || c == '\\':
				sb.WriteByte('\\')
				sb.WriteByte(c)
			case c < 0x21 || c > 0x7e:
				sb.WriteString(fmt.Sprintf("\\%03d", c))
			default:
				sb.WriteByte(c)
			}
		}
	}
	if n.absolute {
		sb.WriteByte('.')
	}
	if sb.Len() == 0 {
		return "."
	}
	return sb.String()
}

// DecodeWire reads a domain name from buf, following compression
// pointers per RFC 1035 §4.1.4. The reader's cursor is left positioned
// immediately after the name (after the pointer, on first use, if one
// was followed).
func DecodeWire(buf *wire.Buffer) (Name, error) {
	start := buf.Pos()
	var raw []byte
	pos := start
	jumped := false
	resumeAt := -1
	labelCount := 0

	for {
		lenByte, err := buf.PeekByte(pos)
		if err != nil {
			return Name{}, err
		}
		top2 := lenByte & 0xC0
		switch top2 {
		case 0x00:
			l := int(lenByte)
			if l == 0 {
				raw = append(raw, 0)
				pos++
				labelCount++
				if jumped {
					buf.Restore(wire.Bookmark(resumeAt))
				} else {
					buf.Restore(wire.Bookmark(pos))
				}
				return fromRaw(raw, true)
			}
			label, err := buf.ReadRange(pos+1, l)
			if err != nil {
				return Name{}, err
			}
			raw = append(raw, byte(l))
			raw = append(raw, label...)
			pos += 1 + l
			labelCount++
			if labelCount > MaxLabels {
				return Name{}, fmt.Errorf("name: wire decode: %w", dnserr.ErrTooManyLabels)
			}
			if len(raw) > MaxWireLength {
				return Name{}, fmt.Errorf("name: wire decode: %w", dnserr.ErrNameTooLong)
			}
		case 0xC0:
			b2, err := buf.PeekByte(pos + 1)
			if err != nil {
				return Name{}, err
			}
			target := int(lenByte&0x3F)<<8 | int(b2)
			if target >= pos-2 {
				return Name{}, fmt.Errorf("name: pointer target %d from %d: %w", target, pos, dnserr.ErrBadCompression)
			}
			if !jumped {
				resumeAt = pos + 2
			}
			jumped = true
			pos = target
		default:
			return Name{}, fmt.Errorf("name: label type %#x: %w", top2, dnserr.ErrWireParse)
		}
	}
}

// EncodeWire writes n to the compression table tbl (nil disables
// compression) and buf, per RFC 1035 §4.1.4.
func (n Name) EncodeWire(buf *wire.Buffer, tbl CompressionTable) error {
	if !n.absolute {
		return fmt.Errorf("name: encode requires absolute name: %w", dnserr.ErrRelative)
	}
	offs := n.allOffsets()
	for i := 0; i < len(offs)-1; i++ {
		suffix := n.Suffix(len(offs) - i)
		if tbl != nil {
			if ptr, ok := tbl.Get(suffix); ok {
				return buf.WriteUint16(uint16(ptr) | 0xC000)
			}
			if buf.Pos() <= 0x3FFF {
				tbl.Add(buf.Pos(), suffix)
			}
		}
		start := offs[i]
		l := int(n.raw[start])
		if err := buf.WriteByte(byte(l)); err != nil {
			return err
		}
		if err := buf.WriteBytes(n.raw[start+1 : start+1+l]); err != nil {
			return err
		}
	}
	return buf.WriteByte(0)
}

// Canonical returns a case-normalized copy of n, used as a signing
// input.
func (n Name) Canonical() Name {
	raw := make([]byte, len(n.raw))
	pos := 0
	for pos < len(n.raw) {
		l := int(n.raw[pos])
		raw[pos] = n.raw[pos]
		pos++
		if l == 0 {
			break
		}
		for i := 0; i < l; i++ {
			raw[pos+i] = asciiLower(n.raw[pos+i])
		}
		pos += l
	}
	out, _ := fromRaw(raw, n.absolute)
	return out
}

// CompressionTable is the interface Name.EncodeWire uses to look up and
// record suffix offsets; implemented by the compress package.
type CompressionTable interface {
	Get(n Name) (int, bool)
	Add(offset int, n Name)
}
