package name

import (
	"fmt"

	"github.com/bdijkstra82/dnsjava/internal/core/dnserr"
)

// emptyRelative is the zero-label relative name produced by parsing ""
// or "@"; Concat-ing it onto an origin yields the origin itself.
func emptyRelative() Name { return Name{} }

// Parse parses a name in presentation format. "." separates labels,
// "\DDD" is a three-digit decimal byte escape, "\c" is a literal byte
// for any other c. "" and "@" parse to a relative empty name (complete
// with ParseInOrigin); a trailing "." marks the name absolute.
func Parse(s string) (Name, error) {
	if s == "" || s == "@" {
		return emptyRelative(), nil
	}

	var raw []byte
	var label []byte
	absolute := false

	flush := func() error {
		if len(label) > MaxLabelLength {
			return fmt.Errorf("name: label %q: %w", label, dnserr.ErrLabelTooLong)
		}
		raw = append(raw, byte(len(label)))
		raw = append(raw, label...)
		label = nil
		return nil
	}

	i := 0
	n := len(s)
	for i < n {
		c := s[i]
		switch {
		case c == '\\':
			if i+1 >= n {
				return Name{}, fmt.Errorf("name: dangling escape: %w", dnserr.ErrTextParse)
			}
			if isDigit(s[i+1]) {
				if i+3 >= n || !isDigit(s[i+2]) || !isDigit(s[i+3]) {
					return Name{}, fmt.Errorf("name: bad \\DDD escape: %w", dnserr.ErrTextParse)
				}
				val := (int(s[i+1]-'0'))*100 + int(s[i+2]-'0')*10 + int(s[i+3]-'0')
				if val > 255 {
					return Name{}, fmt.Errorf("name: \\DDD escape out of range: %w", dnserr.ErrTextParse)
				}
				label = append(label, byte(val))
				i += 4
			} else {
				label = append(label, s[i+1])
				i += 2
			}
		case c == '.':
			if i == n-1 {
				absolute = true
				if err := flush(); err != nil {
					return Name{}, err
				}
				i++
				continue
			}
			if err := flush(); err != nil {
				return Name{}, err
			}
			i++
		default:
			label = append(label, c)
			i++
		}
	}
	if len(label) > 0 || len(raw) == 0 {
		if err := flush(); err != nil {
			return Name{}, err
		}
	}
	if absolute {
		raw = append(raw, 0)
	}
	return fromRaw(raw, absolute)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// ParseInOrigin parses s and, if the result is relative, completes it by
// appending origin (which must be absolute).
func ParseInOrigin(s string, origin Name) (Name, error) {
	if !origin.absolute {
		return Name{}, fmt.Errorf("name: origin must be absolute: %w", dnserr.ErrRelative)
	}
	n, err := Parse(s)
	if err != nil {
		return Name{}, err
	}
	if n.absolute {
		return n, nil
	}
	return n.Concat(origin)
}
