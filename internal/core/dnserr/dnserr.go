// Package dnserr defines the sentinel error kinds shared across the core
// packages. Callers use errors.Is against these sentinels; packages wrap
// them with fmt.Errorf("...: %w", ...) for context, matching the rest of
// the codebase's error style.
package dnserr

import "errors"

var (
	// ErrWireParse means a message, record, or name was malformed on the wire.
	ErrWireParse = errors.New("dns: wire parse error")

	// ErrBadCompression means a compression pointer pointed at or past its
	// own position, or past the end of the already-read prefix.
	ErrBadCompression = errors.New("dns: bad compression pointer")

	// ErrTooManyLabels means a name exceeded MAXLABELS (128).
	ErrTooManyLabels = errors.New("dns: too many labels")

	// ErrNameTooLong means a name exceeded MAXNAME (255) wire octets.
	ErrNameTooLong = errors.New("dns: name too long")

	// ErrLabelTooLong means a single label exceeded 63 octets.
	ErrLabelTooLong = errors.New("dns: label too long")

	// ErrTextParse means a master-file or presentation-format string could
	// not be parsed.
	ErrTextParse = errors.New("dns: text parse error")

	// ErrZoneInvariant means a zone failed construction invariants (missing
	// or duplicate SOA, missing NS, owner outside origin).
	ErrZoneInvariant = errors.New("dns: zone invariant violated")

	// ErrRelative means an absolute name was required but a relative name
	// was supplied.
	ErrRelative = errors.New("dns: name is relative")

	// ErrSecurity means TSIG/SIG(0) verification failed.
	ErrSecurity = errors.New("dns: security verification failed")
)
