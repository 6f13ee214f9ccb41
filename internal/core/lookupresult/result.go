// Package lookupresult defines the LookupResult sum type shared by
// Cache.Lookup and Zone.Lookup (§3.8 of the spec), so the responder can
// switch over either without either store importing the other.
package lookupresult

import "github.com/bdijkstra82/dnsjava/internal/core/rr"

// Kind is the tag of the LookupResult sum type.
type Kind int

const (
	Unknown Kind = iota
	NxDomain
	NxRRset
	Delegation
	CName
	DName
	Success
)

// Result is the outcome of a Cache or Zone lookup. Only the field
// relevant to Kind is populated: RRset for Delegation/CName/DName,
// RRsets for Success (more than one member only for an ANY query).
type Result struct {
	Kind   Kind
	RRset  *rr.RRset
	RRsets []*rr.RRset
}

func UnknownResult() Result  { return Result{Kind: Unknown} }
func NxDomainResult() Result { return Result{Kind: NxDomain} }
func NxRRsetResult() Result  { return Result{Kind: NxRRset} }

func DelegationResult(s *rr.RRset) Result { return Result{Kind: Delegation, RRset: s} }
func CNameResult(s *rr.RRset) Result      { return Result{Kind: CName, RRset: s} }
func DNameResult(s *rr.RRset) Result      { return Result{Kind: DName, RRset: s} }
func SuccessResult(sets []*rr.RRset) Result {
	return Result{Kind: Success, RRsets: sets}
}
