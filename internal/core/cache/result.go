package cache

import (
	"github.com/bdijkstra82/dnsjava/internal/core/lookupresult"
	"github.com/bdijkstra82/dnsjava/internal/core/rr"
)

// LookupResult is the outcome of a Cache lookup (§3.8); aliased from the
// shared lookupresult package so Zone.Lookup's result type unifies with
// Cache.Lookup's for the responder.
type LookupResult = lookupresult.Result

const (
	ResultUnknown    = lookupresult.Unknown
	ResultNxDomain   = lookupresult.NxDomain
	ResultNxRRset    = lookupresult.NxRRset
	ResultDelegation = lookupresult.Delegation
	ResultCName      = lookupresult.CName
	ResultDName      = lookupresult.DName
	ResultSuccess    = lookupresult.Success
)

func unknownResult() LookupResult  { return lookupresult.UnknownResult() }
func nxDomainResult() LookupResult { return lookupresult.NxDomainResult() }
func nxRRsetResult() LookupResult  { return lookupresult.NxRRsetResult() }

func delegationResult(s *rr.RRset) LookupResult   { return lookupresult.DelegationResult(s) }
func cnameResult(s *rr.RRset) LookupResult        { return lookupresult.CNameResult(s) }
func dnameResult(s *rr.RRset) LookupResult        { return lookupresult.DNameResult(s) }
func successResult(sets []*rr.RRset) LookupResult { return lookupresult.SuccessResult(sets) }
